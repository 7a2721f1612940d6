package models

import (
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

const (
	DefaultMass      = 1.0
	DefaultStiffness = 1.0
	DefaultDamping   = 1.0
)

var _ dynamo.System = (*SpringMass)(nil)

// SpringMass is a mass-spring-damper driven by a force.
// State [pos, vel], input [force], output [pos].
type SpringMass struct {
	Mass      float64
	Stiffness float64
	Damping   float64
}

func NewSpringMass() *SpringMass {
	return &SpringMass{
		Mass:      DefaultMass,
		Stiffness: DefaultStiffness,
		Damping:   DefaultDamping,
	}
}

// NewSecondOrder is a unit-mass oscillator x'' = -k x - c x' + u.
func NewSecondOrder(k, c float64) *SpringMass {
	return &SpringMass{Mass: 1, Stiffness: k, Damping: c}
}

func (s *SpringMass) StateShape() vec.Shape  { return vec.Leaf(2) }
func (s *SpringMass) InputShape() vec.Shape  { return vec.Leaf(1) }
func (s *SpringMass) OutputShape() vec.Shape { return vec.Leaf(1) }

func (s *SpringMass) Output(_ float64, x, _ vec.Vector) (vec.Vector, error) {
	if err := expect("state", s.StateShape(), x); err != nil {
		return vec.Vector{}, err
	}
	return vec.New(x.At(0)), nil
}

func (s *SpringMass) Derivative(_ float64, x, u vec.Vector) (vec.Vector, error) {
	if err := expect("state", s.StateShape(), x); err != nil {
		return vec.Vector{}, err
	}
	if err := expect("input", s.InputShape(), u); err != nil {
		return vec.Vector{}, err
	}
	pos, vel := x.At(0), x.At(1)
	acc := (-s.Stiffness*pos - s.Damping*vel + u.At(0)) / s.Mass
	return vec.New(vel, acc), nil
}

func (s *SpringMass) Energy(x vec.Vector) float64 {
	pos, vel := x.At(0), x.At(1)
	return 0.5*s.Mass*vel*vel + 0.5*s.Stiffness*pos*pos
}

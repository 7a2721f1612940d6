package models

import (
	"math"

	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

var _ dynamo.System = (*Pendulum)(nil)

// Pendulum is a damped pendulum driven by a torque.
// State [theta, omega], input [torque], output [theta].
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    1.0,
		Length:  1.0,
		Damping: 0.1,
		Gravity: 9.81,
	}
}

func (p *Pendulum) StateShape() vec.Shape  { return vec.Leaf(2) }
func (p *Pendulum) InputShape() vec.Shape  { return vec.Leaf(1) }
func (p *Pendulum) OutputShape() vec.Shape { return vec.Leaf(1) }

func (p *Pendulum) Output(_ float64, x, _ vec.Vector) (vec.Vector, error) {
	if err := expect("state", p.StateShape(), x); err != nil {
		return vec.Vector{}, err
	}
	return vec.New(x.At(0)), nil
}

func (p *Pendulum) Derivative(_ float64, x, u vec.Vector) (vec.Vector, error) {
	if err := expect("state", p.StateShape(), x); err != nil {
		return vec.Vector{}, err
	}
	if err := expect("input", p.InputShape(), u); err != nil {
		return vec.Vector{}, err
	}
	theta, omega := x.At(0), x.At(1)
	torque := u.At(0)
	inertia := p.Mass * p.Length * p.Length
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + torque) / inertia
	return vec.New(omega, alpha), nil
}

func (p *Pendulum) Energy(x vec.Vector) float64 {
	theta, omega := x.At(0), x.At(1)
	kinetic := 0.5 * p.Mass * p.Length * p.Length * omega * omega
	potential := p.Mass * p.Gravity * p.Length * (1 - math.Cos(theta))
	return kinetic + potential
}

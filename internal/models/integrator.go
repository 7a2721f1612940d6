package models

import (
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

var _ dynamo.System = (*Integrator)(nil)

// Integrator is a pure integrator, dx/dt = u, y = x.
type Integrator struct {
	n int
}

func NewIntegrator(n int) *Integrator {
	return &Integrator{n: n}
}

func (i *Integrator) StateShape() vec.Shape  { return vec.Leaf(i.n) }
func (i *Integrator) InputShape() vec.Shape  { return vec.Leaf(i.n) }
func (i *Integrator) OutputShape() vec.Shape { return vec.Leaf(i.n) }

func (i *Integrator) Output(_ float64, x, _ vec.Vector) (vec.Vector, error) {
	if err := expect("state", i.StateShape(), x); err != nil {
		return vec.Vector{}, err
	}
	return x, nil
}

func (i *Integrator) Derivative(_ float64, _, u vec.Vector) (vec.Vector, error) {
	if err := expect("input", i.InputShape(), u); err != nil {
		return vec.Vector{}, err
	}
	return u, nil
}

package integrators

import (
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x, u vec.Vector, t, dt float64) (vec.Vector, error) {
	dx, err := sys.Derivative(t, x, u)
	if err != nil {
		return vec.Vector{}, err
	}
	return combine(x, dt, []float64{1}, dx)
}

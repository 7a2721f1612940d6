package integrators

import (
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

var rk4Weights = []float64{1.0 / 6.0, 2.0 / 6.0, 2.0 / 6.0, 1.0 / 6.0}

type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys dynamo.System, x, u vec.Vector, t, dt float64) (vec.Vector, error) {
	k1, err := sys.Derivative(t, x, u)
	if err != nil {
		return vec.Vector{}, err
	}

	x2, err := combine(x, dt, []float64{0.5}, k1)
	if err != nil {
		return vec.Vector{}, err
	}
	k2, err := sys.Derivative(t+dt*0.5, x2, u)
	if err != nil {
		return vec.Vector{}, err
	}

	x3, err := combine(x, dt, []float64{0.5}, k2)
	if err != nil {
		return vec.Vector{}, err
	}
	k3, err := sys.Derivative(t+dt*0.5, x3, u)
	if err != nil {
		return vec.Vector{}, err
	}

	x4, err := combine(x, dt, []float64{1}, k3)
	if err != nil {
		return vec.Vector{}, err
	}
	k4, err := sys.Derivative(t+dt, x4, u)
	if err != nil {
		return vec.Vector{}, err
	}

	return combine(x, dt, rk4Weights, k1, k2, k3, k4)
}

package models

import (
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

const DefaultFilter = 0.01

var _ dynamo.System = (*PID)(nil)

// PID is a parallel-form controller on a scalar error signal with a
// first-order filter on the derivative term:
//
//	C(s) = Kp + Ki/s + Kd s/(Tf s + 1)
//
// State [integral, filtered error], input [error], output [control]. The
// proportional and derivative paths feed through directly, so a PID in a
// feedback loop forms an algebraic loop.
type PID struct {
	Kp, Ki, Kd float64
	Tf         float64
}

// NewPID returns a PID with derivative filter constant DefaultFilter.
func NewPID(kp, ki, kd float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, Tf: DefaultFilter}
}

func (p *PID) StateShape() vec.Shape  { return vec.Leaf(2) }
func (p *PID) InputShape() vec.Shape  { return vec.Leaf(1) }
func (p *PID) OutputShape() vec.Shape { return vec.Leaf(1) }

func (p *PID) Output(_ float64, x, u vec.Vector) (vec.Vector, error) {
	if err := p.check(x, u); err != nil {
		return vec.Vector{}, err
	}
	e := u.At(0)
	integral, filtered := x.At(0), x.At(1)
	return vec.New(p.Kp*e + p.Ki*integral + p.Kd*(e-filtered)/p.Tf), nil
}

func (p *PID) Derivative(_ float64, x, u vec.Vector) (vec.Vector, error) {
	if err := p.check(x, u); err != nil {
		return vec.Vector{}, err
	}
	e := u.At(0)
	return vec.New(e, (e-x.At(1))/p.Tf), nil
}

func (p *PID) check(x, u vec.Vector) error {
	if err := expect("state", p.StateShape(), x); err != nil {
		return err
	}
	return expect("input", p.InputShape(), u)
}

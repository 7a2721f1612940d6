package models

import (
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

var (
	_ dynamo.System = (*VanDerPol)(nil)
	_ dynamo.System = (*Duffing)(nil)
)

// VanDerPol is a forced Van der Pol oscillator
//
//	x'' = mu (1 - x^2) x' - x + u
//
// State [x, x'], input [u], output [x].
type VanDerPol struct {
	Mu float64
}

func NewVanDerPol(mu float64) *VanDerPol { return &VanDerPol{Mu: mu} }

func (v *VanDerPol) StateShape() vec.Shape  { return vec.Leaf(2) }
func (v *VanDerPol) InputShape() vec.Shape  { return vec.Leaf(1) }
func (v *VanDerPol) OutputShape() vec.Shape { return vec.Leaf(1) }

func (v *VanDerPol) Output(_ float64, x, _ vec.Vector) (vec.Vector, error) {
	if err := expect("state", v.StateShape(), x); err != nil {
		return vec.Vector{}, err
	}
	return vec.New(x.At(0)), nil
}

func (v *VanDerPol) Derivative(_ float64, x, u vec.Vector) (vec.Vector, error) {
	if err := expect("state", v.StateShape(), x); err != nil {
		return vec.Vector{}, err
	}
	if err := expect("input", v.InputShape(), u); err != nil {
		return vec.Vector{}, err
	}
	pos, vel := x.At(0), x.At(1)
	return vec.New(vel, v.Mu*(1-pos*pos)*vel-pos+u.At(0)), nil
}

// Duffing is a damped Duffing oscillator with external forcing
//
//	x'' = -delta x' - alpha x - beta x^3 + u
//
// State [x, x'], input [u], output [x].
type Duffing struct {
	Alpha, Beta, Delta float64
}

func NewDuffing(alpha, beta, delta float64) *Duffing {
	return &Duffing{Alpha: alpha, Beta: beta, Delta: delta}
}

func (d *Duffing) StateShape() vec.Shape  { return vec.Leaf(2) }
func (d *Duffing) InputShape() vec.Shape  { return vec.Leaf(1) }
func (d *Duffing) OutputShape() vec.Shape { return vec.Leaf(1) }

func (d *Duffing) Output(_ float64, x, _ vec.Vector) (vec.Vector, error) {
	if err := expect("state", d.StateShape(), x); err != nil {
		return vec.Vector{}, err
	}
	return vec.New(x.At(0)), nil
}

func (d *Duffing) Derivative(_ float64, x, u vec.Vector) (vec.Vector, error) {
	if err := expect("state", d.StateShape(), x); err != nil {
		return vec.Vector{}, err
	}
	if err := expect("input", d.InputShape(), u); err != nil {
		return vec.Vector{}, err
	}
	pos, vel := x.At(0), x.At(1)
	return vec.New(vel, -d.Delta*vel-d.Alpha*pos-d.Beta*pos*pos*pos+u.At(0)), nil
}

// Energy is the unforced potential plus kinetic energy.
func (d *Duffing) Energy(x vec.Vector) float64 {
	pos, vel := x.At(0), x.At(1)
	return 0.5*vel*vel + 0.5*d.Alpha*pos*pos + 0.25*d.Beta*pos*pos*pos*pos
}

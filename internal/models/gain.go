package models

import (
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

var _ dynamo.System = (*Gain)(nil)

// Gain is a memoryless amplifier, y = K u.
type Gain struct {
	K float64
	n int
}

func NewGain(k float64, n int) *Gain {
	return &Gain{K: k, n: n}
}

func (g *Gain) StateShape() vec.Shape  { return vec.Leaf(0) }
func (g *Gain) InputShape() vec.Shape  { return vec.Leaf(g.n) }
func (g *Gain) OutputShape() vec.Shape { return vec.Leaf(g.n) }

func (g *Gain) Output(_ float64, _, u vec.Vector) (vec.Vector, error) {
	if err := expect("input", g.InputShape(), u); err != nil {
		return vec.Vector{}, err
	}
	return u.Scale(g.K), nil
}

func (g *Gain) Derivative(float64, vec.Vector, vec.Vector) (vec.Vector, error) {
	return vec.New(), nil
}

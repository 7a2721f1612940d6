package models

import (
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

var _ dynamo.System = (*Lag)(nil)

// Lag is a first-order lag, dx/dt = Rate (u - x), y = x.
type Lag struct {
	Rate float64
	n    int
}

func NewLag(rate float64, n int) *Lag {
	return &Lag{Rate: rate, n: n}
}

func (l *Lag) StateShape() vec.Shape  { return vec.Leaf(l.n) }
func (l *Lag) InputShape() vec.Shape  { return vec.Leaf(l.n) }
func (l *Lag) OutputShape() vec.Shape { return vec.Leaf(l.n) }

func (l *Lag) Output(_ float64, x, _ vec.Vector) (vec.Vector, error) {
	if err := expect("state", l.StateShape(), x); err != nil {
		return vec.Vector{}, err
	}
	return x, nil
}

func (l *Lag) Derivative(_ float64, x, u vec.Vector) (vec.Vector, error) {
	e, err := u.Sub(x)
	if err != nil {
		return vec.Vector{}, err
	}
	return e.Scale(l.Rate), nil
}

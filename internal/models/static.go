package models

import (
	"math"

	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

var (
	_ dynamo.System = (*Static)(nil)
	_ dynamo.System = (*Saturation)(nil)
)

// StaticFunc maps an input to an output at time t. It must not retain u.
type StaticFunc func(t float64, u []float64) []float64

// Static is a memoryless nonlinearity y = Fn(t, u).
type Static struct {
	Fn  StaticFunc
	in  int
	out int
}

func NewStatic(in, out int, fn StaticFunc) *Static {
	return &Static{Fn: fn, in: in, out: out}
}

func (s *Static) StateShape() vec.Shape  { return vec.Leaf(0) }
func (s *Static) InputShape() vec.Shape  { return vec.Leaf(s.in) }
func (s *Static) OutputShape() vec.Shape { return vec.Leaf(s.out) }

func (s *Static) Output(t float64, _, u vec.Vector) (vec.Vector, error) {
	if err := expect("input", s.InputShape(), u); err != nil {
		return vec.Vector{}, err
	}
	return vec.FromFlat(s.OutputShape(), s.Fn(t, u.Flat()))
}

func (s *Static) Derivative(float64, vec.Vector, vec.Vector) (vec.Vector, error) {
	return vec.New(), nil
}

// Saturation clamps every component of u to [Lo, Hi].
type Saturation struct {
	Lo, Hi float64
	n      int
}

func NewSaturation(lo, hi float64, n int) *Saturation {
	return &Saturation{Lo: lo, Hi: hi, n: n}
}

func (s *Saturation) StateShape() vec.Shape  { return vec.Leaf(0) }
func (s *Saturation) InputShape() vec.Shape  { return vec.Leaf(s.n) }
func (s *Saturation) OutputShape() vec.Shape { return vec.Leaf(s.n) }

func (s *Saturation) Output(_ float64, _, u vec.Vector) (vec.Vector, error) {
	if err := expect("input", s.InputShape(), u); err != nil {
		return vec.Vector{}, err
	}
	out := u.Flat()
	for i, v := range out {
		out[i] = math.Max(s.Lo, math.Min(s.Hi, v))
	}
	return vec.New(out...), nil
}

func (s *Saturation) Derivative(float64, vec.Vector, vec.Vector) (vec.Vector, error) {
	return vec.New(), nil
}

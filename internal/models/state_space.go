package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

var _ dynamo.System = (*StateSpace)(nil)

// StateSpace is a linear time-invariant system
//
//	dx/dt = A x + B u
//	y     = C x + D u
//
// D may be nil, meaning no direct feedthrough.
type StateSpace struct {
	A, B, C, D *mat.Dense
}

// NewStateSpace validates matrix dimensions. A is n×n, B n×m, C p×n, D p×m.
func NewStateSpace(a, b, c, d *mat.Dense) (*StateSpace, error) {
	if a == nil || b == nil || c == nil {
		return nil, fmt.Errorf("models: state space requires A, B and C")
	}
	n, na := a.Dims()
	if n != na {
		return nil, fmt.Errorf("models: A must be square, got %dx%d", n, na)
	}
	bn, _ := b.Dims()
	if bn != n {
		return nil, &vec.DimensionError{Expected: n, Actual: bn}
	}
	_, cn := c.Dims()
	if cn != n {
		return nil, &vec.DimensionError{Expected: n, Actual: cn}
	}
	if d != nil {
		p, _ := c.Dims()
		_, m := b.Dims()
		dp, dm := d.Dims()
		if dp != p || dm != m {
			return nil, fmt.Errorf("models: D must be %dx%d, got %dx%d: %w", p, m, dp, dm, dynamo.ErrDimensionMismatch)
		}
	}
	return &StateSpace{A: a, B: b, C: c, D: d}, nil
}

func (s *StateSpace) StateShape() vec.Shape {
	n, _ := s.A.Dims()
	return vec.Leaf(n)
}

func (s *StateSpace) InputShape() vec.Shape {
	_, m := s.B.Dims()
	return vec.Leaf(m)
}

func (s *StateSpace) OutputShape() vec.Shape {
	p, _ := s.C.Dims()
	return vec.Leaf(p)
}

func (s *StateSpace) Derivative(_ float64, x, u vec.Vector) (vec.Vector, error) {
	if err := s.check(x, u); err != nil {
		return vec.Vector{}, err
	}
	var dx, bu mat.VecDense
	dx.MulVec(s.A, x.VecDense())
	bu.MulVec(s.B, u.VecDense())
	dx.AddVec(&dx, &bu)
	return vec.FromVecDense(s.StateShape(), &dx)
}

func (s *StateSpace) Output(_ float64, x, u vec.Vector) (vec.Vector, error) {
	if err := s.check(x, u); err != nil {
		return vec.Vector{}, err
	}
	var y mat.VecDense
	y.MulVec(s.C, x.VecDense())
	if s.D != nil {
		var du mat.VecDense
		du.MulVec(s.D, u.VecDense())
		y.AddVec(&y, &du)
	}
	return vec.FromVecDense(s.OutputShape(), &y)
}

func (s *StateSpace) check(x, u vec.Vector) error {
	if err := expect("state", s.StateShape(), x); err != nil {
		return err
	}
	return expect("input", s.InputShape(), u)
}

package dynamo

import (
	"errors"

	"github.com/san-kum/blocksim/internal/vec"
)

// Series feeds the output of First into the input of Second.
type Series struct {
	first  System
	second System
}

func NewSeries(first, second System) (*Series, error) {
	if !first.OutputShape().Equal(second.InputShape()) {
		return nil, &CompositionError{
			Kind: "series",
			Port: "first output to second input",
			Want: second.InputShape(),
			Got:  first.OutputShape(),
		}
	}
	return &Series{first: first, second: second}, nil
}

// Chain folds systems left to right into nested Series.
func Chain(systems ...System) (System, error) {
	if len(systems) == 0 {
		return nil, errors.New("dynamo: chain of zero systems")
	}
	acc := systems[0]
	for _, next := range systems[1:] {
		s, err := NewSeries(acc, next)
		if err != nil {
			return nil, err
		}
		acc = s
	}
	return acc, nil
}

func (s *Series) First() System  { return s.first }
func (s *Series) Second() System { return s.second }

func (s *Series) StateShape() vec.Shape {
	return vec.Pair(s.first.StateShape(), s.second.StateShape())
}
func (s *Series) InputShape() vec.Shape  { return s.first.InputShape() }
func (s *Series) OutputShape() vec.Shape { return s.second.OutputShape() }

func (s *Series) Output(t float64, x, u vec.Vector) (vec.Vector, error) {
	x1, x2, err := x.Split()
	if err != nil {
		return vec.Vector{}, err
	}
	mid, err := s.first.Output(t, x1, u)
	if err != nil {
		return vec.Vector{}, err
	}
	return s.second.Output(t, x2, mid)
}

func (s *Series) Derivative(t float64, x, u vec.Vector) (vec.Vector, error) {
	x1, x2, err := x.Split()
	if err != nil {
		return vec.Vector{}, err
	}
	d1, err := s.first.Derivative(t, x1, u)
	if err != nil {
		return vec.Vector{}, err
	}
	mid, err := s.first.Output(t, x1, u)
	if err != nil {
		return vec.Vector{}, err
	}
	d2, err := s.second.Derivative(t, x2, mid)
	if err != nil {
		return vec.Vector{}, err
	}
	return vec.Concat(d1, d2), nil
}

package dynamo

import (
	"github.com/san-kum/blocksim/internal/rootfind"
	"github.com/san-kum/blocksim/internal/vec"
)

// NegativeFeedback closes Direct and Reverse into a loop where Reverse's
// output is subtracted from the external input before it drives Direct, and
// Reverse is driven by the loop output.
//
// The loop output y is defined implicitly by
//
//	y = D.output(t, xD, u - R.output(t, xR, y))
//
// and is solved numerically on every Output and Derivative call.
type NegativeFeedback struct {
	direct  System
	reverse System
	solver  rootfind.Solver
}

type FeedbackOption func(*NegativeFeedback)

// WithSolver replaces the default Newton solver.
func WithSolver(s rootfind.Solver) FeedbackOption {
	return func(f *NegativeFeedback) { f.solver = s }
}

func NewNegativeFeedback(direct, reverse System, opts ...FeedbackOption) (*NegativeFeedback, error) {
	if !direct.OutputShape().Equal(reverse.InputShape()) {
		return nil, &CompositionError{
			Kind: "feedback",
			Port: "direct output to reverse input",
			Want: reverse.InputShape(),
			Got:  direct.OutputShape(),
		}
	}
	if !reverse.OutputShape().Equal(direct.InputShape()) {
		return nil, &CompositionError{
			Kind: "feedback",
			Port: "reverse output to direct input",
			Want: direct.InputShape(),
			Got:  reverse.OutputShape(),
		}
	}

	f := &NegativeFeedback{
		direct:  direct,
		reverse: reverse,
		solver:  rootfind.NewNewton(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *NegativeFeedback) Direct() System  { return f.direct }
func (f *NegativeFeedback) Reverse() System { return f.reverse }

func (f *NegativeFeedback) StateShape() vec.Shape {
	return vec.Pair(f.direct.StateShape(), f.reverse.StateShape())
}
func (f *NegativeFeedback) InputShape() vec.Shape  { return f.direct.InputShape() }
func (f *NegativeFeedback) OutputShape() vec.Shape { return f.direct.OutputShape() }

// Loop holds the signals of a resolved feedback loop.
type Loop struct {
	// Output is the loop output y.
	Output vec.Vector
	// Reverse is R.output(t, xR, y).
	Reverse vec.Vector
	// Error is u - Reverse, the input seen by the direct system.
	Error vec.Vector
}

// Resolve solves the algebraic loop at (t, x, u) and returns all loop signals.
func (f *NegativeFeedback) Resolve(t float64, x, u vec.Vector) (Loop, error) {
	xd, xr, err := x.Split()
	if err != nil {
		return Loop{}, err
	}
	return f.resolve(t, xd, xr, u)
}

func (f *NegativeFeedback) Output(t float64, x, u vec.Vector) (vec.Vector, error) {
	xd, xr, err := x.Split()
	if err != nil {
		return vec.Vector{}, err
	}
	return f.solve(t, xd, xr, u)
}

func (f *NegativeFeedback) Derivative(t float64, x, u vec.Vector) (vec.Vector, error) {
	xd, xr, err := x.Split()
	if err != nil {
		return vec.Vector{}, err
	}
	loop, err := f.resolve(t, xd, xr, u)
	if err != nil {
		return vec.Vector{}, err
	}

	dd, err := f.direct.Derivative(t, xd, loop.Error)
	if err != nil {
		return vec.Vector{}, err
	}
	dr, err := f.reverse.Derivative(t, xr, loop.Output)
	if err != nil {
		return vec.Vector{}, err
	}
	return vec.Concat(dd, dr), nil
}

// ReverseOutput is the reverse path's output at the resolved loop point.
func (f *NegativeFeedback) ReverseOutput(t float64, x, u vec.Vector) (vec.Vector, error) {
	loop, err := f.Resolve(t, x, u)
	if err != nil {
		return vec.Vector{}, err
	}
	return loop.Reverse, nil
}

// LoopError is the error signal u - ReverseOutput at the resolved loop point.
func (f *NegativeFeedback) LoopError(t float64, x, u vec.Vector) (vec.Vector, error) {
	loop, err := f.Resolve(t, x, u)
	if err != nil {
		return vec.Vector{}, err
	}
	return loop.Error, nil
}

func (f *NegativeFeedback) resolve(t float64, xd, xr, u vec.Vector) (Loop, error) {
	y, err := f.solve(t, xd, xr, u)
	if err != nil {
		return Loop{}, err
	}
	rev, err := f.reverse.Output(t, xr, y)
	if err != nil {
		return Loop{}, err
	}
	e, err := u.Sub(rev)
	if err != nil {
		return Loop{}, err
	}
	return Loop{Output: y, Reverse: rev, Error: e}, nil
}

func (f *NegativeFeedback) solve(t float64, xd, xr, u vec.Vector) (vec.Vector, error) {
	// Open-loop output is the initial guess.
	y0, err := f.direct.Output(t, xd, u)
	if err != nil {
		return vec.Vector{}, err
	}

	yShape := f.direct.OutputShape()
	var childErr error
	residual := func(dst, yFlat []float64) error {
		r, err := f.residual(t, xd, xr, u, yShape, yFlat)
		if err != nil {
			childErr = err
			return err
		}
		copy(dst, r)
		return nil
	}

	sol, err := f.solver.Solve(residual, y0.Flat())
	if err != nil {
		if childErr != nil {
			return vec.Vector{}, childErr
		}
		return vec.Vector{}, &FeedbackError{Time: t, Wrapped: err}
	}
	return vec.FromFlat(yShape, sol)
}

// residual computes y - D.output(t, xD, u - R.output(t, xR, y)).
func (f *NegativeFeedback) residual(t float64, xd, xr, u vec.Vector, yShape vec.Shape, yFlat []float64) ([]float64, error) {
	y, err := vec.FromFlat(yShape, yFlat)
	if err != nil {
		return nil, err
	}
	rev, err := f.reverse.Output(t, xr, y)
	if err != nil {
		return nil, err
	}
	e, err := u.Sub(rev)
	if err != nil {
		return nil, err
	}
	out, err := f.direct.Output(t, xd, e)
	if err != nil {
		return nil, err
	}
	r, err := y.Sub(out)
	if err != nil {
		return nil, err
	}
	return r.Flat(), nil
}

// Package rootfind solves square nonlinear systems f(y) = 0.
//
// The only implementation is a multivariate Newton iteration whose Jacobian is
// built by central finite differences. Working buffers live for a single
// Solve call, so a Newton value may be shared between goroutines.
package rootfind

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultTolerance     = 1e-10
	DefaultRelTolerance  = 1e-12
	DefaultMaxIterations = 50
	DefaultStep          = 1e-6
)

// Func evaluates the residual at y into dst. len(dst) == len(y).
type Func func(dst, y []float64) error

type Solver interface {
	Solve(f Func, y0 []float64) ([]float64, error)
}

// Newton stops once ||f(y)|| or the last Newton step falls within
// Tolerance + RelTolerance*||y||.
type Newton struct {
	Tolerance     float64
	RelTolerance  float64
	MaxIterations int
	// Step is the finite-difference step for the Jacobian.
	Step float64
}

func NewNewton() *Newton {
	return &Newton{
		Tolerance:     DefaultTolerance,
		RelTolerance:  DefaultRelTolerance,
		MaxIterations: DefaultMaxIterations,
		Step:          DefaultStep,
	}
}

// Solve returns a root of f starting from y0. Errors returned
// by f are passed through unchanged; numerical failure yields a
// *ConvergenceError.
func (n *Newton) Solve(f Func, y0 []float64) ([]float64, error) {
	dim := len(y0)
	y := make([]float64, dim)
	copy(y, y0)

	r := make([]float64, dim)
	if err := f(r, y); err != nil {
		return nil, err
	}
	if dim == 0 {
		return y, nil
	}

	jac := mat.NewDense(dim, dim, nil)
	settings := &fd.JacobianSettings{Formula: fd.Central, Step: n.Step}
	var step mat.VecDense

	for iter := 0; iter < n.MaxIterations; iter++ {
		res := floats.Norm(r, 2)
		if !isFinite(res) {
			return nil, &ConvergenceError{Iterations: iter, Residual: res, Reason: "residual diverged"}
		}
		if res <= n.bound(y) {
			return y, nil
		}

		var evalErr error
		fd.Jacobian(jac, func(out, x []float64) {
			if evalErr != nil {
				return
			}
			evalErr = f(out, x)
		}, y, settings)
		if evalErr != nil {
			return nil, evalErr
		}

		if err := step.SolveVec(jac, mat.NewVecDense(dim, r)); err != nil {
			return nil, &ConvergenceError{Iterations: iter, Residual: res, Reason: "singular jacobian: " + err.Error()}
		}
		for i := range y {
			y[i] -= step.AtVec(i)
		}

		if err := f(r, y); err != nil {
			return nil, err
		}

		// rounding in f can keep the residual above an absolute bound for
		// large y even though the iterate no longer moves
		if mat.Norm(&step, 2) <= n.bound(y) && isFinite(floats.Norm(r, 2)) {
			return y, nil
		}
	}

	res := floats.Norm(r, 2)
	if res <= n.bound(y) {
		return y, nil
	}
	return nil, &ConvergenceError{Iterations: n.MaxIterations, Residual: res, Reason: "iteration budget exhausted"}
}

func (n *Newton) bound(y []float64) float64 {
	return n.Tolerance + n.RelTolerance*floats.Norm(y, 2)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package dynamo

import (
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/blocksim/internal/vec"
)

// Parallel runs Top and Bottom side by side on their own slices of the
// combined state and input. There is no coupling between them.
type Parallel struct {
	top        System
	bottom     System
	concurrent bool
}

type ParallelOption func(*Parallel)

// Concurrent evaluates the two children on separate goroutines. Results are
// identical to sequential evaluation.
func Concurrent() ParallelOption {
	return func(p *Parallel) { p.concurrent = true }
}

func NewParallel(top, bottom System, opts ...ParallelOption) *Parallel {
	p := &Parallel{top: top, bottom: bottom}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parallel) Top() System    { return p.top }
func (p *Parallel) Bottom() System { return p.bottom }

func (p *Parallel) StateShape() vec.Shape {
	return vec.Pair(p.top.StateShape(), p.bottom.StateShape())
}
func (p *Parallel) InputShape() vec.Shape {
	return vec.Pair(p.top.InputShape(), p.bottom.InputShape())
}
func (p *Parallel) OutputShape() vec.Shape {
	return vec.Pair(p.top.OutputShape(), p.bottom.OutputShape())
}

func (p *Parallel) Output(t float64, x, u vec.Vector) (vec.Vector, error) {
	return p.eval(x, u, func(sys System, x, u vec.Vector) (vec.Vector, error) {
		return sys.Output(t, x, u)
	})
}

func (p *Parallel) Derivative(t float64, x, u vec.Vector) (vec.Vector, error) {
	return p.eval(x, u, func(sys System, x, u vec.Vector) (vec.Vector, error) {
		return sys.Derivative(t, x, u)
	})
}

func (p *Parallel) eval(x, u vec.Vector, fn func(System, vec.Vector, vec.Vector) (vec.Vector, error)) (vec.Vector, error) {
	xTop, xBot, err := x.Split()
	if err != nil {
		return vec.Vector{}, err
	}
	uTop, uBot, err := u.Split()
	if err != nil {
		return vec.Vector{}, err
	}

	if !p.concurrent {
		a, err := fn(p.top, xTop, uTop)
		if err != nil {
			return vec.Vector{}, err
		}
		b, err := fn(p.bottom, xBot, uBot)
		if err != nil {
			return vec.Vector{}, err
		}
		return vec.Concat(a, b), nil
	}

	var a, b vec.Vector
	var g errgroup.Group
	g.Go(func() error {
		var err error
		a, err = fn(p.top, xTop, uTop)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = fn(p.bottom, xBot, uBot)
		return err
	})
	if err := g.Wait(); err != nil {
		return vec.Vector{}, err
	}
	return vec.Concat(a, b), nil
}

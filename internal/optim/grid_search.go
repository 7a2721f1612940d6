// Package optim tunes block parameters by exhaustive search over a grid.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/experiment"
)

var ErrNoFeasible = errors.New("optim: every grid point failed")

// Builder creates a ready-to-run experiment for one grid point.
type Builder func(params map[string]float64) (*experiment.Experiment, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

type Result struct {
	Params    map[string]float64
	Value     float64
	Evaluated int
	// Failed counts grid points whose build or run returned an error, such as
	// a feedback loop that does not converge.
	Failed int
}

// Search minimises metricName over the grid.
func (g *GridSearch) Search(ctx context.Context, build Builder, metricName string) (*Result, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("optim: %d params for %d ranges", len(g.paramNames), len(g.ranges))
	}

	res := &Result{Value: math.Inf(1)}
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), build, metricName, res); err != nil {
		return nil, err
	}
	if res.Params == nil {
		return res, ErrNoFeasible
	}
	return res, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build Builder,
	metricName string,
	res *Result,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		res.Evaluated++

		exp, err := build(current)
		if err != nil {
			res.Failed++
			return nil
		}

		result, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res.Failed++
			return nil
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("optim: unknown metric %q", metricName)
		}
		if val < res.Value {
			res.Value = val
			res.Params = make(map[string]float64, len(current))
			for k, v := range current {
				res.Params[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, build, metricName, res); err != nil {
			return err
		}
	}
	return nil
}

// ConfigBuilder returns a Builder that applies "kind.param" keys to a copy of
// base, e.g. "pid.kp" sets kp on every pid block.
func ConfigBuilder(base *config.Config, opts ...experiment.Option) Builder {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg, err := base.Clone()
		if err != nil {
			return nil, err
		}
		for key, v := range params {
			kind, name, ok := strings.Cut(key, ".")
			if !ok {
				return nil, fmt.Errorf("optim: parameter %q is not kind.param", key)
			}
			if cfg.System.SetParam(kind, name, v) == 0 {
				return nil, fmt.Errorf("optim: no %s block for %q", kind, key)
			}
		}

		exp := experiment.New(cfg, opts...)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

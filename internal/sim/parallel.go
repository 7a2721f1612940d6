package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/blocksim/internal/signals"
	"github.com/san-kum/blocksim/internal/vec"
)

// Sweep runs the base simulator's system once per constant input level,
// concurrently. Metrics and observers of the base simulator are not used.
type Sweep struct {
	base   *Simulator
	levels []float64
	limit  int
}

func NewSweep(s *Simulator, levels []float64) *Sweep {
	return &Sweep{base: s, levels: levels, limit: 4}
}

// SetLimit bounds the number of concurrent runs. n <= 0 means no limit.
func (sw *Sweep) SetLimit(n int) { sw.limit = n }

// Run returns one result per level, in level order. The first failing run
// cancels the others.
func (sw *Sweep) Run(ctx context.Context, x0 vec.Vector, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(sw.levels))
	width := sw.base.sys.InputShape().Dim()

	g, ctx := errgroup.WithContext(ctx)
	if sw.limit > 0 {
		g.SetLimit(sw.limit)
	}
	for i, level := range sw.levels {
		g.Go(func() error {
			vals := make([]float64, width)
			for k := range vals {
				vals[k] = level
			}

			s := New(sw.base.sys, sw.base.integrator, WithLogger(sw.base.logger.With("level", level)))
			res, err := s.Run(ctx, x0, signals.NewConstant(vals...), cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

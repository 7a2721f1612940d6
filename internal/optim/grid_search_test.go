package optim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/experiment"
)

func quiet() experiment.Option {
	return experiment.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGridSearchLoopGain(t *testing.T) {
	base := config.GetPreset("loop_gain")

	// both paths are gain blocks, so y = k/(1+k^2) u is closest to u at k = 1
	g := NewGridSearch([]string{"gain.k"}, [][]float64{{1, 4, 9}})
	res, err := g.Search(context.Background(), ConfigBuilder(base, quiet()), "tracking_error")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if res.Params["gain.k"] != 1 {
		t.Errorf("best k = %v, want 1", res.Params["gain.k"])
	}
	if res.Evaluated != 3 || res.Failed != 0 {
		t.Errorf("evaluated %d, failed %d", res.Evaluated, res.Failed)
	}
	if want := 0.5; res.Value < want-1e-6 || res.Value > want+1e-6 {
		t.Errorf("best value = %v, want %v", res.Value, want)
	}
}

func TestGridSearchSkipsFailures(t *testing.T) {
	base := config.GetPreset("divergent")

	g := NewGridSearch([]string{"quadratic.c"}, [][]float64{{1, 2}})
	res, err := g.Search(context.Background(), ConfigBuilder(base, quiet()), "peak")
	if !errors.Is(err, ErrNoFeasible) {
		t.Fatalf("expected ErrNoFeasible, got %v", err)
	}
	if res.Failed != 2 {
		t.Errorf("failed = %d, want 2", res.Failed)
	}
}

func TestGridSearchErrors(t *testing.T) {
	base := config.GetPreset("loop_gain")

	if _, err := NewGridSearch([]string{"gain.k"}, nil).Search(context.Background(), ConfigBuilder(base), "peak"); err == nil {
		t.Error("expected error for mismatched ranges")
	}

	g := NewGridSearch([]string{"gain.k"}, [][]float64{{1}})
	if _, err := g.Search(context.Background(), ConfigBuilder(base, quiet()), "nope"); err == nil {
		t.Error("expected error for unknown metric")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Search(ctx, ConfigBuilder(base, quiet()), "peak"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	res, err := NewGridSearch([]string{"pid.kp"}, [][]float64{{1}}).Search(context.Background(), ConfigBuilder(base, quiet()), "peak")
	if !errors.Is(err, ErrNoFeasible) || res.Failed != 1 {
		t.Errorf("missing block kind should count as a failed point, got %v %+v", err, res)
	}
}

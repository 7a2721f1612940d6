package experiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBuildLeaves(t *testing.T) {
	r := NewRegistry()

	for _, kind := range r.ListBlocks() {
		t.Run(kind, func(t *testing.T) {
			n := &config.Node{Kind: kind}
			if kind == "state_space" {
				n.A = [][]float64{{-1}}
				n.B = [][]float64{{1}}
				n.C = [][]float64{{1}}
			}
			sys, err := r.Build(n, nil)
			if err != nil {
				t.Fatalf("Build(%s): %v", kind, err)
			}
			if err := dynamo.Check(sys, vec.Zeros(sys.StateShape()), vec.Zeros(sys.InputShape())); err != nil {
				t.Errorf("Check: %v", err)
			}
		})
	}
}

func TestBuildZeroWidthLoop(t *testing.T) {
	cfg, err := config.Parse([]byte(`
system:
  kind: unity_feedback
  direct:
    kind: gain
    dim: 0
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	sys, err := NewRegistry().Build(cfg.System, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if sys.InputShape().Dim() != 0 || sys.OutputShape().Dim() != 0 {
		t.Fatalf("expected a zero-width loop, got input %s output %s", sys.InputShape(), sys.OutputShape())
	}
	y, err := sys.Output(0, vec.Zeros(sys.StateShape()), vec.Zeros(sys.InputShape()))
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if y.Dim() != 0 {
		t.Errorf("Output = %v, want empty", y)
	}
}

func TestBuildErrors(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		node *config.Node
		want error
	}{
		{
			name: "series shape mismatch",
			node: &config.Node{Kind: config.KindSeries, Blocks: []*config.Node{
				{Kind: "gain", Dim: config.Dim(2)},
				{Kind: "gain", Dim: config.Dim(1)},
			}},
			want: dynamo.ErrShapeMismatch,
		},
		{
			name: "feedback shape mismatch",
			node: &config.Node{
				Kind:    config.KindFeedback,
				Direct:  &config.Node{Kind: "gain", Dim: config.Dim(2)},
				Reverse: &config.Node{Kind: "gain", Dim: config.Dim(1)},
			},
			want: dynamo.ErrShapeMismatch,
		},
		{
			name: "ragged matrix",
			node: &config.Node{
				Kind: "state_space",
				A:    [][]float64{{1, 0}, {0}},
				B:    [][]float64{{1}, {1}},
				C:    [][]float64{{1, 0}},
			},
			want: vec.ErrDimensionMismatch,
		},
		{
			name: "invalid structure",
			node: &config.Node{Kind: config.KindParallel},
			want: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Build(tt.node, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := r.Build(&config.Node{Kind: "flux_capacitor"}, nil); err == nil {
		t.Error("expected error for unknown block kind")
	}
}

func TestBuildFeedbackEvaluates(t *testing.T) {
	r := NewRegistry()
	sys, err := r.Build(&config.Node{
		Kind:    config.KindFeedback,
		Direct:  &config.Node{Kind: "gain", Params: map[string]float64{"k": 2}},
		Reverse: &config.Node{Kind: "gain", Params: map[string]float64{"k": 2}},
	}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	y, err := sys.Output(0, vec.Zeros(sys.StateShape()), vec.New(1))
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if math.Abs(y.At(0)-0.4) > 1e-9 {
		t.Errorf("y = %v, want 0.4", y.At(0))
	}
}

func TestRegisterBlock(t *testing.T) {
	r := NewRegistry()
	r.RegisterBlock("double", func(n *config.Node) (dynamo.System, error) {
		return r.Build(&config.Node{Kind: "gain", Params: map[string]float64{"k": 2}}, nil)
	})

	sys, err := r.Build(&config.Node{Kind: "double"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	y, _ := sys.Output(0, vec.New(), vec.New(3))
	if y.At(0) != 6 {
		t.Errorf("y = %v, want 6", y.At(0))
	}
}

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()

	if _, err := r.GetIntegrator("rk45"); err != nil {
		t.Errorf("GetIntegrator(rk45): %v", err)
	}
	if _, err := r.GetIntegrator("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}

	s, err := r.GetSignal(config.InputConfig{Kind: "step", Value: 2, At: 1}, 3)
	if err != nil {
		t.Fatalf("GetSignal: %v", err)
	}
	if s.Width() != 3 || s.At(0).At(0) != 0 || s.At(1).At(2) != 2 {
		t.Errorf("unexpected step signal")
	}
	if _, err := r.GetSignal(config.InputConfig{Kind: "noise"}, 1); err == nil {
		t.Error("expected error for unknown signal")
	}
}

func TestExperimentPresets(t *testing.T) {
	for _, name := range config.ListPresets() {
		if name == "divergent" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			cfg := config.GetPreset(name)
			cfg.Duration = math.Min(cfg.Duration, 1)

			exp := New(cfg, quiet())
			if err := exp.Setup(); err != nil {
				t.Fatalf("Setup: %v", err)
			}
			res, err := exp.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(res.Times) < 2 {
				t.Errorf("expected samples, got %d", len(res.Times))
			}
			if _, ok := res.Metrics["peak"]; !ok {
				t.Error("default metrics missing")
			}
		})
	}
}

func TestExperimentUnityLagConverges(t *testing.T) {
	cfg := config.GetPreset("unity_lag")
	cfg.Duration = 20

	exp := New(cfg, quiet())
	if err := exp.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// lag rate 1 in a unity loop settles at half the step
	if got := res.Final()[0]; math.Abs(got-0.5) > 1e-4 {
		t.Errorf("final output = %v, want 0.5", got)
	}
}

func TestExperimentDivergent(t *testing.T) {
	exp := New(config.GetPreset("divergent"), quiet())
	if err := exp.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	_, err := exp.Run(context.Background())
	if !errors.Is(err, dynamo.ErrFeedbackDidNotConverge) {
		t.Errorf("expected ErrFeedbackDidNotConverge, got %v", err)
	}
}

func TestExperimentSolverConfig(t *testing.T) {
	cfg := config.GetPreset("loop_gain")
	cfg.Solver.MaxIterations = 3

	exp := New(cfg, quiet())
	if err := exp.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if _, err := exp.Run(context.Background()); err != nil {
		t.Errorf("linear loop should converge in one step: %v", err)
	}
}

func TestExperimentInitState(t *testing.T) {
	cfg := config.GetPreset("second_order")
	cfg.InitState = []float64{1, 2, 3}

	exp := New(cfg, quiet())
	if err := exp.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if _, err := exp.Run(context.Background()); !errors.Is(err, vec.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}

	if _, err := New(cfg).Run(context.Background()); err == nil {
		t.Error("expected error running without setup")
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/experiment"
	"github.com/san-kum/blocksim/internal/sim"
	"github.com/san-kum/blocksim/internal/storage"
	"github.com/san-kum/blocksim/internal/vec"
	"github.com/san-kum/blocksim/internal/viz"
)

func setup(cmd *cobra.Command, args []string) (*experiment.Experiment, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	exp := experiment.New(cfg, experiment.WithLogger(logger))
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	return exp, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd, args)
	if err != nil {
		return err
	}
	cfg := exp.Config()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(viz.HeaderStyle.Render("running " + cfg.Name))
	start := time.Now()

	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)
	if result == nil {
		return runErr
	}

	sys := exp.System()
	runID := ""
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err = st.Save(cfg, storage.RunMetadata{
			Name:        cfg.Name,
			Dt:          cfg.Dt,
			Duration:    cfg.Duration,
			Integrator:  cfg.Integrator,
			Adaptive:    cfg.Adaptive,
			StateShape:  sys.StateShape().String(),
			InputShape:  sys.InputShape().String(),
			OutputShape: sys.OutputShape().String(),
		}, result, runErr)
		if err != nil {
			return err
		}
	}

	status := viz.StatusOK.Render("completed")
	if runErr != nil {
		status = viz.StatusFailed.Render("failed")
	}
	lines := []string{
		viz.Field("status", status),
		viz.Field("elapsed", elapsed.String()),
		viz.Field("steps", fmt.Sprint(result.StepsTaken)),
		viz.Field("state shape", sys.StateShape().String()),
	}
	if runID != "" {
		lines = append(lines, viz.Field("run id", runID))
	}
	if len(result.Outputs) > 0 {
		for i := range result.Outputs[0] {
			lines = append(lines, viz.Field(fmt.Sprintf("y%d", i), viz.SparklineChart(result.Output(i), 40)))
		}
	}

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, viz.Metric(name, result.Metrics[name]))
	}

	fmt.Println(viz.Panel.Render(strings.Join(lines, "\n")))
	return runErr
}

func evalSystem(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd, args)
	if err != nil {
		return err
	}
	sys := exp.System()

	x, err := flatOrZeros(sys.StateShape(), evalState)
	if err != nil {
		return fmt.Errorf("state: %w", err)
	}
	u, err := flatOrZeros(sys.InputShape(), evalInput)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	y, err := sys.Output(evalTime, x, u)
	if err != nil {
		return err
	}
	dx, err := sys.Derivative(evalTime, x, u)
	if err != nil {
		return err
	}

	lines := []string{
		viz.Field("t", fmt.Sprint(evalTime)),
		viz.Field("x", x.String()),
		viz.Field("u", u.String()),
		viz.Field("output", y.String()),
		viz.Field("derivative", dx.String()),
	}

	if fb, ok := sys.(*dynamo.NegativeFeedback); ok {
		loop, err := fb.Resolve(evalTime, x, u)
		if err != nil {
			return err
		}
		lines = append(lines,
			viz.Field("reverse output", loop.Reverse.String()),
			viz.Field("loop error", loop.Error.String()),
		)
	}

	fmt.Println(viz.Panel.Render(strings.Join(lines, "\n")))
	return nil
}

func flatOrZeros(s vec.Shape, vals []float64) (vec.Vector, error) {
	if len(vals) == 0 {
		return vec.Zeros(s), nil
	}
	return vec.FromFlat(s, vals)
}

func sweepLevels(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd, args)
	if err != nil {
		return err
	}
	cfg := exp.Config()

	x0, err := exp.InitState()
	if err != nil {
		return err
	}

	simCfg := sim.DefaultConfig()
	simCfg.Dt = cfg.Dt
	simCfg.Duration = cfg.Duration
	simCfg.Adaptive = cfg.Adaptive
	simCfg.Tolerance = cfg.Tolerance

	sweep := sim.NewSweep(exp.Simulator(), levels)
	sweep.SetLimit(concurrency)

	results, err := sweep.Run(context.Background(), x0, simCfg)
	if err != nil {
		return err
	}

	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("sweep %s over %d levels", cfg.Name, len(levels))))
	for i, level := range levels {
		fmt.Println(viz.Field(fmt.Sprintf("u = %g", level), fmt.Sprint(results[i].Final())))
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println(viz.HeaderStyle.Render("presets"))
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Println(viz.Field(name, viz.Subtle.Render(describe(cfg.System))))
	}

	registry := experiment.NewRegistry()
	fmt.Println()
	fmt.Println(viz.Field("blocks", strings.Join(registry.ListBlocks(), ", ")))
	fmt.Println(viz.Field("integrators", strings.Join(registry.ListIntegrators(), ", ")))
	fmt.Println(viz.Field("inputs", strings.Join(registry.ListSignals(), ", ")))
	return nil
}

// describe renders a diagram as a compact expression.
func describe(n *config.Node) string {
	if n == nil {
		return "?"
	}
	switch n.Kind {
	case config.KindSeries, config.KindParallel:
		parts := make([]string, len(n.Blocks))
		for i, b := range n.Blocks {
			parts[i] = describe(b)
		}
		sep := " -> "
		if n.Kind == config.KindParallel {
			sep = " || "
		}
		return "(" + strings.Join(parts, sep) + ")"
	case config.KindFeedback:
		return "feedback(" + describe(n.Direct) + ", " + describe(n.Reverse) + ")"
	case config.KindUnityFeedback:
		return "feedback(" + describe(n.Direct) + ")"
	}
	return n.Kind
}

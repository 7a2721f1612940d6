package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/logs"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	logFile    string
	journal    bool

	dt         float64
	duration   float64
	integrator string
	adaptive   bool
	tolerance  float64
	initState  []float64
	noSave     bool

	evalTime  float64
	evalState []float64
	evalInput []float64

	levels      []float64
	concurrency int

	tuneParams []string
	tuneMetric string

	outFile     string
	outputIndex int
	phaseAxes   []int

	logger    *slog.Logger
	logCloser io.Closer
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "blocksim",
		Short:         "compose and simulate state-space block diagrams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logs.SetLevel(logLevel); err != nil {
				return err
			}
			var err error
			logger, logCloser, err = logs.New(logs.Options{File: logFile, Journal: journal})
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "./data", "run storage directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVar(&journal, "journal", false, "also log to the systemd journal")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "simulate a preset or --config diagram and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addDiagramFlags(runCmd)
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration")
	runCmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "euler, rk4 or rk45")
	runCmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive step size")
	runCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "adaptive step tolerance")
	runCmd.Flags().Float64SliceVar(&initState, "init", nil, "flat initial state")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	evalCmd := &cobra.Command{
		Use:   "eval [preset]",
		Short: "evaluate output, derivative and loop signals at one point",
		Args:  cobra.MaximumNArgs(1),
		RunE:  evalSystem,
	}
	addDiagramFlags(evalCmd)
	evalCmd.Flags().Float64Var(&evalTime, "t", 0, "time")
	evalCmd.Flags().Float64SliceVar(&evalState, "x", nil, "flat state (default zeros)")
	evalCmd.Flags().Float64SliceVar(&evalInput, "u", nil, "flat input (default zeros)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run the diagram once per constant input level",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepLevels,
	}
	addDiagramFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&levels, "levels", []float64{0, 0.5, 1}, "input levels")
	sweepCmd.Flags().IntVar(&concurrency, "parallel", 4, "concurrent runs (0 for unlimited)")

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search block parameters minimising a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneParameters,
	}
	addDiagramFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVarP(&tuneParams, "param", "p", nil, "kind.param=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "tracking_error", "metric to minimise")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset diagrams and registered block kinds",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run outputs",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVarP(&outFile, "out", "o", "", "write a png/svg/pdf plot instead of drawing in the terminal")
	plotCmd.Flags().IntSliceVar(&phaseAxes, "phase", nil, "plot state i against state j, e.g. --phase 0,1")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	stepCmd := &cobra.Command{
		Use:   "step [run_id]",
		Short: "step response characteristics of a run output",
		Args:  cobra.ExactArgs(1),
		RunE:  stepAnalysis,
	}
	stepCmd.Flags().IntVar(&outputIndex, "output", 0, "output component")

	rootCmd.AddCommand(runCmd, evalCmd, sweepCmd, tuneCmd, presetsCmd, listCmd, plotCmd, exportCmd, stepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addDiagramFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML diagram file")
}

// loadConfig picks the diagram from --config or a preset name, then applies
// any run flags the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case len(args) == 1:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	default:
		return nil, fmt.Errorf("need a preset name or --config")
	}
	if cfg.Name == "" {
		cfg.Name = "diagram"
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if flags.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("init") {
		cfg.InitState = initState
	}

	return cfg, cfg.Validate()
}

// Package experiment turns a YAML block diagram into a configured simulator.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/rootfind"
	"github.com/san-kum/blocksim/internal/signals"
	"github.com/san-kum/blocksim/internal/sim"
	"github.com/san-kum/blocksim/internal/vec"
)

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	logger    *slog.Logger
	system    dynamo.System
	input     signals.Signal
	simulator *sim.Simulator
}

type Option func(*Experiment)

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	return e
}

// Setup validates the config and builds the system, input and simulator.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	sys, err := e.registry.Build(e.cfg.System, e.solver())
	if err != nil {
		return err
	}
	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	input, err := e.registry.GetSignal(e.cfg.Input, sys.InputShape().Dim())
	if err != nil {
		return err
	}

	e.system = sys
	e.input = input
	e.simulator = sim.New(sys, integ, sim.WithLogger(e.logger.With("experiment", e.cfg.Name)))
	for _, m := range e.registry.DefaultMetrics(sys) {
		e.simulator.AddMetric(m)
	}

	e.logger.Debug("experiment ready",
		"name", e.cfg.Name,
		"state", sys.StateShape().String(),
		"input", sys.InputShape().String(),
		"output", sys.OutputShape().String(),
	)
	return nil
}

func (e *Experiment) solver() rootfind.Solver {
	sc := e.cfg.Solver
	if sc == (config.SolverConfig{}) {
		return nil
	}
	n := rootfind.NewNewton()
	if sc.Tolerance > 0 {
		n.Tolerance = sc.Tolerance
	}
	if sc.RelTolerance > 0 {
		n.RelTolerance = sc.RelTolerance
	}
	if sc.MaxIterations > 0 {
		n.MaxIterations = sc.MaxIterations
	}
	if sc.Step > 0 {
		n.Step = sc.Step
	}
	return n
}

// InitState is the configured initial state, or zeros when none is given.
func (e *Experiment) InitState() (vec.Vector, error) {
	if e.system == nil {
		return vec.Vector{}, fmt.Errorf("experiment not setup")
	}
	if len(e.cfg.InitState) == 0 {
		return vec.Zeros(e.system.StateShape()), nil
	}
	return vec.FromFlat(e.system.StateShape(), e.cfg.InitState)
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	x0, err := e.InitState()
	if err != nil {
		return nil, fmt.Errorf("init_state: %w", err)
	}

	simCfg := sim.DefaultConfig()
	simCfg.Dt = e.cfg.Dt
	simCfg.Duration = e.cfg.Duration
	simCfg.Adaptive = e.cfg.Adaptive
	if e.cfg.Tolerance > 0 {
		simCfg.Tolerance = e.cfg.Tolerance
	}

	return e.simulator.Run(ctx, x0, e.input, simCfg)
}

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

func (e *Experiment) System() dynamo.System { return e.system }

func (e *Experiment) Input() signals.Signal { return e.input }

func (e *Experiment) Config() *config.Config { return e.cfg }

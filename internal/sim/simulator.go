// Package sim drives a dynamo.System through time with an integrator and an
// external input signal, recording states, inputs and outputs.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/signals"
	"github.com/san-kum/blocksim/internal/vec"
)

// Simulator is not safe for concurrent use: metrics accumulate across a run.
type Simulator struct {
	sys        dynamo.System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
	logger     *slog.Logger
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func New(sys dynamo.System, integrator Integrator, opts ...Option) *Simulator {
	s := &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) System() dynamo.System { return s.sys }

// Run integrates from x0 at t=0 for cfg.Duration. x0 may be given flat; it is
// reshaped to the system's state shape. On failure the partial result is
// returned together with a *SimError.
func (s *Simulator) Run(ctx context.Context, x0 vec.Vector, input signals.Signal, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	x, err := s.prepare(x0, input)
	if err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Times:   make([]float64, 0, steps+1),
		States:  make([][]float64, 0, steps+1),
		Inputs:  make([][]float64, 0, steps+1),
		Outputs: make([][]float64, 0, steps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	log := s.logger.With("state_shape", s.sys.StateShape().String())
	log.Debug("run started", "dt", cfg.Dt, "duration", cfg.Duration, "adaptive", cfg.Adaptive)

	t := 0.0
	dt := cfg.Dt

	u, y, err := s.sample(t, x, input)
	if err != nil {
		return result, &SimError{Time: t, Step: 0, Message: "initial output", Wrapped: err}
	}
	s.record(result, t, x, u, y)

	initialEnergy := s.computeEnergy(x)

	for i := 0; ; i++ {
		if cfg.Adaptive {
			if t >= cfg.Duration-1e-12 {
				break
			}
		} else if i >= steps {
			break
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		h := dt
		if cfg.Adaptive && t+h > cfg.Duration {
			h = cfg.Duration - t
		}

		newX, taken, next, err := s.step(x, u, t, h, cfg)
		if err != nil {
			log.Warn("step failed", "step", i, "t", t, "error", err)
			return result, &SimError{Time: t, Step: i, Message: "step failed", Wrapped: err}
		}

		if cfg.ValidateState && !newX.IsValid() {
			return result, &SimError{Time: t, Step: i, Message: "invalid state", Wrapped: ErrInvalidState}
		}

		x = newX
		t += taken
		if cfg.Adaptive {
			dt = next
		}
		result.StepsTaken++

		u, y, err = s.sample(t, x, input)
		if err != nil {
			log.Warn("output failed", "step", i, "t", t, "error", err)
			return result, &SimError{Time: t, Step: i, Message: "output failed", Wrapped: err}
		}
		s.record(result, t, x, u, y)
	}

	finalEnergy := s.computeEnergy(x)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	log.Debug("run finished", "steps", result.StepsTaken, "t", t)
	return result, nil
}

func (s *Simulator) prepare(x0 vec.Vector, input signals.Signal) (vec.Vector, error) {
	x, err := x0.Reshape(s.sys.StateShape())
	if err != nil {
		return vec.Vector{}, fmt.Errorf("initial state: %w", err)
	}
	if input == nil {
		return vec.Vector{}, fmt.Errorf("input signal is required")
	}
	if w := s.sys.InputShape().Dim(); input.Width() != w {
		return vec.Vector{}, fmt.Errorf("input signal: %w", &vec.DimensionError{Expected: w, Actual: input.Width()})
	}
	return x, nil
}

func (s *Simulator) sample(t float64, x vec.Vector, input signals.Signal) (vec.Vector, vec.Vector, error) {
	u, err := input.At(t).Reshape(s.sys.InputShape())
	if err != nil {
		return vec.Vector{}, vec.Vector{}, err
	}
	y, err := s.sys.Output(t, x, u)
	if err != nil {
		return vec.Vector{}, vec.Vector{}, err
	}
	return u, y, nil
}

func (s *Simulator) record(result *Result, t float64, x, u, y vec.Vector) {
	for _, m := range s.metrics {
		m.Observe(x, u, y, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, u, y, t)
	}
	result.Times = append(result.Times, t)
	result.States = append(result.States, x.Flat())
	result.Inputs = append(result.Inputs, u.Flat())
	result.Outputs = append(result.Outputs, y.Flat())
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	return nil
}

func (s *Simulator) computeEnergy(x vec.Vector) float64 {
	e, _ := dynamo.Energy(s.sys, x)
	return e
}

// step returns the new state, the step size actually taken and the size to
// try next. Adaptive steps may be shorter than dt.
func (s *Simulator) step(x, u vec.Vector, t, dt float64, cfg Config) (vec.Vector, float64, float64, error) {
	if !cfg.Adaptive {
		newX, err := s.integrator.Step(s.sys, x, u, t, dt)
		return newX, dt, dt, err
	}
	return s.adaptiveStep(x, u, t, dt, cfg)
}

func (s *Simulator) adaptiveStep(x, u vec.Vector, t, dt float64, cfg Config) (vec.Vector, float64, float64, error) {
	minDt := cfg.MinDt
	if minDt <= 0 {
		minDt = 1e-12
	}

	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		for {
			newX, next, accepted, err := adaptive.StepAdaptive(s.sys, x, u, t, dt, cfg.Tolerance)
			if err != nil {
				return vec.Vector{}, 0, 0, err
			}
			if accepted {
				if cfg.MaxDt > 0 {
					next = math.Min(next, cfg.MaxDt)
				}
				return newX, dt, math.Max(next, minDt), nil
			}
			if dt <= minDt {
				return vec.Vector{}, 0, 0, fmt.Errorf("dt=%g: %w", dt, ErrStepTooSmall)
			}
			dt = math.Max(math.Min(next, dt/2), minDt)
		}
	}

	// step doubling
	for {
		x1, err := s.integrator.Step(s.sys, x, u, t, dt)
		if err != nil {
			return vec.Vector{}, 0, 0, err
		}
		xHalf, err := s.integrator.Step(s.sys, x, u, t, dt/2)
		if err != nil {
			return vec.Vector{}, 0, 0, err
		}
		x2, err := s.integrator.Step(s.sys, xHalf, u, t+dt/2, dt/2)
		if err != nil {
			return vec.Vector{}, 0, 0, err
		}

		diff, err := x1.Sub(x2)
		if err != nil {
			return vec.Vector{}, 0, 0, err
		}
		est := diff.Norm()

		if est > cfg.Tolerance || math.IsNaN(est) {
			if dt/2 < minDt {
				return vec.Vector{}, 0, 0, fmt.Errorf("dt=%g: %w", dt, ErrStepTooSmall)
			}
			dt /= 2
			continue
		}

		next := dt
		if est < cfg.Tolerance/10 && dt < cfg.MaxDt {
			next = math.Min(dt*2, cfg.MaxDt)
		}
		return x2, dt, next, nil
	}
}

// RunWithCallback steps without recording; callback returning false stops the run.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 vec.Vector, input signals.Signal, cfg Config, callback func(t float64, x, u, y vec.Vector) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}
	x, err := s.prepare(x0, input)
	if err != nil {
		return err
	}

	t := 0.0
	for i := 0; t < cfg.Duration; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		u, y, err := s.sample(t, x, input)
		if err != nil {
			return &SimError{Time: t, Step: i, Message: "output failed", Wrapped: err}
		}
		if !callback(t, x, u, y) {
			return nil
		}

		x, err = s.integrator.Step(s.sys, x, u, t, cfg.Dt)
		if err != nil {
			return &SimError{Time: t, Step: i, Message: "step failed", Wrapped: err}
		}
		t += cfg.Dt

		if cfg.ValidateState && !x.IsValid() {
			return &SimError{Time: t, Step: i, Message: "invalid state", Wrapped: ErrInvalidState}
		}
	}

	return nil
}

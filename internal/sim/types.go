package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

var (
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")
	// ErrStepTooSmall means the error estimate stayed above tolerance down to
	// the minimum step size.
	ErrStepTooSmall = errors.New("sim: tolerance not met at minimum step size")
)

type Integrator interface {
	Step(sys dynamo.System, x, u vec.Vector, t, dt float64) (vec.Vector, error)
}

type AdaptiveIntegrator interface {
	Integrator
	// StepAdaptive reports ok=false for a step whose error exceeds tol.
	StepAdaptive(sys dynamo.System, x, u vec.Vector, t, dt, tol float64) (xNew vec.Vector, dtNew float64, ok bool, err error)
}

type Metric interface {
	Name() string
	Observe(x, u, y vec.Vector, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x, u, y vec.Vector, t float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	Tolerance     float64
	MaxDt         float64
	MinDt         float64
	Adaptive      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		Tolerance:     1e-6,
		MaxDt:         0.1,
		MinDt:         1e-8,
		Adaptive:      false,
		ValidateState: true,
	}
}

// Result holds one sample per recorded time. States, Inputs and Outputs are
// flat copies aligned with Times.
type Result struct {
	Times       []float64
	States      [][]float64
	Inputs      [][]float64
	Outputs     [][]float64
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
}

// Final returns the last recorded output.
func (r *Result) Final() []float64 {
	if len(r.Outputs) == 0 {
		return nil
	}
	return r.Outputs[len(r.Outputs)-1]
}

// Output returns component i of the output over time.
func (r *Result) Output(i int) []float64 {
	out := make([]float64, len(r.Outputs))
	for k, y := range r.Outputs {
		out[k] = y[i]
	}
	return out
}

type SimError struct {
	Time    float64
	Step    int
	Message string
	Wrapped error
}

func (e *SimError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("step %d (t=%.4f): %s: %v", e.Step, e.Time, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e *SimError) Unwrap() error {
	return e.Wrapped
}

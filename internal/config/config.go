// Package config describes block diagrams and run settings in YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 0.01
	DefaultDuration   = 10.0
	DefaultIntegrator = "rk4"
	DefaultTolerance  = 1e-6
)

// Composite node kinds. Leaf kinds are resolved by the experiment registry.
const (
	KindSeries        = "series"
	KindParallel      = "parallel"
	KindFeedback      = "feedback"
	KindUnityFeedback = "unity_feedback"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Name       string       `yaml:"name,omitempty"`
	Integrator string       `yaml:"integrator"`
	Dt         float64      `yaml:"dt"`
	Duration   float64      `yaml:"duration"`
	Adaptive   bool         `yaml:"adaptive,omitempty"`
	Tolerance  float64      `yaml:"tolerance,omitempty"`
	Input      InputConfig  `yaml:"input"`
	Solver     SolverConfig `yaml:"solver,omitempty"`
	System     *Node        `yaml:"system"`
	// InitState is the flat initial state. Empty means zeros.
	InitState []float64 `yaml:"init_state,omitempty"`
}

// InputConfig selects the external input u(t). Every component of u gets the
// same signal.
type InputConfig struct {
	Kind      string  `yaml:"kind"`
	Value     float64 `yaml:"value,omitempty"`
	At        float64 `yaml:"at,omitempty"`
	Amplitude float64 `yaml:"amplitude,omitempty"`
	Frequency float64 `yaml:"frequency,omitempty"`
	Slope     float64 `yaml:"slope,omitempty"`
}

// SolverConfig tunes the Newton solver used by feedback nodes. Zero fields
// keep the solver defaults.
type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance,omitempty"`
	RelTolerance  float64 `yaml:"rel_tolerance,omitempty"`
	MaxIterations int     `yaml:"max_iterations,omitempty"`
	Step          float64 `yaml:"step,omitempty"`
}

// Node is one block of a diagram. Leaf blocks use Kind, Params and Dim, where
// an unset Dim means width 1 and an explicit 0 a zero-width block;
// series and parallel use Blocks; feedback uses Direct and Reverse;
// state_space uses the A, B, C, D matrices given as rows.
type Node struct {
	Kind       string             `yaml:"kind"`
	Params     map[string]float64 `yaml:"params,omitempty"`
	Dim        *int               `yaml:"dim,omitempty"`
	Blocks     []*Node            `yaml:"blocks,omitempty"`
	Direct     *Node              `yaml:"direct,omitempty"`
	Reverse    *Node              `yaml:"reverse,omitempty"`
	Concurrent bool               `yaml:"concurrent,omitempty"`
	A          [][]float64        `yaml:"a,omitempty"`
	B          [][]float64        `yaml:"b,omitempty"`
	C          [][]float64        `yaml:"c,omitempty"`
	D          [][]float64        `yaml:"d,omitempty"`
}

// Param returns Params[name] or def when unset.
func (n *Node) Param(name string, def float64) float64 {
	if v, ok := n.Params[name]; ok {
		return v
	}
	return def
}

// Width is the declared block width, 1 when Dim is unset.
func (n *Node) Width() int {
	if n.Dim == nil {
		return 1
	}
	return *n.Dim
}

// Dim returns a pointer for Node.Dim literals.
func Dim(w int) *int { return &w }

func DefaultConfig() *Config {
	return &Config{
		Integrator: DefaultIntegrator,
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Tolerance:  DefaultTolerance,
		Input:      InputConfig{Kind: "step", Value: 1},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over DefaultConfig and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	}
	if c.Adaptive && c.Tolerance <= 0 {
		return fmt.Errorf("%w: adaptive stepping needs a positive tolerance", ErrInvalidConfig)
	}
	if c.System == nil {
		return fmt.Errorf("%w: no system", ErrInvalidConfig)
	}
	return c.System.Validate("system")
}

// Validate checks the structure of the subtree rooted at n. path names n in
// error messages.
func (n *Node) Validate(path string) error {
	if n == nil {
		return fmt.Errorf("%w: %s: missing block", ErrInvalidConfig, path)
	}
	if n.Kind == "" {
		return fmt.Errorf("%w: %s: missing kind", ErrInvalidConfig, path)
	}

	switch n.Kind {
	case KindSeries:
		if len(n.Blocks) == 0 {
			return fmt.Errorf("%w: %s: series needs at least one block", ErrInvalidConfig, path)
		}
	case KindParallel:
		if len(n.Blocks) != 2 {
			return fmt.Errorf("%w: %s: parallel needs exactly two blocks, got %d", ErrInvalidConfig, path, len(n.Blocks))
		}
	case KindFeedback:
		if err := n.Direct.Validate(path + ".direct"); err != nil {
			return err
		}
		return n.Reverse.Validate(path + ".reverse")
	case KindUnityFeedback:
		return n.Direct.Validate(path + ".direct")
	default:
		if n.Width() < 0 {
			return fmt.Errorf("%w: %s: negative dim %d", ErrInvalidConfig, path, n.Width())
		}
		return nil
	}

	for i, b := range n.Blocks {
		if err := b.Validate(fmt.Sprintf("%s.blocks[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// Clone deep-copies c through its YAML form.
func (c *Config) Clone() (*Config, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetParam sets Params[name] on every node of the given kind in the subtree
// and reports how many nodes changed.
func (n *Node) SetParam(kind, name string, v float64) int {
	if n == nil {
		return 0
	}
	count := 0
	if n.Kind == kind {
		if n.Params == nil {
			n.Params = make(map[string]float64)
		}
		n.Params[name] = v
		count++
	}
	for _, b := range n.Blocks {
		count += b.SetParam(kind, name, v)
	}
	count += n.Direct.SetParam(kind, name, v)
	count += n.Reverse.SetParam(kind, name, v)
	return count
}

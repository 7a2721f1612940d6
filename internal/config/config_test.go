package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Integrator != DefaultIntegrator {
		t.Errorf("expected integrator %s, got %s", DefaultIntegrator, cfg.Integrator)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("loop_gain")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Name != "loop_gain" {
		t.Errorf("expected name loop_gain, got %q", cfg.Name)
	}
	if cfg.System.Kind != KindFeedback {
		t.Errorf("expected feedback system, got %s", cfg.System.Kind)
	}

	// presets are fresh copies
	cfg.System.Direct.Params["k"] = 100
	if GetPreset("loop_gain").System.Direct.Params["k"] != 2 {
		t.Error("modifying a preset leaked into the registry")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("expected presets")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
name: lag_loop
dt: 0.05
duration: 2
input:
  kind: step
  value: 3
solver:
  max_iterations: 20
system:
  kind: unity_feedback
  direct:
    kind: series
    blocks:
      - kind: gain
        params: {k: 4}
      - kind: lag
        params: {rate: 2}
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Integrator != DefaultIntegrator {
		t.Errorf("unset integrator should default, got %q", cfg.Integrator)
	}
	if cfg.Dt != 0.05 || cfg.Input.Value != 3 || cfg.Solver.MaxIterations != 20 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	blocks := cfg.System.Direct.Blocks
	if len(blocks) != 2 || blocks[0].Param("k", 0) != 4 || blocks[1].Param("missing", 7) != 7 {
		t.Errorf("unexpected blocks: %+v", blocks)
	}
}

func TestNodeWidth(t *testing.T) {
	cfg, err := Parse([]byte(`
system:
  kind: parallel
  blocks:
    - kind: gain
      dim: 0
    - kind: gain
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	zero, unset := cfg.System.Blocks[0], cfg.System.Blocks[1]
	if zero.Dim == nil || zero.Width() != 0 {
		t.Errorf("explicit dim 0 should give width 0, got %v", zero.Width())
	}
	if unset.Dim != nil || unset.Width() != 1 {
		t.Errorf("unset dim should give width 1, got %v", unset.Width())
	}

	clone, err := cfg.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if clone.System.Blocks[0].Width() != 0 {
		t.Error("zero width lost in clone")
	}
}

func TestValidate(t *testing.T) {
	gain := &Node{Kind: "gain"}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"adaptive without tolerance", func(c *Config) { c.Adaptive = true; c.Tolerance = 0 }},
		{"no system", func(c *Config) { c.System = nil }},
		{"missing kind", func(c *Config) { c.System = &Node{} }},
		{"empty series", func(c *Config) { c.System = &Node{Kind: KindSeries} }},
		{"parallel with one block", func(c *Config) { c.System = &Node{Kind: KindParallel, Blocks: []*Node{gain}} }},
		{"feedback without reverse", func(c *Config) { c.System = &Node{Kind: KindFeedback, Direct: gain} }},
		{"negative dim", func(c *Config) { c.System = &Node{Kind: "gain", Dim: Dim(-1)} }},
		{"nested error", func(c *Config) {
			c.System = &Node{Kind: KindSeries, Blocks: []*Node{gain, {Kind: KindUnityFeedback}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.System = gain
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagram.yaml")

	orig := GetPreset("state_space")
	if err := Save(path, orig); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	direct := loaded.System.Direct
	if direct.Kind != "state_space" || len(direct.A) != 2 || direct.A[1][0] != -2 {
		t.Errorf("state space matrices not preserved: %+v", direct)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestCloneAndSetParam(t *testing.T) {
	orig := GetPreset("pid_spring")
	clone, err := orig.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	if n := clone.System.SetParam("pid", "kp", 42); n != 1 {
		t.Errorf("SetParam changed %d nodes, want 1", n)
	}
	if n := clone.System.SetParam("missing", "kp", 1); n != 0 {
		t.Errorf("SetParam on unknown kind changed %d nodes", n)
	}

	pid := clone.System.Direct.Blocks[0]
	if pid.Params["kp"] != 42 {
		t.Errorf("kp = %v, want 42", pid.Params["kp"])
	}
	if orig.System.Direct.Blocks[0].Params["kp"] == 42 {
		t.Error("SetParam on the clone changed the original")
	}
}

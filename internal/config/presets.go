package config

import "sort"

func leaf(kind string, params map[string]float64) *Node {
	return &Node{Kind: kind, Params: params}
}

var presets = map[string]func() *Config{
	// y = 2(1 - y) settles instantly at 2/3
	"loop_gain": func() *Config {
		return &Config{
			Integrator: "rk4", Dt: 0.01, Duration: 1,
			Input: InputConfig{Kind: "constant", Value: 1},
			System: &Node{
				Kind:    KindFeedback,
				Direct:  leaf("gain", map[string]float64{"k": 2}),
				Reverse: leaf("gain", map[string]float64{"k": 1}),
			},
		}
	},
	"unity_lag": func() *Config {
		return &Config{
			Integrator: "rk4", Dt: 0.01, Duration: 5,
			Input: InputConfig{Kind: "step", Value: 1},
			System: &Node{
				Kind:   KindUnityFeedback,
				Direct: leaf("lag", map[string]float64{"rate": 1}),
			},
		}
	},
	// mass-spring-damper in a unity loop, the textbook second order example
	"second_order": func() *Config {
		return &Config{
			Integrator: "rk4", Dt: 0.01, Duration: 20,
			Input: InputConfig{Kind: "step", Value: 1},
			System: &Node{
				Kind:   KindUnityFeedback,
				Direct: leaf("second_order", map[string]float64{"k": 1, "c": 1}),
			},
			InitState: []float64{0, 0},
		}
	},
	"pid_spring": func() *Config {
		return &Config{
			Integrator: "rk4", Dt: 0.005, Duration: 15,
			Input: InputConfig{Kind: "step", Value: 1},
			System: &Node{
				Kind: KindUnityFeedback,
				Direct: &Node{Kind: KindSeries, Blocks: []*Node{
					leaf("pid", map[string]float64{"kp": 10, "ki": 2, "kd": 3}),
					leaf("spring_mass", map[string]float64{"mass": 1, "stiffness": 1, "damping": 0.5}),
				}},
			},
		}
	},
	"pid_pendulum": func() *Config {
		return &Config{
			Integrator: "rk4", Dt: 0.005, Duration: 10,
			Input: InputConfig{Kind: "step", Value: 0.5},
			System: &Node{
				Kind: KindUnityFeedback,
				Direct: &Node{Kind: KindSeries, Blocks: []*Node{
					leaf("pid", map[string]float64{"kp": 40, "ki": 5, "kd": 8}),
					leaf("saturation", map[string]float64{"lo": -20, "hi": 20}),
					leaf("pendulum", nil),
				}},
			},
		}
	},
	"parallel_lags": func() *Config {
		return &Config{
			Integrator: "rk45", Dt: 0.01, Duration: 8, Adaptive: true, Tolerance: 1e-8,
			Input: InputConfig{Kind: "sine", Amplitude: 1, Frequency: 0.5},
			System: &Node{Kind: KindParallel, Concurrent: true, Blocks: []*Node{
				leaf("lag", map[string]float64{"rate": 1}),
				leaf("lag", map[string]float64{"rate": 5}),
			}},
		}
	},
	// double-well oscillator shaken by a sine, starting in the right well
	"duffing_forced": func() *Config {
		return &Config{
			Integrator: "rk45", Dt: 0.01, Duration: 30, Adaptive: true, Tolerance: 1e-7,
			Input: InputConfig{Kind: "sine", Amplitude: 1, Frequency: 0.2},
			System: &Node{Kind: KindSeries, Blocks: []*Node{
				leaf("gain", map[string]float64{"k": 0.5}),
				leaf("duffing", map[string]float64{"alpha": -1, "beta": 1, "delta": 0.3}),
			}},
			InitState: []float64{1, 0},
		}
	},
	"state_space": func() *Config {
		return &Config{
			Integrator: "rk4", Dt: 0.01, Duration: 10,
			Input: InputConfig{Kind: "step", Value: 1},
			System: &Node{
				Kind:   KindUnityFeedback,
				Direct: &Node{
					Kind: "state_space",
					A:    [][]float64{{0, 1}, {-2, -3}},
					B:    [][]float64{{0}, {1}},
					C:    [][]float64{{1, 0}},
					D:    [][]float64{{0}},
				},
			},
		}
	},
	// y = (u - y)^2 + 1 has no real solution; the run fails at t=0
	"divergent": func() *Config {
		return &Config{
			Integrator: "rk4", Dt: 0.01, Duration: 1,
			Input: InputConfig{Kind: "constant", Value: 0},
			System: &Node{
				Kind:   KindUnityFeedback,
				Direct: leaf("quadratic", map[string]float64{"a": 1, "c": 1}),
			},
		}
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	mk, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := mk()
	cfg.Name = name
	if cfg.Tolerance == 0 {
		cfg.Tolerance = DefaultTolerance
	}
	return cfg
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package experiment

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/integrators"
	"github.com/san-kum/blocksim/internal/metrics"
	"github.com/san-kum/blocksim/internal/models"
	"github.com/san-kum/blocksim/internal/rootfind"
	"github.com/san-kum/blocksim/internal/signals"
	"github.com/san-kum/blocksim/internal/sim"
	"github.com/san-kum/blocksim/internal/vec"
)

// BlockFactory builds a leaf block from its diagram node.
type BlockFactory func(n *config.Node) (dynamo.System, error)

// SignalFactory builds an input signal of the given width.
type SignalFactory func(in config.InputConfig, width int) signals.Signal

type Registry struct {
	blocks      map[string]BlockFactory
	integrators map[string]func() sim.Integrator
	signals     map[string]SignalFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		blocks:      make(map[string]BlockFactory),
		integrators: make(map[string]func() sim.Integrator),
		signals:     make(map[string]SignalFactory),
	}

	r.blocks["gain"] = func(n *config.Node) (dynamo.System, error) {
		return models.NewGain(n.Param("k", 1), n.Width()), nil
	}
	r.blocks["lag"] = func(n *config.Node) (dynamo.System, error) {
		return models.NewLag(n.Param("rate", 1), n.Width()), nil
	}
	r.blocks["integrator"] = func(n *config.Node) (dynamo.System, error) {
		return models.NewIntegrator(n.Width()), nil
	}
	r.blocks["unity"] = func(n *config.Node) (dynamo.System, error) {
		return dynamo.NewUnity(vec.Leaf(n.Width())), nil
	}
	r.blocks["second_order"] = func(n *config.Node) (dynamo.System, error) {
		return models.NewSecondOrder(n.Param("k", 1), n.Param("c", 1)), nil
	}
	r.blocks["spring_mass"] = func(n *config.Node) (dynamo.System, error) {
		return &models.SpringMass{
			Mass:      n.Param("mass", models.DefaultMass),
			Stiffness: n.Param("stiffness", models.DefaultStiffness),
			Damping:   n.Param("damping", models.DefaultDamping),
		}, nil
	}
	r.blocks["pendulum"] = func(n *config.Node) (dynamo.System, error) {
		p := models.NewPendulum()
		p.Mass = n.Param("mass", p.Mass)
		p.Length = n.Param("length", p.Length)
		p.Damping = n.Param("damping", p.Damping)
		p.Gravity = n.Param("gravity", p.Gravity)
		return p, nil
	}
	r.blocks["van_der_pol"] = func(n *config.Node) (dynamo.System, error) {
		return models.NewVanDerPol(n.Param("mu", 1)), nil
	}
	r.blocks["duffing"] = func(n *config.Node) (dynamo.System, error) {
		return models.NewDuffing(n.Param("alpha", -1), n.Param("beta", 1), n.Param("delta", 0.3)), nil
	}
	r.blocks["pid"] = func(n *config.Node) (dynamo.System, error) {
		p := models.NewPID(n.Param("kp", 1), n.Param("ki", 0), n.Param("kd", 0))
		p.Tf = n.Param("tf", models.DefaultFilter)
		if p.Tf <= 0 {
			return nil, fmt.Errorf("pid: filter constant must be positive, got %g", p.Tf)
		}
		return p, nil
	}
	r.blocks["saturation"] = func(n *config.Node) (dynamo.System, error) {
		lo, hi := n.Param("lo", -1), n.Param("hi", 1)
		if lo > hi {
			return nil, fmt.Errorf("saturation: lo %g above hi %g", lo, hi)
		}
		return models.NewSaturation(lo, hi, n.Width()), nil
	}
	// y = a u^2 + b u + c elementwise
	r.blocks["quadratic"] = func(n *config.Node) (dynamo.System, error) {
		a, b, c := n.Param("a", 0), n.Param("b", 0), n.Param("c", 0)
		w := n.Width()
		return models.NewStatic(w, w, func(_ float64, u []float64) []float64 {
			y := make([]float64, len(u))
			for i, v := range u {
				y[i] = a*v*v + b*v + c
			}
			return y
		}), nil
	}
	r.blocks["state_space"] = buildStateSpace

	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() sim.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() sim.Integrator { return integrators.NewRK45() }

	r.signals["constant"] = func(in config.InputConfig, width int) signals.Signal {
		vals := make([]float64, width)
		for i := range vals {
			vals[i] = in.Value
		}
		return signals.NewConstant(vals...)
	}
	r.signals["step"] = func(in config.InputConfig, width int) signals.Signal {
		return signals.NewStep(in.Value, in.At, width)
	}
	r.signals["sine"] = func(in config.InputConfig, width int) signals.Signal {
		return signals.NewSine(in.Amplitude, in.Frequency, width)
	}
	r.signals["ramp"] = func(in config.InputConfig, width int) signals.Signal {
		return signals.NewRamp(in.Slope, in.At, width)
	}

	return r
}

func buildStateSpace(n *config.Node) (dynamo.System, error) {
	var ms [4]*mat.Dense
	for i, rows := range [][][]float64{n.A, n.B, n.C, n.D} {
		m, err := dense(rows)
		if err != nil {
			return nil, fmt.Errorf("state_space: matrix %c: %w", "ABCD"[i], err)
		}
		ms[i] = m
	}
	return models.NewStateSpace(ms[0], ms[1], ms[2], ms[3])
}

// dense converts rows to a matrix. No rows yields nil.
func dense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	c := len(rows[0])
	if c == 0 {
		return nil, fmt.Errorf("empty row")
	}
	data := make([]float64, 0, len(rows)*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), c, vec.ErrDimensionMismatch)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), c, data), nil
}

// RegisterBlock adds or replaces a leaf block kind.
func (r *Registry) RegisterBlock(kind string, f BlockFactory) {
	r.blocks[kind] = f
}

// Build turns a diagram into a system. Composition shape errors are reported
// here, before anything runs. solver may be nil for the default Newton solver.
func (r *Registry) Build(n *config.Node, solver rootfind.Solver) (dynamo.System, error) {
	return r.build(n, solver, "system")
}

func (r *Registry) build(n *config.Node, solver rootfind.Solver, path string) (dynamo.System, error) {
	if err := n.Validate(path); err != nil {
		return nil, err
	}

	var fbOpts []dynamo.FeedbackOption
	if solver != nil {
		fbOpts = append(fbOpts, dynamo.WithSolver(solver))
	}

	switch n.Kind {
	case config.KindSeries:
		children := make([]dynamo.System, len(n.Blocks))
		for i, b := range n.Blocks {
			sys, err := r.build(b, solver, fmt.Sprintf("%s.blocks[%d]", path, i))
			if err != nil {
				return nil, err
			}
			children[i] = sys
		}
		sys, err := dynamo.Chain(children...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return sys, nil

	case config.KindParallel:
		top, err := r.build(n.Blocks[0], solver, path+".blocks[0]")
		if err != nil {
			return nil, err
		}
		bottom, err := r.build(n.Blocks[1], solver, path+".blocks[1]")
		if err != nil {
			return nil, err
		}
		var opts []dynamo.ParallelOption
		if n.Concurrent {
			opts = append(opts, dynamo.Concurrent())
		}
		return dynamo.NewParallel(top, bottom, opts...), nil

	case config.KindFeedback:
		direct, err := r.build(n.Direct, solver, path+".direct")
		if err != nil {
			return nil, err
		}
		reverse, err := r.build(n.Reverse, solver, path+".reverse")
		if err != nil {
			return nil, err
		}
		sys, err := dynamo.NewNegativeFeedback(direct, reverse, fbOpts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return sys, nil

	case config.KindUnityFeedback:
		direct, err := r.build(n.Direct, solver, path+".direct")
		if err != nil {
			return nil, err
		}
		sys, err := dynamo.NewUnityFeedback(direct, fbOpts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return sys, nil
	}

	fn, ok := r.blocks[n.Kind]
	if !ok {
		return nil, fmt.Errorf("%s: unknown block kind: %s", path, n.Kind)
	}
	sys, err := fn(n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sys, nil
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetSignal(in config.InputConfig, width int) (signals.Signal, error) {
	fn, ok := r.signals[in.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown input kind: %s", in.Kind)
	}
	return fn(in, width), nil
}

func (r *Registry) ListBlocks() []string      { return sortedKeys(r.blocks) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListSignals() []string     { return sortedKeys(r.signals) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(sys dynamo.System) []sim.Metric {
	return []sim.Metric{
		metrics.NewPeak(),
		metrics.NewEffort(),
		metrics.NewBounded(1e3),
		metrics.NewEnergyDrift(sys),
		metrics.NewTrackingError(),
	}
}

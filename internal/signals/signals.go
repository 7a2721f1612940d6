// Package signals provides time-varying inputs u(t) for simulations.
package signals

import (
	"math"

	"github.com/san-kum/blocksim/internal/vec"
)

// Signal is an external input. At must be pure in t.
type Signal interface {
	At(t float64) vec.Vector
	Width() int
}

type Constant struct {
	value vec.Vector
}

func NewConstant(vals ...float64) *Constant {
	return &Constant{value: vec.New(vals...)}
}

func (c *Constant) At(float64) vec.Vector { return c.value }
func (c *Constant) Width() int            { return c.value.Dim() }

// Step switches every component from Initial to Final at time Time.
type Step struct {
	Initial float64
	Final   float64
	Time    float64
	n       int
}

func NewStep(final, at float64, n int) *Step {
	return &Step{Final: final, Time: at, n: n}
}

func (s *Step) At(t float64) vec.Vector {
	v := s.Initial
	if t >= s.Time {
		v = s.Final
	}
	return fill(v, s.n)
}

func (s *Step) Width() int { return s.n }

// Sine is Offset + Amplitude sin(2π Frequency t + Phase) on every component.
type Sine struct {
	Amplitude float64
	Frequency float64
	Phase     float64
	Offset    float64
	n         int
}

func NewSine(amplitude, frequency float64, n int) *Sine {
	return &Sine{Amplitude: amplitude, Frequency: frequency, n: n}
}

func (s *Sine) At(t float64) vec.Vector {
	return fill(s.Offset+s.Amplitude*math.Sin(2*math.Pi*s.Frequency*t+s.Phase), s.n)
}

func (s *Sine) Width() int { return s.n }

// Ramp rises with Slope from Start onwards and is zero before.
type Ramp struct {
	Slope float64
	Start float64
	n     int
}

func NewRamp(slope, start float64, n int) *Ramp {
	return &Ramp{Slope: slope, Start: start, n: n}
}

func (r *Ramp) At(t float64) vec.Vector {
	if t < r.Start {
		return fill(0, r.n)
	}
	return fill(r.Slope*(t-r.Start), r.n)
}

func (r *Ramp) Width() int { return r.n }

// Func distributes a scalar function over a direction vector: u(t) = B U(t).
type Func struct {
	U func(float64) float64
	B []float64
}

func NewFunc(u func(float64) float64, b ...float64) *Func {
	return &Func{U: u, B: b}
}

func (f *Func) At(t float64) vec.Vector {
	return vec.New(f.B...).Scale(f.U(t))
}

func (f *Func) Width() int { return len(f.B) }

func fill(v float64, n int) vec.Vector {
	data := make([]float64, n)
	for i := range data {
		data[i] = v
	}
	return vec.New(data...)
}

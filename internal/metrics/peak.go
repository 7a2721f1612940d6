package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/blocksim/internal/vec"
)

var inf = math.Inf(1)

// Peak is the largest absolute output component seen.
type Peak struct {
	name string
	peak float64
}

func NewPeak() *Peak {
	return &Peak{name: "peak"}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x, u, y vec.Vector, t float64) {
	if y.Dim() == 0 {
		return
	}
	if m := floats.Norm(y.Flat(), inf); m > p.peak {
		p.peak = m
	}
}

func (p *Peak) Value() float64 { return p.peak }

func (p *Peak) Reset() { p.peak = 0 }

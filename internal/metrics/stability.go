package metrics

import (
	"math"

	"github.com/san-kum/blocksim/internal/vec"
)

// Bounded is the fraction of samples whose output stays within threshold in
// every component.
type Bounded struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewBounded(threshold float64) *Bounded {
	return &Bounded{
		name:      "bounded",
		threshold: threshold,
	}
}

func (s *Bounded) Name() string {
	return s.name
}

func (s *Bounded) Observe(x, u, y vec.Vector, t float64) {
	s.samples++
	for _, val := range y.Flat() {
		if math.IsNaN(val) || math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Bounded) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Bounded) Reset() {
	s.violations = 0
	s.samples = 0
}

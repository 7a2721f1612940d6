package metrics

import (
	"math"

	"github.com/san-kum/blocksim/internal/vec"
)

// Effort is the mean absolute input applied per sample.
type Effort struct {
	name    string
	sum     float64
	samples int
}

func NewEffort() *Effort {
	return &Effort{
		name: "effort",
	}
}

func (c *Effort) Name() string {
	return c.name
}

func (c *Effort) Observe(x, u, y vec.Vector, t float64) {
	for _, val := range u.Flat() {
		c.sum += math.Abs(val)
	}
	c.samples++
}

func (c *Effort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Effort) Reset() {
	c.sum = 0
	c.samples = 0
}

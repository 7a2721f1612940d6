// Package integrators advances the state of a dynamo.System over one time
// step. The input is held constant across a step.
package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/blocksim/internal/vec"
)

// combine returns x + dt * sum(w[i] * k[i]). Zero weights are skipped.
func combine(x vec.Vector, dt float64, w []float64, k ...vec.Vector) (vec.Vector, error) {
	out := x.Flat()
	for i, ki := range k {
		if w[i] == 0 {
			continue
		}
		if ki.Dim() != len(out) {
			return vec.Vector{}, &vec.DimensionError{Expected: len(out), Actual: ki.Dim()}
		}
		floats.AddScaled(out, dt*w[i], ki.Flat())
	}
	return vec.FromFlat(x.Shape(), out)
}

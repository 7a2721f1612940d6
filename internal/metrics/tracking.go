package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/blocksim/internal/vec"
)

// TrackingError is the mean of ‖u − y‖₁ over samples, the reference-tracking
// error of a loop whose output is meant to follow its input. Samples where u
// and y differ in width are skipped.
type TrackingError struct {
	name    string
	sum     float64
	samples int
}

func NewTrackingError() *TrackingError {
	return &TrackingError{name: "tracking_error"}
}

func (m *TrackingError) Name() string { return m.name }

func (m *TrackingError) Observe(x, u, y vec.Vector, t float64) {
	if u.Dim() != y.Dim() {
		return
	}
	if u.Dim() > 0 {
		m.sum += floats.Distance(u.Flat(), y.Flat(), 1)
	}
	m.samples++
}

func (m *TrackingError) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *TrackingError) Reset() {
	m.sum = 0
	m.samples = 0
}

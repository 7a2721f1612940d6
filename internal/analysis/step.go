package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrShortSeries = errors.New("analysis: series too short")

const (
	// SettlingBand is the fraction of the step size a response must stay
	// within to count as settled.
	SettlingBand = 0.02

	riseLow  = 0.1
	riseHigh = 0.9
)

type StepResponse struct {
	// SteadyState is the last sample.
	SteadyState float64
	// RiseTime is the 10% to 90% rise time.
	RiseTime float64
	// Overshoot is the peak excess over the step, in percent.
	Overshoot float64
	Peak      float64
	PeakTime  float64
	// SettlingTime is measured from times[0]. Responses still outside the band
	// at the last sample report +Inf.
	SettlingTime float64
}

// StepInfo summarises a step response. The response is measured relative to
// its first sample, so it need not start at zero.
func StepInfo(times, y []float64) (StepResponse, error) {
	if len(times) != len(y) {
		return StepResponse{}, fmt.Errorf("analysis: %d times for %d samples", len(times), len(y))
	}
	n := len(y)
	if n < 2 {
		return StepResponse{}, ErrShortSeries
	}

	y0, yf := y[0], y[n-1]
	info := StepResponse{SteadyState: yf}

	delta := yf - y0
	if delta == 0 || math.IsNaN(delta) {
		peak := floats.MaxIdx(y)
		info.Peak, info.PeakTime = y[peak], times[peak]
		return info, nil
	}

	// normalise so the step goes 0 -> 1
	s := make([]float64, n)
	copy(s, y)
	floats.AddConst(-y0, s)
	floats.Scale(1/delta, s)

	peak := floats.MaxIdx(s)
	info.Peak = y[peak]
	info.PeakTime = times[peak]
	info.Overshoot = math.Max(0, (s[peak]-1)*100)

	tLow, okLow := crossing(times, s, riseLow)
	tHigh, okHigh := crossing(times, s, riseHigh)
	if okLow && okHigh {
		info.RiseTime = tHigh - tLow
	} else {
		info.RiseTime = math.Inf(1)
	}

	info.SettlingTime = 0
	for i := n - 1; i >= 0; i-- {
		if math.Abs(s[i]-1) > SettlingBand {
			if i == n-1 {
				info.SettlingTime = math.Inf(1)
			} else {
				info.SettlingTime = times[i+1] - times[0]
			}
			break
		}
	}

	return info, nil
}

// crossing returns the first time s reaches level, interpolated between
// samples.
func crossing(times, s []float64, level float64) (float64, bool) {
	if s[0] >= level {
		return times[0], true
	}
	for i := 1; i < len(s); i++ {
		if s[i] >= level {
			frac := (level - s[i-1]) / (s[i] - s[i-1])
			return times[i-1] + frac*(times[i]-times[i-1]), true
		}
	}
	return 0, false
}

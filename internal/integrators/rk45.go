package integrators

import (
	"math"

	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

// Dormand-Prince coefficients (RK45)
var (
	dpNodes = []float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1}

	dpStages = [][]float64{
		nil,
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
		{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
		{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
	}

	// fifth-order solution
	dpHigh = []float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0}

	// difference between fifth and embedded fourth order, including the FSAL stage
	dpErr = []float64{
		35.0/384.0 - 5179.0/57600.0,
		0,
		500.0/1113.0 - 7571.0/16695.0,
		125.0/192.0 - 393.0/640.0,
		-2187.0/6784.0 - -92097.0/339200.0,
		11.0/84.0 - 187.0/2100.0,
		-1.0 / 40.0,
	}
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Step(sys dynamo.System, x, u vec.Vector, t, dt float64) (vec.Vector, error) {
	newX, _, _, err := r.StepAdaptive(sys, x, u, t, dt, 1e-6)
	return newX, err
}

// StepAdaptive takes one Dormand-Prince step of size dt and returns the new
// state together with the suggested size of the next step. ok is false when
// the error estimate exceeds tol; the caller should then discard the state
// and retry with the suggested size.
func (r *RK45) StepAdaptive(sys dynamo.System, x, u vec.Vector, t, dt, tol float64) (xNew vec.Vector, dtNew float64, ok bool, err error) {
	k := make([]vec.Vector, 0, 7)

	for i, a := range dpNodes {
		xi := x
		if i > 0 {
			var err error
			xi, err = combine(x, dt, dpStages[i], k...)
			if err != nil {
				return vec.Vector{}, 0, false, err
			}
		}
		ki, err := sys.Derivative(t+a*dt, xi, u)
		if err != nil {
			return vec.Vector{}, 0, false, err
		}
		k = append(k, ki)
	}

	xNew, err = combine(x, dt, dpHigh, k...)
	if err != nil {
		return vec.Vector{}, 0, false, err
	}

	k7, err := sys.Derivative(t+dt, xNew, u)
	if err != nil {
		return vec.Vector{}, 0, false, err
	}
	k = append(k, k7)

	xs := x.Flat()
	k1 := k[0].Flat()
	errMax := 0.0
	for i := range xs {
		errEst := 0.0
		for j, w := range dpErr {
			if w != 0 {
				errEst += w * k[j].At(i)
			}
		}
		errEst *= dt
		scale := math.Abs(xs[i]) + math.Abs(dt*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	errRatio := errMax / tol

	switch {
	case math.IsNaN(errRatio):
		dtNew = dt * r.minScale
	case errRatio > 1:
		dtNew = dt * math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		dtNew = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	default:
		dtNew = dt * r.maxScale
	}

	return xNew, dtNew, errRatio <= 1, nil
}

package metrics

import (
	"math"

	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/vec"
)

// EnergyDrift tracks the largest relative change of sys's energy from the
// first observed sample. Composites report the summed energy of their
// energetic blocks; systems with none report zero.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
	sys           dynamo.System
}

func NewEnergyDrift(sys dynamo.System) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		sys:  sys,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x, u, y vec.Vector, t float64) {
	energy, ok := dynamo.Energy(e.sys, x)
	if !ok {
		return
	}

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

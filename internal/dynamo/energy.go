package dynamo

import "github.com/san-kum/blocksim/internal/vec"

// Energetic is implemented by systems that report the energy held in a state.
type Energetic interface {
	Energy(x vec.Vector) float64
}

// Energy sums the energy of every energetic block inside sys, descending
// through Series, Parallel and NegativeFeedback. Blocks without energy count
// as zero. ok is false when no block reports energy or x does not split along
// the composition.
func Energy(sys System, x vec.Vector) (float64, bool) {
	switch c := sys.(type) {
	case *Series:
		return pairEnergy(c.first, c.second, x)
	case *Parallel:
		return pairEnergy(c.top, c.bottom, x)
	case *NegativeFeedback:
		return pairEnergy(c.direct, c.reverse, x)
	case Energetic:
		if !x.Shape().Equal(sys.StateShape()) {
			return 0, false
		}
		return c.Energy(x), true
	}
	return 0, false
}

func pairEnergy(a, b System, x vec.Vector) (float64, bool) {
	xa, xb, err := x.Split()
	if err != nil {
		return 0, false
	}
	ea, okA := Energy(a, xa)
	eb, okB := Energy(b, xb)
	return ea + eb, okA || okB
}

func (s *Series) Energy(x vec.Vector) float64 {
	e, _ := Energy(s, x)
	return e
}

func (p *Parallel) Energy(x vec.Vector) float64 {
	e, _ := Energy(p, x)
	return e
}

func (f *NegativeFeedback) Energy(x vec.Vector) float64 {
	e, _ := Energy(f, x)
	return e
}

package dynamo

import "github.com/san-kum/blocksim/internal/vec"

// System is a continuous-time state-space model. Both methods are pure
// functions of their arguments and the system's fixed parameters.
type System interface {
	// Derivative returns dx/dt, shaped like StateShape.
	Derivative(t float64, x, u vec.Vector) (vec.Vector, error)
	// Output returns y, shaped like OutputShape.
	Output(t float64, x, u vec.Vector) (vec.Vector, error)

	StateShape() vec.Shape
	InputShape() vec.Shape
	OutputShape() vec.Shape
}

// Check verifies that x and u are shaped for sys.
func Check(sys System, x, u vec.Vector) error {
	if !x.Shape().Equal(sys.StateShape()) {
		return &vec.ShapeError{Op: "state", Want: sys.StateShape(), Got: x.Shape()}
	}
	if !u.Shape().Equal(sys.InputShape()) {
		return &vec.ShapeError{Op: "input", Want: sys.InputShape(), Got: u.Shape()}
	}
	return nil
}

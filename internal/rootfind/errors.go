package rootfind

import (
	"errors"
	"fmt"
)

// ErrNoConvergence indicates the solver stopped without driving the residual
// below tolerance.
var ErrNoConvergence = errors.New("rootfind: did not converge")

// ConvergenceError carries the state of a failed solve.
type ConvergenceError struct {
	Iterations int
	Residual   float64
	Reason     string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("rootfind: did not converge after %d iterations (|r|=%.3g): %s",
		e.Iterations, e.Residual, e.Reason)
}

func (e *ConvergenceError) Is(target error) bool {
	return target == ErrNoConvergence
}

package dynamo

import (
	"errors"
	"fmt"

	"github.com/san-kum/blocksim/internal/vec"
)

// Domain errors for system construction and evaluation.
var (
	// ErrDimensionMismatch indicates a flat buffer of the wrong length.
	ErrDimensionMismatch = vec.ErrDimensionMismatch

	// ErrShapeMismatch indicates ports or vectors whose shapes do not line up.
	ErrShapeMismatch = vec.ErrShapeMismatch

	// ErrFeedbackDidNotConverge indicates the algebraic loop of a feedback
	// composition could not be resolved at the requested operating point.
	ErrFeedbackDidNotConverge = errors.New("dynamo: feedback did not converge")
)

// CompositionError is returned by composite constructors when the children's
// ports cannot be connected.
type CompositionError struct {
	Kind string
	Port string
	Want vec.Shape
	Got  vec.Shape
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("dynamo: %s: %s: want shape %s, got %s", e.Kind, e.Port, e.Want, e.Got)
}

func (e *CompositionError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// FeedbackError wraps the solver failure of a feedback loop.
type FeedbackError struct {
	Time    float64
	Wrapped error
}

func (e *FeedbackError) Error() string {
	return fmt.Sprintf("dynamo: feedback did not converge at t=%g: %v", e.Time, e.Wrapped)
}

func (e *FeedbackError) Is(target error) bool {
	return target == ErrFeedbackDidNotConverge
}

func (e *FeedbackError) Unwrap() error {
	return e.Wrapped
}

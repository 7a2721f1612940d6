package vec

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch indicates a flat buffer whose length differs from the
	// width of the shape it was meant to fill.
	ErrDimensionMismatch = errors.New("vec: dimension mismatch")

	// ErrShapeMismatch indicates two vectors (or shapes) whose structure differs
	// where identical structure is required.
	ErrShapeMismatch = errors.New("vec: shape mismatch")
)

// DimensionError reports the expected and actual flat length.
type DimensionError struct {
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vec: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// ShapeError reports an operation applied to incompatible shapes.
type ShapeError struct {
	Op   string
	Want Shape
	Got  Shape
}

func (e *ShapeError) Error() string {
	if e.Op == "split" {
		return fmt.Sprintf("vec: shape mismatch: cannot split non-pair shape %s", e.Got)
	}
	return fmt.Sprintf("vec: shape mismatch in %s: want %s, got %s", e.Op, e.Want, e.Got)
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrShapeMismatch
}

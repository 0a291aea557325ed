package tensor

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is wrapped by every shape error raised in neuralkit.
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeMismatchError reports an operation invoked with incompatible shapes.
//
// Tensor operations panic with a *ShapeMismatchError: a mismatch inside an
// operation is a composition bug, not a runtime condition.
type ShapeMismatchError struct {
	Op       string
	Expected Shape
	Actual   Shape
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: %v: expected %v, got %v", e.Op, ErrShapeMismatch, e.Expected, e.Actual)
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}

// MustMatch panics with a *ShapeMismatchError if actual differs from expected.
func MustMatch(op string, expected, actual Shape) {
	if expected != actual {
		panic(&ShapeMismatchError{Op: op, Expected: expected, Actual: actual})
	}
}

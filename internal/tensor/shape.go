// Package tensor implements the host-side tensor primitives of neuralkit.
//
// This package provides:
//   - Shape: Width × Height × Depth dimensions of a tensor
//   - Vector, Matrix, Matrix3: fixed-shape containers over contiguous float32 storage
//   - Eager operations that write into a caller-supplied destination
//   - Deferred expressions (Expr) evaluated by Assign into a single destination
//
// No operation allocates its result. The caller owns and supplies every
// destination tensor, which keeps hot loops allocation free.
package tensor

import (
	"fmt"
	"math"
)

// MaxElements bounds the number of elements a single tensor may hold.
const MaxElements = math.MaxInt32

// Shape represents the dimensions of a tensor.
//
// A Vector of n elements has shape {n, 1, 1}, a Matrix of width w and
// height h has shape {w, h, 1}. Values are stored row-major and then
// slice-major: index = (slice*Height + row)*Width + column.
type Shape struct {
	Width  int
	Height int
	Depth  int
}

// VectorShape returns the shape of a vector with n elements.
func VectorShape(n int) Shape {
	return Shape{Width: n, Height: 1, Depth: 1}
}

// MatrixShape returns the shape of a width × height matrix.
func MatrixShape(width, height int) Shape {
	return Shape{Width: width, Height: height, Depth: 1}
}

// Matrix3Shape returns the shape of a width × height × depth matrix.
func Matrix3Shape(width, height, depth int) Shape {
	return Shape{Width: width, Height: height, Depth: depth}
}

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	return s.Width * s.Height * s.Depth
}

// Validate checks if the shape is valid: all dimensions > 0 and at most
// MaxElements elements in total.
func (s Shape) Validate() error {
	if s.Width <= 0 || s.Height <= 0 || s.Depth <= 0 {
		return fmt.Errorf("invalid shape %v: all dimensions must be > 0", s)
	}
	if s.Width > MaxElements/s.Height || s.Width*s.Height > MaxElements/s.Depth {
		return fmt.Errorf("invalid shape %v: exceeds %d elements", s, MaxElements)
	}
	return nil
}

// Index returns the flat offset of (column, row, slice).
func (s Shape) Index(column, row, slice int) int {
	return (slice*s.Height+row)*s.Width + column
}

// String returns the shape as "WxHxD".
func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Depth)
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/neuralkit/internal/tensor"
)

// Shape describes the width, height and depth of a tensor.
type Shape = tensor.Shape

// Tensor is implemented by Vector, Matrix and Matrix3.
type Tensor = tensor.Tensor

// Vector is a one-dimensional tensor.
type Vector = tensor.Vector

// Matrix is a two-dimensional tensor.
type Matrix = tensor.Matrix

// Matrix3 is a three-dimensional tensor.
type Matrix3 = tensor.Matrix3

// ShapeMismatchError reports operands or data of incompatible shape.
type ShapeMismatchError = tensor.ShapeMismatchError

// ErrShapeMismatch is wrapped by every shape mismatch error.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// VectorShape returns the shape of a vector with n elements.
func VectorShape(n int) Shape { return tensor.VectorShape(n) }

// MatrixShape returns the shape of a width × height matrix.
func MatrixShape(width, height int) Shape { return tensor.MatrixShape(width, height) }

// Matrix3Shape returns the shape of a width × height × depth tensor.
func Matrix3Shape(width, height, depth int) Shape {
	return tensor.Matrix3Shape(width, height, depth)
}

// NewVector creates a zero-filled vector of n elements.
func NewVector(n int) *Vector { return tensor.NewVector(n) }

// VectorOf creates a vector holding a copy of values.
func VectorOf(values ...float32) *Vector { return tensor.VectorOf(values...) }

// AdoptVector wraps values without copying.
func AdoptVector(values []float32) *Vector { return tensor.AdoptVector(values) }

// NewMatrix creates a zero-filled width × height matrix.
func NewMatrix(width, height int) *Matrix { return tensor.NewMatrix(width, height) }

// MatrixFrom creates a matrix holding a copy of values in row-major order.
// Returns an error wrapping ErrShapeMismatch if len(values) != width*height.
func MatrixFrom(width, height int, values []float32) (*Matrix, error) {
	return tensor.MatrixFrom(width, height, values)
}

// NewMatrix3 creates a zero-filled tensor of the given shape.
func NewMatrix3(shape Shape) *Matrix3 { return tensor.NewMatrix3(shape) }

// Matrix3From creates a tensor of the given shape holding a copy of values.
func Matrix3From(shape Shape, values []float32) (*Matrix3, error) {
	return tensor.Matrix3From(shape, values)
}

// Matrix3Of copies any tensor into a new Matrix3.
func Matrix3Of(t Tensor) *Matrix3 { return tensor.Matrix3Of(t) }

// Element-wise operations. dst may alias any operand.
var (
	Copy           = tensor.Copy
	Fill           = tensor.Fill
	Add            = tensor.Add
	Subtract       = tensor.Subtract
	Multiply       = tensor.Multiply
	Divide         = tensor.Divide
	AddScalar      = tensor.AddScalar
	MultiplyScalar = tensor.MultiplyScalar
	ScalarSubtract = tensor.ScalarSubtract
	ScalarDivide   = tensor.ScalarDivide
	Negate         = tensor.Negate
	Sqrt           = tensor.Sqrt
	Rsqrt          = tensor.Rsqrt
	Square         = tensor.Square
	Exp            = tensor.Exp
	Log            = tensor.Log
	Tanh           = tensor.Tanh
	Sigmoid        = tensor.Sigmoid
	ReLU           = tensor.ReLU
)

// Reductions and products.
var (
	Sum     = tensor.Sum
	Dot     = tensor.Dot
	MatVec  = tensor.MatVec
	MatTVec = tensor.MatTVec
)

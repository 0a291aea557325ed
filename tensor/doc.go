// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the host-side float32 tensors of neuralkit.
//
// # Overview
//
// Three concrete tensors share one Shape type and one row-major layout:
//   - Vector: n values, shape {n, 1, 1}
//   - Matrix: Width × Height values, shape {w, h, 1}
//   - Matrix3: Depth slices of Width × Height, shape {w, h, d}
//
// Element (column, row, slice) is stored at (slice*Height + row)*Width + column.
//
// # Basic Usage
//
//	x := tensor.VectorOf(1, 2, 3)
//	w, _ := tensor.MatrixFrom(3, 2, []float32{
//	    1, 0, 0,
//	    0, 1, 0,
//	})
//	y := tensor.NewVector(2)
//	tensor.MatVec(y, w, x) // y = [1, 2]
//
// # Operations
//
// Element-wise operations write into a caller-provided destination, which
// may alias an operand:
//
//	tensor.Add(y, y, y)           // y = 2y
//	tensor.MultiplyScalar(y, y, 0.5)
//	tensor.Sigmoid(y, y)
//
// Operands must have identical shapes. A mismatch is a programming error
// and panics with a *ShapeMismatchError. Constructors that take caller data
// return the error instead:
//
//	_, err := tensor.MatrixFrom(2, 2, []float32{1, 2, 3})
//	errors.Is(err, tensor.ErrShapeMismatch) // true
//
// Tensors are plain host memory. Device-resident copies are managed by the
// nn package.
package tensor

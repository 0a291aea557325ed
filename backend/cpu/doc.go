// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go compute device for neuralkit.
//
// # Overview
//
// The CPU device implements the same Context contract as the GPU device:
//   - Pure Go implementation (no CGO)
//   - Dense kernels on gonum BLAS (Gemv, Ger)
//   - Element-wise kernels split across goroutines
//   - Sessions execute on a worker goroutine in submission order
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/neuralkit/backend/cpu"
//	    "github.com/born-ml/neuralkit/nn"
//	)
//
//	func main() {
//	    ctx := cpu.New()
//	    defer ctx.Release()
//
//	    net, err := nn.New(ctx, layers, nn.NewLinearOutput(shape))
//	}
//
// # Thread Safety
//
// A Backend may be shared by several networks. Sessions submitted from
// different goroutines execute one at a time.
package cpu

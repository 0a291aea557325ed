// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device exposes the compute-device contract for custom layers.
//
// Most programs only pass a Context (cpu.New or webgpu.New) to the nn
// package. Implementing a custom nn.Layer additionally needs Session, the
// device-resident Tensor and the kernel names below.
//
// Example (an identity layer):
//
//	func (l *Identity) Forward(in *device.Tensor, s *device.Session) *device.Tensor {
//	    out := s.Tensor(l.OutputShape())
//	    n := out.Shape().NumElements()
//	    s.Dispatch(device.KernelCopy, n, device.Params{}.Uint(n), in, out)
//	    return out
//	}
package device

import (
	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/tensor"
)

// Context is an explicitly owned handle to a compute device.
type Context = device.Context

// Library is a precompiled set of named compute kernels.
type Library = device.Library

// Session batches the device commands of one pass into a single submission.
type Session = device.Session

// State is the lifecycle stage of a Session.
type State = device.State

// Tensor is a tensor resident in device memory.
type Tensor = device.Tensor

// Params is the uniform argument block of a kernel invocation.
type Params = device.Params

// Session states.
const (
	Recording = device.Recording
	Submitted = device.Submitted
	Completed = device.Completed
	Failed    = device.Failed
	Closed    = device.Closed
)

// Errors.
var (
	ErrCommitted     = device.ErrCommitted
	ErrNotCommitted  = device.ErrNotCommitted
	ErrPending       = device.ErrPending
	ErrReleased      = device.ErrReleased
	ErrUnknownKernel = device.ErrUnknownKernel
)

// Kernel names.
const (
	KernelCopy            = device.KernelCopy
	KernelDenseForward    = device.KernelDenseForward
	KernelDenseBackward   = device.KernelDenseBackward
	KernelDenseGradient   = device.KernelDenseGradient
	KernelDenseUpdate     = device.KernelDenseUpdate
	KernelReLUForward     = device.KernelReLUForward
	KernelSigmoidForward  = device.KernelSigmoidForward
	KernelTanhForward     = device.KernelTanhForward
	KernelReLUBackward    = device.KernelReLUBackward
	KernelSigmoidBackward = device.KernelSigmoidBackward
	KernelTanhBackward    = device.KernelTanhBackward
	KernelSoftmax         = device.KernelSoftmax
	KernelLossGradient    = device.KernelLossGradient
)

// Open starts a session on ctx.
func Open(ctx Context) *Session {
	return device.Open(ctx)
}

// NewTensor allocates a zero-filled device tensor.
func NewTensor(ctx Context, shape tensor.Shape) *Tensor {
	return device.NewTensor(ctx, shape)
}

// Upload copies a host tensor to the device.
func Upload(ctx Context, host tensor.Tensor) *Tensor {
	return device.Upload(ctx, host)
}

// Package device defines the compute-device contract used by neuralkit.
//
// A Context owns a device, its command queue and a kernel library. Work is
// recorded into a Session (one encoder), submitted once, and awaited. Device
// tensors live in device memory and are converted to host tensors by an
// explicit, synchronous read-back.
//
// Backends (internal/backend/cpu, internal/backend/webgpu) implement Context
// and Encoder; the session state machine and device tensors are shared.
package device

import (
	"errors"
	"math"
)

// Sentinel errors.
var (
	ErrCommitted     = errors.New("device: session already committed")
	ErrNotCommitted  = errors.New("device: session not committed")
	ErrPending       = errors.New("device: read-back before session completed")
	ErrReleased      = errors.New("device: tensor released")
	ErrUnknownKernel = errors.New("device: kernel not in library")
)

// Buffer is an opaque handle to device-resident float32 storage.
type Buffer interface {
	// Len returns the number of float32 elements the buffer holds.
	Len() int
}

// Library is a precompiled set of named compute kernels.
type Library interface {
	// Name identifies the library, e.g. "cpu" or "wgsl".
	Name() string

	// Has reports whether the library provides kernel.
	Has(kernel string) bool
}

// Encoder records device commands for a single submission.
//
// Encoders are created by Context.NewEncoder and used by exactly one Session.
type Encoder interface {
	// Dispatch records one kernel invocation over threads work items.
	Dispatch(kernel string, threads int, params Params, buffers []Buffer)

	// Copy records a device-to-device copy of src into dst.
	Copy(dst, src Buffer)

	// Submit ends encoding and hands the command stream to the device.
	Submit() error

	// Wait blocks until the submitted command stream has executed.
	Wait() error
}

// Context is an explicitly owned handle to a compute device.
type Context interface {
	// Name returns a human-readable device description.
	Name() string

	// Library returns the device's kernel library.
	Library() Library

	// Alloc returns zero-filled device storage for n elements.
	Alloc(n int) Buffer

	// Upload returns device storage holding a copy of values.
	Upload(values []float32) Buffer

	// Read copies buffer contents into dst. It must only be called once
	// every command writing the buffer has completed.
	Read(src Buffer, dst []float32) error

	// Free releases device storage.
	Free(b Buffer)

	// NewEncoder opens a command encoder.
	NewEncoder() Encoder

	// Release tears down the device. The context must not be used afterwards.
	Release()
}

// Params is the uniform argument block of a kernel invocation.
//
// Every word is 32 bits wide: integers are stored as-is and floats as their
// IEEE-754 bit pattern, so the same block feeds a WGSL uniform struct and a
// Go kernel.
type Params []uint32

// Uint appends an unsigned integer word.
func (p Params) Uint(v int) Params {
	return append(p, uint32(v)) //nolint:gosec // G115: sizes are non-negative
}

// Float appends a float word.
func (p Params) Float(v float32) Params {
	return append(p, math.Float32bits(v))
}

// UintAt returns word i as an int.
func (p Params) UintAt(i int) int {
	return int(p[i])
}

// FloatAt returns word i as a float32.
func (p Params) FloatAt(i int) float32 {
	return math.Float32frombits(p[i])
}

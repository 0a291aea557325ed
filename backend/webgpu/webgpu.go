//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU compute device for neuralkit.
//
// Kernels are WGSL compute shaders compiled on first use. Every network
// pass is recorded into one command encoder and submitted once, so a
// forward or training pass costs a single GPU round trip.
//
// Example:
//
//	import (
//	    "github.com/born-ml/neuralkit/backend/cpu"
//	    "github.com/born-ml/neuralkit/backend/webgpu"
//	    "github.com/born-ml/neuralkit/device"
//	)
//
//	func main() {
//	    var ctx device.Context = cpu.New()
//	    if webgpu.IsAvailable() {
//	        gpu, err := webgpu.New()
//	        if err != nil {
//	            log.Fatal(err)
//	        }
//	        ctx = gpu
//	    }
//	    defer ctx.Release()
//	}
package webgpu

import (
	"github.com/born-ml/neuralkit/device"
	internalwebgpu "github.com/born-ml/neuralkit/internal/backend/webgpu"
	"github.com/go-webgpu/webgpu/wgpu"
)

// Backend is the WebGPU compute device.
type Backend = internalwebgpu.Backend

// MemoryStats reports device buffer usage.
type MemoryStats = internalwebgpu.MemoryStats

// Compile-time check that Backend implements device.Context.
var _ device.Context = (*Backend)(nil)

// New creates a WebGPU device on the default high-performance adapter.
//
// Call Release() when done to free GPU resources. Returns an error if
// WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// It's useful for graceful fallback to the CPU device when no GPU is
// present.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}

// ListAdapters returns information about the available GPU adapters.
func ListAdapters() ([]*wgpu.AdapterInfo, error) {
	return internalwebgpu.ListAdapters()
}

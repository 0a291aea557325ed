// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"runtime"

	"github.com/born-ml/neuralkit/device"
	internalcpu "github.com/born-ml/neuralkit/internal/backend/cpu"
	"github.com/born-ml/neuralkit/internal/parallel"
)

// Backend is the CPU compute device.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements device.Context.
var _ device.Context = (*Backend)(nil)

// New creates a CPU device using every available core.
//
// Example:
//
//	ctx := cpu.New()
//	defer ctx.Release()
func New() *Backend {
	return internalcpu.New()
}

// NewWithWorkers creates a CPU device whose kernels use at most workers
// goroutines. workers <= 1 runs every kernel on the device goroutine.
func NewWithWorkers(workers int) *Backend {
	if workers <= 1 {
		return internalcpu.NewWithConfig(parallel.Sequential())
	}
	cfg := parallel.DefaultConfig()
	cfg.Enabled = true
	cfg.NumWorkers = min(workers, runtime.NumCPU())
	return internalcpu.NewWithConfig(cfg)
}

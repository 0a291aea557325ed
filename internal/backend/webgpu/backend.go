//go:build windows

// Package webgpu implements the WebGPU compute device.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
package webgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/go-webgpu/webgpu/wgpu"
)

// errReleased is returned by Submit after the backend has been released.
var errReleased = errors.New("webgpu: device released")

// buffer is GPU-resident storage for n float32 elements.
type buffer struct {
	buf *wgpu.Buffer
	n   int
}

// Len returns the number of float32 elements.
func (b *buffer) Len() int { return b.n }

func (b *buffer) bytes() uint64 {
	return uint64(b.n) * 4 //nolint:gosec // G115: sizes are non-negative
}

// Backend implements device.Context on a GPU using WebGPU.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	library *Library

	// Shader and pipeline cache, keyed by kernel name.
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	adapterInfo *wgpu.AdapterInfo
	bufferPool  *BufferPool

	// marker is copied into a staging buffer at the end of every
	// submission; mapping the copy signals completion.
	marker *wgpu.Buffer

	memoryStats struct {
		totalAllocatedBytes uint64
		peakMemoryBytes     uint64
		activeBuffers       int64
		mu                  sync.RWMutex
	}

	released bool
}

// Compile-time check that Backend implements device.Context.
var _ device.Context = (*Backend)(nil)

// New creates a new WebGPU device.
// Returns an error if WebGPU is not available or initialization fails.
func New() (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	adapterInfo := adapter.GetInfo()

	dev, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := dev.GetQueue()
	if queue == nil {
		dev.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	b := &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      dev,
		queue:       queue,
		library:     NewLibrary(),
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		adapterInfo: &adapterInfo,
		bufferPool:  NewBufferPool(dev),
	}
	b.marker = b.createBuffer(make([]byte, 4), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	return b, nil
}

// Name returns the backend name.
func (b *Backend) Name() string {
	if b.adapterInfo != nil && b.adapterInfo.Device != "" {
		return fmt.Sprintf("WebGPU (%s %s)", b.adapterInfo.Device, b.adapterInfo.Vendor)
	}
	return "WebGPU"
}

// AdapterInfo returns information about the GPU adapter.
func (b *Backend) AdapterInfo() *wgpu.AdapterInfo {
	return b.adapterInfo
}

// Library returns the WGSL kernel library.
func (b *Backend) Library() device.Library {
	return b.library
}

// Alloc returns zero-filled storage for n elements.
func (b *Backend) Alloc(n int) device.Buffer {
	return &buffer{buf: b.createBuffer(make([]byte, n*4), storageUsage), n: n}
}

// Upload returns storage holding a copy of values.
func (b *Backend) Upload(values []float32) device.Buffer {
	return &buffer{buf: b.createBuffer(float32sToBytes(values), storageUsage), n: len(values)}
}

// Read copies src into dst through a staging buffer.
func (b *Backend) Read(src device.Buffer, dst []float32) error {
	buf := src.(*buffer)
	if buf.buf == nil {
		return device.ErrReleased
	}
	if len(dst) != buf.n {
		return fmt.Errorf("webgpu: read %d elements into %d", buf.n, len(dst))
	}
	data, err := b.readBuffer(buf.buf, buf.bytes())
	if err != nil {
		return err
	}
	bytesToFloat32s(dst, data)
	return nil
}

// Free releases the GPU buffer.
func (b *Backend) Free(buf device.Buffer) {
	bb := buf.(*buffer)
	if bb.buf == nil {
		return
	}
	bb.buf.Release()
	b.trackBufferRelease(bb.bytes())
	bb.buf = nil
}

// NewEncoder opens a command batch.
func (b *Backend) NewEncoder() device.Encoder {
	return b.NewBatch()
}

// Release releases all WebGPU resources.
// Must be called when the backend is no longer needed.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true

	if b.marker != nil {
		b.marker.Release()
		b.marker = nil
	}
	b.bufferPool.Clear()

	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil

	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// ListAdapters returns information about the default GPU adapter.
// WebGPU has no way to enumerate all adapters.
func ListAdapters() (adapters []*wgpu.AdapterInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			adapters = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, adapterErr := instance.RequestAdapter(nil)
	if adapterErr != nil {
		return nil, fmt.Errorf("webgpu: no adapters available: %w", adapterErr)
	}
	defer adapter.Release()

	info := adapter.GetInfo()
	return []*wgpu.AdapterInfo{&info}, nil
}

// MemoryStats represents GPU memory usage statistics.
type MemoryStats struct {
	// Bytes currently held by device tensors.
	TotalAllocatedBytes uint64
	// Peak memory usage in bytes.
	PeakMemoryBytes uint64
	// Number of currently active buffers.
	ActiveBuffers int64
	// Scratch buffer pool statistics.
	Pool PoolStats
}

// MemoryStats returns current GPU memory usage statistics.
func (b *Backend) MemoryStats() MemoryStats {
	b.memoryStats.mu.RLock()
	defer b.memoryStats.mu.RUnlock()

	return MemoryStats{
		TotalAllocatedBytes: b.memoryStats.totalAllocatedBytes,
		PeakMemoryBytes:     b.memoryStats.peakMemoryBytes,
		ActiveBuffers:       b.memoryStats.activeBuffers,
		Pool:                b.bufferPool.Stats(),
	}
}

// trackBufferAllocation records a buffer allocation in memory statistics.
func (b *Backend) trackBufferAllocation(size uint64) {
	b.memoryStats.mu.Lock()
	defer b.memoryStats.mu.Unlock()

	b.memoryStats.totalAllocatedBytes += size
	b.memoryStats.activeBuffers++
	if b.memoryStats.totalAllocatedBytes > b.memoryStats.peakMemoryBytes {
		b.memoryStats.peakMemoryBytes = b.memoryStats.totalAllocatedBytes
	}
}

// trackBufferRelease records a buffer release in memory statistics.
func (b *Backend) trackBufferRelease(size uint64) {
	b.memoryStats.mu.Lock()
	defer b.memoryStats.mu.Unlock()

	if b.memoryStats.totalAllocatedBytes >= size {
		b.memoryStats.totalAllocatedBytes -= size
	}
	b.memoryStats.activeBuffers--
}

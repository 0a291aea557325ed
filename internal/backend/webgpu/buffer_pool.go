//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// BufferSize represents different buffer size categories for pooling.
type BufferSize int

const (
	// SmallBuffer for buffers < 4KB, e.g. session markers and the
	// staging copies of narrow layers.
	SmallBuffer BufferSize = iota
	// MediumBuffer for buffers 4KB-1MB.
	MediumBuffer
	// LargeBuffer for buffers > 1MB.
	LargeBuffer

	numCategories
)

const (
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 64          // Max buffers per category
)

// pooledBuffer wraps a GPU buffer with metadata.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// PoolStats reports buffer pool usage.
type PoolStats struct {
	Allocated uint64 // Buffers created by the pool.
	Released  uint64 // Buffers handed back to the pool.
	Hits      uint64 // Acquires served from the pool.
	Misses    uint64 // Acquires that created a buffer.
	Pooled    int    // Buffers currently idle in the pool.
}

// BufferPool recycles scratch buffers whose initial contents do not matter:
// read-back staging buffers and session completion markers. Device tensor
// storage is not pooled since Alloc must return zero-filled memory.
type BufferPool struct {
	device *wgpu.Device
	pools  [numCategories][]*pooledBuffer
	stats  PoolStats
	mu     sync.Mutex
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	p := &BufferPool{device: device}
	for i := range p.pools {
		p.pools[i] = make([]*pooledBuffer, 0, maxPoolSize)
	}
	return p
}

// Acquire returns an idle buffer of at least size bytes carrying every flag
// in usage, or creates one.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := categorize(size)
	for i, pb := range p.pools[c] {
		if pb.size >= size && pb.usage&usage == usage {
			p.pools[c] = append(p.pools[c][:i], p.pools[c][i+1:]...)
			p.stats.Hits++
			return pb.buffer
		}
	}

	p.stats.Misses++
	p.stats.Allocated++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Release returns a buffer to the pool. If its category is full the buffer
// is destroyed instead.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Released++
	c := categorize(size)
	if len(p.pools[c]) >= maxPoolSize {
		buffer.Release()
		return
	}
	p.pools[c] = append(p.pools[c], &pooledBuffer{buffer: buffer, size: size, usage: usage})
}

// Clear destroys every idle buffer.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for c := range p.pools {
		for _, pb := range p.pools[c] {
			pb.buffer.Release()
		}
		p.pools[c] = p.pools[c][:0]
	}
}

// Stats returns a snapshot of pool usage.
func (p *BufferPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	for c := range p.pools {
		s.Pooled += len(p.pools[c])
	}
	return s
}

// categorize determines the size category for a buffer.
func categorize(size uint64) BufferSize {
	switch {
	case size < smallThreshold:
		return SmallBuffer
	case size < mediumThreshold:
		return MediumBuffer
	default:
		return LargeBuffer
	}
}

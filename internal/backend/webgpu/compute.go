//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// storageUsage is the usage of every device tensor buffer.
const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// stagingUsage is the usage of read-back staging buffers.
const stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst

// pipeline returns the cached ComputePipeline for kernel, compiling its WGSL
// source on first use.
func (b *Backend) pipeline(kernel string) (*wgpu.ComputePipeline, error) {
	b.mu.RLock()
	if p, ok := b.pipelines[kernel]; ok {
		b.mu.RUnlock()
		return p, nil
	}
	b.mu.RUnlock()

	src, ok := b.library.Source(kernel)
	if !ok {
		return nil, fmt.Errorf("webgpu: no WGSL source for kernel %q", kernel)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pipelines[kernel]; ok {
		return p, nil
	}
	shader := b.device.CreateShaderModuleWGSL(src)
	b.shaders[kernel] = shader
	p := b.device.CreateComputePipelineSimple(nil, shader, "main")
	b.pipelines[kernel] = p
	return p, nil
}

// createBuffer creates a storage buffer initialised with data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	b.trackBufferAllocation(size)
	return buffer
}

// createUniformBuffer creates a uniform buffer holding a Params block.
// Uniform buffers require 16-byte alignment.
func (b *Backend) createUniformBuffer(words []uint32) (*wgpu.Buffer, uint64) {
	size := uint64(len(words) * 4)
	alignedSize := max((size+15)&^15, 16)

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	clear(mappedSlice)
	for i, w := range words {
		binary.LittleEndian.PutUint32(mappedSlice[i*4:], w)
	}
	buffer.Unmap()

	return buffer, alignedSize
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.bufferPool.Acquire(size, stagingUsage)
	defer b.bufferPool.Release(staging, size, stagingUsage)

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, staging, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("webgpu: map staging buffer: %w", err)
	}

	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	staging.Unmap()

	return result, nil
}

// float32sToBytes encodes values little-endian.
func float32sToBytes(values []float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// bytesToFloat32s decodes little-endian float32s into dst.
func bytesToFloat32s(dst []float32, data []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
}

// workgroups returns the number of workgroups covering threads.
func workgroups(threads int) uint32 {
	//nolint:gosec // G115: thread counts are non-negative
	return uint32(max((threads+workgroupSize-1)/workgroupSize, 1))
}

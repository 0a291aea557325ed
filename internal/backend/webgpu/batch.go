//go:build windows

package webgpu

import (
	"fmt"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/go-webgpu/webgpu/wgpu"
)

// markerSize is the byte size of the completion marker copy.
const markerSize = 4

// CommandBatch accumulates every command of a session in one CommandEncoder
// and submits them together. It implements device.Encoder.
//
// Uniform buffers and bind groups created while encoding are kept alive
// until the batch has completed on the GPU.
type CommandBatch struct {
	backend *Backend
	encoder *wgpu.CommandEncoder

	uniforms   []*wgpu.Buffer
	bindGroups []*wgpu.BindGroup
	ops        []string

	staging   *wgpu.Buffer
	submitted bool
	done      bool
	err       error
}

// Compile-time check that CommandBatch implements device.Encoder.
var _ device.Encoder = (*CommandBatch)(nil)

// NewBatch creates a new command batch for accumulating operations.
func (b *Backend) NewBatch() *CommandBatch {
	return &CommandBatch{
		backend: b,
		encoder: b.device.CreateCommandEncoder(nil),
		ops:     make([]string, 0, 8),
	}
}

// Dispatch encodes one compute pass of kernel over threads work items.
// Panics if the kernel cannot be compiled or a buffer has been released.
func (batch *CommandBatch) Dispatch(kernel string, threads int, params device.Params, buffers []device.Buffer) {
	pipeline, err := batch.backend.pipeline(kernel)
	if err != nil {
		panic(err)
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(buffers)+1)
	for i, db := range buffers {
		bb := db.(*buffer)
		if bb.buf == nil {
			panic(fmt.Errorf("%w: %s binding %d", device.ErrReleased, kernel, i))
		}
		//nolint:gosec // G115: binding index is small
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), bb.buf, 0, bb.bytes()))
	}
	uniform, size := batch.backend.createUniformBuffer(params)
	//nolint:gosec // G115: binding index is small
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(buffers)), uniform, 0, size))

	bindGroup := batch.backend.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
	batch.uniforms = append(batch.uniforms, uniform)
	batch.bindGroups = append(batch.bindGroups, bindGroup)

	computePass := batch.encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(workgroups(threads), 1, 1)
	computePass.End()

	batch.ops = append(batch.ops, kernel)
}

// Copy encodes a buffer-to-buffer copy.
func (batch *CommandBatch) Copy(dst, src device.Buffer) {
	d, s := dst.(*buffer), src.(*buffer)
	if d.buf == nil || s.buf == nil {
		panic(fmt.Errorf("%w: copy", device.ErrReleased))
	}
	batch.encoder.CopyBufferToBuffer(s.buf, 0, d.buf, 0, min(d.bytes(), s.bytes()))
	batch.ops = append(batch.ops, "copy")
}

// Count returns the number of operations in the batch.
func (batch *CommandBatch) Count() int {
	return len(batch.ops)
}

// Submit finishes the encoder and submits all batched operations in a
// single GPU submission. The batch cannot be submitted twice.
func (batch *CommandBatch) Submit() (err error) {
	if batch.submitted {
		return device.ErrCommitted
	}
	batch.submitted = true

	b := batch.backend
	b.mu.RLock()
	released := b.released
	b.mu.RUnlock()
	if released {
		return errReleased
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("webgpu: submit: %v", r)
		}
	}()

	batch.staging = b.bufferPool.Acquire(markerSize, stagingUsage)
	batch.encoder.CopyBufferToBuffer(b.marker, 0, batch.staging, 0, markerSize)

	cmdBuffer := batch.encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)
	return nil
}

// Wait blocks until the GPU has executed the batch, then frees the
// per-dispatch resources.
func (batch *CommandBatch) Wait() error {
	if !batch.submitted {
		return device.ErrNotCommitted
	}
	if batch.done || batch.staging == nil {
		return batch.err
	}
	batch.done = true

	b := batch.backend
	if err := batch.staging.MapAsync(b.device, wgpu.MapModeRead, 0, markerSize); err != nil {
		batch.err = fmt.Errorf("webgpu: wait for %d operations: %w", len(batch.ops), err)
	} else {
		batch.staging.Unmap()
	}
	b.bufferPool.Release(batch.staging, markerSize, stagingUsage)
	batch.staging = nil

	for _, bg := range batch.bindGroups {
		bg.Release()
	}
	for _, u := range batch.uniforms {
		u.Release()
	}
	batch.bindGroups, batch.uniforms = nil, nil
	return batch.err
}

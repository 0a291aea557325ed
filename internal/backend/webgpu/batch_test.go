//go:build windows

package webgpu

import (
	"testing"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatch(t *testing.T) {
	backend := newTestBackend(t)

	batch := backend.NewBatch()
	assert.Equal(t, 0, batch.Count())
	assert.ErrorIs(t, batch.Wait(), device.ErrNotCommitted)
	require.NoError(t, batch.Submit())
	require.NoError(t, batch.Wait())
}

func TestBatchCopy(t *testing.T) {
	backend := newTestBackend(t)
	src := backend.Upload([]float32{1, 2, 3})
	dst := backend.Alloc(3)
	defer backend.Free(src)
	defer backend.Free(dst)

	batch := backend.NewBatch()
	batch.Copy(dst, src)
	batch.Copy(dst, src)
	assert.Equal(t, 2, batch.Count())

	require.NoError(t, batch.Submit())
	assert.ErrorIs(t, batch.Submit(), device.ErrCommitted)
	require.NoError(t, batch.Wait())
	require.NoError(t, batch.Wait())

	out := make([]float32, 3)
	require.NoError(t, backend.Read(dst, out))
	assert.Equal(t, []float32{1, 2, 3}, out)
}

func TestBatchReleasedBuffer(t *testing.T) {
	backend := newTestBackend(t)
	src := backend.Upload([]float32{1})
	dst := backend.Alloc(1)
	backend.Free(src)
	defer backend.Free(dst)

	batch := backend.NewBatch()
	assert.Panics(t, func() { batch.Copy(dst, src) })
}

func TestMemoryStats(t *testing.T) {
	backend := newTestBackend(t)
	before := backend.MemoryStats()

	buf := backend.Alloc(256)
	during := backend.MemoryStats()
	assert.Equal(t, before.ActiveBuffers+1, during.ActiveBuffers)
	assert.Equal(t, before.TotalAllocatedBytes+1024, during.TotalAllocatedBytes)
	assert.GreaterOrEqual(t, during.PeakMemoryBytes, during.TotalAllocatedBytes)

	backend.Free(buf)
	after := backend.MemoryStats()
	assert.Equal(t, before.ActiveBuffers, after.ActiveBuffers)
	assert.Equal(t, before.TotalAllocatedBytes, after.TotalAllocatedBytes)
}

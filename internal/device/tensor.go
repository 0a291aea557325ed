package device

import (
	"fmt"

	"github.com/born-ml/neuralkit/internal/tensor"
)

// Tensor holds tensor data in device memory.
//
// It mirrors tensor.Matrix3: same shape contract, row-major then
// slice-major layout, float32 elements. A Tensor is either persistent
// (created by NewTensor or Upload, e.g. layer weights) or transient (created
// by Session.Tensor and released when the session is closed).
type Tensor struct {
	ctx   Context
	buf   Buffer
	shape tensor.Shape

	// session is the last session that recorded a command touching this
	// tensor; read-back waits for it to complete.
	session *Session
}

// NewTensor allocates a zero-filled persistent device tensor.
func NewTensor(ctx Context, shape tensor.Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic("device.NewTensor: " + err.Error())
	}
	return &Tensor{ctx: ctx, buf: ctx.Alloc(shape.NumElements()), shape: shape}
}

// Upload copies a host tensor into newly allocated device storage.
func Upload(ctx Context, host tensor.Tensor) *Tensor {
	return &Tensor{ctx: ctx, buf: ctx.Upload(host.Values()), shape: host.Shape()}
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() tensor.Shape {
	return t.shape
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	return t.shape.NumElements()
}

// Buffer returns the underlying device buffer.
// This is exposed for backend implementations.
func (t *Tensor) Buffer() Buffer {
	return t.buf
}

// ReadBack copies the tensor into a newly allocated host tensor.
//
// Returns ErrPending if a session that touched the tensor has not been
// committed and awaited, and ErrReleased after Release.
func (t *Tensor) ReadBack() (*tensor.Matrix3, error) {
	host := tensor.NewMatrix3(t.shape)
	if err := t.ReadInto(host); err != nil {
		return nil, err
	}
	return host, nil
}

// ReadInto copies the tensor into an existing host tensor of the same shape.
func (t *Tensor) ReadInto(dst tensor.Tensor) error {
	if t.buf == nil {
		return ErrReleased
	}
	if dst.Shape() != t.shape {
		return &tensor.ShapeMismatchError{Op: "device.ReadInto", Expected: t.shape, Actual: dst.Shape()}
	}
	if s := t.session; s != nil {
		switch s.state {
		case Completed, Closed:
		case Failed:
			return fmt.Errorf("device: read-back after failed session: %w", s.err)
		default:
			return ErrPending
		}
	}
	return t.ctx.Read(t.buf, dst.Values())
}

// Write replaces the tensor contents with a host tensor of the same shape.
// Like ReadInto it must not race a pending session.
func (t *Tensor) Write(src tensor.Tensor) error {
	if t.buf == nil {
		return ErrReleased
	}
	if src.Shape() != t.shape {
		return &tensor.ShapeMismatchError{Op: "device.Write", Expected: t.shape, Actual: src.Shape()}
	}
	if s := t.session; s != nil && s.state != Completed && s.state != Closed {
		return ErrPending
	}
	old := t.buf
	t.buf = t.ctx.Upload(src.Values())
	t.ctx.Free(old)
	return nil
}

// Release frees the device storage. Calling Release twice is a no-op.
func (t *Tensor) Release() {
	if t.buf != nil {
		t.ctx.Free(t.buf)
		t.buf = nil
	}
}

package device_test

import (
	"errors"
	"testing"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fake is an in-memory Context whose encoder runs commands at Wait.
type fake struct {
	kernels map[string]bool
	freed   int
	failAt  string // Submit or Wait
}

type fakeBuffer struct{ data []float32 }

func (b *fakeBuffer) Len() int { return len(b.data) }

func (f *fake) Name() string              { return "fake" }
func (f *fake) Library() device.Library   { return f }
func (f *fake) Has(kernel string) bool    { return f.kernels[kernel] }
func (f *fake) Alloc(n int) device.Buffer { return &fakeBuffer{make([]float32, n)} }
func (f *fake) Free(device.Buffer)        { f.freed++ }
func (f *fake) Release()                  {}

func (f *fake) Upload(values []float32) device.Buffer {
	return &fakeBuffer{append([]float32(nil), values...)}
}

func (f *fake) Read(src device.Buffer, dst []float32) error {
	copy(dst, src.(*fakeBuffer).data)
	return nil
}

func (f *fake) NewEncoder() device.Encoder { return &fakeEncoder{ctx: f} }

type fakeEncoder struct {
	ctx      *fake
	commands []func()
}

func (e *fakeEncoder) Dispatch(kernel string, _ int, _ device.Params, buffers []device.Buffer) {
	// "negate" writes -src into dst.
	e.commands = append(e.commands, func() {
		src, dst := buffers[0].(*fakeBuffer), buffers[1].(*fakeBuffer)
		for i, v := range src.data {
			dst.data[i] = -v
		}
	})
}

func (e *fakeEncoder) Copy(dst, src device.Buffer) {
	e.commands = append(e.commands, func() {
		copy(dst.(*fakeBuffer).data, src.(*fakeBuffer).data)
	})
}

func (e *fakeEncoder) Submit() error {
	if e.ctx.failAt == "Submit" {
		return errors.New("queue lost")
	}
	return nil
}

func (e *fakeEncoder) Wait() error {
	if e.ctx.failAt == "Wait" {
		return errors.New("device lost")
	}
	for _, c := range e.commands {
		c()
	}
	return nil
}

func newFake() *fake {
	return &fake{kernels: map[string]bool{"negate": true}}
}

func TestSession_StateMachine(t *testing.T) {
	ctx := newFake()
	x := device.Upload(ctx, tensor.VectorOf(1, -2))
	defer x.Release()

	s := device.Open(ctx)
	assert.Equal(t, device.Recording, s.State())
	assert.ErrorIs(t, s.Wait(), device.ErrNotCommitted)

	y := s.Tensor(tensor.VectorShape(2))
	s.Dispatch("negate", 2, device.Params{}.Uint(2), x, y)
	assert.Equal(t, 1, s.Dispatches())

	_, err := y.ReadBack()
	assert.ErrorIs(t, err, device.ErrPending)

	require.NoError(t, s.Commit())
	assert.Equal(t, device.Submitted, s.State())
	assert.ErrorIs(t, s.Commit(), device.ErrCommitted)

	require.NoError(t, s.Wait())
	assert.Equal(t, device.Completed, s.State())
	require.NoError(t, s.Wait())

	got, err := y.ReadBack()
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, 2}, got.Values())

	s.Close()
	assert.Equal(t, device.Closed, s.State())
	_, err = y.ReadBack()
	assert.ErrorIs(t, err, device.ErrReleased)
	s.Close()
}

func TestSession_RecordAfterCommitPanics(t *testing.T) {
	ctx := newFake()
	s := device.Open(ctx)
	defer s.Close()
	require.NoError(t, s.Commit())

	assert.Panics(t, func() { s.Tensor(tensor.VectorShape(1)) })
}

func TestSession_UnknownKernel(t *testing.T) {
	ctx := newFake()
	s := device.Open(ctx)
	defer s.Close()
	a := s.Tensor(tensor.VectorShape(1))

	defer func() {
		err, ok := recover().(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, device.ErrUnknownKernel)
	}()
	s.Dispatch("missing", 1, nil, a, a)
}

func TestSession_Failures(t *testing.T) {
	for _, at := range []string{"Submit", "Wait"} {
		t.Run(at, func(t *testing.T) {
			ctx := newFake()
			ctx.failAt = at
			s := device.Open(ctx)
			y := s.Tensor(tensor.VectorShape(1))

			err := s.Commit()
			if err == nil {
				err = s.Wait()
			}
			require.Error(t, err)
			assert.Equal(t, device.Failed, s.State())
			assert.Equal(t, err, s.Wait())

			_, readErr := y.ReadBack()
			assert.Error(t, readErr)
			s.Close()
		})
	}
}

func TestSession_CopyShapeMismatch(t *testing.T) {
	ctx := newFake()
	s := device.Open(ctx)
	defer s.Close()

	assert.Panics(t, func() {
		s.Copy(s.Tensor(tensor.VectorShape(2)), s.Tensor(tensor.VectorShape(3)))
	})
}

func TestTensor_Write(t *testing.T) {
	ctx := newFake()
	d := device.NewTensor(ctx, tensor.VectorShape(2))
	defer d.Release()

	require.NoError(t, d.Write(tensor.VectorOf(5, 6)))
	got, err := d.ReadBack()
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 6}, got.Values())

	var mismatch *tensor.ShapeMismatchError
	assert.ErrorAs(t, d.Write(tensor.VectorOf(1)), &mismatch)
}

func TestParams(t *testing.T) {
	p := device.Params{}.Uint(7).Float(-0.25)
	assert.Equal(t, 7, p.UintAt(0))
	assert.Equal(t, float32(-0.25), p.FloatAt(1))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "recording", device.Recording.String())
	assert.Equal(t, "failed", device.Failed.String())
	assert.Equal(t, "unknown", device.State(42).String())
}

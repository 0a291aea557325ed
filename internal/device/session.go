package device

import (
	"fmt"

	"github.com/born-ml/neuralkit/internal/tensor"
)

// State is the lifecycle stage of a Session.
type State int

// Session states. A session moves strictly forward:
// Recording → Submitted → Completed (or Failed) → Closed.
const (
	Recording State = iota
	Submitted
	Completed
	Failed
	Closed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Submitted:
		return "submitted"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session batches every device command of one pass into a single
// submission.
//
// All layers of a forward (and backward) pass record into the same session;
// it is committed exactly once and the caller blocks on Wait. There is no
// cancellation: once committed, a session runs to completion or fails.
//
// A Session is not safe for concurrent use.
//
// Example:
//
//	s := device.Open(ctx)
//	defer s.Close()
//	out := s.Tensor(shape)
//	s.Dispatch(device.KernelReLUForward, n, device.Params{}.Uint(n), in, out)
//	if err := s.Commit(); err != nil { ... }
//	if err := s.Wait(); err != nil { ... }
//	host, err := out.ReadBack()
type Session struct {
	ctx        Context
	enc        Encoder
	state      State
	err        error
	transient  []*Tensor
	dispatches int
}

// Open acquires a command encoder and starts recording.
func Open(ctx Context) *Session {
	return &Session{ctx: ctx, enc: ctx.NewEncoder(), state: Recording}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Dispatches returns the number of commands recorded so far.
func (s *Session) Dispatches() int {
	return s.dispatches
}

// Tensor allocates a transient device tensor owned by the session.
// It is released by Close.
func (s *Session) Tensor(shape tensor.Shape) *Tensor {
	s.mustRecord("Tensor")
	t := NewTensor(s.ctx, shape)
	t.session = s
	s.transient = append(s.transient, t)
	return t
}

// Dispatch records a kernel invocation over threads work items.
//
// Panics if the session is no longer recording, if the kernel is missing
// from the context's library, or if a tensor has been released: each is a
// composition bug.
func (s *Session) Dispatch(kernel string, threads int, params Params, tensors ...*Tensor) {
	s.mustRecord(kernel)
	if !s.ctx.Library().Has(kernel) {
		panic(fmt.Errorf("%w: %q in %s", ErrUnknownKernel, kernel, s.ctx.Library().Name()))
	}
	buffers := make([]Buffer, len(tensors))
	for i, t := range tensors {
		buffers[i] = s.bind(kernel, t)
	}
	s.enc.Dispatch(kernel, threads, params, buffers)
	s.dispatches++
}

// Copy records a device-to-device copy of src into dst.
func (s *Session) Copy(dst, src *Tensor) {
	s.mustRecord("Copy")
	tensor.MustMatch("device.Copy", dst.shape, src.shape)
	s.enc.Copy(s.bind("Copy", dst), s.bind("Copy", src))
	s.dispatches++
}

// Commit ends encoding and submits the command stream exactly once.
// A second call returns ErrCommitted.
func (s *Session) Commit() error {
	if s.state != Recording {
		return ErrCommitted
	}
	if err := s.enc.Submit(); err != nil {
		s.state = Failed
		s.err = fmt.Errorf("device: submit: %w", err)
		return s.err
	}
	s.state = Submitted
	return nil
}

// Wait blocks until the committed command stream has executed.
//
// Returns ErrNotCommitted if Commit was not called. Calling Wait again after
// completion returns the same result.
func (s *Session) Wait() error {
	switch s.state {
	case Recording:
		return ErrNotCommitted
	case Submitted:
		if err := s.enc.Wait(); err != nil {
			s.state = Failed
			s.err = fmt.Errorf("device: execute: %w", err)
			return s.err
		}
		s.state = Completed
		return nil
	case Failed:
		return s.err
	default:
		return nil
	}
}

// Close releases the session's transient tensors. A submitted session is
// awaited first so no released buffer is still in use by the device.
// Close is idempotent.
func (s *Session) Close() {
	if s.state == Closed {
		return
	}
	if s.state == Submitted {
		_ = s.Wait()
	}
	for _, t := range s.transient {
		t.Release()
	}
	s.transient = nil
	s.state = Closed
}

func (s *Session) mustRecord(op string) {
	if s.state != Recording {
		panic(fmt.Errorf("%w: cannot record %s in %s session", ErrCommitted, op, s.state))
	}
}

func (s *Session) bind(op string, t *Tensor) Buffer {
	if t.buf == nil {
		panic(fmt.Errorf("%w: %s argument", ErrReleased, op))
	}
	t.session = s
	return t.buf
}

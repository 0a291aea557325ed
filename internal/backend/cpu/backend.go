// Package cpu implements the CPU device: a device.Context whose command
// streams run asynchronously on a dedicated worker goroutine.
//
// Committing a session enqueues its recorded commands; the worker executes
// queued streams in FIFO order and signals completion, so recording,
// submission and completion behave like a real coprocessor. Kernels are Go
// functions over float32 slices built on gonum blas32 and the tensor
// primitives, parallelised with internal/parallel.
package cpu

import (
	"fmt"
	"sync"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/parallel"
)

// queueDepth bounds how many submitted command streams may wait for the worker.
const queueDepth = 16

// buffer is CPU-resident device storage.
type buffer struct {
	data []float32
}

// Len returns the number of float32 elements.
func (b *buffer) Len() int { return len(b.data) }

// job is one submitted command stream.
type job struct {
	commands []func()
	err      error
	done     chan struct{}
}

// Backend implements device.Context on the host CPU.
type Backend struct {
	library *Library
	queue   chan *job
	worker  sync.WaitGroup
	closed  bool
	mu      sync.Mutex
}

// Compile-time check that Backend implements device.Context.
var _ device.Context = (*Backend)(nil)

// New creates a CPU device with the default kernel library and parallelism.
func New() *Backend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU device whose kernels parallelise with cfg.
func NewWithConfig(cfg parallel.Config) *Backend {
	return NewWithLibrary(NewLibrary(cfg))
}

// NewWithLibrary creates a CPU device that executes kernels from lib.
func NewWithLibrary(lib *Library) *Backend {
	b := &Backend{
		library: lib,
		queue:   make(chan *job, queueDepth),
	}
	b.worker.Add(1)
	go b.run()
	return b
}

// run executes queued command streams in submission order.
func (b *Backend) run() {
	defer b.worker.Done()
	for j := range b.queue {
		j.err = execute(j.commands)
		close(j.done)
	}
}

// execute runs commands in order. A panicking kernel fails the stream
// instead of taking down the worker.
func execute(commands []func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cpu: kernel panic: %v", r)
		}
	}()
	for _, c := range commands {
		c()
	}
	return nil
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "CPU"
}

// Library returns the kernel library.
func (b *Backend) Library() device.Library {
	return b.library
}

// Alloc returns zero-filled storage for n elements.
func (b *Backend) Alloc(n int) device.Buffer {
	return &buffer{data: make([]float32, n)}
}

// Upload returns storage holding a copy of values.
func (b *Backend) Upload(values []float32) device.Buffer {
	buf := &buffer{data: make([]float32, len(values))}
	copy(buf.data, values)
	return buf
}

// Read copies src into dst.
func (b *Backend) Read(src device.Buffer, dst []float32) error {
	buf := src.(*buffer)
	if buf.data == nil {
		return device.ErrReleased
	}
	if len(dst) != len(buf.data) {
		return fmt.Errorf("cpu: read %d elements into %d", len(buf.data), len(dst))
	}
	copy(dst, buf.data)
	return nil
}

// Free drops the storage. Later kernel access to it panics, which surfaces
// use-after-free as a failed session rather than silent corruption.
func (b *Backend) Free(buf device.Buffer) {
	buf.(*buffer).data = nil
}

// NewEncoder opens a command encoder.
func (b *Backend) NewEncoder() device.Encoder {
	return &encoder{backend: b}
}

// Release stops the worker after draining queued streams.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.queue)
	b.worker.Wait()
}

// submit hands a command stream to the worker.
func (b *Backend) submit(j *job) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("cpu: device released")
	}
	b.queue <- j
	return nil
}

// encoder records commands as closures over the bound buffers.
type encoder struct {
	backend  *Backend
	commands []func()
	job      *job
}

// Dispatch records a kernel invocation.
func (e *encoder) Dispatch(kernel string, threads int, params device.Params, buffers []device.Buffer) {
	k := e.backend.library.kernel(kernel)
	bufs := make([]*buffer, len(buffers))
	for i, bb := range buffers {
		bufs[i] = bb.(*buffer)
	}
	e.commands = append(e.commands, func() {
		// Slices are resolved at execution time so a buffer freed after
		// recording is caught by the kernel, not read stale.
		data := make([][]float32, len(bufs))
		for i, bb := range bufs {
			if bb.data == nil {
				panic(fmt.Sprintf("%s: buffer %d %v", kernel, i, device.ErrReleased))
			}
			data[i] = bb.data
		}
		k(threads, params, data)
	})
}

// Copy records a buffer copy.
func (e *encoder) Copy(dst, src device.Buffer) {
	d, s := dst.(*buffer), src.(*buffer)
	e.commands = append(e.commands, func() {
		if d.data == nil || s.data == nil {
			panic("copy: " + device.ErrReleased.Error())
		}
		copy(d.data, s.data)
	})
}

// Submit enqueues the recorded stream.
func (e *encoder) Submit() error {
	if e.job != nil {
		return device.ErrCommitted
	}
	e.job = &job{commands: e.commands, done: make(chan struct{})}
	e.commands = nil
	return e.backend.submit(e.job)
}

// Wait blocks until the worker has executed the stream.
func (e *encoder) Wait() error {
	if e.job == nil {
		return device.ErrNotCommitted
	}
	<-e.job.done
	return e.job.err
}

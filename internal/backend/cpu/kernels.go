package cpu

import (
	"fmt"
	"sort"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/optim"
	"github.com/born-ml/neuralkit/internal/parallel"
	"github.com/born-ml/neuralkit/internal/tensor"
	"github.com/born-ml/neuralkit/internal/tensor/expr"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Kernel is a CPU compute function. threads and params follow the dispatch
// contract documented on the kernel name in package device; buffers are in
// binding order.
type Kernel func(threads int, params device.Params, buffers [][]float32)

// Library is the CPU kernel library.
type Library struct {
	cfg     parallel.Config
	kernels map[string]Kernel
}

// Compile-time check that Library implements device.Library.
var _ device.Library = (*Library)(nil)

// NewLibrary returns a library with every kernel in device.Kernels.
func NewLibrary(cfg parallel.Config) *Library {
	l := &Library{cfg: cfg, kernels: make(map[string]Kernel)}
	l.Register(device.KernelCopy, copyKernel)
	l.Register(device.KernelDenseForward, denseForward)
	l.Register(device.KernelDenseBackward, denseBackward)
	l.Register(device.KernelDenseGradient, denseGradient)
	l.Register(device.KernelDenseUpdate, l.denseUpdate)
	l.Register(device.KernelReLUForward, activationForward(expr.ReLU))
	l.Register(device.KernelSigmoidForward, activationForward(expr.Sigmoid))
	l.Register(device.KernelTanhForward, activationForward(expr.Tanh))
	l.Register(device.KernelReLUBackward, l.activationBackward(reluGradient))
	l.Register(device.KernelSigmoidBackward, l.activationBackward(sigmoidGradient))
	l.Register(device.KernelTanhBackward, l.activationBackward(tanhGradient))
	l.Register(device.KernelSoftmax, softmax)
	l.Register(device.KernelLossGradient, lossGradient)
	return l
}

// Register adds or replaces a kernel.
func (l *Library) Register(name string, k Kernel) {
	l.kernels[name] = k
}

// Unregister removes a kernel. Used to model incomplete libraries.
func (l *Library) Unregister(name string) {
	delete(l.kernels, name)
}

// Name returns "cpu".
func (l *Library) Name() string {
	return "cpu"
}

// Has reports whether the library provides kernel.
func (l *Library) Has(kernel string) bool {
	_, ok := l.kernels[kernel]
	return ok
}

// Names returns the sorted kernel names.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.kernels))
	for n := range l.kernels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (l *Library) kernel(name string) Kernel {
	k, ok := l.kernels[name]
	if !ok {
		panic(fmt.Errorf("%w: %q", device.ErrUnknownKernel, name))
	}
	return k
}

// vec wraps a slice as a unit-stride BLAS vector.
func vec(x []float32) blas32.Vector {
	return blas32.Vector{N: len(x), Inc: 1, Data: x}
}

// weights views the first out*in elements of a dense parameter buffer as
// an out × in row-major matrix.
func weights(p []float32, in, out int) blas32.General {
	return blas32.General{Rows: out, Cols: in, Stride: in, Data: p[:out*in]}
}

func copyKernel(n int, _ device.Params, b [][]float32) {
	copy(b[1][:n], b[0][:n])
}

func denseForward(_ int, p device.Params, b [][]float32) {
	in, out := p.UintAt(0), p.UintAt(1)
	x, y := b[1][:in], b[2][:out]
	copy(y, b[0][out*in:out*in+out])
	blas32.Gemv(blas.NoTrans, 1, weights(b[0], in, out), vec(x), 1, vec(y))
}

func denseBackward(_ int, p device.Params, b [][]float32) {
	in, out := p.UintAt(0), p.UintAt(1)
	g, dx := b[1][:out], b[2][:in]
	blas32.Gemv(blas.Trans, 1, weights(b[0], in, out), vec(g), 0, vec(dx))
}

func denseGradient(_ int, p device.Params, b [][]float32) {
	in, out := p.UintAt(0), p.UintAt(1)
	g, x, dw := b[0][:out], b[1][:in], b[2]
	for i := range dw[:out*in] {
		dw[i] = 0
	}
	blas32.Ger(1, vec(g), vec(x), weights(dw, in, out))
	copy(dw[out*in:out*in+out], g)
}

func (l *Library) denseUpdate(n int, p device.Params, b [][]float32) {
	in, out := p.UintAt(0), p.UintAt(1)
	sgd := optim.SGD{Rate: p.FloatAt(2), Momentum: p.FloatAt(3), Decay: p.FloatAt(4)}
	w, dw, v := b[0][:n], b[1][:n], b[2][:n]
	nw := in * out
	parallel.Chunks(n, func(start, end int) {
		sgd.Step(w[start:end], dw[start:end], v[start:end], nw-start)
	}, l.cfg)
}

// activationForward evaluates y = f(x) through a deferred expression, so
// the output buffer is the only memory touched.
func activationForward(f func(expr.Expr) expr.Expr) Kernel {
	return func(n int, _ device.Params, b [][]float32) {
		x := tensor.AdoptVector(b[0][:n])
		y := tensor.AdoptVector(b[1][:n])
		expr.Assign(y, f(expr.T(x)))
	}
}

// gradient writes dx = g * f'(x) for one activation, where x is the
// activation input. dx never aliases g or x.
type gradient func(dx, x, g *tensor.Vector)

func reluGradient(dx, x, g *tensor.Vector) {
	tensor.ReLUDerivative(dx, x)
	tensor.Multiply(dx, dx, g)
}

func sigmoidGradient(dx, x, g *tensor.Vector) {
	expr.Assign(dx, expr.Sigmoid(expr.T(x)))
	tensor.SigmoidDerivative(dx, dx)
	tensor.Multiply(dx, dx, g)
}

func tanhGradient(dx, x, g *tensor.Vector) {
	expr.Assign(dx, expr.Mul(expr.TanhDerivative(expr.Tanh(expr.T(x))), g))
}

// activationBackward computes dx = g * f'(x), one contiguous chunk per
// goroutine.
func (l *Library) activationBackward(f gradient) Kernel {
	return func(n int, _ device.Params, b [][]float32) {
		g, x, dx := b[0][:n], b[1][:n], b[2][:n]
		parallel.Chunks(n, func(start, end int) {
			f(tensor.AdoptVector(dx[start:end]), tensor.AdoptVector(x[start:end]), tensor.AdoptVector(g[start:end]))
		}, l.cfg)
	}
}

func softmax(n int, _ device.Params, b [][]float32) {
	x := tensor.AdoptVector(b[0][:n])
	y := tensor.AdoptVector(b[1][:n])
	peak := x.At(0)
	for _, v := range x.Values() {
		if v > peak {
			peak = v
		}
	}
	expr.Assign(y, expr.Exp(expr.AddScalar(expr.T(x), -peak)))
	tensor.MultiplyScalar(y, y, 1/tensor.Sum(y))
}

func lossGradient(n int, _ device.Params, b [][]float32) {
	expected := tensor.AdoptVector(b[0][:n])
	actual := tensor.AdoptVector(b[1][:n])
	g := tensor.AdoptVector(b[2][:n])
	tensor.Subtract(g, actual, expected)
}

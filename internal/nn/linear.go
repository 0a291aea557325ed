package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/tensor"
)

// FullyConnected implements a fully connected (dense) layer.
//
// Performs the transformation: y = W·x + b
// where:
//   - x is the input, flattened to in = InputShape().NumElements() values
//   - W is the weight matrix with out rows and in columns
//   - b is the bias vector of length out
//   - y is a vector of length out
//
// Weights and biases live in one device buffer (W row-major, then b) for
// the whole training run. Host copies are refreshed only by Sync.
//
// Updates use SGD with momentum and L2 decay on the weights:
//
//	v = momentum*v - rate*(dW + decay*W)
//	W = W + v
//
// Weights are initialized using Xavier/Glorot uniform distribution.
// Biases are initialized to zeros.
//
// Example:
//
//	rng := rand.New(rand.NewSource(1))
//	layer := nn.NewFullyConnected(ctx, tensor.VectorShape(784), 128, rng)
//	defer layer.Release()
type FullyConnected struct {
	shapes
	ctx device.Context

	inputs, outputs int

	params   *device.Tensor // out*in weights, then out biases
	grad     *device.Tensor // gradient of the most recent Backward
	velocity *device.Tensor

	steps int

	weights *tensor.Matrix // host copy, width in, height out
	bias    *tensor.Vector // host copy
}

// NewFullyConnected creates a dense layer mapping input (of any shape) to a
// vector of outputs values.
//
// Parameters:
//   - ctx: device owning the parameter buffers
//   - input: input shape; the layer reads its values in row-major order
//   - outputs: number of output units
//   - rng: source for weight initialisation (nil uses math/rand)
func NewFullyConnected(ctx device.Context, input tensor.Shape, outputs int, rng *rand.Rand) *FullyConnected {
	if err := input.Validate(); err != nil {
		panic("nn.NewFullyConnected: " + err.Error())
	}
	if outputs <= 0 {
		panic(fmt.Sprintf("nn.NewFullyConnected: outputs must be positive, got %d", outputs))
	}

	inputs := input.NumElements()
	weights := tensor.NewMatrix(inputs, outputs)
	xavier(weights.Values(), inputs, outputs, rng)

	l := &FullyConnected{
		shapes:  shapes{in: input, out: tensor.VectorShape(outputs)},
		ctx:     ctx,
		inputs:  inputs,
		outputs: outputs,
		weights: weights,
		bias:    tensor.NewVector(outputs),
	}
	size := tensor.VectorShape(l.paramCount())
	l.params = device.Upload(ctx, l.packed())
	l.grad = device.NewTensor(ctx, size)
	l.velocity = device.NewTensor(ctx, size)
	return l
}

// Name returns "fully_connected(in→out)".
func (l *FullyConnected) Name() string {
	return fmt.Sprintf("fully_connected(%d→%d)", l.inputs, l.outputs)
}

// Kernels lists the dense kernels.
func (l *FullyConnected) Kernels() []string {
	return []string{
		device.KernelDenseForward,
		device.KernelDenseBackward,
		device.KernelDenseGradient,
		device.KernelDenseUpdate,
	}
}

// Forward records y = W·x + b.
func (l *FullyConnected) Forward(input *device.Tensor, s *device.Session) *device.Tensor {
	tensor.MustMatch(l.Name()+".Forward", l.in, input.Shape())
	y := s.Tensor(l.out)
	s.Dispatch(device.KernelDenseForward, l.outputs, l.dims(), l.params, input, y)
	return y
}

// Backward records dx = Wᵀ·g and the parameter gradient (g⊗x, g).
//
// The input gradient is computed from the weights as they were in the
// matching forward pass, since ApplyGradient is recorded after Backward.
func (l *FullyConnected) Backward(outputGradient, input *device.Tensor, s *device.Session) *device.Tensor {
	tensor.MustMatch(l.Name()+".Backward", l.out, outputGradient.Shape())
	tensor.MustMatch(l.Name()+".Backward", l.in, input.Shape())
	dx := s.Tensor(l.in)
	s.Dispatch(device.KernelDenseBackward, l.inputs, l.dims(), l.params, outputGradient, dx)
	s.Dispatch(device.KernelDenseGradient, l.paramCount(), l.dims(), outputGradient, input, l.grad)
	return dx
}

// Adjustable returns true.
func (l *FullyConnected) Adjustable() bool { return true }

// ApplyGradient records the momentum SGD update at the annealed rate.
func (l *FullyConnected) ApplyGradient(cfg TrainConfig, s *device.Session) {
	params := l.dims().
		Float(cfg.Rate(l.steps)).
		Float(cfg.Momentum).
		Float(cfg.Decay)
	s.Dispatch(device.KernelDenseUpdate, l.paramCount(), params, l.params, l.grad, l.velocity)
	l.steps++
}

// Steps returns the number of updates applied so far.
func (l *FullyConnected) Steps() int {
	return l.steps
}

// Sync copies the device parameters into the host weights and bias.
func (l *FullyConnected) Sync() error {
	host, err := l.params.ReadBack()
	if err != nil {
		return fmt.Errorf("%s: sync: %w", l.Name(), err)
	}
	n := l.inputs * l.outputs
	copy(l.weights.Values(), host.Values()[:n])
	copy(l.bias.Values(), host.Values()[n:])
	return nil
}

// Weights returns the host weight matrix (width in, height out) as of the
// last Sync, construction or SetParameters.
func (l *FullyConnected) Weights() *tensor.Matrix {
	return l.weights
}

// Bias returns the host bias vector as of the last Sync, construction or
// SetParameters.
func (l *FullyConnected) Bias() *tensor.Vector {
	return l.bias
}

// SetParameters replaces weights and biases on host and device. Velocity and
// the annealing step count are kept.
func (l *FullyConnected) SetParameters(weights *tensor.Matrix, bias *tensor.Vector) error {
	if weights.Shape() != l.weights.Shape() {
		return &tensor.ShapeMismatchError{Op: l.Name() + ".SetParameters", Expected: l.weights.Shape(), Actual: weights.Shape()}
	}
	if bias.Shape() != l.bias.Shape() {
		return &tensor.ShapeMismatchError{Op: l.Name() + ".SetParameters", Expected: l.bias.Shape(), Actual: bias.Shape()}
	}
	tensor.Copy(l.weights, weights)
	tensor.Copy(l.bias, bias)
	if err := l.params.Write(l.packed()); err != nil {
		return fmt.Errorf("%s: set parameters: %w", l.Name(), err)
	}
	return nil
}

// Release frees the device buffers.
func (l *FullyConnected) Release() {
	l.params.Release()
	l.grad.Release()
	l.velocity.Release()
}

func (l *FullyConnected) paramCount() int {
	return l.outputs*l.inputs + l.outputs
}

func (l *FullyConnected) dims() device.Params {
	return device.Params{}.Uint(l.inputs).Uint(l.outputs)
}

// packed returns the host parameters in device layout.
func (l *FullyConnected) packed() *tensor.Vector {
	p := tensor.NewVector(l.paramCount())
	n := l.inputs * l.outputs
	copy(p.Values()[:n], l.weights.Values())
	copy(p.Values()[n:], l.bias.Values())
	return p
}

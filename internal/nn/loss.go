package nn

import (
	"fmt"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/tensor"
	"github.com/goki/mat32"
)

// LossKind selects the loss an output layer reports.
type LossKind int

const (
	// SquaredError is ½·Σ(actual - expected)².
	SquaredError LossKind = iota
	// NegativeLogLikelihood is -Σ expected·log(actual), for probability
	// outputs.
	NegativeLogLikelihood
)

// minProbability clamps probabilities before taking the logarithm.
const minProbability = 1e-7

// String returns the loss name.
func (k LossKind) String() string {
	switch k {
	case SquaredError:
		return "squared_error"
	case NegativeLogLikelihood:
		return "negative_log_likelihood"
	default:
		return fmt.Sprintf("LossKind(%d)", int(k))
	}
}

// Compute evaluates the loss on host tensors of identical shape.
// Panics with a tensor.ShapeMismatchError if the shapes differ.
func (k LossKind) Compute(expected, actual tensor.Tensor) float32 {
	tensor.MustMatch("nn.Loss", expected.Shape(), actual.Shape())
	switch k {
	case SquaredError:
		diff := tensor.NewMatrix3(actual.Shape())
		tensor.Subtract(diff, actual, expected)
		return 0.5 * tensor.Dot(diff, diff)
	case NegativeLogLikelihood:
		var loss float32
		p := actual.Values()
		for i, e := range expected.Values() {
			if e != 0 {
				loss -= e * mat32.Log(mat32.Max(p[i], minProbability))
			}
		}
		return loss
	default:
		panic(fmt.Sprintf("nn: unknown loss %d", int(k)))
	}
}

// LinearOutput is an identity output layer trained on squared error.
//
// Example:
//
//	out := nn.NewLinearOutput(tensor.VectorShape(2))
type LinearOutput struct {
	shapes
}

// NewLinearOutput creates a linear output layer over shape.
func NewLinearOutput(shape tensor.Shape) *LinearOutput {
	if err := shape.Validate(); err != nil {
		panic("nn.NewLinearOutput: " + err.Error())
	}
	return &LinearOutput{shapes{in: shape, out: shape}}
}

// Name returns "linear_output".
func (o *LinearOutput) Name() string { return "linear_output" }

// Kernels lists the loss gradient kernel.
func (o *LinearOutput) Kernels() []string {
	return []string{device.KernelLossGradient}
}

// Loss returns SquaredError.
func (o *LinearOutput) Loss() LossKind { return SquaredError }

// Forward returns input unchanged; it records nothing.
func (o *LinearOutput) Forward(input *device.Tensor, _ *device.Session) *device.Tensor {
	tensor.MustMatch(o.Name()+".Forward", o.in, input.Shape())
	return input
}

// LossGradient records actual - expected.
func (o *LinearOutput) LossGradient(expected, actual *device.Tensor, s *device.Session) *device.Tensor {
	return lossGradient(o.Name(), o.out, expected, actual, s)
}

// SoftmaxOutput turns its input into a probability distribution and is
// trained on negative log-likelihood.
//
// Example:
//
//	out := nn.NewSoftmaxOutput(tensor.VectorShape(10))
type SoftmaxOutput struct {
	shapes
}

// NewSoftmaxOutput creates a softmax output layer over shape.
func NewSoftmaxOutput(shape tensor.Shape) *SoftmaxOutput {
	if err := shape.Validate(); err != nil {
		panic("nn.NewSoftmaxOutput: " + err.Error())
	}
	return &SoftmaxOutput{shapes{in: shape, out: shape}}
}

// Name returns "softmax_output".
func (o *SoftmaxOutput) Name() string { return "softmax_output" }

// Kernels lists the softmax and loss gradient kernels.
func (o *SoftmaxOutput) Kernels() []string {
	return []string{device.KernelSoftmax, device.KernelLossGradient}
}

// Loss returns NegativeLogLikelihood.
func (o *SoftmaxOutput) Loss() LossKind { return NegativeLogLikelihood }

// Forward records the softmax of input.
func (o *SoftmaxOutput) Forward(input *device.Tensor, s *device.Session) *device.Tensor {
	tensor.MustMatch(o.Name()+".Forward", o.in, input.Shape())
	n := o.in.NumElements()
	y := s.Tensor(o.out)
	s.Dispatch(device.KernelSoftmax, n, device.Params{}.Uint(n), input, y)
	return y
}

// LossGradient records actual - expected, the gradient of the negative
// log-likelihood with respect to the softmax input.
func (o *SoftmaxOutput) LossGradient(expected, actual *device.Tensor, s *device.Session) *device.Tensor {
	return lossGradient(o.Name(), o.out, expected, actual, s)
}

func lossGradient(name string, shape tensor.Shape, expected, actual *device.Tensor, s *device.Session) *device.Tensor {
	tensor.MustMatch(name+".LossGradient", shape, expected.Shape())
	tensor.MustMatch(name+".LossGradient", shape, actual.Shape())
	n := shape.NumElements()
	g := s.Tensor(shape)
	s.Dispatch(device.KernelLossGradient, n, device.Params{}.Uint(n), expected, actual, g)
	return g
}

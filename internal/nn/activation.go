package nn

import (
	"fmt"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/tensor"
)

// ActivationKind selects an element-wise activation function.
type ActivationKind int

// Supported activations.
const (
	// ReLU applies f(x) = max(0, x).
	ReLU ActivationKind = iota
	// Sigmoid applies σ(x) = 1 / (1 + exp(-x)).
	Sigmoid
	// Tanh applies the hyperbolic tangent.
	Tanh
)

// String returns the activation name.
func (k ActivationKind) String() string {
	switch k {
	case ReLU:
		return "relu"
	case Sigmoid:
		return "sigmoid"
	case Tanh:
		return "tanh"
	default:
		return fmt.Sprintf("ActivationKind(%d)", int(k))
	}
}

func (k ActivationKind) kernels() (forward, backward string) {
	switch k {
	case ReLU:
		return device.KernelReLUForward, device.KernelReLUBackward
	case Sigmoid:
		return device.KernelSigmoidForward, device.KernelSigmoidBackward
	case Tanh:
		return device.KernelTanhForward, device.KernelTanhBackward
	default:
		panic(fmt.Sprintf("nn: unknown activation %d", int(k)))
	}
}

// Activation applies an element-wise activation function.
// Input and output shapes are identical; it has no trainable parameters.
//
// Example:
//
//	relu := nn.NewActivation(nn.ReLU, tensor.VectorShape(128))
type Activation struct {
	shapes
	fixed
	kind ActivationKind
}

// NewActivation creates an activation layer over shape.
func NewActivation(kind ActivationKind, shape tensor.Shape) *Activation {
	if err := shape.Validate(); err != nil {
		panic("nn.NewActivation: " + err.Error())
	}
	kind.kernels() // rejects unknown kinds
	return &Activation{shapes: shapes{in: shape, out: shape}, kind: kind}
}

// Kind returns the activation function.
func (a *Activation) Kind() ActivationKind {
	return a.kind
}

// Name returns the activation name.
func (a *Activation) Name() string {
	return a.kind.String()
}

// Kernels lists the forward and backward kernels.
func (a *Activation) Kernels() []string {
	forward, backward := a.kind.kernels()
	return []string{forward, backward}
}

// Forward records y = f(x).
func (a *Activation) Forward(input *device.Tensor, s *device.Session) *device.Tensor {
	tensor.MustMatch(a.Name()+".Forward", a.in, input.Shape())
	forward, _ := a.kind.kernels()
	n := a.in.NumElements()
	y := s.Tensor(a.out)
	s.Dispatch(forward, n, device.Params{}.Uint(n), input, y)
	return y
}

// Backward records dx = g * f'(x), with f' evaluated at the forward input.
func (a *Activation) Backward(outputGradient, input *device.Tensor, s *device.Session) *device.Tensor {
	tensor.MustMatch(a.Name()+".Backward", a.out, outputGradient.Shape())
	tensor.MustMatch(a.Name()+".Backward", a.in, input.Shape())
	_, backward := a.kind.kernels()
	n := a.in.NumElements()
	dx := s.Tensor(a.in)
	s.Dispatch(backward, n, device.Params{}.Uint(n), outputGradient, input, dx)
	return dx
}

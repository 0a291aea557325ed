// Package nn implements the layers and the training orchestrator of neuralkit.
//
// This package provides building blocks for sequential networks:
//   - Layer: a stage of the hidden chain with forward and backward passes
//   - OutputLayer: the final stage, which also produces the loss gradient
//   - FullyConnected: dense layer with momentum SGD
//   - Activation: ReLU, Sigmoid, Tanh
//   - Reshape: reinterprets data under a new shape
//   - LinearOutput, SoftmaxOutput: output layers
//   - Network: validates a chain and drives inference and training
//
// Layers never submit work themselves. Every call records device commands
// into the device.Session passed in by the Network, which commits the whole
// pass at once.
package nn

import (
	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/tensor"
)

// Layer is one stage of a network's hidden chain.
//
// Input and output shapes are fixed at construction. Forward and Backward
// record device commands into the session and return the (session-owned)
// result tensor; they never block.
//
// Example:
//
//	s := device.Open(ctx)
//	h := layer.Forward(x, s)
//	dx := layer.Backward(dh, x, s)
//	if layer.Adjustable() {
//	    layer.ApplyGradient(cfg, s)
//	}
type Layer interface {
	// Name identifies the layer in errors and logs.
	Name() string

	// InputShape returns the shape Forward accepts.
	InputShape() tensor.Shape

	// OutputShape returns the shape Forward produces.
	OutputShape() tensor.Shape

	// Kernels lists the device kernels the layer dispatches.
	Kernels() []string

	// Forward records the computation of the layer output from input.
	// Panics with a tensor.ShapeMismatchError if input has the wrong shape.
	Forward(input *device.Tensor, s *device.Session) *device.Tensor

	// Backward records the gradient with respect to the layer input, given
	// the gradient of the layer output and the exact input tensor Forward
	// was evaluated on in the same pass. Adjustable layers also record
	// their parameter gradient into layer-owned storage.
	Backward(outputGradient, input *device.Tensor, s *device.Session) *device.Tensor

	// Adjustable reports whether the layer has trainable parameters.
	Adjustable() bool

	// ApplyGradient records the parameter update consuming the gradient of
	// the most recent Backward. It is a no-op for fixed layers.
	ApplyGradient(cfg TrainConfig, s *device.Session)

	// Sync copies device-resident parameters to host storage.
	Sync() error
}

// OutputLayer is the final stage of a network.
type OutputLayer interface {
	Name() string
	InputShape() tensor.Shape
	OutputShape() tensor.Shape
	Kernels() []string

	// Loss selects the host-side loss reported by training.
	Loss() LossKind

	// Forward records the network prediction.
	Forward(input *device.Tensor, s *device.Session) *device.Tensor

	// LossGradient records the gradient of the loss with respect to the
	// output layer's input, given the expected and predicted outputs.
	LossGradient(expected, actual *device.Tensor, s *device.Session) *device.Tensor
}

// shapes carries the fixed shapes of a layer.
type shapes struct {
	in, out tensor.Shape
}

// InputShape returns the shape Forward accepts.
func (s shapes) InputShape() tensor.Shape { return s.in }

// OutputShape returns the shape Forward produces.
func (s shapes) OutputShape() tensor.Shape { return s.out }

// fixed implements the parameter half of Layer for layers without
// trainable state.
type fixed struct{}

// Adjustable returns false.
func (fixed) Adjustable() bool { return false }

// ApplyGradient does nothing.
func (fixed) ApplyGradient(TrainConfig, *device.Session) {}

// Sync does nothing.
func (fixed) Sync() error { return nil }

// releaser is implemented by layers that own device storage.
type releaser interface {
	Release()
}

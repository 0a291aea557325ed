// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"log/slog"
	"math/rand"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/nn"
	"github.com/born-ml/neuralkit/internal/tensor"
)

// Layer is one differentiable stage of a network.
type Layer = nn.Layer

// OutputLayer terminates a network and defines its loss.
type OutputLayer = nn.OutputLayer

// Network is a validated chain of layers ending in an output layer.
type Network = nn.Network

// Option configures a Network.
type Option = nn.Option

// TrainConfig holds the SGD hyperparameters.
type TrainConfig = nn.TrainConfig

// Sample pairs an input with its expected output.
type Sample = nn.Sample

// CompositionError reports why a network could not be built.
type CompositionError = nn.CompositionError

// Errors.
var (
	ErrShapeMismatch = nn.ErrShapeMismatch
	ErrMissingKernel = nn.ErrMissingKernel
	ErrNoOutputLayer = nn.ErrNoOutputLayer
	ErrInvalidConfig = nn.ErrInvalidConfig
)

// New validates the chain and builds a network on ctx.
func New(ctx device.Context, layers []Layer, output OutputLayer, opts ...Option) (*Network, error) {
	return nn.New(ctx, layers, output, opts...)
}

// WithLogger sets the logger for network events.
func WithLogger(logger *slog.Logger) Option {
	return nn.WithLogger(logger)
}

// DefaultTrainConfig returns learning rate 0.1 and momentum 0.9.
func DefaultTrainConfig() TrainConfig {
	return nn.DefaultTrainConfig()
}

// Layers

// FullyConnected is a dense layer y = W·x + b.
type FullyConnected = nn.FullyConnected

// NewFullyConnected creates a dense layer with Xavier-initialized weights.
//
// Example:
//
//	layer := nn.NewFullyConnected(ctx, tensor.VectorShape(784), 128, rng)
func NewFullyConnected(ctx device.Context, input tensor.Shape, outputs int, rng *rand.Rand) *FullyConnected {
	return nn.NewFullyConnected(ctx, input, outputs, rng)
}

// ActivationKind selects an element-wise activation.
type ActivationKind = nn.ActivationKind

// Activations.
const (
	ReLU    = nn.ReLU
	Sigmoid = nn.Sigmoid
	Tanh    = nn.Tanh
)

// Activation applies an element-wise activation.
type Activation = nn.Activation

// NewActivation creates an activation layer over shape.
func NewActivation(kind ActivationKind, shape tensor.Shape) *Activation {
	return nn.NewActivation(kind, shape)
}

// Reshape reinterprets its input under a new shape.
type Reshape = nn.Reshape

// NewReshape creates a reshape layer. in and out must hold the same number
// of elements.
func NewReshape(in, out tensor.Shape) (*Reshape, error) {
	return nn.NewReshape(in, out)
}

// Output layers

// LossKind identifies the loss an output layer minimizes.
type LossKind = nn.LossKind

// Losses.
const (
	SquaredError          = nn.SquaredError
	NegativeLogLikelihood = nn.NegativeLogLikelihood
)

// LinearOutput passes its input through and minimizes squared error.
type LinearOutput = nn.LinearOutput

// NewLinearOutput creates a linear output layer.
func NewLinearOutput(shape tensor.Shape) *LinearOutput {
	return nn.NewLinearOutput(shape)
}

// SoftmaxOutput applies softmax and minimizes negative log-likelihood.
type SoftmaxOutput = nn.SoftmaxOutput

// NewSoftmaxOutput creates a softmax output layer.
func NewSoftmaxOutput(shape tensor.Shape) *SoftmaxOutput {
	return nn.NewSoftmaxOutput(shape)
}

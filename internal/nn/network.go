package nn

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/tensor"
)

// Network is a sequential chain of layers ending in an output layer.
//
// Shape compatibility of the whole chain is checked once by New and holds
// for the network's lifetime. Besides its layers' parameters a Network has
// no mutable state: every call opens its own device session, records the
// complete pass into it, commits it once and waits.
//
// A Network is not safe for concurrent use.
//
// Example:
//
//	ctx := cpu.New()
//	defer ctx.Release()
//
//	hidden := nn.NewFullyConnected(ctx, tensor.VectorShape(2), 4, rng)
//	net, err := nn.New(ctx, []nn.Layer{
//	    hidden,
//	    nn.NewActivation(nn.Tanh, hidden.OutputShape()),
//	    nn.NewFullyConnected(ctx, hidden.OutputShape(), 1, rng),
//	}, nn.NewLinearOutput(tensor.VectorShape(1)))
//	if err != nil {
//	    return err
//	}
//	defer net.Release()
//
//	loss, err := net.Train(nn.Sample{Input: x, Expected: y}, nn.DefaultTrainConfig())
//	...
//	err = net.FinishTraining()
type Network struct {
	ctx        device.Context
	layers     []Layer
	adjustable []bool
	output     OutputLayer
	logger     *slog.Logger
}

// Option configures a Network.
type Option func(*Network)

// WithLogger sets the logger for construction, pass and finish events.
// The default logger discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Network) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// New validates the chain and builds a network on ctx.
//
// Construction fails with a *CompositionError if adjacent shapes disagree
// (wrapping ErrShapeMismatch) or if ctx's kernel library lacks a kernel some
// layer needs (wrapping ErrMissingKernel). Validation only queries the
// layers; a failed construction leaves them untouched.
//
// An empty chain is allowed: the input is then fed directly to the output
// layer.
func New(ctx device.Context, layers []Layer, output OutputLayer, opts ...Option) (*Network, error) {
	if output == nil {
		return nil, ErrNoOutputLayer
	}

	lib := ctx.Library()
	for i, l := range layers {
		if i > 0 {
			if prev := layers[i-1].OutputShape(); prev != l.InputShape() {
				return nil, &CompositionError{Index: i, Layer: l.Name(), Err: &tensor.ShapeMismatchError{
					Op: "nn.New", Expected: prev, Actual: l.InputShape(),
				}}
			}
		}
		if err := checkKernels(lib, l.Kernels()); err != nil {
			return nil, &CompositionError{Index: i, Layer: l.Name(), Err: err}
		}
	}
	if len(layers) > 0 {
		if last := layers[len(layers)-1].OutputShape(); last != output.InputShape() {
			return nil, &CompositionError{Index: len(layers), Layer: output.Name(), Err: &tensor.ShapeMismatchError{
				Op: "nn.New", Expected: last, Actual: output.InputShape(),
			}}
		}
	}
	if err := checkKernels(lib, output.Kernels()); err != nil {
		return nil, &CompositionError{Index: len(layers), Layer: output.Name(), Err: err}
	}

	n := &Network{
		ctx:        ctx,
		layers:     append([]Layer(nil), layers...),
		adjustable: make([]bool, len(layers)),
		output:     output,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for i, l := range layers {
		n.adjustable[i] = l.Adjustable()
	}
	for _, opt := range opts {
		opt(n)
	}

	n.logger.Debug("network built",
		"device", ctx.Name(),
		"layers", len(layers),
		"input", n.InputShape().String(),
		"output", n.OutputShape().String(),
		"loss", output.Loss().String())
	return n, nil
}

func checkKernels(lib device.Library, kernels []string) error {
	for _, k := range kernels {
		if !lib.Has(k) {
			return fmt.Errorf("%w: %q in %s", ErrMissingKernel, k, lib.Name())
		}
	}
	return nil
}

// InputShape returns the shape FeedForward and Train accept.
func (n *Network) InputShape() tensor.Shape {
	if len(n.layers) > 0 {
		return n.layers[0].InputShape()
	}
	return n.output.InputShape()
}

// OutputShape returns the shape of predictions and expected outputs.
func (n *Network) OutputShape() tensor.Shape {
	return n.output.OutputShape()
}

// Layers returns a copy of the hidden chain in forward order.
func (n *Network) Layers() []Layer {
	return append([]Layer(nil), n.layers...)
}

// Output returns the output layer.
func (n *Network) Output() OutputLayer {
	return n.output
}

// Device returns the device context the network runs on.
func (n *Network) Device() device.Context {
	return n.ctx
}

// FeedForward runs inference on input and returns the prediction.
//
// Returns an error wrapping ErrShapeMismatch if input does not have the
// network's input shape; no device work is issued in that case.
func (n *Network) FeedForward(input tensor.Tensor) (*tensor.Matrix3, error) {
	if err := n.checkShape("feed forward: input", n.InputShape(), input); err != nil {
		return nil, err
	}

	x := device.Upload(n.ctx, input)
	defer x.Release()

	s := device.Open(n.ctx)
	defer s.Close()

	y := n.forward(x, s, nil)
	if err := commit(s); err != nil {
		return nil, fmt.Errorf("nn: feed forward: %w", err)
	}
	out, err := y.ReadBack()
	if err != nil {
		return nil, fmt.Errorf("nn: feed forward: %w", err)
	}

	n.logger.Debug("feed forward", "dispatches", s.Dispatches())
	return out, nil
}

// Train runs one training step on sample and returns its loss, computed on
// host from the forward prediction (before the update).
//
// The forward pass, the loss gradient, the reverse backward pass and every
// parameter update are recorded into one session, committed once. Each
// adjustable layer's ApplyGradient is recorded right after its Backward.
func (n *Network) Train(sample Sample, cfg TrainConfig) (float32, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := n.checkShape("train: input", n.InputShape(), sample.Input); err != nil {
		return 0, err
	}
	if err := n.checkShape("train: expected", n.OutputShape(), sample.Expected); err != nil {
		return 0, err
	}
	return n.train(sample, cfg)
}

// TrainEpoch trains on every sample in order and returns the mean loss.
// It stops at the first failing step.
func (n *Network) TrainEpoch(samples []Sample, cfg TrainConfig) (float32, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	for i, sample := range samples {
		if err := n.checkShape(fmt.Sprintf("train epoch: sample %d input", i), n.InputShape(), sample.Input); err != nil {
			return 0, err
		}
		if err := n.checkShape(fmt.Sprintf("train epoch: sample %d expected", i), n.OutputShape(), sample.Expected); err != nil {
			return 0, err
		}
	}
	if len(samples) == 0 {
		return 0, nil
	}

	var total float32
	for i, sample := range samples {
		loss, err := n.train(sample, cfg)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		total += loss
	}
	mean := total / float32(len(samples))
	n.logger.Debug("epoch", "samples", len(samples), "loss", mean)
	return mean, nil
}

// FinishTraining copies the parameters of every adjustable layer from the
// device to host storage. Call it once, after the last training step.
func (n *Network) FinishTraining() error {
	synced := 0
	for i, l := range n.layers {
		if !n.adjustable[i] {
			continue
		}
		if err := l.Sync(); err != nil {
			return fmt.Errorf("nn: finish training: layer %d: %w", i, err)
		}
		synced++
	}
	n.logger.Debug("training finished", "synced", synced)
	return nil
}

// Release frees the device storage of every layer that owns some.
// The device context itself belongs to the caller.
func (n *Network) Release() {
	for _, l := range n.layers {
		if r, ok := l.(releaser); ok {
			r.Release()
		}
	}
	if r, ok := n.output.(releaser); ok {
		r.Release()
	}
}

func (n *Network) train(sample Sample, cfg TrainConfig) (float32, error) {
	x := device.Upload(n.ctx, sample.Input)
	defer x.Release()
	expected := device.Upload(n.ctx, sample.Expected)
	defer expected.Release()

	s := device.Open(n.ctx)
	defer s.Close()

	activations := make([]*device.Tensor, len(n.layers))
	actual := n.forward(x, s, activations)

	g := n.output.LossGradient(expected, actual, s)
	for i := len(n.layers) - 1; i >= 0; i-- {
		g = n.layers[i].Backward(g, activations[i], s)
		if n.adjustable[i] {
			n.layers[i].ApplyGradient(cfg, s)
		}
	}

	if err := commit(s); err != nil {
		return 0, fmt.Errorf("nn: train: %w", err)
	}
	prediction, err := actual.ReadBack()
	if err != nil {
		return 0, fmt.Errorf("nn: train: %w", err)
	}

	loss := n.output.Loss().Compute(sample.Expected, prediction)
	n.logger.Debug("train step", "loss", loss, "dispatches", s.Dispatches())
	return loss, nil
}

// forward records the forward pass. If activations is non-nil, the input
// of layer i is stored in activations[i].
func (n *Network) forward(x *device.Tensor, s *device.Session, activations []*device.Tensor) *device.Tensor {
	for i, l := range n.layers {
		if activations != nil {
			activations[i] = x
		}
		x = l.Forward(x, s)
	}
	return n.output.Forward(x, s)
}

func (n *Network) checkShape(what string, want tensor.Shape, t tensor.Tensor) error {
	if t == nil {
		return fmt.Errorf("nn: %s: nil tensor", what)
	}
	if t.Shape() != want {
		return fmt.Errorf("nn: %s: %w", what, &tensor.ShapeMismatchError{
			Op: "nn.Network", Expected: want, Actual: t.Shape(),
		})
	}
	return nil
}

func commit(s *device.Session) error {
	if err := s.Commit(); err != nil {
		return err
	}
	return s.Wait()
}

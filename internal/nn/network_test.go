package nn_test

import (
	"bytes"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/born-ml/neuralkit/internal/backend/cpu"
	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/nn"
	"github.com/born-ml/neuralkit/internal/parallel"
	"github.com/born-ml/neuralkit/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDevice(t *testing.T) *cpu.Backend {
	t.Helper()
	ctx := cpu.NewWithConfig(parallel.Sequential())
	t.Cleanup(ctx.Release)
	return ctx
}

func vec(n int) tensor.Shape { return tensor.VectorShape(n) }

// identity returns a w×h matrix with ones on the diagonal.
func identity(w, h int) *tensor.Matrix {
	m := tensor.NewMatrix(w, h)
	for i := 0; i < min(w, h); i++ {
		m.Set(i, i, 1)
	}
	return m
}

// spy is a layer that records every call into a shared log.
type spy struct {
	name       string
	shape      tensor.Shape
	adjustable bool
	log        *[]string
	kernels    []string
}

func newSpy(name string, n int, adjustable bool, log *[]string) *spy {
	return &spy{name: name, shape: vec(n), adjustable: adjustable, log: log, kernels: []string{device.KernelCopy}}
}

func (s *spy) Name() string              { return s.name }
func (s *spy) InputShape() tensor.Shape  { return s.shape }
func (s *spy) OutputShape() tensor.Shape { return s.shape }
func (s *spy) Kernels() []string         { return s.kernels }
func (s *spy) Adjustable() bool          { return s.adjustable }

func (s *spy) Forward(input *device.Tensor, sess *device.Session) *device.Tensor {
	*s.log = append(*s.log, "forward:"+s.name)
	return s.copy(input, sess)
}

func (s *spy) Backward(g, _ *device.Tensor, sess *device.Session) *device.Tensor {
	*s.log = append(*s.log, "backward:"+s.name)
	return s.copy(g, sess)
}

func (s *spy) ApplyGradient(nn.TrainConfig, *device.Session) {
	*s.log = append(*s.log, "apply:"+s.name)
}

func (s *spy) Sync() error {
	*s.log = append(*s.log, "sync:"+s.name)
	return nil
}

func (s *spy) copy(src *device.Tensor, sess *device.Session) *device.Tensor {
	n := s.shape.NumElements()
	dst := sess.Tensor(s.shape)
	sess.Dispatch(device.KernelCopy, n, device.Params{}.Uint(n), src, dst)
	return dst
}

// spyOutput wraps an output layer and records its calls.
type spyOutput struct {
	nn.OutputLayer
	log *[]string
}

func (o *spyOutput) Forward(input *device.Tensor, s *device.Session) *device.Tensor {
	*o.log = append(*o.log, "forward:output")
	return o.OutputLayer.Forward(input, s)
}

func (o *spyOutput) LossGradient(expected, actual *device.Tensor, s *device.Session) *device.Tensor {
	*o.log = append(*o.log, "loss")
	return o.OutputLayer.LossGradient(expected, actual, s)
}

func TestNew_Compatible(t *testing.T) {
	ctx := newDevice(t)
	rng := rand.New(rand.NewSource(1))

	l1 := nn.NewFullyConnected(ctx, vec(4), 3, rng)
	l2 := nn.NewActivation(nn.ReLU, vec(3))
	l3 := nn.NewFullyConnected(ctx, vec(3), 2, rng)

	net, err := nn.New(ctx, []nn.Layer{l1, l2, l3}, nn.NewSoftmaxOutput(vec(2)))
	require.NoError(t, err)
	defer net.Release()

	assert.Equal(t, vec(4), net.InputShape())
	assert.Equal(t, vec(2), net.OutputShape())
	assert.Len(t, net.Layers(), 3)

	layers := net.Layers()
	layers[1] = nn.NewActivation(nn.Tanh, vec(3))
	assert.Same(t, l2, net.Layers()[1])
}

func TestNew_EmptyChain(t *testing.T) {
	ctx := newDevice(t)
	net, err := nn.New(ctx, nil, nn.NewSoftmaxOutput(vec(3)))
	require.NoError(t, err)

	out, err := net.FeedForward(tensor.VectorOf(0, 0, 0))
	require.NoError(t, err)
	for _, v := range out.Values() {
		assert.InDelta(t, 1.0/3, v, 1e-6)
	}
}

func TestNew_ShapeMismatch(t *testing.T) {
	ctx := newDevice(t)
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name   string
		layers func() []nn.Layer
		output nn.OutputLayer
		index  int
	}{
		{
			name: "adjacent layers",
			layers: func() []nn.Layer {
				return []nn.Layer{nn.NewFullyConnected(ctx, vec(4), 3, rng), nn.NewActivation(nn.Tanh, vec(2))}
			},
			output: nn.NewLinearOutput(vec(2)),
			index:  1,
		},
		{
			name: "last layer and output",
			layers: func() []nn.Layer {
				return []nn.Layer{nn.NewFullyConnected(ctx, vec(4), 3, rng)}
			},
			output: nn.NewLinearOutput(vec(2)),
			index:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := nn.New(ctx, tt.layers(), tt.output)
			require.ErrorIs(t, err, nn.ErrShapeMismatch)

			var ce *nn.CompositionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.index, ce.Index)

			var sm *tensor.ShapeMismatchError
			require.ErrorAs(t, err, &sm)
		})
	}
}

func TestNew_FailureMutatesNothing(t *testing.T) {
	ctx := newDevice(t)
	var log []string

	first := newSpy("a", 3, true, &log)
	second := newSpy("b", 4, true, &log)

	_, err := nn.New(ctx, []nn.Layer{first, second}, nn.NewLinearOutput(vec(4)))
	require.ErrorIs(t, err, nn.ErrShapeMismatch)
	assert.Empty(t, log)

	rng := rand.New(rand.NewSource(7))
	dense := nn.NewFullyConnected(ctx, vec(2), 3, rng)
	defer dense.Release()
	before := append([]float32(nil), dense.Weights().Values()...)

	_, err = nn.New(ctx, []nn.Layer{dense}, nn.NewLinearOutput(vec(2)))
	require.Error(t, err)
	assert.Equal(t, before, dense.Weights().Values())
	assert.Zero(t, dense.Steps())
}

func TestNew_MissingKernel(t *testing.T) {
	lib := cpu.NewLibrary(parallel.Sequential())
	lib.Unregister(device.KernelSoftmax)
	ctx := cpu.NewWithLibrary(lib)
	defer ctx.Release()

	_, err := nn.New(ctx, nil, nn.NewSoftmaxOutput(vec(2)))
	require.ErrorIs(t, err, nn.ErrMissingKernel)

	var ce *nn.CompositionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "softmax_output", ce.Layer)
}

func TestNew_NoOutput(t *testing.T) {
	_, err := nn.New(newDevice(t), nil, nil)
	require.ErrorIs(t, err, nn.ErrNoOutputLayer)
}

func TestTrain_CallOrder(t *testing.T) {
	ctx := newDevice(t)
	var log []string

	a := newSpy("a", 2, true, &log)
	b := newSpy("b", 2, false, &log)
	c := newSpy("c", 2, true, &log)
	out := &spyOutput{OutputLayer: nn.NewLinearOutput(vec(2)), log: &log}

	net, err := nn.New(ctx, []nn.Layer{a, b, c}, out)
	require.NoError(t, err)

	_, err = net.Train(nn.Sample{Input: tensor.VectorOf(1, 2), Expected: tensor.VectorOf(0, 1)}, nn.DefaultTrainConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"forward:a", "forward:b", "forward:c", "forward:output",
		"loss",
		"backward:c", "apply:c",
		"backward:b",
		"backward:a", "apply:a",
	}, log)

	log = log[:0]
	require.NoError(t, net.FinishTraining())
	assert.Equal(t, []string{"sync:a", "sync:c"}, log)
}

func TestTrain_SingleSession(t *testing.T) {
	ctx := &countingContext{Context: newDevice(t)}
	rng := rand.New(rand.NewSource(3))

	net, err := nn.New(ctx, []nn.Layer{
		nn.NewFullyConnected(ctx, vec(2), 3, rng),
		nn.NewActivation(nn.Sigmoid, vec(3)),
		nn.NewFullyConnected(ctx, vec(3), 2, rng),
	}, nn.NewSoftmaxOutput(vec(2)))
	require.NoError(t, err)
	defer net.Release()

	_, err = net.Train(nn.Sample{Input: tensor.VectorOf(1, 0), Expected: tensor.VectorOf(0, 1)}, nn.DefaultTrainConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, ctx.encoders)

	_, err = net.FeedForward(tensor.VectorOf(1, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, ctx.encoders)
}

// countingContext counts opened encoders, i.e. sessions.
type countingContext struct {
	device.Context
	encoders int
}

func (c *countingContext) NewEncoder() device.Encoder {
	c.encoders++
	return c.Context.NewEncoder()
}

func TestFeedForward_Idempotent(t *testing.T) {
	ctx := newDevice(t)
	rng := rand.New(rand.NewSource(11))

	net, err := nn.New(ctx, []nn.Layer{
		nn.NewFullyConnected(ctx, vec(3), 5, rng),
		nn.NewActivation(nn.Tanh, vec(5)),
		nn.NewFullyConnected(ctx, vec(5), 2, rng),
	}, nn.NewLinearOutput(vec(2)))
	require.NoError(t, err)
	defer net.Release()

	input := tensor.VectorOf(0.3, -0.7, 1.1)
	first, err := net.FeedForward(input)
	require.NoError(t, err)
	second, err := net.FeedForward(input)
	require.NoError(t, err)
	assert.Equal(t, first.Values(), second.Values())
}

func TestFeedForward_ZeroInput(t *testing.T) {
	ctx := newDevice(t)
	rng := rand.New(rand.NewSource(5))

	l1 := nn.NewFullyConnected(ctx, vec(4), 3, rng)
	l2 := nn.NewFullyConnected(ctx, vec(3), 2, rng)
	require.NoError(t, l1.SetParameters(identity(4, 3), tensor.NewVector(3)))
	require.NoError(t, l2.SetParameters(identity(3, 2), tensor.NewVector(2)))

	net, err := nn.New(ctx, []nn.Layer{l1, l2}, nn.NewLinearOutput(vec(2)))
	require.NoError(t, err)
	defer net.Release()

	out, err := net.FeedForward(tensor.NewVector(4))
	require.NoError(t, err)
	assert.Equal(t, vec(2), out.Shape())
	assert.Equal(t, []float32{0, 0}, out.Values())

	_, err = net.FeedForward(tensor.NewVector(5))
	require.ErrorIs(t, err, nn.ErrShapeMismatch)
	var sm *tensor.ShapeMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, vec(4), sm.Expected)
	assert.Equal(t, vec(5), sm.Actual)
}

func TestTrain_ShapeMismatch(t *testing.T) {
	ctx := newDevice(t)
	net, err := nn.New(ctx, nil, nn.NewLinearOutput(vec(2)))
	require.NoError(t, err)

	_, err = net.Train(nn.Sample{Input: tensor.VectorOf(1, 2), Expected: tensor.VectorOf(1)}, nn.DefaultTrainConfig())
	require.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = net.Train(nn.Sample{Input: tensor.VectorOf(1), Expected: tensor.VectorOf(1, 2)}, nn.DefaultTrainConfig())
	require.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = net.TrainEpoch([]nn.Sample{{Input: tensor.VectorOf(1, 2), Expected: tensor.VectorOf(1)}}, nn.DefaultTrainConfig())
	require.ErrorIs(t, err, nn.ErrShapeMismatch)
}

func TestTrain_InvalidConfig(t *testing.T) {
	ctx := newDevice(t)
	net, err := nn.New(ctx, nil, nn.NewLinearOutput(vec(1)))
	require.NoError(t, err)

	cfg := nn.DefaultTrainConfig()
	cfg.LearningRate = 0
	_, err = net.Train(nn.Sample{Input: tensor.VectorOf(1), Expected: tensor.VectorOf(1)}, cfg)
	require.ErrorIs(t, err, nn.ErrInvalidConfig)
}

func TestTrain_LinearRegression(t *testing.T) {
	ctx := newDevice(t)
	dense := nn.NewFullyConnected(ctx, vec(1), 1, rand.New(rand.NewSource(2)))
	net, err := nn.New(ctx, []nn.Layer{dense}, nn.NewLinearOutput(vec(1)))
	require.NoError(t, err)
	defer net.Release()

	// y = 2x - 1
	var samples []nn.Sample
	for _, x := range []float32{-1, -0.5, 0, 0.5, 1} {
		samples = append(samples, nn.Sample{Input: tensor.VectorOf(x), Expected: tensor.VectorOf(2*x - 1)})
	}
	cfg := nn.TrainConfig{LearningRate: 0.1, Momentum: 0.5}

	first, err := net.TrainEpoch(samples, cfg)
	require.NoError(t, err)
	var last float32
	for i := 0; i < 200; i++ {
		last, err = net.TrainEpoch(samples, cfg)
		require.NoError(t, err)
	}
	assert.Less(t, last, first)
	assert.Less(t, last, float32(1e-4))

	require.NoError(t, net.FinishTraining())
	assert.InDelta(t, 2.0, dense.Weights().At(0, 0), 1e-2)
	assert.InDelta(t, -1.0, dense.Bias().At(0), 1e-2)
	assert.Equal(t, 201*len(samples), dense.Steps())
}

func TestTrain_XOR(t *testing.T) {
	ctx := newDevice(t)
	rng := rand.New(rand.NewSource(42))

	net, err := nn.New(ctx, []nn.Layer{
		nn.NewFullyConnected(ctx, vec(2), 8, rng),
		nn.NewActivation(nn.Tanh, vec(8)),
		nn.NewFullyConnected(ctx, vec(8), 2, rng),
	}, nn.NewSoftmaxOutput(vec(2)))
	require.NoError(t, err)
	defer net.Release()

	samples := []nn.Sample{
		{Input: tensor.VectorOf(0, 0), Expected: tensor.VectorOf(1, 0)},
		{Input: tensor.VectorOf(0, 1), Expected: tensor.VectorOf(0, 1)},
		{Input: tensor.VectorOf(1, 0), Expected: tensor.VectorOf(0, 1)},
		{Input: tensor.VectorOf(1, 1), Expected: tensor.VectorOf(1, 0)},
	}
	cfg := nn.TrainConfig{LearningRate: 0.1, Momentum: 0.9}

	first, err := net.TrainEpoch(samples, cfg)
	require.NoError(t, err)
	var last float32
	for i := 0; i < 1000; i++ {
		last, err = net.TrainEpoch(samples, cfg)
		require.NoError(t, err)
	}
	assert.Less(t, last, first)

	for _, s := range samples {
		out, err := net.FeedForward(s.Input)
		require.NoError(t, err)
		want := 0
		if s.Expected.Values()[1] == 1 {
			want = 1
		}
		assert.Greater(t, out.Values()[want], float32(0.5), "input %v", s.Input.Values())
	}
}

func TestFinishTraining_Syncs(t *testing.T) {
	ctx := newDevice(t)
	dense := nn.NewFullyConnected(ctx, vec(2), 1, rand.New(rand.NewSource(9)))
	net, err := nn.New(ctx, []nn.Layer{dense}, nn.NewLinearOutput(vec(1)))
	require.NoError(t, err)
	defer net.Release()

	before := append([]float32(nil), dense.Weights().Values()...)
	_, err = net.Train(nn.Sample{Input: tensor.VectorOf(1, 1), Expected: tensor.VectorOf(10)}, nn.DefaultTrainConfig())
	require.NoError(t, err)

	// Host copies only change on FinishTraining.
	assert.Equal(t, before, dense.Weights().Values())
	require.NoError(t, net.FinishTraining())
	assert.NotEqual(t, before, dense.Weights().Values())
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := newDevice(t)
	net, err := nn.New(ctx, nil, nn.NewLinearOutput(vec(1)), nn.WithLogger(logger))
	require.NoError(t, err)
	_, err = net.FeedForward(tensor.VectorOf(1))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "network built")
	assert.Contains(t, buf.String(), "feed forward")
}

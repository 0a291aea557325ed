package nn_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/nn"
	"github.com/born-ml/neuralkit/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullyConnected_Init(t *testing.T) {
	ctx := newDevice(t)
	l := nn.NewFullyConnected(ctx, tensor.MatrixShape(3, 2), 4, rand.New(rand.NewSource(1)))
	defer l.Release()

	assert.Equal(t, tensor.MatrixShape(3, 2), l.InputShape())
	assert.Equal(t, vec(4), l.OutputShape())
	assert.Equal(t, tensor.MatrixShape(6, 4), l.Weights().Shape())
	assert.True(t, l.Adjustable())

	bound := float32(1.0) // sqrt(6/(6+4)) < 1
	nonZero := 0
	for _, w := range l.Weights().Values() {
		assert.LessOrEqual(t, w, bound)
		assert.GreaterOrEqual(t, w, -bound)
		if w != 0 {
			nonZero++
		}
	}
	assert.Positive(t, nonZero)
	assert.Equal(t, []float32{0, 0, 0, 0}, l.Bias().Values())
}

func TestFullyConnected_SetParametersMismatch(t *testing.T) {
	ctx := newDevice(t)
	l := nn.NewFullyConnected(ctx, vec(2), 2, nil)
	defer l.Release()

	err := l.SetParameters(tensor.NewMatrix(3, 2), tensor.NewVector(2))
	require.ErrorIs(t, err, nn.ErrShapeMismatch)
	err = l.SetParameters(tensor.NewMatrix(2, 2), tensor.NewVector(3))
	require.ErrorIs(t, err, nn.ErrShapeMismatch)
}

func TestFullyConnected_ForwardBackward(t *testing.T) {
	ctx := newDevice(t)
	l := nn.NewFullyConnected(ctx, vec(2), 2, nil)
	defer l.Release()

	w, err := tensor.MatrixFrom(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, l.SetParameters(w, tensor.VectorOf(0.5, -0.5)))

	x := device.Upload(ctx, tensor.VectorOf(1, -1))
	g := device.Upload(ctx, tensor.VectorOf(1, 1))
	defer x.Release()
	defer g.Release()

	s := device.Open(ctx)
	y := l.Forward(x, s)
	dx := l.Backward(g, x, s)
	cfg := nn.TrainConfig{LearningRate: 0.5}
	l.ApplyGradient(cfg, s)
	require.NoError(t, s.Commit())
	require.NoError(t, s.Wait())

	yHost, err := y.ReadBack()
	require.NoError(t, err)
	dxHost, err := dx.ReadBack()
	require.NoError(t, err)
	s.Close()

	// y = [1-2+0.5, 3-4-0.5]; dx uses the weights before the update.
	assert.Equal(t, []float32{-0.5, -1.5}, yHost.Values())
	assert.Equal(t, []float32{4, 6}, dxHost.Values())

	// dW = g⊗x = [[1 -1] [1 -1]], db = g; w -= 0.5*dW.
	require.NoError(t, l.Sync())
	assert.Equal(t, []float32{0.5, 2.5, 2.5, 4.5}, l.Weights().Values())
	assert.Equal(t, []float32{0, -1}, l.Bias().Values())
	assert.Equal(t, 1, l.Steps())
}

func TestFullyConnected_Annealing(t *testing.T) {
	cfg := nn.TrainConfig{LearningRate: 1, Annealing: 0.5}
	assert.InDelta(t, 1.0, cfg.Rate(0), 1e-7)
	assert.InDelta(t, 0.5, cfg.Rate(2), 1e-7)
	assert.InDelta(t, 0.25, cfg.Rate(6), 1e-7)
}

func TestFullyConnected_ForwardShapePanics(t *testing.T) {
	ctx := newDevice(t)
	l := nn.NewFullyConnected(ctx, vec(3), 2, nil)
	defer l.Release()

	x := device.Upload(ctx, tensor.VectorOf(1, 2))
	defer x.Release()
	s := device.Open(ctx)
	defer s.Close()

	assert.PanicsWithError(t, "fully_connected(3→2).Forward: shape mismatch: expected 3x1x1, got 2x1x1", func() {
		l.Forward(x, s)
	})
}

func TestActivation_Layer(t *testing.T) {
	ctx := newDevice(t)
	a := nn.NewActivation(nn.ReLU, vec(3))
	assert.False(t, a.Adjustable())
	assert.Equal(t, "relu", a.Name())
	assert.Equal(t, []string{device.KernelReLUForward, device.KernelReLUBackward}, a.Kernels())

	x := device.Upload(ctx, tensor.VectorOf(-1, 0.5, 2))
	g := device.Upload(ctx, tensor.VectorOf(3, 3, 3))
	defer x.Release()
	defer g.Release()

	s := device.Open(ctx)
	defer s.Close()
	y := a.Forward(x, s)
	dx := a.Backward(g, x, s)
	a.ApplyGradient(nn.DefaultTrainConfig(), s)
	require.NoError(t, s.Commit())
	require.NoError(t, s.Wait())

	yHost, err := y.ReadBack()
	require.NoError(t, err)
	dxHost, err := dx.ReadBack()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0.5, 2}, yHost.Values())
	assert.Equal(t, []float32{0, 3, 3}, dxHost.Values())
	assert.Equal(t, 2, s.Dispatches())
}

func TestReshape(t *testing.T) {
	ctx := newDevice(t)

	_, err := nn.NewReshape(tensor.MatrixShape(2, 3), vec(5))
	require.ErrorIs(t, err, nn.ErrShapeMismatch)

	r, err := nn.NewReshape(tensor.MatrixShape(2, 3), vec(6))
	require.NoError(t, err)

	host, err := tensor.MatrixFrom(2, 3, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	x := device.Upload(ctx, host)
	defer x.Release()

	s := device.Open(ctx)
	defer s.Close()
	y := r.Forward(x, s)
	dx := r.Backward(y, x, s)
	require.NoError(t, s.Commit())
	require.NoError(t, s.Wait())

	yHost, err := y.ReadBack()
	require.NoError(t, err)
	assert.Equal(t, vec(6), yHost.Shape())
	assert.Equal(t, host.Values(), yHost.Values())

	dxHost, err := dx.ReadBack()
	require.NoError(t, err)
	assert.Equal(t, host.Shape(), dxHost.Shape())
}

func TestLossKind_Compute(t *testing.T) {
	tests := []struct {
		name     string
		kind     nn.LossKind
		expected []float32
		actual   []float32
		want     float32
	}{
		{"squared error", nn.SquaredError, []float32{1, 0}, []float32{0, 2}, 2.5},
		{"squared error exact", nn.SquaredError, []float32{1, 2}, []float32{1, 2}, 0},
		{"nll", nn.NegativeLogLikelihood, []float32{0, 1}, []float32{0.5, 0.5}, 0.6931472},
		{"nll clamps zero", nn.NegativeLogLikelihood, []float32{1, 0}, []float32{0, 1}, 16.118095},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.kind.Compute(tensor.VectorOf(tt.expected...), tensor.VectorOf(tt.actual...))
			assert.InDelta(t, tt.want, got, 1e-4)
		})
	}
	assert.Equal(t, "squared_error", nn.SquaredError.String())
	assert.Equal(t, "negative_log_likelihood", nn.NegativeLogLikelihood.String())
}

func TestTrainConfig_Validate(t *testing.T) {
	require.NoError(t, nn.DefaultTrainConfig().Validate())

	bad := []nn.TrainConfig{
		{LearningRate: -1},
		{LearningRate: 0.1, Momentum: 1},
		{LearningRate: 0.1, Decay: -0.1},
		{LearningRate: 0.1, Annealing: -1},
	}
	for _, cfg := range bad {
		require.ErrorIs(t, cfg.Validate(), nn.ErrInvalidConfig, "%+v", cfg)
	}
}

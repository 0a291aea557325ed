package optim_test

import (
	"testing"

	"github.com/born-ml/neuralkit/internal/optim"
	"github.com/stretchr/testify/assert"
)

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	params := []float32{2}
	velocity := []float32{0}

	optim.SGD{Rate: 0.1}.Step(params, []float32{1}, velocity, 1)

	// x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	assert.InDelta(t, 1.9, params[0], 1e-6)
	assert.InDelta(t, -0.1, velocity[0], 1e-6)
}

// TestSGD_WithMomentum tests that velocity accumulates across steps.
func TestSGD_WithMomentum(t *testing.T) {
	params := []float32{1}
	velocity := []float32{0}
	sgd := optim.SGD{Rate: 0.1, Momentum: 0.9}

	sgd.Step(params, []float32{1}, velocity, 1) // v = -0.1
	sgd.Step(params, []float32{1}, velocity, 1) // v = -0.09 - 0.1 = -0.19

	assert.InDelta(t, -0.19, velocity[0], 1e-6)
	assert.InDelta(t, 1-0.1-0.19, params[0], 1e-6)
}

// TestSGD_DecaySkipsBiases tests that only the leading weights decay.
func TestSGD_DecaySkipsBiases(t *testing.T) {
	params := []float32{1, 1}
	velocity := []float32{0, 0}

	optim.SGD{Rate: 0.1, Decay: 0.5}.Step(params, []float32{0, 0}, velocity, 1)

	assert.InDelta(t, 0.95, params[0], 1e-6)
	assert.Equal(t, float32(1), params[1])
}

// TestSGD_ZeroGradient tests that a zero gradient without momentum or decay
// is a no-op.
func TestSGD_ZeroGradient(t *testing.T) {
	params := []float32{0.3, -0.7}
	velocity := []float32{0, 0}

	optim.SGD{Rate: 0.5, Momentum: 0.9}.Step(params, []float32{0, 0}, velocity, 2)

	assert.Equal(t, []float32{0.3, -0.7}, params)
}

func TestSchedules(t *testing.T) {
	assert.Equal(t, float32(0.1), optim.Constant(0.1)(1000))

	s := optim.InverseTime(0.1, 1)
	assert.InDelta(t, 0.1, s(0), 1e-7)
	assert.InDelta(t, 0.05, s(1), 1e-7)
	assert.InDelta(t, 0.025, s(3), 1e-7)

	assert.Equal(t, float32(0.1), optim.InverseTime(0.1, 0)(50))
}

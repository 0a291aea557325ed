package nn

import (
	"fmt"

	"github.com/born-ml/neuralkit/internal/optim"
	"github.com/born-ml/neuralkit/internal/tensor"
)

// TrainConfig holds the hyperparameters of one training step.
//
// The effective learning rate of an adjustable layer at its n-th update
// (counting from zero) is LearningRate / (1 + Annealing*n).
type TrainConfig struct {
	LearningRate float32 // Step size (default: 0.1)
	Momentum     float32 // Velocity decay, range [0, 1) (default: 0.9)
	Decay        float32 // L2 weight decay, biases excluded (default: 0)
	Annealing    float32 // Learning-rate annealing per update (default: 0)
}

// DefaultTrainConfig returns the default hyperparameters.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		LearningRate: 0.1,
		Momentum:     0.9,
	}
}

// Validate reports whether the config can be used for training.
func (c TrainConfig) Validate() error {
	switch {
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate %v must be positive", ErrInvalidConfig, c.LearningRate)
	case c.Momentum < 0 || c.Momentum >= 1:
		return fmt.Errorf("%w: momentum %v outside [0, 1)", ErrInvalidConfig, c.Momentum)
	case c.Decay < 0:
		return fmt.Errorf("%w: negative decay %v", ErrInvalidConfig, c.Decay)
	case c.Annealing < 0:
		return fmt.Errorf("%w: negative annealing %v", ErrInvalidConfig, c.Annealing)
	}
	return nil
}

// Rate returns the effective learning rate for the given update count.
func (c TrainConfig) Rate(step int) float32 {
	return optim.InverseTime(c.LearningRate, c.Annealing)(step)
}

// Sample is one training example.
type Sample struct {
	Input    tensor.Tensor
	Expected tensor.Tensor
}

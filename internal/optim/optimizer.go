// Package optim holds the parameter update rules and learning-rate
// schedules shared by the CPU kernels and the training configuration.
//
// The GPU device implements the same rule in WGSL (dense_update); the
// functions here are the reference the CPU device executes.
package optim

// SGD is stochastic gradient descent with momentum and L2 weight decay.
//
// Update rule for each parameter w with gradient g and velocity v:
//
//	v = Momentum*v - Rate*(g + Decay*w)
//	w = w + v
//
// Decay applies only to the weights, never to biases; see Step.
//
// Example:
//
//	sgd := optim.SGD{Rate: 0.1, Momentum: 0.9}
//	sgd.Step(params, grads, velocity, numWeights)
type SGD struct {
	Rate     float32 // Learning rate for this step
	Momentum float32 // Velocity decay, range [0, 1)
	Decay    float32 // L2 coefficient
}

// Step updates params and velocity in place. The first decayed entries of
// params are weights and receive weight decay; the rest are biases.
//
// params, grads and velocity must have the same length.
func (s SGD) Step(params, grads, velocity []float32, decayed int) {
	grads = grads[:len(params)]
	velocity = velocity[:len(params)]
	decayed = min(max(decayed, 0), len(params))

	for k := 0; k < decayed; k++ {
		velocity[k] = s.Momentum*velocity[k] - s.Rate*(grads[k]+s.Decay*params[k])
		params[k] += velocity[k]
	}
	for k := decayed; k < len(params); k++ {
		velocity[k] = s.Momentum*velocity[k] - s.Rate*grads[k]
		params[k] += velocity[k]
	}
}

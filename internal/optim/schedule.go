package optim

// Schedule maps an update count (starting at zero) to a learning rate.
type Schedule func(step int) float32

// Constant returns lr for every step.
func Constant(lr float32) Schedule {
	return func(int) float32 { return lr }
}

// InverseTime anneals lr as lr / (1 + annealing*step). annealing 0 is
// equivalent to Constant.
func InverseTime(lr, annealing float32) Schedule {
	return func(step int) float32 {
		return lr / (1 + annealing*float32(step))
	}
}

package device

// Kernel names shared by every kernel library.
//
// Each entry documents the dispatch contract: the thread count, the Params
// words in order, and the buffers in binding order. Buffers marked "out" are
// written; all others are read only.
const (
	// KernelCopy: threads n; params {n}; buffers [src, dst out].
	KernelCopy = "copy"

	// KernelDenseForward computes y = W·x + b.
	// threads out; params {in, out}; buffers [weights (out*in, then out
	// biases), x (in), y out (out)].
	KernelDenseForward = "dense_forward"

	// KernelDenseBackward computes the input gradient Wᵀ·g.
	// threads in; params {in, out}; buffers [weights, g (out), dx out (in)].
	KernelDenseBackward = "dense_backward"

	// KernelDenseGradient computes the parameter gradient: g⊗x for the
	// weights followed by g for the biases.
	// threads out*in+out; params {in, out}; buffers [g (out), x (in),
	// dW out (out*in+out)].
	KernelDenseGradient = "dense_gradient"

	// KernelDenseUpdate applies momentum SGD with L2 decay on the weights:
	// v = momentum*v - rate*(dW + decay*w); w += v.
	// threads out*in+out; params {in, out, rate, momentum, decay};
	// buffers [weights out, dW, velocity out].
	KernelDenseUpdate = "dense_update"

	// Activation forward kernels: threads n; params {n}; buffers [x, y out].
	KernelReLUForward    = "relu_forward"
	KernelSigmoidForward = "sigmoid_forward"
	KernelTanhForward    = "tanh_forward"

	// Activation backward kernels: threads n; params {n};
	// buffers [g, x, dx out]. The derivative is evaluated at the forward input x.
	KernelReLUBackward    = "relu_backward"
	KernelSigmoidBackward = "sigmoid_backward"
	KernelTanhBackward    = "tanh_backward"

	// KernelSoftmax: threads n; params {n}; buffers [x, y out].
	KernelSoftmax = "softmax_forward"

	// KernelLossGradient computes actual - expected, the gradient of both
	// ½·squared error on a linear output and negative log-likelihood on a
	// softmax output.
	// threads n; params {n}; buffers [expected, actual, g out].
	KernelLossGradient = "loss_gradient"
)

// Kernels lists every kernel name a complete library must provide.
var Kernels = []string{
	KernelCopy,
	KernelDenseForward,
	KernelDenseBackward,
	KernelDenseGradient,
	KernelDenseUpdate,
	KernelReLUForward,
	KernelSigmoidForward,
	KernelTanhForward,
	KernelReLUBackward,
	KernelSigmoidBackward,
	KernelTanhBackward,
	KernelSoftmax,
	KernelLossGradient,
}

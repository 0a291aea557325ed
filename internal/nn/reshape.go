package nn

import (
	"fmt"

	"github.com/born-ml/neuralkit/internal/device"
	"github.com/born-ml/neuralkit/internal/tensor"
)

// Reshape reinterprets its input under another shape with the same number
// of elements. Values keep their row-major order.
type Reshape struct {
	shapes
	fixed
}

// NewReshape creates a reshape layer from in to out.
// Returns an error wrapping ErrShapeMismatch if the element counts differ.
func NewReshape(in, out tensor.Shape) (*Reshape, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("nn: reshape input: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("nn: reshape output: %w", err)
	}
	if in.NumElements() != out.NumElements() {
		return nil, fmt.Errorf("nn: reshape %v to %v: %w", in, out, ErrShapeMismatch)
	}
	return &Reshape{shapes: shapes{in: in, out: out}}, nil
}

// Name returns "reshape(in→out)".
func (r *Reshape) Name() string {
	return fmt.Sprintf("reshape(%v→%v)", r.in, r.out)
}

// Kernels lists the copy kernel.
func (r *Reshape) Kernels() []string {
	return []string{device.KernelCopy}
}

// Forward records a copy of input into a tensor of the output shape.
func (r *Reshape) Forward(input *device.Tensor, s *device.Session) *device.Tensor {
	tensor.MustMatch(r.Name()+".Forward", r.in, input.Shape())
	return r.copyAs(input, r.out, s)
}

// Backward records a copy of the gradient back into the input shape.
func (r *Reshape) Backward(outputGradient, input *device.Tensor, s *device.Session) *device.Tensor {
	tensor.MustMatch(r.Name()+".Backward", r.out, outputGradient.Shape())
	tensor.MustMatch(r.Name()+".Backward", r.in, input.Shape())
	return r.copyAs(outputGradient, r.in, s)
}

func (r *Reshape) copyAs(src *device.Tensor, shape tensor.Shape, s *device.Session) *device.Tensor {
	n := shape.NumElements()
	dst := s.Tensor(shape)
	s.Dispatch(device.KernelCopy, n, device.Params{}.Uint(n), src, dst)
	return dst
}

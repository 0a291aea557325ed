package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/neuralkit/internal/tensor"
)

// Sentinel errors.
var (
	// ErrShapeMismatch is tensor.ErrShapeMismatch, re-exported so callers
	// of this package need not import internal/tensor to match it.
	ErrShapeMismatch = tensor.ErrShapeMismatch

	// ErrMissingKernel reports a layer kernel the device library lacks.
	ErrMissingKernel = errors.New("nn: kernel missing from device library")

	// ErrNoOutputLayer reports a network built without an output layer.
	ErrNoOutputLayer = errors.New("nn: network has no output layer")

	// ErrInvalidConfig reports unusable training hyperparameters.
	ErrInvalidConfig = errors.New("nn: invalid training config")
)

// CompositionError reports why a network could not be built.
// Index is the position of the offending layer in the chain; the output
// layer has index len(layers).
type CompositionError struct {
	Index int
	Layer string
	Err   error
}

// Error implements the error interface.
func (e *CompositionError) Error() string {
	return fmt.Sprintf("nn: layer %d (%s): %v", e.Index, e.Layer, e.Err)
}

// Unwrap returns the underlying error.
func (e *CompositionError) Unwrap() error {
	return e.Err
}

package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrMissingKey         = errors.New("missing key")
	ErrInvalidType        = errors.New("invalid type")
	ErrChecksumMismatch   = errors.New("checksum mismatch: weights may be corrupted")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrLayerMismatch      = errors.New("snapshot does not match network")
)

// MissingKeyError reports a required field absent from a structured value.
type MissingKeyError struct {
	Path string // Location of the enclosing value, e.g. "layers[1].weights"
	Key  string // Missing field
}

// Error implements the error interface.
func (e *MissingKeyError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %v %q", e.Path, ErrMissingKey, e.Key)
	}
	return fmt.Sprintf("%v %q", ErrMissingKey, e.Key)
}

// Unwrap returns ErrMissingKey.
func (e *MissingKeyError) Unwrap() error {
	return ErrMissingKey
}

// InvalidTypeError reports a field whose value has the wrong type or shape.
type InvalidTypeError struct {
	Path    string // Location of the enclosing value
	Key     string // Offending field
	Details string // What was expected and found
}

// Error implements the error interface.
func (e *InvalidTypeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %v for %q: %s", e.Path, ErrInvalidType, e.Key, e.Details)
	}
	return fmt.Sprintf("%v for %q: %s", ErrInvalidType, e.Key, e.Details)
}

// Unwrap returns ErrInvalidType.
func (e *InvalidTypeError) Unwrap() error {
	return ErrInvalidType
}

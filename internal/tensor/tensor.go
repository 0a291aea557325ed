package tensor

import "fmt"

// Tensor is the read/write view every primitive operates on.
//
// Implementations own their backing slice exclusively. Passing a Tensor as a
// source only borrows it for reading; passing it as a destination borrows it
// for exclusive writing.
type Tensor interface {
	// Shape returns the immutable dimensions of the tensor.
	Shape() Shape

	// Values returns the contiguous backing storage.
	// len(Values()) == Shape().NumElements() at all times.
	Values() []float32
}

// Vector is a one-dimensional tensor.
type Vector struct {
	values []float32
}

// NewVector creates a zero-filled vector with n elements.
func NewVector(n int) *Vector {
	if n <= 0 {
		panic(fmt.Sprintf("tensor.NewVector: invalid length %d", n))
	}
	return &Vector{values: make([]float32, n)}
}

// VectorOf creates a vector holding a copy of values.
func VectorOf(values ...float32) *Vector {
	v := NewVector(len(values))
	copy(v.values, values)
	return v
}

// AdoptVector wraps values as a vector without copying.
//
// The vector takes ownership of values; the caller must not use the slice
// afterwards except through the returned vector.
func AdoptVector(values []float32) *Vector {
	if len(values) == 0 {
		panic("tensor.AdoptVector: empty values")
	}
	return &Vector{values: values}
}

// Shape returns {n, 1, 1}.
func (v *Vector) Shape() Shape { return VectorShape(len(v.values)) }

// Values returns the backing storage.
func (v *Vector) Values() []float32 { return v.values }

// Count returns the number of elements.
func (v *Vector) Count() int { return len(v.values) }

// At returns element i.
func (v *Vector) At(i int) float32 { return v.values[i] }

// Set assigns element i.
func (v *Vector) Set(i int, value float32) { v.values[i] = value }

// Matrix is a two-dimensional, row-major tensor.
type Matrix struct {
	width  int
	height int
	values []float32
}

// NewMatrix creates a zero-filled width × height matrix.
func NewMatrix(width, height int) *Matrix {
	shape := MatrixShape(width, height)
	if err := shape.Validate(); err != nil {
		panic("tensor.NewMatrix: " + err.Error())
	}
	return &Matrix{width: width, height: height, values: make([]float32, shape.NumElements())}
}

// MatrixFrom creates a matrix holding a copy of row-major values.
func MatrixFrom(width, height int, values []float32) (*Matrix, error) {
	shape := MatrixShape(width, height)
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(values) != shape.NumElements() {
		return nil, fmt.Errorf("matrix %v requires %d values, but got %d: %w",
			shape, shape.NumElements(), len(values), ErrShapeMismatch)
	}
	m := NewMatrix(width, height)
	copy(m.values, values)
	return m, nil
}

// Shape returns {width, height, 1}.
func (m *Matrix) Shape() Shape { return MatrixShape(m.width, m.height) }

// Values returns the backing storage.
func (m *Matrix) Values() []float32 { return m.values }

// Width returns the number of columns.
func (m *Matrix) Width() int { return m.width }

// Height returns the number of rows.
func (m *Matrix) Height() int { return m.height }

// At returns the element at column, row.
func (m *Matrix) At(column, row int) float32 {
	return m.values[row*m.width+column]
}

// Set assigns the element at column, row.
func (m *Matrix) Set(column, row int, value float32) {
	m.values[row*m.width+column] = value
}

// Row returns row as a slice sharing the matrix storage.
func (m *Matrix) Row(row int) []float32 {
	return m.values[row*m.width : (row+1)*m.width]
}

// Matrix3 is a three-dimensional tensor: Depth slices of Width × Height matrices.
type Matrix3 struct {
	shape  Shape
	values []float32
}

// NewMatrix3 creates a zero-filled tensor of the given shape.
func NewMatrix3(shape Shape) *Matrix3 {
	if err := shape.Validate(); err != nil {
		panic("tensor.NewMatrix3: " + err.Error())
	}
	return &Matrix3{shape: shape, values: make([]float32, shape.NumElements())}
}

// Matrix3From creates a tensor of the given shape holding a copy of values.
func Matrix3From(shape Shape, values []float32) (*Matrix3, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(values) != shape.NumElements() {
		return nil, fmt.Errorf("matrix3 %v requires %d values, but got %d: %w",
			shape, shape.NumElements(), len(values), ErrShapeMismatch)
	}
	m := NewMatrix3(shape)
	copy(m.values, values)
	return m, nil
}

// Matrix3Of copies any tensor into a new Matrix3 of the same shape.
func Matrix3Of(t Tensor) *Matrix3 {
	m := NewMatrix3(t.Shape())
	copy(m.values, t.Values())
	return m
}

// Shape returns the tensor's shape.
func (m *Matrix3) Shape() Shape { return m.shape }

// Values returns the backing storage.
func (m *Matrix3) Values() []float32 { return m.values }

// Count returns the total number of elements.
func (m *Matrix3) Count() int { return len(m.values) }

// At returns the element at column, row, slice.
func (m *Matrix3) At(column, row, slice int) float32 {
	return m.values[m.shape.Index(column, row, slice)]
}

// Set assigns the element at column, row, slice.
func (m *Matrix3) Set(column, row, slice int, value float32) {
	m.values[m.shape.Index(column, row, slice)] = value
}

// Flatten copies the values into a new Vector.
func (m *Matrix3) Flatten() *Vector {
	return VectorOf(m.values...)
}

package tensor

import (
	"github.com/goki/mat32"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Every operation in this file writes into dst, which must have exactly the
// shape of its operands. dst may alias any source: elementwise loops read
// element i before writing it, and BLAS paths order their copies so an
// aliased operand is consumed first.

// vec wraps a slice as a unit-stride BLAS vector.
func vec(x []float32) blas32.Vector {
	return blas32.Vector{N: len(x), Inc: 1, Data: x}
}

// same reports whether two slices share their first element.
func same(x, y []float32) bool {
	return len(x) > 0 && len(y) > 0 && &x[0] == &y[0]
}

func check2(op string, dst, a Tensor) {
	MustMatch(op, dst.Shape(), a.Shape())
}

func check3(op string, dst, a, b Tensor) {
	MustMatch(op, dst.Shape(), a.Shape())
	MustMatch(op, dst.Shape(), b.Shape())
}

// Copy copies src into dst.
func Copy(dst, src Tensor) {
	check2("Copy", dst, src)
	copy(dst.Values(), src.Values())
}

// Fill sets every element of dst to value.
func Fill(dst Tensor, value float32) {
	d := dst.Values()
	for i := range d {
		d[i] = value
	}
}

// Add computes dst = a + b.
func Add(dst, a, b Tensor) {
	check3("Add", dst, a, b)
	d, av, bv := dst.Values(), a.Values(), b.Values()
	switch {
	case same(d, av):
		blas32.Axpy(1, vec(bv), vec(d))
	case same(d, bv):
		blas32.Axpy(1, vec(av), vec(d))
	default:
		copy(d, av)
		blas32.Axpy(1, vec(bv), vec(d))
	}
}

// Subtract computes dst = a - b.
func Subtract(dst, a, b Tensor) {
	check3("Subtract", dst, a, b)
	d, av, bv := dst.Values(), a.Values(), b.Values()
	if same(d, bv) {
		blas32.Scal(-1, vec(d))
		blas32.Axpy(1, vec(av), vec(d))
		return
	}
	if !same(d, av) {
		copy(d, av)
	}
	blas32.Axpy(-1, vec(bv), vec(d))
}

// Multiply computes the elementwise product dst = a * b.
func Multiply(dst, a, b Tensor) {
	check3("Multiply", dst, a, b)
	d, av, bv := dst.Values(), a.Values(), b.Values()
	for i := range d {
		d[i] = av[i] * bv[i]
	}
}

// Divide computes the elementwise quotient dst = a / b.
func Divide(dst, a, b Tensor) {
	check3("Divide", dst, a, b)
	d, av, bv := dst.Values(), a.Values(), b.Values()
	for i := range d {
		d[i] = av[i] / bv[i]
	}
}

// AddScalar computes dst = a + s.
func AddScalar(dst, a Tensor, s float32) {
	check2("AddScalar", dst, a)
	d, av := dst.Values(), a.Values()
	for i := range d {
		d[i] = av[i] + s
	}
}

// MultiplyScalar computes dst = a * s.
func MultiplyScalar(dst, a Tensor, s float32) {
	check2("MultiplyScalar", dst, a)
	d := dst.Values()
	if !same(d, a.Values()) {
		copy(d, a.Values())
	}
	blas32.Scal(s, vec(d))
}

// ScalarSubtract computes dst = s - a.
func ScalarSubtract(dst Tensor, s float32, a Tensor) {
	check2("ScalarSubtract", dst, a)
	d, av := dst.Values(), a.Values()
	for i := range d {
		d[i] = s - av[i]
	}
}

// ScalarDivide computes dst = s / a.
func ScalarDivide(dst Tensor, s float32, a Tensor) {
	check2("ScalarDivide", dst, a)
	d, av := dst.Values(), a.Values()
	for i := range d {
		d[i] = s / av[i]
	}
}

// unary applies f elementwise from a into dst.
func unary(op string, dst, a Tensor, f func(float32) float32) {
	check2(op, dst, a)
	d, av := dst.Values(), a.Values()
	for i := range d {
		d[i] = f(av[i])
	}
}

// Negate computes dst = -a.
func Negate(dst, a Tensor) {
	MultiplyScalar(dst, a, -1)
}

// Sqrt computes the elementwise square root.
func Sqrt(dst, a Tensor) {
	unary("Sqrt", dst, a, mat32.Sqrt)
}

// Rsqrt computes the elementwise reciprocal square root.
func Rsqrt(dst, a Tensor) {
	unary("Rsqrt", dst, a, func(x float32) float32 { return 1 / mat32.Sqrt(x) })
}

// Square computes the elementwise square.
func Square(dst, a Tensor) {
	unary("Square", dst, a, func(x float32) float32 { return x * x })
}

// Exp computes the elementwise natural exponential.
func Exp(dst, a Tensor) {
	unary("Exp", dst, a, mat32.Exp)
}

// Log computes the elementwise natural logarithm.
func Log(dst, a Tensor) {
	unary("Log", dst, a, mat32.Log)
}

// Tanh computes the elementwise hyperbolic tangent.
func Tanh(dst, a Tensor) {
	unary("Tanh", dst, a, mat32.Tanh)
}

// Sigmoid computes the logistic function 1 / (1 + exp(-a)).
func Sigmoid(dst, a Tensor) {
	unary("Sigmoid", dst, a, func(x float32) float32 { return 1 / (1 + mat32.Exp(-x)) })
}

// ReLU computes max(a, 0).
func ReLU(dst, a Tensor) {
	unary("ReLU", dst, a, func(x float32) float32 {
		if x > 0 {
			return x
		}
		return 0
	})
}

// SigmoidDerivative computes y * (1 - y) where y is a sigmoid output.
func SigmoidDerivative(dst, y Tensor) {
	unary("SigmoidDerivative", dst, y, func(v float32) float32 { return v * (1 - v) })
}

// TanhDerivative computes 1 - y² where y is a tanh output.
func TanhDerivative(dst, y Tensor) {
	unary("TanhDerivative", dst, y, func(v float32) float32 { return 1 - v*v })
}

// ReLUDerivative computes 1 where a > 0 and 0 elsewhere.
func ReLUDerivative(dst, a Tensor) {
	unary("ReLUDerivative", dst, a, func(x float32) float32 {
		if x > 0 {
			return 1
		}
		return 0
	})
}

// Sum returns the sum of all elements.
func Sum(a Tensor) float32 {
	var s float32
	for _, v := range a.Values() {
		s += v
	}
	return s
}

// Dot returns the inner product of a and b.
func Dot(a, b Tensor) float32 {
	MustMatch("Dot", a.Shape(), b.Shape())
	return blas32.Dot(vec(a.Values()), vec(b.Values()))
}

// MatVec computes dst = m · x, where m has Width == x.Count() and
// Height == dst.Count(). dst must not alias x.
func MatVec(dst *Vector, m *Matrix, x *Vector) {
	MustMatch("MatVec", VectorShape(m.Width()), x.Shape())
	MustMatch("MatVec", VectorShape(m.Height()), dst.Shape())
	a := blas32.General{Rows: m.Height(), Cols: m.Width(), Stride: m.Width(), Data: m.Values()}
	blas32.Gemv(blas.NoTrans, 1, a, vec(x.Values()), 0, vec(dst.Values()))
}

// MatTVec computes dst = mᵀ · x, where m has Height == x.Count() and
// Width == dst.Count(). dst must not alias x.
func MatTVec(dst *Vector, m *Matrix, x *Vector) {
	MustMatch("MatTVec", VectorShape(m.Height()), x.Shape())
	MustMatch("MatTVec", VectorShape(m.Width()), dst.Shape())
	a := blas32.General{Rows: m.Height(), Cols: m.Width(), Stride: m.Width(), Data: m.Values()}
	blas32.Gemv(blas.Trans, 1, a, vec(x.Values()), 0, vec(dst.Values()))
}

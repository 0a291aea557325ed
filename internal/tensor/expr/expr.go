// Package expr implements deferred tensor arithmetic.
//
// An Expr describes a computation without performing it:
//
//	s := expr.Sigmoid(expr.T(x))   // nothing is computed yet
//	expr.Assign(dst, s)            // dst = 1 / (1 + exp(-x))
//
// Assign evaluates the innermost node first and every later step rewrites
// dst in place, so a whole expression touches exactly one buffer and
// allocates nothing. To keep that guarantee every binary node combines an
// expression with a plain tensor or scalar operand; two sub-expressions can
// never be combined directly.
package expr

import (
	"github.com/born-ml/neuralkit/internal/tensor"
)

// Expr is a deferred tensor computation.
type Expr interface {
	// Shape returns the shape of the value the expression produces.
	Shape() tensor.Shape

	// applyInto evaluates the expression into dst.
	// dst has already been checked against Shape().
	applyInto(dst tensor.Tensor)
}

// Assign evaluates e into dst.
//
// dst may be the tensor of the innermost T leaf, but must not be a tensor
// operand of Add, Sub, SubFrom, Mul or Div. Panics with
// *tensor.ShapeMismatchError if dst does not have e's shape.
func Assign(dst tensor.Tensor, e Expr) {
	tensor.MustMatch("expr.Assign", dst.Shape(), e.Shape())
	e.applyInto(dst)
}

// leaf copies a tensor into the destination.
type leaf struct {
	t tensor.Tensor
}

// T lifts a tensor into an expression. The tensor is read at Assign time.
func T(t tensor.Tensor) Expr {
	return leaf{t: t}
}

func (l leaf) Shape() tensor.Shape { return l.t.Shape() }

func (l leaf) applyInto(dst tensor.Tensor) {
	if &dst.Values()[0] != &l.t.Values()[0] {
		tensor.Copy(dst, l.t)
	}
}

// unaryNode applies an in-place unary op to its operand's value.
type unaryNode struct {
	inner Expr
	op    func(dst, a tensor.Tensor)
}

func (u unaryNode) Shape() tensor.Shape { return u.inner.Shape() }

func (u unaryNode) applyInto(dst tensor.Tensor) {
	u.inner.applyInto(dst)
	u.op(dst, dst)
}

// scalarNode combines an expression with a scalar.
type scalarNode struct {
	inner Expr
	s     float32
	op    func(dst tensor.Tensor, s float32)
}

func (n scalarNode) Shape() tensor.Shape { return n.inner.Shape() }

func (n scalarNode) applyInto(dst tensor.Tensor) {
	n.inner.applyInto(dst)
	n.op(dst, n.s)
}

// tensorNode combines an expression with a tensor operand.
type tensorNode struct {
	inner Expr
	t     tensor.Tensor
	op    func(dst, t tensor.Tensor)
}

func (n tensorNode) Shape() tensor.Shape { return n.inner.Shape() }

func (n tensorNode) applyInto(dst tensor.Tensor) {
	tensor.MustMatch("expr", n.inner.Shape(), n.t.Shape())
	n.inner.applyInto(dst)
	n.op(dst, n.t)
}

func unary(e Expr, op func(dst, a tensor.Tensor)) Expr {
	return unaryNode{inner: e, op: op}
}

// Neg returns -e.
func Neg(e Expr) Expr { return unary(e, tensor.Negate) }

// Exp returns exp(e).
func Exp(e Expr) Expr { return unary(e, tensor.Exp) }

// Log returns log(e).
func Log(e Expr) Expr { return unary(e, tensor.Log) }

// Sqrt returns sqrt(e).
func Sqrt(e Expr) Expr { return unary(e, tensor.Sqrt) }

// Rsqrt returns 1 / sqrt(e).
func Rsqrt(e Expr) Expr { return unary(e, tensor.Rsqrt) }

// Square returns e².
func Square(e Expr) Expr { return unary(e, tensor.Square) }

// Tanh returns tanh(e).
func Tanh(e Expr) Expr { return unary(e, tensor.Tanh) }

// ReLU returns max(e, 0).
func ReLU(e Expr) Expr { return unary(e, tensor.ReLU) }

// AddScalar returns e + s.
func AddScalar(e Expr, s float32) Expr {
	return scalarNode{inner: e, s: s, op: func(dst tensor.Tensor, s float32) { tensor.AddScalar(dst, dst, s) }}
}

// MulScalar returns e * s.
func MulScalar(e Expr, s float32) Expr {
	return scalarNode{inner: e, s: s, op: func(dst tensor.Tensor, s float32) { tensor.MultiplyScalar(dst, dst, s) }}
}

// ScalarSub returns s - e.
func ScalarSub(s float32, e Expr) Expr {
	return scalarNode{inner: e, s: s, op: func(dst tensor.Tensor, s float32) { tensor.ScalarSubtract(dst, s, dst) }}
}

// ScalarDiv returns s / e.
func ScalarDiv(s float32, e Expr) Expr {
	return scalarNode{inner: e, s: s, op: func(dst tensor.Tensor, s float32) { tensor.ScalarDivide(dst, s, dst) }}
}

// Add returns e + t.
func Add(e Expr, t tensor.Tensor) Expr {
	return tensorNode{inner: e, t: t, op: func(dst, t tensor.Tensor) { tensor.Add(dst, dst, t) }}
}

// Sub returns e - t.
func Sub(e Expr, t tensor.Tensor) Expr {
	return tensorNode{inner: e, t: t, op: func(dst, t tensor.Tensor) { tensor.Subtract(dst, dst, t) }}
}

// SubFrom returns t - e.
func SubFrom(t tensor.Tensor, e Expr) Expr {
	return tensorNode{inner: e, t: t, op: func(dst, t tensor.Tensor) { tensor.Subtract(dst, t, dst) }}
}

// Mul returns e * t elementwise.
func Mul(e Expr, t tensor.Tensor) Expr {
	return tensorNode{inner: e, t: t, op: func(dst, t tensor.Tensor) { tensor.Multiply(dst, dst, t) }}
}

// Div returns e / t elementwise.
func Div(e Expr, t tensor.Tensor) Expr {
	return tensorNode{inner: e, t: t, op: func(dst, t tensor.Tensor) { tensor.Divide(dst, dst, t) }}
}

// Sigmoid returns 1 / (1 + exp(-e)).
func Sigmoid(e Expr) Expr {
	return ScalarDiv(1, AddScalar(Exp(Neg(e)), 1))
}

// TanhDerivative returns 1 - e², the derivative of tanh expressed in its output.
func TanhDerivative(e Expr) Expr {
	return ScalarSub(1, Square(e))
}

// SigmoidDerivative returns y * (1 - y) for a sigmoid output y.
//
// y is needed twice, so it must be a plain tensor rather than an expression,
// and it cannot double as the destination.
func SigmoidDerivative(y tensor.Tensor) Expr {
	return Mul(ScalarSub(1, T(y)), y)
}

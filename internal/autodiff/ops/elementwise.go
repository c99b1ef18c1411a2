package ops

import (
	"math"

	"github.com/gradflow/gradflow/internal/tensor"
)

// NegOp represents negation: output = -x.
type NegOp struct{}

// Kind returns KindNeg.
func (NegOp) Kind() Kind { return KindNeg }

// InferShape keeps the operand shape.
func (NegOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindNeg, inputs)
}

// Forward computes -x.
func (NegOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Neg(inputs[0]), nil
}

// Backward computes -grad.
func (NegOp) Backward(_ []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return []*tensor.Tensor{tensor.Neg(grad)}, nil
}

// SquareOp represents output = x².
//
// Backward pass:
//   - d(x²)/dx = 2x
type SquareOp struct{}

// Kind returns KindSquare.
func (SquareOp) Kind() Kind { return KindSquare }

// InferShape keeps the operand shape.
func (SquareOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindSquare, inputs)
}

// Forward computes x².
func (SquareOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Map(func(x float64) float64 { return x * x }), nil
}

// Backward computes 2 * x * grad.
func (SquareOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return chain(grad, inputs[0], output, func(x, _ float64) float64 { return 2 * x })
}

// AbsOp represents output = |x|.
//
// Backward pass:
//   - d|x|/dx = sign(x), with sign(0) = 0
type AbsOp struct{}

// Kind returns KindAbs.
func (AbsOp) Kind() Kind { return KindAbs }

// InferShape keeps the operand shape.
func (AbsOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindAbs, inputs)
}

// Forward computes |x|.
func (AbsOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Map(math.Abs), nil
}

// Backward computes sign(x) * grad.
func (AbsOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return chain(grad, inputs[0], output, func(x, _ float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	})
}

// ScaleOp multiplies by a constant factor: output = Factor * x.
type ScaleOp struct {
	Factor float64
}

// Kind returns KindScale.
func (ScaleOp) Kind() Kind { return KindScale }

// InferShape keeps the operand shape.
func (ScaleOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindScale, inputs)
}

// Forward computes Factor * x.
func (op ScaleOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.MulScalar(inputs[0], op.Factor), nil
}

// Backward computes Factor * grad.
func (op ScaleOp) Backward(_ []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return []*tensor.Tensor{tensor.MulScalar(grad, op.Factor)}, nil
}

// ClipOp clamps every element into [Min, Max].
//
// Backward pass:
//   - the gradient passes where Min <= x <= Max and is 0 elsewhere
type ClipOp struct {
	Min, Max float64
}

// Kind returns KindClip.
func (ClipOp) Kind() Kind { return KindClip }

// InferShape keeps the operand shape and validates the bounds.
func (op ClipOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	if op.Min > op.Max {
		return nil, incompatible(KindClip, "lower bound %g greater than upper bound %g", op.Min, op.Max)
	}
	return unaryShape(KindClip, inputs)
}

// Forward clamps x.
func (op ClipOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Map(func(x float64) float64 {
		return math.Min(math.Max(x, op.Min), op.Max)
	}), nil
}

// Backward zeroes the gradient of clamped elements.
func (op ClipOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return chain(grad, inputs[0], output, func(x, _ float64) float64 {
		if x < op.Min || x > op.Max {
			return 0
		}
		return 1
	})
}

// IdentityOp forwards its operand unchanged.
type IdentityOp struct{}

// Kind returns KindIdentity.
func (IdentityOp) Kind() Kind { return KindIdentity }

// InferShape keeps the operand shape.
func (IdentityOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindIdentity, inputs)
}

// Forward copies x.
func (IdentityOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Clone(), nil
}

// Backward passes the gradient through.
func (IdentityOp) Backward(_ []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return []*tensor.Tensor{grad.Clone()}, nil
}

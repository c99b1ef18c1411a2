package ops

import (
	"math"

	"github.com/gradflow/gradflow/internal/tensor"
)

// SqrtOp represents the square root: output = sqrt(x).
//
// Backward pass:
//   - d(sqrt(x))/dx = 1 / (2 * sqrt(x)) = 0.5 / output
type SqrtOp struct{}

// Kind returns KindSqrt.
func (SqrtOp) Kind() Kind { return KindSqrt }

// InferShape keeps the operand shape.
func (SqrtOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindSqrt, inputs)
}

// Forward computes sqrt(x).
func (SqrtOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Map(math.Sqrt), nil
}

// Backward computes grad * 0.5 / sqrt(x).
func (SqrtOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return chain(grad, inputs[0], output, func(_, y float64) float64 { return 0.5 / y })
}

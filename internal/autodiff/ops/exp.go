package ops

import (
	"math"

	"github.com/gradflow/gradflow/internal/tensor"
)

// ExpOp represents the exponential function: output = exp(x).
//
// Backward pass:
//   - d(exp(x))/dx = exp(x) = output
type ExpOp struct{}

// Kind returns KindExp.
func (ExpOp) Kind() Kind { return KindExp }

// InferShape keeps the operand shape.
func (ExpOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindExp, inputs)
}

// Forward computes exp(x).
func (ExpOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Map(math.Exp), nil
}

// Backward computes grad * exp(x), reusing the forward output.
func (ExpOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return chain(grad, inputs[0], output, func(_, y float64) float64 { return y })
}

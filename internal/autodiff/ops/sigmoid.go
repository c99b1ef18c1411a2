package ops

import (
	"math"

	"github.com/gradflow/gradflow/internal/tensor"
)

// SigmoidOp represents the logistic sigmoid: output = 1 / (1 + exp(-x)).
//
// Backward pass:
//   - d(sigmoid(x))/dx = sigmoid(x) * (1 - sigmoid(x)) = output * (1 - output)
type SigmoidOp struct{}

// Kind returns KindSigmoid.
func (SigmoidOp) Kind() Kind { return KindSigmoid }

// InferShape keeps the operand shape.
func (SigmoidOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindSigmoid, inputs)
}

// Forward computes the sigmoid, split by sign to avoid overflow in exp.
func (SigmoidOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Map(sigmoid), nil
}

// Backward computes grad * output * (1 - output).
func (SigmoidOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return chain(grad, inputs[0], output, func(_, y float64) float64 { return y * (1 - y) })
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

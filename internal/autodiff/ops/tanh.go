package ops

import (
	"math"

	"github.com/gradflow/gradflow/internal/tensor"
)

// TanhOp represents the hyperbolic tangent: output = tanh(x).
//
// Backward pass:
//   - d(tanh(x))/dx = 1 - tanh²(x) = 1 - output²
type TanhOp struct{}

// Kind returns KindTanh.
func (TanhOp) Kind() Kind { return KindTanh }

// InferShape keeps the operand shape.
func (TanhOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindTanh, inputs)
}

// Forward computes tanh(x).
func (TanhOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Map(math.Tanh), nil
}

// Backward computes grad * (1 - output²).
func (TanhOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return chain(grad, inputs[0], output, func(_, y float64) float64 { return 1 - y*y })
}

package ops

import (
	"math"

	"github.com/gradflow/gradflow/internal/tensor"
)

// LogOp represents the natural logarithm: output = log(x).
//
// Backward pass:
//   - d(log(x))/dx = 1/x
type LogOp struct{}

// Kind returns KindLog.
func (LogOp) Kind() Kind { return KindLog }

// InferShape keeps the operand shape.
func (LogOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindLog, inputs)
}

// Forward computes log(x).
func (LogOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Map(math.Log), nil
}

// Backward computes grad / x.
func (LogOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return chain(grad, inputs[0], output, func(x, _ float64) float64 { return 1 / x })
}

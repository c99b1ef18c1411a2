package ops

import "github.com/gradflow/gradflow/internal/tensor"

// DivOp represents an element-wise division operation: output = a / b.
//
// Backward pass:
//   - d(a/b)/da = 1/b, so grad_a = outputGrad / b
//   - d(a/b)/db = -a/b², so grad_b = -outputGrad * a / b² = -outputGrad * output / b
type DivOp struct{}

// Kind returns KindDiv.
func (DivOp) Kind() Kind { return KindDiv }

// InferShape broadcasts the operand shapes.
func (DivOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return broadcastShape(KindDiv, inputs)
}

// Forward computes a / b.
func (DivOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Div(inputs[0], inputs[1])
}

// Backward computes input gradients for division.
func (DivOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	a, b := inputs[0], inputs[1]

	// q = outputGrad / b at the output shape.
	q, err := tensor.Div(grad, b)
	if err != nil {
		return nil, err
	}
	gradA, err := reduceBroadcast(q, a.Shape())
	if err != nil {
		return nil, err
	}

	gradB, err := tensor.Mul(q, output)
	if err != nil {
		return nil, err
	}
	if gradB, err = reduceBroadcast(tensor.Neg(gradB), b.Shape()); err != nil {
		return nil, err
	}
	return []*tensor.Tensor{gradA, gradB}, nil
}

package ops

import "github.com/gradflow/gradflow/internal/tensor"

// MulOp represents an element-wise multiplication operation: output = a * b.
//
// Backward pass:
//   - d(a*b)/da = b, so grad_a = outputGrad * b
//   - d(a*b)/db = a, so grad_b = outputGrad * a
type MulOp struct{}

// Kind returns KindMul.
func (MulOp) Kind() Kind { return KindMul }

// InferShape broadcasts the operand shapes.
func (MulOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return broadcastShape(KindMul, inputs)
}

// Forward computes a * b.
func (MulOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Mul(inputs[0], inputs[1])
}

// Backward computes input gradients for multiplication.
func (MulOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	a, b := inputs[0], inputs[1]

	// grad_a = outputGrad * b
	gradA, err := tensor.Mul(grad, b)
	if err != nil {
		return nil, err
	}
	if gradA, err = reduceBroadcast(gradA, a.Shape()); err != nil {
		return nil, err
	}

	// grad_b = outputGrad * a
	gradB, err := tensor.Mul(grad, a)
	if err != nil {
		return nil, err
	}
	if gradB, err = reduceBroadcast(gradB, b.Shape()); err != nil {
		return nil, err
	}
	return []*tensor.Tensor{gradA, gradB}, nil
}

package ops

import "github.com/gradflow/gradflow/internal/tensor"

// SubOp represents an element-wise subtraction operation: output = a - b.
//
// Backward pass:
//   - d(a-b)/da = 1, so grad_a = outputGrad
//   - d(a-b)/db = -1, so grad_b = -outputGrad
type SubOp struct{}

// Kind returns KindSub.
func (SubOp) Kind() Kind { return KindSub }

// InferShape broadcasts the operand shapes.
func (SubOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return broadcastShape(KindSub, inputs)
}

// Forward computes a - b.
func (SubOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Sub(inputs[0], inputs[1])
}

// Backward computes input gradients for subtraction.
func (SubOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	gradA, err := reduceBroadcast(grad, inputs[0].Shape())
	if err != nil {
		return nil, err
	}
	gradB, err := reduceBroadcast(tensor.Neg(grad), inputs[1].Shape())
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{gradA, gradB}, nil
}

package ops

import "github.com/gradflow/gradflow/internal/tensor"

// AddOp represents an element-wise addition operation: output = a + b.
//
// Backward pass:
//   - d(a+b)/da = 1, so grad_a = outputGrad
//   - d(a+b)/db = 1, so grad_b = outputGrad
//
// Note: If broadcasting was used in forward pass, gradients must be
// reduced (summed) along the broadcast dimensions to match input shapes.
type AddOp struct{}

// Kind returns KindAdd.
func (AddOp) Kind() Kind { return KindAdd }

// InferShape broadcasts the operand shapes.
func (AddOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return broadcastShape(KindAdd, inputs)
}

// Forward computes a + b.
func (AddOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Add(inputs[0], inputs[1])
}

// Backward computes input gradients for addition.
// Since d(a+b)/da = d(a+b)/db = 1, the gradient flows equally to both inputs.
func (AddOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	gradA, err := reduceBroadcast(grad, inputs[0].Shape())
	if err != nil {
		return nil, err
	}
	gradB, err := reduceBroadcast(grad, inputs[1].Shape())
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{gradA, gradB}, nil
}

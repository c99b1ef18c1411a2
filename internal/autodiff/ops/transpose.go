package ops

import "github.com/gradflow/gradflow/internal/tensor"

// TransposeOp swaps the two dimensions of a matrix: output = x^T.
//
// Backward pass:
//   - grad_x = outputGrad^T
type TransposeOp struct{}

// Kind returns KindTranspose.
func (TransposeOp) Kind() Kind { return KindTranspose }

// InferShape requires a rank-2 operand and swaps its dimensions.
func (TransposeOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	if err := checkArity(KindTranspose, inputs, 1); err != nil {
		return nil, err
	}
	x := inputs[0]
	if x.Rank() != 2 {
		return nil, incompatible(KindTranspose, "expected a rank-2 operand, got %s", x)
	}
	return tensor.Shape{x[1], x[0]}, nil
}

// Forward computes x^T.
func (TransposeOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Transpose(inputs[0])
}

// Backward transposes the gradient back.
func (TransposeOp) Backward(_ []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	g, err := tensor.Transpose(grad)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{g}, nil
}

package ops

import "github.com/gradflow/gradflow/internal/tensor"

// MatMulOp represents a matrix multiplication operation: output = a @ b.
//
// Backward pass:
//   - d(A@B)/dA = outputGrad @ B^T
//   - d(A@B)/dB = A^T @ outputGrad
//
// Where @ denotes matrix multiplication and ^T denotes transpose.
type MatMulOp struct{}

// Kind returns KindMatMul.
func (MatMulOp) Kind() Kind { return KindMatMul }

// InferShape checks that both operands are matrices with matching inner
// dimensions: [m,k] @ [k,n] -> [m,n].
func (MatMulOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	if err := checkArity(KindMatMul, inputs, 2); err != nil {
		return nil, err
	}
	a, b := inputs[0], inputs[1]
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, incompatible(KindMatMul, "expected rank-2 operands, got %s and %s", a, b)
	}
	k, k2 := a[1], b[0]
	if k != k2 && k != tensor.Dynamic && k2 != tensor.Dynamic {
		return nil, incompatible(KindMatMul, "inner dimensions differ: %s @ %s", a, b)
	}
	return tensor.Shape{a[0], b[1]}, nil
}

// Forward computes a @ b.
func (MatMulOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.MatMul(inputs[0], inputs[1])
}

// Backward computes input gradients for matrix multiplication.
func (MatMulOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	a, b := inputs[0], inputs[1]

	// grad_a = outputGrad @ b^T
	gradA, err := tensor.MatMulTransposed(grad, false, b, true)
	if err != nil {
		return nil, err
	}

	// grad_b = a^T @ outputGrad
	gradB, err := tensor.MatMulTransposed(a, true, grad, false)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{gradA, gradB}, nil
}

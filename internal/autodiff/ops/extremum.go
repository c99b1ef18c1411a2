package ops

import "github.com/gradflow/gradflow/internal/tensor"

// MaximumOp represents an element-wise maximum: output = max(a, b).
//
// Backward pass:
//   - grad_a = outputGrad where a >= b, else 0
//   - grad_b = outputGrad where a < b, else 0
//
// Ties route the whole gradient to the left operand.
type MaximumOp struct{}

// Kind returns KindMaximum.
func (MaximumOp) Kind() Kind { return KindMaximum }

// InferShape broadcasts the operand shapes.
func (MaximumOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return broadcastShape(KindMaximum, inputs)
}

// Forward computes max(a, b).
func (MaximumOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Maximum(inputs[0], inputs[1])
}

// Backward routes the gradient to the larger operand.
func (MaximumOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return routeExtremum(inputs[0], inputs[1], grad, func(a, b float64) bool { return a >= b })
}

// MinimumOp represents an element-wise minimum: output = min(a, b).
// Ties route the whole gradient to the left operand.
type MinimumOp struct{}

// Kind returns KindMinimum.
func (MinimumOp) Kind() Kind { return KindMinimum }

// InferShape broadcasts the operand shapes.
func (MinimumOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return broadcastShape(KindMinimum, inputs)
}

// Forward computes min(a, b).
func (MinimumOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Minimum(inputs[0], inputs[1])
}

// Backward routes the gradient to the smaller operand.
func (MinimumOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return routeExtremum(inputs[0], inputs[1], grad, func(a, b float64) bool { return a <= b })
}

// routeExtremum sends each gradient element to a when pickA(a, b) holds and to b
// otherwise, then reduces both over broadcast dimensions.
func routeExtremum(a, b, grad *tensor.Tensor, pickA func(a, b float64) bool) ([]*tensor.Tensor, error) {
	maskA, err := tensor.Map2Broadcast(a, b, func(x, y float64) float64 {
		if pickA(x, y) {
			return 1
		}
		return 0
	})
	if err != nil {
		return nil, err
	}

	gradA, err := tensor.Mul(grad, maskA)
	if err != nil {
		return nil, err
	}
	gradB, err := tensor.Sub(grad, gradA)
	if err != nil {
		return nil, err
	}

	if gradA, err = reduceBroadcast(gradA, a.Shape()); err != nil {
		return nil, err
	}
	if gradB, err = reduceBroadcast(gradB, b.Shape()); err != nil {
		return nil, err
	}
	return []*tensor.Tensor{gradA, gradB}, nil
}

package ops

import (
	"github.com/gradflow/gradflow/internal/tensor"
)

// ConcatOp joins two operands along Axis. Negative axes count from the end.
//
// Backward:
//
//	Split the output gradient along Axis at the boundary between the
//	operands; each operand receives the slice it contributed.
//
// Example:
//
//	a: [12, 11, 3], b: [12, 11, 4], Axis -1 -> [12, 11, 7]
type ConcatOp struct {
	Axis int
}

// Kind returns KindConcat.
func (ConcatOp) Kind() Kind { return KindConcat }

// InferShape sums the sizes along Axis; every other dimension must agree.
func (op ConcatOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	if err := checkArity(KindConcat, inputs, 2); err != nil {
		return nil, err
	}
	out, _, err := tensor.ConcatShape(inputs[0], inputs[1], op.Axis)
	if err != nil {
		return nil, incompatible(KindConcat, "%v", err)
	}
	return out, nil
}

// Forward concatenates the operands.
func (op ConcatOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Concat(inputs[0], inputs[1], op.Axis)
}

// Backward splits grad between the operands.
func (op ConcatOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	axis, err := grad.Shape().NormalizeAxis(op.Axis)
	if err != nil {
		return nil, err
	}
	split := inputs[0].Shape()[axis]
	ga, err := tensor.SliceAxis(grad, axis, 0, split)
	if err != nil {
		return nil, err
	}
	gb, err := tensor.SliceAxis(grad, axis, split, grad.Shape()[axis])
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{ga, gb}, nil
}

package ops

import (
	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/tensor"
)

// ReshapeOp changes the shape of its operand without changing its elements.
//
// Shape may hold at most one tensor.Dynamic dimension, resolved from the
// operand's element count: Reshape{Shape: {-1, 784}} flattens a batch of images
// whatever the batch size.
//
// Backward pass:
//   - grad_x = reshape(outputGrad, x.shape)
type ReshapeOp struct {
	Shape tensor.Shape
}

// Kind returns KindReshape.
func (ReshapeOp) Kind() Kind { return KindReshape }

// InferShape checks the element counts when both shapes are static.
func (op ReshapeOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	if err := checkArity(KindReshape, inputs, 1); err != nil {
		return nil, err
	}
	known, dynamic := 1, 0
	for _, d := range op.Shape {
		switch {
		case d == tensor.Dynamic:
			dynamic++
		case d <= 0:
			return nil, incompatible(KindReshape, "invalid target shape %s", op.Shape)
		default:
			known *= d
		}
	}
	if dynamic > 1 {
		return nil, incompatible(KindReshape, "target shape %s has more than one dynamic dimension", op.Shape)
	}

	x := inputs[0]
	if x.IsDynamic() {
		return op.Shape.Clone(), nil
	}
	n := x.NumElements()
	if dynamic == 0 {
		if n != known {
			return nil, incompatible(KindReshape, "cannot reshape %s into %s", x, op.Shape)
		}
		return op.Shape.Clone(), nil
	}
	if n%known != 0 {
		return nil, incompatible(KindReshape, "cannot reshape %s into %s", x, op.Shape)
	}
	return resolveDynamic(op.Shape, n/known), nil
}

// Forward reshapes x, resolving a dynamic dimension from its element count.
func (op ReshapeOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	x := inputs[0]
	target := op.Shape
	if target.IsDynamic() {
		known := 1
		for _, d := range target {
			if d != tensor.Dynamic {
				known *= d
			}
		}
		if x.NumElements()%known != 0 {
			return nil, errors.Wrapf(tensor.ErrShapeMismatch, "cannot reshape %s into %s", x.Shape(), target)
		}
		target = resolveDynamic(target, x.NumElements()/known)
	}
	return tensor.Reshape(x, target)
}

// Backward reshapes the gradient to the operand shape.
func (ReshapeOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	g, err := tensor.Reshape(grad, inputs[0].Shape())
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{g}, nil
}

func resolveDynamic(shape tensor.Shape, size int) tensor.Shape {
	out := shape.Clone()
	for i, d := range out {
		if d == tensor.Dynamic {
			out[i] = size
		}
	}
	return out
}

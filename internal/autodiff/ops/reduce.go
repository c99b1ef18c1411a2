package ops

import (
	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/tensor"
)

// ReduceOp reduces its operand with sum, mean, max or min, either over every
// element (rank-0 output) or along a single axis.
//
// Forward:
//
//	y = reduce(x)                   all elements
//	y = reduce(x, axis, keepDims)   one axis, size-1 axis kept with keepDims
//
// Backward:
//
//	Sum:  grad_x = broadcast(grad_y, x.shape)
//	Mean: grad_x = broadcast(grad_y, x.shape) / n, n = number of reduced elements
//	Max, Min: grad_y routed to the first extremal element of each reduced group,
//	          every other position receives exactly 0
type ReduceOp struct {
	kind     Kind
	axis     int
	keepDims bool
	all      bool
}

// Reduce creates a reduction over all elements. kind is one of KindSum,
// KindMean, KindMax or KindMin.
func Reduce(kind Kind) ReduceOp {
	return ReduceOp{kind: kind, all: true}
}

// ReduceAxis creates a reduction along axis. Negative axes count from the end.
func ReduceAxis(kind Kind, axis int, keepDims bool) ReduceOp {
	return ReduceOp{kind: kind, axis: axis, keepDims: keepDims}
}

// Kind returns the reduction kind.
func (op ReduceOp) Kind() Kind { return op.kind }

// Axis returns the reduced axis and whether every element is reduced instead.
func (op ReduceOp) Axis() (axis int, all bool) { return op.axis, op.all }

// InferShape returns a scalar shape for full reductions and the shape without
// (or with a size-1) axis otherwise.
func (op ReduceOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	switch op.kind {
	case KindSum, KindMean, KindMax, KindMin:
	default:
		return nil, errors.Errorf("%s is not a reduction", op.kind)
	}
	if err := checkArity(op.kind, inputs, 1); err != nil {
		return nil, err
	}
	if op.all {
		return tensor.Shape{}, nil
	}
	x := inputs[0]
	axis, err := x.NormalizeAxis(op.axis)
	if err != nil {
		return nil, incompatible(op.kind, "axis %d out of range for shape %s", op.axis, x)
	}
	return x.ReduceAxis(axis, op.keepDims), nil
}

// Forward computes the reduction.
func (op ReduceOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	x := inputs[0]
	if op.all {
		switch op.kind {
		case KindSum:
			return tensor.Sum(x), nil
		case KindMean:
			return tensor.Mean(x), nil
		case KindMax:
			return tensor.Max(x), nil
		default:
			return tensor.Min(x), nil
		}
	}
	switch op.kind {
	case KindSum:
		return tensor.SumAxis(x, op.axis, op.keepDims)
	case KindMean:
		return tensor.MeanAxis(x, op.axis, op.keepDims)
	case KindMax:
		return tensor.MaxAxis(x, op.axis, op.keepDims)
	default:
		return tensor.MinAxis(x, op.axis, op.keepDims)
	}
}

// Backward computes the operand gradient.
func (op ReduceOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	x := inputs[0]
	var (
		g   *tensor.Tensor
		err error
	)
	switch op.kind {
	case KindSum, KindMean:
		g, err = op.spread(x, grad)
	default:
		g, err = op.route(x, grad)
	}
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{g}, nil
}

// spread broadcasts grad back over the reduced elements, dividing by their
// count for means.
func (op ReduceOp) spread(x, grad *tensor.Tensor) (*tensor.Tensor, error) {
	if op.all {
		v := grad.Item()
		if op.kind == KindMean {
			v /= float64(x.NumElements())
		}
		return tensor.Full(x.Shape(), v), nil
	}

	axis, err := x.Shape().NormalizeAxis(op.axis)
	if err != nil {
		return nil, err
	}
	// Restore the reduced axis as size 1 so the gradient broadcasts along it.
	kept, err := tensor.Reshape(grad, x.Shape().ReduceAxis(axis, true))
	if err != nil {
		return nil, err
	}
	g, err := tensor.BroadcastTo(kept, x.Shape())
	if err != nil {
		return nil, err
	}
	if op.kind == KindMean {
		g.ScaleInPlace(1 / float64(x.Shape()[axis]))
	}
	return g, nil
}

// route sends each gradient element to the first extremal operand element.
func (op ReduceOp) route(x, grad *tensor.Tensor) (*tensor.Tensor, error) {
	out := tensor.ZerosLike(x)
	dst := out.Data()
	if op.all {
		idx := tensor.ArgMax(x)
		if op.kind == KindMin {
			idx = tensor.ArgMin(x)
		}
		dst[idx] = grad.Item()
		return out, nil
	}

	var (
		indices []int
		err     error
	)
	if op.kind == KindMax {
		indices, err = tensor.ArgMaxAxis(x, op.axis)
	} else {
		indices, err = tensor.ArgMinAxis(x, op.axis)
	}
	if err != nil {
		return nil, err
	}
	g := grad.Data()
	if len(g) != len(indices) {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "%s gradient has %d elements, expected %d",
			op.kind, len(g), len(indices))
	}
	for i, v := range g {
		dst[indices[i]] += v
	}
	return out, nil
}

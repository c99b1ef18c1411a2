package ops

import (
	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/tensor"
)

// ErrIncompatibleShape is returned when operand shapes cannot feed an operator.
var ErrIncompatibleShape = errors.New("incompatible shape")

func incompatible(kind Kind, format string, args ...any) error {
	return errors.Wrapf(ErrIncompatibleShape, "%s: "+format, append([]any{kind}, args...)...)
}

// checkArity verifies the number of operands.
func checkArity(kind Kind, inputs []tensor.Shape, n int) error {
	if len(inputs) != n {
		return incompatible(kind, "expected %d operands, got %d", n, len(inputs))
	}
	return nil
}

// unaryShape is the shape rule of element-wise unary operators.
func unaryShape(kind Kind, inputs []tensor.Shape) (tensor.Shape, error) {
	if err := checkArity(kind, inputs, 1); err != nil {
		return nil, err
	}
	return inputs[0].Clone(), nil
}

// broadcastShape is the shape rule of element-wise binary operators.
func broadcastShape(kind Kind, inputs []tensor.Shape) (tensor.Shape, error) {
	if err := checkArity(kind, inputs, 2); err != nil {
		return nil, err
	}
	out, _, err := tensor.BroadcastShapes(inputs[0], inputs[1])
	if err != nil {
		return nil, incompatible(kind, "cannot broadcast %s and %s", inputs[0], inputs[1])
	}
	return out, nil
}

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.Tensor, target tensor.Shape) (*tensor.Tensor, error) {
	return tensor.SumTo(grad, target)
}

// chain multiplies grad element-wise by the local derivative df(x, y) where x is
// the operand and y the forward output.
func chain(grad, x, y *tensor.Tensor, df func(x, y float64) float64) ([]*tensor.Tensor, error) {
	if !grad.SameShape(x) || !y.SameShape(x) {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "gradient %s for operand %s", grad.Shape(), x.Shape())
	}
	out := tensor.New(x.Shape())
	g, xs, ys, dst := grad.Data(), x.Data(), y.Data(), out.Data()
	for i := range dst {
		dst[i] = g[i] * df(xs[i], ys[i])
	}
	return []*tensor.Tensor{out}, nil
}

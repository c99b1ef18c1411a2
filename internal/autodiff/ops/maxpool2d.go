package ops

import (
	"github.com/gradflow/gradflow/internal/tensor"
)

// MaxPool2DOp records a max pooling operation over an NHWC tensor with a square
// window equal to the stride.
//
// Forward:
//
//	output[n,h,w,c] = max(input[n,h*stride+kh,w*stride+kw,c] for kh,kw < stride)
//
// Backward:
//   - Input gradient: Gradients flow only to positions that had the max value
//   - For each output position, only one input position receives gradient
//     (the first maximum in row-major window order)
//   - All other positions in pooling window receive zero gradient
//
// Example (2x2 pool, stride=2):
//
//	Input:  [[1, 2],  Output: [4]  Input Grad: [[0, 0],
//	         [3, 4]]                             [0, grad]]
type MaxPool2DOp struct {
	Stride int
}

// Kind returns KindMaxPool2D.
func (MaxPool2DOp) Kind() Kind { return KindMaxPool2D }

// InferShape floor-divides the spatial dimensions by the stride.
func (op MaxPool2DOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return poolShape(KindMaxPool2D, inputs, op.Stride)
}

// Forward computes the pooled tensor.
func (op MaxPool2DOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	out, _, err := tensor.MaxPool2D(inputs[0], op.Stride)
	return out, err
}

// Backward recomputes the max positions from the input and scatters the
// gradient to them.
func (op MaxPool2DOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	x := inputs[0]
	_, maxIndices, err := tensor.MaxPool2D(x, op.Stride)
	if err != nil {
		return nil, err
	}
	g, err := tensor.MaxPool2DBackward(x.Shape(), grad, maxIndices)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{g}, nil
}

// AvgPool2DOp records an average pooling operation over an NHWC tensor with a
// square window equal to the stride.
//
// Backward pass:
//   - every input position of a window receives outputGrad / stride²
//   - rows and columns dropped by the floor division receive zero
type AvgPool2DOp struct {
	Stride int
}

// Kind returns KindAvgPool2D.
func (AvgPool2DOp) Kind() Kind { return KindAvgPool2D }

// InferShape floor-divides the spatial dimensions by the stride.
func (op AvgPool2DOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return poolShape(KindAvgPool2D, inputs, op.Stride)
}

// Forward computes the pooled tensor.
func (op AvgPool2DOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.AvgPool2D(inputs[0], op.Stride)
}

// Backward spreads the gradient evenly over each window.
func (op AvgPool2DOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	g, err := tensor.AvgPool2DBackward(inputs[0].Shape(), grad, op.Stride)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{g}, nil
}

func poolShape(kind Kind, inputs []tensor.Shape, stride int) (tensor.Shape, error) {
	if err := checkArity(kind, inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.PoolShape(inputs[0], stride)
	if err != nil {
		return nil, incompatible(kind, "%v", err)
	}
	return out, nil
}

package ops

import (
	"github.com/gradflow/gradflow/internal/tensor"
)

// Conv2DOp records a 2D convolution of an NHWC input with a filter shaped
// [out_channels, kernel_h, kernel_w, in_channels].
//
// Forward: output = Conv2D(input, filter, strides, dilations, padding)
//
// Backward (gradients):
//   - d_input:  the im2col adjoint of d_output @ filter
//   - d_filter: d_outputᵀ @ im2col(input)
//
// References:
//   - "A guide to convolution arithmetic for deep learning" (Dumoulin & Visin, 2016)
//   - CS231n: Convolutional Neural Networks for Visual Recognition
type Conv2DOp struct {
	Config tensor.ConvConfig
}

// Kind returns KindConv2D.
func (Conv2DOp) Kind() Kind { return KindConv2D }

// InferShape returns [N, out_h, out_w, out_channels].
func (op Conv2DOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	if err := checkArity(KindConv2D, inputs, 2); err != nil {
		return nil, err
	}
	out, err := tensor.ConvShape(inputs[0], inputs[1], op.Config)
	if err != nil {
		return nil, incompatible(KindConv2D, "%v", err)
	}
	return out, nil
}

// Forward convolves the input with the filter.
func (op Conv2DOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Conv2D(inputs[0], inputs[1], op.Config)
}

// Backward returns the input and filter gradients.
func (op Conv2DOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	dx, dw, err := tensor.Conv2DBackward(inputs[0], inputs[1], grad, op.Config)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{dx, dw}, nil
}

// UpSampling2DOp repeats every pixel of an NHWC tensor into a Stride x Stride
// block.
//
// Backward pass:
//   - each input position receives the sum of the gradient over its block
type UpSampling2DOp struct {
	Stride int
}

// Kind returns KindUpSampling2D.
func (UpSampling2DOp) Kind() Kind { return KindUpSampling2D }

// InferShape multiplies the spatial dimensions by the stride.
func (op UpSampling2DOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	if err := checkArity(KindUpSampling2D, inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.UpSampleShape(inputs[0], op.Stride)
	if err != nil {
		return nil, incompatible(KindUpSampling2D, "%v", err)
	}
	return out, nil
}

// Forward up-samples the input.
func (op UpSampling2DOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.UpSample2D(inputs[0], op.Stride)
}

// Backward sums the gradient over each block.
func (op UpSampling2DOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	g, err := tensor.UpSample2DBackward(inputs[0].Shape(), grad, op.Stride)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{g}, nil
}

package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/tensor"
)

// Conv2D is a 2D convolutional layer over NHWC inputs.
//
// Performs convolution: output = Conv2D(input, filter) + bias
//
// Input shape:  [batch, height, width, in_channels]
// Filter shape: [out_channels, kernel_h, kernel_w, in_channels]
// Bias shape:   [out_channels]
// Output shape: [batch, out_h, out_w, out_channels]
//
// Where, with span = dilation*(kernel-1) + 1:
//
//	valid: out = (size - span) / stride + 1
//	same:  out = ceil(size / stride)
//
// Example:
//
//	// 1 channel -> 8 channels, 3x3 kernel, same padding
//	conv := nn.NewConv2D("conv1", 1, 8, 3, 3, tensor.ConvConfig{Padding: tensor.PaddingSame}, src)
//	y := conv.Forward(x) // [N, 28, 28, 8] for x: [N, 28, 28, 1]
type Conv2D struct {
	inChannels  int
	outChannels int
	kernelSize  [2]int
	config      tensor.ConvConfig

	filter *autodiff.Variable // [out_channels, kernel_h, kernel_w, in_channels]
	bias   *autodiff.Variable // [out_channels] or nil
}

// NewConv2D creates a 2D convolutional layer with Glorot-initialized filters
// and a zero bias. Its variables are named "<name>.filter" and "<name>.bias".
//
// Initialization:
//   - fan_in = in_channels * kernel_h * kernel_w
//   - fan_out = out_channels * kernel_h * kernel_w
func NewConv2D(name string, inChannels, outChannels, kernelH, kernelW int, cfg tensor.ConvConfig, src rand.Source) *Conv2D {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelH <= 0 || kernelW <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size h=%d, w=%d", kernelH, kernelW))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("conv2d: %v", err))
	}

	shape := tensor.Shape{outChannels, kernelH, kernelW, inChannels}
	area := kernelH * kernelW
	filter := GlorotUniform(inChannels*area, outChannels*area, shape, src)
	return &Conv2D{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  [2]int{kernelH, kernelW},
		config:      cfg.Normalized(),
		filter:      autodiff.NewVariable(name+".filter", filter),
		bias:        autodiff.NewVariable(name+".bias", Zeros(tensor.Shape{outChannels})),
	}
}

// WithoutBias drops the bias term and returns c.
func (c *Conv2D) WithoutBias() *Conv2D {
	c.bias = nil
	return c
}

// Forward convolves input and adds the bias to every output channel.
func (c *Conv2D) Forward(input *autodiff.Node) *autodiff.Node {
	if input == nil {
		return nil
	}
	g := input.Graph()
	out := autodiff.Conv2D(input, g.Variable(c.filter), c.config)
	if c.bias == nil {
		return out
	}
	return autodiff.Plus(out, g.Variable(c.bias))
}

// Parameters returns the filter and, when present, the bias.
func (c *Conv2D) Parameters() []*autodiff.Variable {
	if c.bias == nil {
		return []*autodiff.Variable{c.filter}
	}
	return []*autodiff.Variable{c.filter, c.bias}
}

// Filter returns the filter variable.
func (c *Conv2D) Filter() *autodiff.Variable { return c.filter }

// Bias returns the bias variable, or nil.
func (c *Conv2D) Bias() *autodiff.Variable { return c.bias }

// String returns a short description of the layer.
func (c *Conv2D) String() string {
	return fmt.Sprintf("Conv2D(in=%d, out=%d, kernel=%dx%d, stride=%dx%d, dilation=%dx%d, padding=%s)",
		c.inChannels, c.outChannels, c.kernelSize[0], c.kernelSize[1],
		c.config.StrideRow, c.config.StrideCol, c.config.DilationRow, c.config.DilationCol, c.config.Padding)
}

// UpSampling2D repeats every pixel of an NHWC input into a stride x stride
// block.
//
// Input shape:  [batch, height, width, channels]
// Output shape: [batch, height*stride, width*stride, channels]
type UpSampling2D struct {
	stride int
}

// NewUpSampling2D creates an up-sampling layer.
func NewUpSampling2D(stride int) *UpSampling2D {
	if stride <= 0 {
		panic(fmt.Sprintf("upsampling2d: invalid stride %d", stride))
	}
	return &UpSampling2D{stride: stride}
}

// Forward up-samples the input.
func (u *UpSampling2D) Forward(input *autodiff.Node) *autodiff.Node {
	return autodiff.UpSampling2D(input, u.stride)
}

// Parameters returns nil (UpSampling2D has no trainable parameters).
func (u *UpSampling2D) Parameters() []*autodiff.Variable { return nil }

// String returns a short description of the layer.
func (u *UpSampling2D) String() string { return fmt.Sprintf("UpSampling2D(stride=%d)", u.stride) }

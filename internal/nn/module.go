// Package nn implements neural network modules on top of the expression graph.
//
// This package provides building blocks for constructing networks:
//   - Module interface: base interface for all NN components
//   - Linear: fully connected layer
//   - Conv2D: NHWC convolution with strides, dilation and valid/same padding
//   - Activations: ReLU, LeakyReLU, ELU, Sigmoid, Tanh, Softmax
//   - Dropout: inverted dropout, active only while a model trains
//   - Pooling, UpSampling2D and Flatten for NHWC image inputs
//   - Concatenate: joins two branches along an axis
//   - Sequential: container for stacking layers
//
// Modules own their variables and attach them to the graph of their input on
// each Forward call, so a module can be applied to several graphs.
package nn

import (
	"github.com/gradflow/gradflow/internal/autodiff"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear("hidden", 2, 8, src),
//	    nn.NewTanh(),
//	    nn.NewLinear("out", 8, 1, src),
//	    nn.NewSigmoid(),
//	)
type Module interface {
	// Forward adds the module computation to the graph of input and returns
	// the output node. Errors are latched in the graph.
	Forward(input *autodiff.Node) *autodiff.Node

	// Parameters returns all trainable variables of this module.
	//
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*autodiff.Variable
}

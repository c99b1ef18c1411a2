// Package ops defines the operator catalogue of the expression graph.
//
// Each operator implements the Rule interface, which provides:
//   - Shape inference: the static output shape, checked when a node is built
//   - Forward pass: the output tensor as a pure function of the operands
//   - Backward pass: operand gradients given the output gradient (chain rule)
//
// Rules are stateless values; the same rule may back many graph nodes. The one
// exception is DropoutOp, whose mask generator is shared with the model that
// switches it between training and inference.
//
// Supported operations:
//   - AddOp, SubOp, MulOp, DivOp: element-wise arithmetic with broadcasting
//   - MaximumOp, MinimumOp: element-wise extremum (ties route to the left operand)
//   - NegOp, SquareOp, AbsOp, LogOp, ExpOp, SqrtOp, ScaleOp, ClipOp: element-wise maps
//   - ReLUOp, LeakyReLUOp, ELUOp, SigmoidOp, TanhOp, SoftmaxOp: activations
//   - DropoutOp: inverted dropout while training, identity otherwise
//   - MatMulOp, TransposeOp, ReshapeOp, ConcatOp: linear algebra and layout
//   - ReduceOp: sum, mean, max and min over all elements or one axis
//   - Conv2DOp: NHWC convolution with strides, dilation and valid/same padding
//   - MaxPool2DOp, AvgPool2DOp: NHWC pooling with window == stride
//   - UpSampling2DOp: NHWC nearest-neighbour up-sampling
//   - IdentityOp
package ops

import "github.com/gradflow/gradflow/internal/tensor"

// Rule describes how one operator kind computes its output and gradients.
type Rule interface {
	// Kind identifies the operator.
	Kind() Kind

	// InferShape returns the output shape for the given operand shapes.
	// Operand shapes may contain tensor.Dynamic dimensions.
	// Incompatible operands fail with ErrIncompatibleShape.
	InferShape(inputs []tensor.Shape) (tensor.Shape, error)

	// Forward computes the output from concrete operand values.
	Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error)

	// Backward computes one gradient per operand, each shaped like its operand.
	//
	// Example for AddOp:
	//   inputs: [a, b]
	//   grad: dL/d(a+b)
	//   returns: [dL/d(a+b), dL/d(a+b)] (reduced over broadcast dimensions)
	Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error)
}

package autodiff

import (
	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/autodiff/ops"
	"github.com/gradflow/gradflow/internal/tensor"
)

// Named builders. They return the new node, or nil after latching the error in
// the operand's graph (see Graph.Err). A nil operand yields nil without a new
// error, so a chain of builders stops at the first failure.

func unary(rule ops.Rule, x *Node) *Node {
	if x == nil {
		return nil
	}
	n, err := x.graph.NewUnary(rule, x)
	if err != nil {
		x.graph.SetErr(err)
		return nil
	}
	return n
}

func binary(rule ops.Rule, a, b *Node) *Node {
	if a == nil || b == nil {
		return nil
	}
	n, err := a.graph.NewBinary(rule, a, b)
	if err != nil {
		a.graph.SetErr(err)
		return nil
	}
	return n
}

// Plus returns a + b with broadcasting.
func Plus(a, b *Node) *Node { return binary(ops.AddOp{}, a, b) }

// Minus returns a - b with broadcasting.
func Minus(a, b *Node) *Node { return binary(ops.SubOp{}, a, b) }

// Multiply returns the element-wise product a * b with broadcasting.
func Multiply(a, b *Node) *Node { return binary(ops.MulOp{}, a, b) }

// Divide returns a / b with broadcasting.
func Divide(a, b *Node) *Node { return binary(ops.DivOp{}, a, b) }

// Maximum returns the element-wise maximum. Ties route the gradient to a.
func Maximum(a, b *Node) *Node { return binary(ops.MaximumOp{}, a, b) }

// Minimum returns the element-wise minimum. Ties route the gradient to a.
func Minimum(a, b *Node) *Node { return binary(ops.MinimumOp{}, a, b) }

// Matrix returns the matrix product a @ b.
func Matrix(a, b *Node) *Node { return binary(ops.MatMulOp{}, a, b) }

// Negative returns -x.
func Negative(x *Node) *Node { return unary(ops.NegOp{}, x) }

// Square returns x².
func Square(x *Node) *Node { return unary(ops.SquareOp{}, x) }

// Abs returns |x|.
func Abs(x *Node) *Node { return unary(ops.AbsOp{}, x) }

// Log returns the natural logarithm of x.
func Log(x *Node) *Node { return unary(ops.LogOp{}, x) }

// Exp returns e^x.
func Exp(x *Node) *Node { return unary(ops.ExpOp{}, x) }

// Sqrt returns the square root of x.
func Sqrt(x *Node) *Node { return unary(ops.SqrtOp{}, x) }

// ReLU returns max(0, x).
func ReLU(x *Node) *Node { return unary(ops.ReLUOp{}, x) }

// Sigmoid returns 1 / (1 + e^-x).
func Sigmoid(x *Node) *Node { return unary(ops.SigmoidOp{}, x) }

// Tanh returns the hyperbolic tangent of x.
func Tanh(x *Node) *Node { return unary(ops.TanhOp{}, x) }

// LeakyReLU returns x for positive x and alpha * x otherwise.
func LeakyReLU(x *Node, alpha float64) *Node { return unary(ops.LeakyReLUOp{Alpha: alpha}, x) }

// ELU returns x for positive x and alpha * (e^x - 1) otherwise.
func ELU(x *Node, alpha float64) *Node { return unary(ops.ELUOp{Alpha: alpha}, x) }

// Softmax normalizes x over its last axis.
func Softmax(x *Node) *Node { return unary(ops.SoftmaxOp{}, x) }

// Dropout zeroes elements of x with probability rate while state is training.
// Survivors are scaled by 1/(1-rate).
func Dropout(x *Node, rate float64, state *ops.DropoutState) *Node {
	return unary(ops.DropoutOp{Rate: rate, State: state}, x)
}

// Clip clamps x into [lo, hi].
func Clip(x *Node, lo, hi float64) *Node { return unary(ops.ClipOp{Min: lo, Max: hi}, x) }

// Scale returns factor * x.
func Scale(x *Node, factor float64) *Node { return unary(ops.ScaleOp{Factor: factor}, x) }

// Transpose swaps the dimensions of a matrix.
func Transpose(x *Node) *Node { return unary(ops.TransposeOp{}, x) }

// Reshape changes the shape of x. shape may hold one tensor.Dynamic dimension,
// resolved from the element count.
func Reshape(x *Node, shape tensor.Shape) *Node {
	return unary(ops.ReshapeOp{Shape: shape.Clone()}, x)
}

// Concatenate joins a and b along axis. Negative axes count from the end.
func Concatenate(a, b *Node, axis int) *Node { return binary(ops.ConcatOp{Axis: axis}, a, b) }

// Flatten reshapes x to [batch, features], keeping the leading dimension.
func Flatten(x *Node) *Node {
	if x == nil {
		return nil
	}
	if x.shape.Rank() < 1 {
		x.graph.SetErr(errors.Wrapf(ErrIncompatibleShape, "Flatten: scalar operand %s", x))
		return nil
	}
	features := 1
	for _, d := range x.shape[1:] {
		if d == tensor.Dynamic {
			x.graph.SetErr(errors.Wrapf(ErrIncompatibleShape, "Flatten: dynamic feature dimension in %s", x))
			return nil
		}
		features *= d
	}
	return Reshape(x, tensor.Shape{x.shape[0], features})
}

// Sum reduces every element of x to a scalar sum.
func Sum(x *Node) *Node { return unary(ops.Reduce(ops.KindSum), x) }

// SumAxis sums x along axis. With keepDims the axis is kept with size 1.
func SumAxis(x *Node, axis int, keepDims bool) *Node {
	return unary(ops.ReduceAxis(ops.KindSum, axis, keepDims), x)
}

// Mean reduces every element of x to its scalar mean.
func Mean(x *Node) *Node { return unary(ops.Reduce(ops.KindMean), x) }

// MeanAxis averages x along axis. With keepDims the axis is kept with size 1.
func MeanAxis(x *Node, axis int, keepDims bool) *Node {
	return unary(ops.ReduceAxis(ops.KindMean, axis, keepDims), x)
}

// Max reduces x to its largest element. The gradient flows to the first maximum.
func Max(x *Node) *Node { return unary(ops.Reduce(ops.KindMax), x) }

// MaxAxis takes the maximum of x along axis.
func MaxAxis(x *Node, axis int, keepDims bool) *Node {
	return unary(ops.ReduceAxis(ops.KindMax, axis, keepDims), x)
}

// Min reduces x to its smallest element. The gradient flows to the first minimum.
func Min(x *Node) *Node { return unary(ops.Reduce(ops.KindMin), x) }

// MinAxis takes the minimum of x along axis.
func MinAxis(x *Node, axis int, keepDims bool) *Node {
	return unary(ops.ReduceAxis(ops.KindMin, axis, keepDims), x)
}

// Conv2D convolves the NHWC tensor x with filter, shaped
// [out_channels, kernel_h, kernel_w, in_channels].
func Conv2D(x, filter *Node, cfg tensor.ConvConfig) *Node {
	return binary(ops.Conv2DOp{Config: cfg}, x, filter)
}

// MaxPooling2D applies max pooling with a stride x stride window over an NHWC
// tensor.
func MaxPooling2D(x *Node, stride int) *Node { return unary(ops.MaxPool2DOp{Stride: stride}, x) }

// AveragePooling2D applies average pooling with a stride x stride window over
// an NHWC tensor.
func AveragePooling2D(x *Node, stride int) *Node {
	return unary(ops.AvgPool2DOp{Stride: stride}, x)
}

// UpSampling2D repeats every pixel of the NHWC tensor x into a stride x stride
// block.
func UpSampling2D(x *Node, stride int) *Node { return unary(ops.UpSampling2DOp{Stride: stride}, x) }

// Identity returns a node forwarding x unchanged.
func Identity(x *Node) *Node { return unary(ops.IdentityOp{}, x) }

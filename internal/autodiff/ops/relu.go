package ops

import (
	"math"

	"github.com/gradflow/gradflow/internal/tensor"
)

// ReLUOp represents a ReLU (Rectified Linear Unit) activation: output = max(0, x).
//
// Backward pass:
//   - d(ReLU(x))/dx = 1 if x > 0, else 0
type ReLUOp struct{}

// Kind returns KindReLU.
func (ReLUOp) Kind() Kind { return KindReLU }

// InferShape keeps the operand shape.
func (ReLUOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindReLU, inputs)
}

// Forward computes max(0, x).
func (ReLUOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Map(func(x float64) float64 {
		if x > 0 {
			return x
		}
		return 0
	}), nil
}

// Backward masks the gradient where the input was not positive.
func (ReLUOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return chain(grad, inputs[0], output, func(x, _ float64) float64 {
		if x > 0 {
			return 1
		}
		return 0
	})
}

// LeakyReLUOp lets a small slope through for negative inputs:
// output = x if x > 0, else Alpha * x.
type LeakyReLUOp struct {
	Alpha float64
}

// Kind returns KindLeakyReLU.
func (LeakyReLUOp) Kind() Kind { return KindLeakyReLU }

// InferShape keeps the operand shape.
func (LeakyReLUOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindLeakyReLU, inputs)
}

// Forward computes x or Alpha * x.
func (op LeakyReLUOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Map(func(x float64) float64 {
		if x > 0 {
			return x
		}
		return op.Alpha * x
	}), nil
}

// Backward scales the gradient by 1 or Alpha.
func (op LeakyReLUOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return chain(grad, inputs[0], output, func(x, _ float64) float64 {
		if x > 0 {
			return 1
		}
		return op.Alpha
	})
}

// ELUOp is the exponential linear unit:
// output = x if x > 0, else Alpha * (e^x - 1).
//
// Backward pass:
//   - d/dx = 1 if x > 0, else Alpha * e^x = output + Alpha
type ELUOp struct {
	Alpha float64
}

// Kind returns KindELU.
func (ELUOp) Kind() Kind { return KindELU }

// InferShape keeps the operand shape.
func (ELUOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	return unaryShape(KindELU, inputs)
}

// Forward computes x or Alpha * (e^x - 1).
func (op ELUOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	return inputs[0].Map(func(x float64) float64 {
		if x > 0 {
			return x
		}
		return op.Alpha * math.Expm1(x)
	}), nil
}

// Backward computes grad or grad * (output + Alpha).
func (op ELUOp) Backward(inputs []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return chain(grad, inputs[0], output, func(x, y float64) float64 {
		if x > 0 {
			return 1
		}
		return y + op.Alpha
	})
}

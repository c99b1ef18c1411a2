package nn

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/autodiff"
)

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU { return &ReLU{} }

// Forward applies ReLU activation.
func (*ReLU) Forward(input *autodiff.Node) *autodiff.Node { return autodiff.ReLU(input) }

// Parameters returns nil (ReLU has no trainable parameters).
func (*ReLU) Parameters() []*autodiff.Variable { return nil }

// String returns "ReLU".
func (*ReLU) String() string { return "ReLU" }

// Sigmoid is a sigmoid activation module.
//
// Applies the element-wise function: f(x) = 1 / (1 + exp(-x))
type Sigmoid struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid() *Sigmoid { return &Sigmoid{} }

// Forward applies sigmoid activation.
func (*Sigmoid) Forward(input *autodiff.Node) *autodiff.Node { return autodiff.Sigmoid(input) }

// Parameters returns nil (Sigmoid has no trainable parameters).
func (*Sigmoid) Parameters() []*autodiff.Variable { return nil }

// String returns "Sigmoid".
func (*Sigmoid) String() string { return "Sigmoid" }

// Tanh is a hyperbolic tangent activation module.
type Tanh struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh() *Tanh { return &Tanh{} }

// Forward applies tanh activation.
func (*Tanh) Forward(input *autodiff.Node) *autodiff.Node { return autodiff.Tanh(input) }

// Parameters returns nil (Tanh has no trainable parameters).
func (*Tanh) Parameters() []*autodiff.Variable { return nil }

// String returns "Tanh".
func (*Tanh) String() string { return "Tanh" }

// defaultAlpha is the negative-side slope used by Activation.
const defaultAlpha = 0.2

// Activation returns the activation module called name: "relu", "sigmoid",
// "tanh", "softmax", "leaky_relu", "elu" (both with alpha 0.2), or "linear"
// (nil, no activation).
func Activation(name string) (Module, error) {
	switch name {
	case "relu":
		return NewReLU(), nil
	case "sigmoid":
		return NewSigmoid(), nil
	case "tanh":
		return NewTanh(), nil
	case "softmax":
		return NewSoftmax(), nil
	case "leaky_relu":
		return NewLeakyReLU(defaultAlpha), nil
	case "elu":
		return NewELU(defaultAlpha), nil
	case "linear", "":
		return nil, nil
	}
	return nil, errors.Errorf("unknown activation %q", name)
}

// LeakyReLU passes positive inputs and scales negative ones by alpha.
type LeakyReLU struct {
	alpha float64
}

// NewLeakyReLU creates a LeakyReLU activation module.
func NewLeakyReLU(alpha float64) *LeakyReLU { return &LeakyReLU{alpha: alpha} }

// Forward applies the activation.
func (l *LeakyReLU) Forward(input *autodiff.Node) *autodiff.Node {
	return autodiff.LeakyReLU(input, l.alpha)
}

// Parameters returns nil.
func (*LeakyReLU) Parameters() []*autodiff.Variable { return nil }

// String returns "LeakyReLU(alpha)".
func (l *LeakyReLU) String() string { return fmt.Sprintf("LeakyReLU(%g)", l.alpha) }

// ELU is the exponential linear unit: x for x > 0, alpha * (e^x - 1) otherwise.
type ELU struct {
	alpha float64
}

// NewELU creates an ELU activation module.
func NewELU(alpha float64) *ELU { return &ELU{alpha: alpha} }

// Forward applies the activation.
func (e *ELU) Forward(input *autodiff.Node) *autodiff.Node { return autodiff.ELU(input, e.alpha) }

// Parameters returns nil.
func (*ELU) Parameters() []*autodiff.Variable { return nil }

// String returns "ELU(alpha)".
func (e *ELU) String() string { return fmt.Sprintf("ELU(%g)", e.alpha) }

// Softmax normalizes its input over the last axis.
type Softmax struct{}

// NewSoftmax creates a Softmax activation module.
func NewSoftmax() *Softmax { return &Softmax{} }

// Forward applies softmax.
func (*Softmax) Forward(input *autodiff.Node) *autodiff.Node { return autodiff.Softmax(input) }

// Parameters returns nil.
func (*Softmax) Parameters() []*autodiff.Variable { return nil }

// String returns "Softmax".
func (*Softmax) String() string { return "Softmax" }

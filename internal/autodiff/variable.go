package autodiff

import (
	"fmt"

	"github.com/gradflow/gradflow/internal/tensor"
)

// Variable represents a trainable tensor of an expression graph.
//
// A Variable owns its value and a gradient accumulator of identical shape.
// Graph nodes reference the value (they never copy it), so an optimizer that
// updates the value in place is seen by the next forward pass. This is the only
// mutable state shared between the graph and the outside world.
//
// Example:
//
//	w := autodiff.NewVariable("dense.weight", tensor.Zeros(tensor.Shape{3, 1}))
//	node := g.Variable(w)
//	// ... forward, backward ...
//	grad := w.Grad()
type Variable struct {
	name      string         // Variable name (e.g., "dense.weight")
	value     *tensor.Tensor // The trainable value, mutated in place by optimizers
	grad      *tensor.Tensor // Gradient accumulated by the last backward pass
	trainable bool
}

// NewVariable creates a trainable variable holding value.
// The gradient starts as zeros.
func NewVariable(name string, value *tensor.Tensor) *Variable {
	return &Variable{
		name:      name,
		value:     value,
		grad:      tensor.ZerosLike(value),
		trainable: true,
	}
}

// Name returns the variable name.
func (v *Variable) Name() string {
	return v.name
}

// Value returns the value tensor. Writes to it are visible to every graph
// using the variable.
func (v *Variable) Value() *tensor.Tensor {
	return v.value
}

// Grad returns the gradient accumulated by the last backward pass.
func (v *Variable) Grad() *tensor.Tensor {
	return v.grad
}

// Shape returns the variable shape.
func (v *Variable) Shape() tensor.Shape {
	return v.value.Shape()
}

// Trainable reports whether optimizers should update this variable.
func (v *Variable) Trainable() bool {
	return v.trainable
}

// SetTrainable freezes or unfreezes the variable. Frozen variables still
// accumulate gradients.
func (v *Variable) SetTrainable(trainable bool) {
	v.trainable = trainable
}

// ZeroGrad resets the gradient accumulator to zero.
func (v *Variable) ZeroGrad() {
	if !v.grad.SameShape(v.value) {
		v.grad = tensor.ZerosLike(v.value)
		return
	}
	v.grad.Fill(0)
}

// String returns a short description such as "dense.weight(3, 1)".
func (v *Variable) String() string {
	return fmt.Sprintf("%s%s", v.name, v.value.Shape())
}

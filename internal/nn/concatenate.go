package nn

import (
	"fmt"

	"github.com/gradflow/gradflow/internal/autodiff"
)

// Concatenate joins the outputs of two branches along an axis. It takes two
// operands, so it is applied with Merge rather than used as a Module.
type Concatenate struct {
	axis int
}

// NewConcatenate creates a concatenation layer; axis -1 joins channels.
func NewConcatenate(axis int) *Concatenate { return &Concatenate{axis: axis} }

// Merge concatenates a and b.
func (c *Concatenate) Merge(a, b *autodiff.Node) *autodiff.Node {
	return autodiff.Concatenate(a, b, c.axis)
}

// String returns a short description of the layer.
func (c *Concatenate) String() string { return fmt.Sprintf("Concatenate(axis=%d)", c.axis) }

package nn

import (
	"fmt"

	"github.com/gradflow/gradflow/internal/autodiff"
)

// MaxPool2D is a 2D max pooling layer over NHWC inputs.
//
// The window equals the stride, so windows never overlap. Trailing rows and
// columns that do not fill a window are dropped.
//
// Input shape:  [batch, height, width, channels]
// Output shape: [batch, height/stride, width/stride, channels]
type MaxPool2D struct {
	stride int
}

// NewMaxPool2D creates a new 2D max pooling layer.
func NewMaxPool2D(stride int) *MaxPool2D {
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}
	return &MaxPool2D{stride: stride}
}

// Forward applies max pooling.
func (m *MaxPool2D) Forward(input *autodiff.Node) *autodiff.Node {
	return autodiff.MaxPooling2D(input, m.stride)
}

// Parameters returns nil (pooling has no learnable parameters).
func (m *MaxPool2D) Parameters() []*autodiff.Variable { return nil }

// Stride returns the pooling stride.
func (m *MaxPool2D) Stride() int { return m.stride }

// String returns a short description of the layer.
func (m *MaxPool2D) String() string { return fmt.Sprintf("MaxPool2D(stride=%d)", m.stride) }

// AvgPool2D is the average pooling counterpart of MaxPool2D.
type AvgPool2D struct {
	stride int
}

// NewAvgPool2D creates a new 2D average pooling layer.
func NewAvgPool2D(stride int) *AvgPool2D {
	if stride <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid stride %d", stride))
	}
	return &AvgPool2D{stride: stride}
}

// Forward applies average pooling.
func (a *AvgPool2D) Forward(input *autodiff.Node) *autodiff.Node {
	return autodiff.AveragePooling2D(input, a.stride)
}

// Parameters returns nil.
func (a *AvgPool2D) Parameters() []*autodiff.Variable { return nil }

// String returns a short description of the layer.
func (a *AvgPool2D) String() string { return fmt.Sprintf("AvgPool2D(stride=%d)", a.stride) }

// Flatten collapses every dimension but the first.
type Flatten struct{}

// NewFlatten creates a Flatten module.
func NewFlatten() *Flatten { return &Flatten{} }

// Forward flattens the input to [batch, features].
func (*Flatten) Forward(input *autodiff.Node) *autodiff.Node { return autodiff.Flatten(input) }

// Parameters returns nil.
func (*Flatten) Parameters() []*autodiff.Variable { return nil }

// String returns "Flatten".
func (*Flatten) String() string { return "Flatten" }

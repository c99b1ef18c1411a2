// Package tensor implements the dense float64 tensor used by the gradflow engine.
//
// A Tensor owns (or aliases) a flat row-major buffer plus a shape. Sub-tensors
// created with View or Rows share the buffer through an offset, so writes through
// one view are visible through every alias.
//
// All operations are pure and return new tensors, except the explicitly named
// in-place helpers (AddInPlace, AxpyInPlace, ...) that optimizers use to mutate
// variable storage.
package tensor

import (
	"github.com/pkg/errors"
)

// Tensor is a dense multi-dimensional array of float64 values.
type Tensor struct {
	buffer []float64 // Shared backing storage (possibly larger than the tensor)
	shape  Shape     // Tensor dimensions
	offset int       // Offset for views into buffer
}

// New creates a zero-filled tensor with the given shape.
// Panics if the shape is invalid.
func New(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(errors.Wrap(err, "tensor.New"))
	}
	return &Tensor{
		buffer: make([]float64, shape.NumElements()),
		shape:  shape.Clone(),
	}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid shape")
	}
	if shape.NumElements() != len(data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "shape %s requires %d elements, but got %d",
			shape, shape.NumElements(), len(data))
	}
	t := New(shape)
	copy(t.buffer, data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Offset returns the position of the first element inside the backing buffer.
func (t *Tensor) Offset() int {
	return t.offset
}

// Capacity returns the size of the backing buffer available to this tensor,
// measured from its offset.
func (t *Tensor) Capacity() int {
	return len(t.buffer) - t.offset
}

// Data returns the tensor elements in row-major order.
// The slice aliases the tensor storage: writes are visible to every view.
func (t *Tensor) Data() []float64 {
	return t.buffer[t.offset : t.offset+t.NumElements()]
}

// Item returns the single value of a one-element tensor.
func (t *Tensor) Item() float64 {
	if t.NumElements() != 1 {
		panic(errors.Wrapf(ErrShapeMismatch, "Item() on tensor of shape %s", t.shape))
	}
	return t.buffer[t.offset]
}

// At returns the element at the given multi-dimensional index.
func (t *Tensor) At(indices ...int) float64 {
	return t.buffer[t.offset+t.flatIndex(indices)]
}

// Set writes the element at the given multi-dimensional index.
func (t *Tensor) Set(value float64, indices ...int) {
	t.buffer[t.offset+t.flatIndex(indices)] = value
}

func (t *Tensor) flatIndex(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(errors.Errorf("index rank %d does not match tensor rank %d", len(indices), len(t.shape)))
	}
	strides := t.shape.ComputeStrides()
	idx := 0
	for i, v := range indices {
		if v < 0 || v >= t.shape[i] {
			panic(errors.Errorf("index %d out of range for dimension %d of shape %s", v, i, t.shape))
		}
		idx += v * strides[i]
	}
	return idx
}

// Clone returns a deep copy with its own buffer.
func (t *Tensor) Clone() *Tensor {
	out := New(t.shape)
	copy(out.buffer, t.Data())
	return out
}

// View returns a tensor of the given shape aliasing this tensor's buffer,
// starting offset elements after this tensor's first element.
func (t *Tensor) View(offset int, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid view shape")
	}
	if offset < 0 || offset+shape.NumElements() > t.Capacity() {
		return nil, errors.Wrapf(ErrShapeMismatch, "view of shape %s at offset %d exceeds capacity %d",
			shape, offset, t.Capacity())
	}
	return &Tensor{
		buffer: t.buffer,
		shape:  shape.Clone(),
		offset: t.offset + offset,
	}, nil
}

// Rows returns a view over rows [start, end) of the leading dimension.
func (t *Tensor) Rows(start, end int) (*Tensor, error) {
	if t.Rank() == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "Rows() on a scalar")
	}
	if start < 0 || end > t.shape[0] || start >= end {
		return nil, errors.Errorf("invalid row range [%d, %d) for shape %s", start, end, t.shape)
	}
	rowSize := t.NumElements() / t.shape[0]
	shape := t.shape.Clone()
	shape[0] = end - start
	return t.View(start*rowSize, shape)
}

// Resize changes the shape of the tensor. The existing buffer is reused when it
// is large enough, otherwise a new zeroed buffer is allocated and the tensor
// stops aliasing its previous views.
func (t *Tensor) Resize(shape Shape) error {
	if err := shape.Validate(); err != nil {
		return errors.Wrap(err, "invalid shape")
	}
	if shape.NumElements() > t.Capacity() {
		t.buffer = make([]float64, shape.NumElements())
		t.offset = 0
	}
	t.shape = shape.Clone()
	return nil
}

// SameShape reports whether both tensors have identical shapes.
func (t *Tensor) SameShape(other *Tensor) bool {
	return t.shape.Equal(other.shape)
}

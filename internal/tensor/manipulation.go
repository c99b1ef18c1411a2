package tensor

import (
	"github.com/pkg/errors"
)

// Reshape returns a copy of t with a new shape holding the same number of elements.
func Reshape(t *Tensor, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid shape")
	}
	if shape.NumElements() != t.NumElements() {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot reshape %s (%d elements) into %s (%d elements)",
			t.shape, t.NumElements(), shape, shape.NumElements())
	}
	out := New(shape)
	copy(out.buffer, t.Data())
	return out, nil
}

// Transpose swaps the two dimensions of a rank-2 tensor.
func Transpose(t *Tensor) (*Tensor, error) {
	if t.Rank() != 2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "Transpose expects a rank-2 tensor, got shape %s", t.shape)
	}
	rows, cols := t.shape[0], t.shape[1]
	out := New(Shape{cols, rows})
	data := t.Data()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.buffer[c*rows+r] = data[r*cols+c]
		}
	}
	return out, nil
}

// BroadcastTo expands t to shape following NumPy broadcasting rules.
func BroadcastTo(t *Tensor, shape Shape) (*Tensor, error) {
	result, _, err := BroadcastShapes(t.shape, shape)
	if err != nil || !result.Equal(shape) {
		return nil, shapeMismatch("BroadcastTo", t.shape, shape)
	}
	out := New(shape)
	idx := broadcastIndex(t.shape, shape)
	data := t.Data()
	for i := range out.buffer {
		out.buffer[i] = data[idx(i)]
	}
	return out, nil
}

// SumTo reduces a tensor that was produced by broadcasting back to target,
// summing over every broadcast dimension. It is the adjoint of BroadcastTo.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func SumTo(t *Tensor, target Shape) (*Tensor, error) {
	if t.shape.Equal(target) {
		return t.Clone(), nil
	}
	result, _, err := BroadcastShapes(target, t.shape)
	if err != nil || !result.Equal(t.shape) {
		return nil, shapeMismatch("SumTo", t.shape, target)
	}

	out := New(target)
	idx := broadcastIndex(target, t.shape)
	data := t.Data()
	for i, v := range data {
		out.buffer[idx(i)] += v
	}
	return out, nil
}

// ExpandAxis returns a copy of t with a new size-1 dimension inserted at axis.
func ExpandAxis(t *Tensor, axis int) (*Tensor, error) {
	if axis < 0 {
		axis += t.Rank() + 1
	}
	if axis < 0 || axis > t.Rank() {
		return nil, errors.Wrapf(ErrShapeMismatch, "axis %d out of range for shape %s", axis, t.shape)
	}
	shape := make(Shape, 0, t.Rank()+1)
	shape = append(shape, t.shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, t.shape[axis:]...)
	return Reshape(t, shape)
}

// TakeRows returns a new tensor holding the rows of t listed in idx, in order.
func TakeRows(t *Tensor, idx []int) (*Tensor, error) {
	if t.Rank() == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "TakeRows() on a scalar")
	}
	if len(idx) == 0 {
		return nil, errors.New("TakeRows() with no rows")
	}
	rowSize := t.NumElements() / t.shape[0]
	shape := t.shape.Clone()
	shape[0] = len(idx)
	out := New(shape)
	src := t.Data()
	for i, r := range idx {
		if r < 0 || r >= t.shape[0] {
			return nil, errors.Errorf("row %d out of range for shape %s", r, t.shape)
		}
		copy(out.buffer[i*rowSize:(i+1)*rowSize], src[r*rowSize:(r+1)*rowSize])
	}
	return out, nil
}

// ConcatShape returns the shape of a and b joined along axis. Every other
// dimension must agree; a Dynamic dimension agrees with anything.
func ConcatShape(a, b Shape, axis int) (Shape, int, error) {
	if len(a) != len(b) {
		return nil, 0, shapeMismatch("Concat", a, b)
	}
	axis, err := a.NormalizeAxis(axis)
	if err != nil {
		return nil, 0, err
	}
	out := a.Clone()
	for d := range a {
		switch {
		case d == axis:
			if a[d] == Dynamic || b[d] == Dynamic {
				out[d] = Dynamic
			} else {
				out[d] = a[d] + b[d]
			}
		case a[d] == Dynamic:
			out[d] = b[d]
		case b[d] != Dynamic && a[d] != b[d]:
			return nil, 0, errors.Wrapf(ErrShapeMismatch, "Concat along axis %d: %s vs %s", axis, a, b)
		}
	}
	return out, axis, nil
}

// Concat joins a and b along axis.
func Concat(a, b *Tensor, axis int) (*Tensor, error) {
	shape, axis, err := ConcatShape(a.shape, b.shape, axis)
	if err != nil {
		return nil, err
	}
	out := New(shape)
	outer, na, inner := axisLayout(a.shape, axis)
	nb := b.shape[axis]
	sa, sb := na*inner, nb*inner
	da, db := a.Data(), b.Data()
	for o := 0; o < outer; o++ {
		dst := out.buffer[o*(sa+sb):]
		copy(dst[:sa], da[o*sa:(o+1)*sa])
		copy(dst[sa:sa+sb], db[o*sb:(o+1)*sb])
	}
	return out, nil
}

// SliceAxis returns a copy of the elements of t whose index along axis lies
// in [start, end).
func SliceAxis(t *Tensor, axis, start, end int) (*Tensor, error) {
	axis, err := t.shape.NormalizeAxis(axis)
	if err != nil {
		return nil, err
	}
	outer, n, inner := axisLayout(t.shape, axis)
	if start < 0 || end > n || start >= end {
		return nil, errors.Wrapf(ErrShapeMismatch, "slice [%d, %d) out of range for axis %d of shape %s",
			start, end, axis, t.shape)
	}
	shape := t.shape.Clone()
	shape[axis] = end - start
	out := New(shape)
	width := (end - start) * inner
	data := t.Data()
	for o := 0; o < outer; o++ {
		copy(out.buffer[o*width:(o+1)*width], data[(o*n+start)*inner:(o*n+end)*inner])
	}
	return out, nil
}

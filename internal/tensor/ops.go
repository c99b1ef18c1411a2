package tensor

import (
	"math"

	"github.com/gradflow/gradflow/internal/parallel"
)

// Add performs element-wise addition with NumPy broadcasting.
func Add(a, b *Tensor) (*Tensor, error) {
	return broadcastBinary("Add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with NumPy broadcasting.
func Sub(a, b *Tensor) (*Tensor, error) {
	return broadcastBinary("Sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with NumPy broadcasting.
func Mul(a, b *Tensor) (*Tensor, error) {
	return broadcastBinary("Mul", a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with NumPy broadcasting.
func Div(a, b *Tensor) (*Tensor, error) {
	return broadcastBinary("Div", a, b, func(x, y float64) float64 { return x / y })
}

// Maximum returns the element-wise maximum of a and b.
func Maximum(a, b *Tensor) (*Tensor, error) {
	return broadcastBinary("Maximum", a, b, math.Max)
}

// Minimum returns the element-wise minimum of a and b.
func Minimum(a, b *Tensor) (*Tensor, error) {
	return broadcastBinary("Minimum", a, b, math.Min)
}

// AddScalar returns t + s.
func AddScalar(t *Tensor, s float64) *Tensor {
	return t.Map(func(x float64) float64 { return x + s })
}

// MulScalar returns t * s.
func MulScalar(t *Tensor, s float64) *Tensor {
	return t.Map(func(x float64) float64 { return x * s })
}

// Neg returns -t.
func Neg(t *Tensor) *Tensor {
	return t.Map(func(x float64) float64 { return -x })
}

// Map applies f to every element and returns a new tensor of the same shape.
// Large tensors are split across goroutines, so f must be safe for
// concurrent use.
func (t *Tensor) Map(f func(float64) float64) *Tensor {
	out := New(t.shape)
	src := t.Data()
	parallel.ForChunks(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			out.buffer[i] = f(src[i])
		}
	}, parallel.ElementwiseConfig())
	return out
}

// Map2 combines two tensors of identical shape element by element.
func Map2(a, b *Tensor, f func(x, y float64) float64) (*Tensor, error) {
	if !a.SameShape(b) {
		return nil, shapeMismatch("Map2", a.shape, b.shape)
	}
	out := New(a.shape)
	ad, bd := a.Data(), b.Data()
	for i := range out.buffer {
		out.buffer[i] = f(ad[i], bd[i])
	}
	return out, nil
}

// Map2Broadcast combines two tensors element by element after broadcasting them
// to a common shape.
func Map2Broadcast(a, b *Tensor, f func(x, y float64) float64) (*Tensor, error) {
	return broadcastBinary("Map2Broadcast", a, b, f)
}

// broadcastBinary applies f element-wise after broadcasting a and b to a common shape.
func broadcastBinary(op string, a, b *Tensor, f func(x, y float64) float64) (*Tensor, error) {
	if a.SameShape(b) {
		return Map2(a, b, f)
	}

	outShape, _, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, shapeMismatch(op, a.shape, b.shape)
	}

	out := New(outShape)
	aIdx := broadcastIndex(a.shape, outShape)
	bIdx := broadcastIndex(b.shape, outShape)
	ad, bd := a.Data(), b.Data()
	for i := range out.buffer {
		out.buffer[i] = f(ad[aIdx(i)], bd[bIdx(i)])
	}
	return out, nil
}

// broadcastIndex returns a function mapping a flat index of outShape to the
// flat index of the (broadcast) source shape.
func broadcastIndex(src, outShape Shape) func(int) int {
	if src.NumElements() == 1 {
		return func(int) int { return 0 }
	}
	if src.Equal(outShape) {
		return func(i int) int { return i }
	}

	rank := len(outShape)
	srcStrides := make([]int, rank)
	ss := src.ComputeStrides()
	pad := rank - len(src)
	for d := 0; d < len(src); d++ {
		if src[d] != 1 {
			srcStrides[d+pad] = ss[d]
		}
	}
	outStrides := outShape.ComputeStrides()

	return func(i int) int {
		idx := 0
		rem := i
		for d := 0; d < rank; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			idx += coord * srcStrides[d]
		}
		return idx
	}
}

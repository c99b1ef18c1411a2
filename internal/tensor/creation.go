package tensor

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
func Zeros(shape Shape) *Tensor {
	return New(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64) *Tensor {
	t := New(shape)
	for i := range t.buffer {
		t.buffer[i] = value
	}
	return t
}

// Scalar creates a rank-0 tensor holding value.
func Scalar(value float64) *Tensor {
	return Full(Shape{}, value)
}

// ZerosLike creates a zero tensor with the shape of t.
func ZerosLike(t *Tensor) *Tensor {
	return Zeros(t.shape)
}

// OnesLike creates a tensor of ones with the shape of t.
func OnesLike(t *Tensor) *Tensor {
	return Ones(t.shape)
}

// Arange creates a 1-D tensor [0, 1, ..., n-1].
func Arange(n int) *Tensor {
	t := New(Shape{n})
	for i := range t.buffer {
		t.buffer[i] = float64(i)
	}
	return t
}

// NewSource returns a deterministic random source for the random factories.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// Uniform creates a tensor with values drawn from U(lo, hi).
// A nil src uses the global random source.
func Uniform(shape Shape, lo, hi float64, src rand.Source) *Tensor {
	dist := distuv.Uniform{Min: lo, Max: hi, Src: src}
	t := New(shape)
	for i := range t.buffer {
		t.buffer[i] = dist.Rand()
	}
	return t
}

// Normal creates a tensor with values drawn from N(mu, sigma²).
// A nil src uses the global random source.
func Normal(shape Shape, mu, sigma float64, src rand.Source) *Tensor {
	dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: src}
	t := New(shape)
	for i := range t.buffer {
		t.buffer[i] = dist.Rand()
	}
	return t
}

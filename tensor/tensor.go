// Copyright 2025 The gradflow Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand/v2"

	"github.com/gradflow/gradflow/internal/tensor"
)

// Tensor is a dense row-major float64 tensor.
type Tensor = tensor.Tensor

// Shape lists the size of every dimension.
type Shape = tensor.Shape

// Dynamic marks a dimension whose size is only known when data is bound.
const Dynamic = tensor.Dynamic

// ErrShapeMismatch reports incompatible tensor shapes.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// New creates a zero-filled tensor.
func New(shape Shape) *Tensor { return tensor.New(shape) }

// FromSlice creates a tensor holding a copy of data.
func FromSlice(data []float64, shape Shape) (*Tensor, error) { return tensor.FromSlice(data, shape) }

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor { return tensor.Zeros(shape) }

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor { return tensor.Ones(shape) }

// Full creates a tensor filled with value.
func Full(shape Shape, value float64) *Tensor { return tensor.Full(shape, value) }

// Scalar creates a rank-0 tensor.
func Scalar(value float64) *Tensor { return tensor.Scalar(value) }

// Arange creates the vector [0, 1, ..., n-1].
func Arange(n int) *Tensor { return tensor.Arange(n) }

// NewSource returns a deterministic random source.
func NewSource(seed uint64) rand.Source { return tensor.NewSource(seed) }

// Uniform creates a tensor with values drawn from U(lo, hi).
func Uniform(shape Shape, lo, hi float64, src rand.Source) *Tensor {
	return tensor.Uniform(shape, lo, hi, src)
}

// Normal creates a tensor with values drawn from N(mu, sigma²).
func Normal(shape Shape, mu, sigma float64, src rand.Source) *Tensor {
	return tensor.Normal(shape, mu, sigma, src)
}

// Element-wise arithmetic with broadcasting.
var (
	Add     = tensor.Add
	Sub     = tensor.Sub
	Mul     = tensor.Mul
	Div     = tensor.Div
	Maximum = tensor.Maximum
	Minimum = tensor.Minimum
)

// Reductions.
var (
	Sum      = tensor.Sum
	Mean     = tensor.Mean
	Max      = tensor.Max
	Min      = tensor.Min
	SumAxis  = tensor.SumAxis
	MeanAxis = tensor.MeanAxis
	MaxAxis  = tensor.MaxAxis
	MinAxis  = tensor.MinAxis
	ArgMax   = tensor.ArgMax
	ArgMin   = tensor.ArgMin
)

// Layout and linear algebra.
var (
	MatMul    = tensor.MatMul
	Transpose = tensor.Transpose
	Reshape   = tensor.Reshape
	TakeRows  = tensor.TakeRows
	Concat    = tensor.Concat
	SliceAxis = tensor.SliceAxis
)

// ConvConfig parameterizes a 2-D convolution: strides, dilations and padding.
type ConvConfig = tensor.ConvConfig

// Padding selects valid or same convolution padding.
type Padding = tensor.Padding

// Convolution paddings.
const (
	PaddingValid = tensor.PaddingValid
	PaddingSame  = tensor.PaddingSame
)

// ParsePadding converts "valid" or "same" into a Padding.
func ParsePadding(s string) (Padding, error) { return tensor.ParsePadding(s) }

// AllClose reports whether a and b have the same shape and elements within tol.
func AllClose(a, b *Tensor, tol float64) bool { return tensor.AllClose(a, b, tol) }

package tensor

import "math"

// Sum returns the sum of all elements as a rank-0 tensor.
func Sum(t *Tensor) *Tensor {
	var s float64
	for _, v := range t.Data() {
		s += v
	}
	return Scalar(s)
}

// Mean returns the mean of all elements as a rank-0 tensor.
func Mean(t *Tensor) *Tensor {
	s := Sum(t).Item()
	return Scalar(s / float64(t.NumElements()))
}

// Max returns the maximum element as a rank-0 tensor.
func Max(t *Tensor) *Tensor {
	return Scalar(t.Data()[ArgMax(t)])
}

// Min returns the minimum element as a rank-0 tensor.
func Min(t *Tensor) *Tensor {
	return Scalar(t.Data()[ArgMin(t)])
}

// ArgMax returns the flat index of the first maximal element. A NaN counts
// as the maximum, so the first NaN wins.
func ArgMax(t *Tensor) int {
	return extremeIndex(t.Data(), 0, t.NumElements(), 1, greater)
}

// ArgMin returns the flat index of the first minimal element. A NaN counts
// as the minimum, so the first NaN wins.
func ArgMin(t *Tensor) int {
	return extremeIndex(t.Data(), 0, t.NumElements(), 1, less)
}

// SumAxis sums along axis. With keepDims the axis is kept with size 1.
func SumAxis(t *Tensor, axis int, keepDims bool) (*Tensor, error) {
	return reduceAxis(t, axis, keepDims, func(data []float64, start, n, stride int) float64 {
		var s float64
		for k := 0; k < n; k++ {
			s += data[start+k*stride]
		}
		return s
	})
}

// MeanAxis averages along axis. With keepDims the axis is kept with size 1.
func MeanAxis(t *Tensor, axis int, keepDims bool) (*Tensor, error) {
	return reduceAxis(t, axis, keepDims, func(data []float64, start, n, stride int) float64 {
		var s float64
		for k := 0; k < n; k++ {
			s += data[start+k*stride]
		}
		return s / float64(n)
	})
}

// MaxAxis takes the maximum along axis. With keepDims the axis is kept with size 1.
func MaxAxis(t *Tensor, axis int, keepDims bool) (*Tensor, error) {
	return reduceAxis(t, axis, keepDims, func(data []float64, start, n, stride int) float64 {
		return data[start+extremeIndex(data, start, n, stride, greater)*stride]
	})
}

// MinAxis takes the minimum along axis. With keepDims the axis is kept with size 1.
func MinAxis(t *Tensor, axis int, keepDims bool) (*Tensor, error) {
	return reduceAxis(t, axis, keepDims, func(data []float64, start, n, stride int) float64 {
		return data[start+extremeIndex(data, start, n, stride, less)*stride]
	})
}

// ArgMaxAxis returns, for every position of the reduced output, the flat index
// into t of the first maximal element along axis.
func ArgMaxAxis(t *Tensor, axis int) ([]int, error) {
	return argAxis(t, axis, greater)
}

// ArgMinAxis returns, for every position of the reduced output, the flat index
// into t of the first minimal element along axis.
func ArgMinAxis(t *Tensor, axis int) ([]int, error) {
	return argAxis(t, axis, less)
}

// greater and less order NaN before every number, matching math.Max and
// math.Min. Once a NaN is selected no later element displaces it.
func greater(a, b float64) bool { return a > b || (math.IsNaN(a) && !math.IsNaN(b)) }
func less(a, b float64) bool    { return a < b || (math.IsNaN(a) && !math.IsNaN(b)) }

// axisLayout splits a shape around axis into outer * n * inner.
func axisLayout(shape Shape, axis int) (outer, n, inner int) {
	outer, inner = 1, 1
	for d := 0; d < axis; d++ {
		outer *= shape[d]
	}
	for d := axis + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	return outer, shape[axis], inner
}

func reduceAxis(t *Tensor, axis int, keepDims bool, reduce func(data []float64, start, n, stride int) float64) (*Tensor, error) {
	axis, err := t.shape.NormalizeAxis(axis)
	if err != nil {
		return nil, err
	}
	outer, n, inner := axisLayout(t.shape, axis)
	out := New(t.shape.ReduceAxis(axis, keepDims))
	data := t.Data()
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			out.buffer[o*inner+i] = reduce(data, o*n*inner+i, n, inner)
		}
	}
	return out, nil
}

// extremeIndex returns k in [0, n) of the first element preferred by better.
func extremeIndex(data []float64, start, n, stride int, better func(a, b float64) bool) int {
	best := 0
	for k := 1; k < n; k++ {
		if better(data[start+k*stride], data[start+best*stride]) {
			best = k
		}
	}
	return best
}

func argAxis(t *Tensor, axis int, better func(a, b float64) bool) ([]int, error) {
	axis, err := t.shape.NormalizeAxis(axis)
	if err != nil {
		return nil, err
	}
	outer, n, inner := axisLayout(t.shape, axis)
	indices := make([]int, outer*inner)
	data := t.Data()
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			start := o*n*inner + i
			indices[o*inner+i] = start + extremeIndex(data, start, n, inner, better)*inner
		}
	}
	return indices, nil
}

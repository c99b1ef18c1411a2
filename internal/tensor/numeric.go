package tensor

import (
	"fmt"
	"math"
	"strings"
)

// CountNonFinite returns the number of NaN and ±Inf elements.
func (t *Tensor) CountNonFinite() (nans, infs int) {
	for _, v := range t.Data() {
		switch {
		case math.IsNaN(v):
			nans++
		case math.IsInf(v, 0):
			infs++
		}
	}
	return nans, infs
}

// AllClose reports whether a and b have the same shape and every pair of
// elements differs by at most tol.
func AllClose(a, b *Tensor, tol float64) bool {
	if !a.SameShape(b) {
		return false
	}
	bd := b.Data()
	for i, v := range a.Data() {
		if math.Abs(v-bd[i]) > tol {
			return false
		}
	}
	return true
}

// String renders the tensor shape followed by its values, nested by dimension.
func (t *Tensor) String() string {
	var sb strings.Builder
	sb.WriteString("Tensor")
	sb.WriteString(t.shape.String())
	sb.WriteString(" ")
	data := t.Data()
	if t.Rank() == 0 {
		fmt.Fprintf(&sb, "%g", data[0])
		return sb.String()
	}
	writeNested(&sb, data, t.shape)
	return sb.String()
}

func writeNested(sb *strings.Builder, data []float64, shape Shape) {
	sb.WriteString("[")
	if len(shape) == 1 {
		for i, v := range data {
			if i > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(sb, "%g", v)
		}
	} else {
		step := len(data) / shape[0]
		for i := 0; i < shape[0]; i++ {
			if i > 0 {
				sb.WriteString(" ")
			}
			writeNested(sb, data[i*step:(i+1)*step], shape[1:])
		}
	}
	sb.WriteString("]")
}

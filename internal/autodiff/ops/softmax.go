package ops

import (
	"math"

	"github.com/gradflow/gradflow/internal/tensor"
)

// SoftmaxOp represents the softmax over the last axis.
//
// Forward (for each row):
//
//	softmax(x)_i = exp(x_i - max(x)) / Σ_j exp(x_j - max(x))
//
// The max-shifting prevents overflow.
//
// Backward:
//
//	∂L/∂x_j = softmax_j * (∂L/∂softmax_j - Σ_i ∂L/∂softmax_i * softmax_i)
type SoftmaxOp struct{}

// Kind returns KindSoftmax.
func (SoftmaxOp) Kind() Kind { return KindSoftmax }

// InferShape keeps the operand shape, which must have rank >= 1.
func (SoftmaxOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	out, err := unaryShape(KindSoftmax, inputs)
	if err != nil {
		return nil, err
	}
	if out.Rank() == 0 {
		return nil, incompatible(KindSoftmax, "scalar operand has no class axis")
	}
	return out, nil
}

// Forward normalizes every row of the last axis.
func (SoftmaxOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	x := inputs[0]
	out := tensor.New(x.Shape())
	classes := x.Shape()[x.Rank()-1]
	src, dst := x.Data(), out.Data()
	for start := 0; start < len(src); start += classes {
		row, res := src[start:start+classes], dst[start:start+classes]
		peak := math.Inf(-1)
		for _, v := range row {
			peak = math.Max(peak, v)
		}
		var total float64
		for i, v := range row {
			res[i] = math.Exp(v - peak)
			total += res[i]
		}
		for i := range res {
			res[i] /= total
		}
	}
	return out, nil
}

// Backward applies the softmax Jacobian row by row using the cached output.
func (SoftmaxOp) Backward(_ []*tensor.Tensor, output, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	if !grad.SameShape(output) {
		return nil, incompatible(KindSoftmax, "gradient %s for output %s", grad.Shape(), output.Shape())
	}
	out := tensor.New(output.Shape())
	classes := output.Shape()[output.Rank()-1]
	y, g, dst := output.Data(), grad.Data(), out.Data()
	for start := 0; start < len(y); start += classes {
		var dot float64
		for j := start; j < start+classes; j++ {
			dot += g[j] * y[j]
		}
		for j := start; j < start+classes; j++ {
			dst[j] = y[j] * (g[j] - dot)
		}
	}
	return []*tensor.Tensor{out}, nil
}

package tensor

import (
	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/parallel"
)

// PoolShape validates a 4-D NHWC input for a non-overlapping 2-D pooling with
// window == stride and returns the output shape [N, H/stride, W/stride, C].
// Trailing rows and columns that do not fill a whole window are dropped.
func PoolShape(input Shape, stride int) (Shape, error) {
	if len(input) != 4 {
		return nil, errors.Wrapf(ErrShapeMismatch, "pooling expects a 4-D NHWC tensor, got shape %s", input)
	}
	if stride < 1 {
		return nil, errors.Errorf("pooling stride must be positive, got %d", stride)
	}
	out := input.Clone()
	for _, d := range []int{1, 2} {
		if input[d] == Dynamic {
			continue
		}
		if input[d] < stride {
			return nil, errors.Wrapf(ErrShapeMismatch, "pooling stride %d larger than spatial dimension %d of shape %s",
				stride, d, input)
		}
		out[d] = input[d] / stride
	}
	return out, nil
}

// MaxPool2D applies 2-D max pooling over an NHWC tensor with window == stride.
//
// Besides the pooled tensor it returns, for every output element, the flat
// index into x of the element that was selected. Ties pick the first maximum
// in row-major window order.
func MaxPool2D(x *Tensor, stride int) (*Tensor, []int, error) {
	outShape, err := PoolShape(x.shape, stride)
	if err != nil {
		return nil, nil, err
	}
	n, h, w, c := x.shape[0], x.shape[1], x.shape[2], x.shape[3]
	hOut, wOut := outShape[1], outShape[2]

	out := New(outShape)
	argmax := make([]int, out.NumElements())
	in := x.Data()

	parallel.ForBatch(n, c, func(b, ch int) {
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				best := ((b*h+oh*stride)*w+ow*stride)*c + ch
				for kh := 0; kh < stride; kh++ {
					for kw := 0; kw < stride; kw++ {
						idx := ((b*h+oh*stride+kh)*w+ow*stride+kw)*c + ch
						if greater(in[idx], in[best]) {
							best = idx
						}
					}
				}
				o := ((b*hOut+oh)*wOut+ow)*c + ch
				out.buffer[o] = in[best]
				argmax[o] = best
			}
		}
	}, parallel.DefaultConfig())

	return out, argmax, nil
}

// MaxPool2DBackward scatters grad (shaped like the pooled output) back to the
// input positions recorded in argmax. All other positions receive zero.
func MaxPool2DBackward(inputShape Shape, grad *Tensor, argmax []int) (*Tensor, error) {
	if len(argmax) != grad.NumElements() {
		return nil, errors.Wrapf(ErrShapeMismatch, "max pooling gradient has %d elements, expected %d",
			grad.NumElements(), len(argmax))
	}
	out := New(inputShape)
	for i, g := range grad.Data() {
		out.buffer[argmax[i]] += g
	}
	return out, nil
}

// AvgPool2D applies 2-D average pooling over an NHWC tensor with window == stride.
func AvgPool2D(x *Tensor, stride int) (*Tensor, error) {
	outShape, err := PoolShape(x.shape, stride)
	if err != nil {
		return nil, err
	}
	n, h, w, c := x.shape[0], x.shape[1], x.shape[2], x.shape[3]
	hOut, wOut := outShape[1], outShape[2]
	factor := 1.0 / float64(stride*stride)

	out := New(outShape)
	in := x.Data()
	parallel.ForBatch(n, c, func(b, ch int) {
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				var s float64
				for kh := 0; kh < stride; kh++ {
					for kw := 0; kw < stride; kw++ {
						s += in[((b*h+oh*stride+kh)*w+ow*stride+kw)*c+ch]
					}
				}
				out.buffer[((b*hOut+oh)*wOut+ow)*c+ch] = s * factor
			}
		}
	}, parallel.DefaultConfig())
	return out, nil
}

// AvgPool2DBackward spreads grad evenly over every pooling window.
// Positions dropped by the floor division receive zero.
func AvgPool2DBackward(inputShape Shape, grad *Tensor, stride int) (*Tensor, error) {
	outShape, err := PoolShape(inputShape, stride)
	if err != nil {
		return nil, err
	}
	if !grad.shape.Equal(outShape) {
		return nil, shapeMismatch("AvgPool2DBackward", grad.shape, outShape)
	}
	n, h, w, c := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	hOut, wOut := outShape[1], outShape[2]
	factor := 1.0 / float64(stride*stride)

	out := New(inputShape)
	g := grad.Data()
	parallel.ForBatch(n, c, func(b, ch int) {
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				v := g[((b*hOut+oh)*wOut+ow)*c+ch] * factor
				for kh := 0; kh < stride; kh++ {
					for kw := 0; kw < stride; kw++ {
						out.buffer[((b*h+oh*stride+kh)*w+ow*stride+kw)*c+ch] = v
					}
				}
			}
		}
	}, parallel.DefaultConfig())
	return out, nil
}

// UpSampleShape validates a 4-D NHWC input and returns
// [N, H*stride, W*stride, C]. Dynamic dimensions stay dynamic.
func UpSampleShape(input Shape, stride int) (Shape, error) {
	if len(input) != 4 {
		return nil, errors.Wrapf(ErrShapeMismatch, "up-sampling expects a 4-D NHWC tensor, got shape %s", input)
	}
	if stride < 1 {
		return nil, errors.Errorf("up-sampling stride must be positive, got %d", stride)
	}
	out := input.Clone()
	for _, d := range []int{1, 2} {
		if input[d] != Dynamic {
			out[d] = input[d] * stride
		}
	}
	return out, nil
}

// UpSample2D repeats every pixel of an NHWC tensor into a stride x stride block.
func UpSample2D(x *Tensor, stride int) (*Tensor, error) {
	outShape, err := UpSampleShape(x.shape, stride)
	if err != nil {
		return nil, err
	}
	n, h, w, c := x.shape[0], x.shape[1], x.shape[2], x.shape[3]
	wOut := outShape[2]

	out := New(outShape)
	in := x.Data()
	parallel.ForBatch(n, c, func(b, ch int) {
		for ih := 0; ih < h; ih++ {
			for iw := 0; iw < w; iw++ {
				v := in[((b*h+ih)*w+iw)*c+ch]
				for kh := 0; kh < stride; kh++ {
					for kw := 0; kw < stride; kw++ {
						out.buffer[((b*h*stride+ih*stride+kh)*wOut+iw*stride+kw)*c+ch] = v
					}
				}
			}
		}
	}, parallel.DefaultConfig())
	return out, nil
}

// UpSample2DBackward sums grad over every stride x stride block, the adjoint
// of UpSample2D.
func UpSample2DBackward(inputShape Shape, grad *Tensor, stride int) (*Tensor, error) {
	outShape, err := UpSampleShape(inputShape, stride)
	if err != nil {
		return nil, err
	}
	if !grad.shape.Equal(outShape) {
		return nil, shapeMismatch("UpSample2DBackward", grad.shape, outShape)
	}
	avg, err := AvgPool2D(grad, stride)
	if err != nil {
		return nil, err
	}
	avg.ScaleInPlace(float64(stride * stride))
	return avg, nil
}

package tensor

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/parallel"
)

// Padding selects how a convolution treats the input border.
type Padding uint8

const (
	// PaddingValid applies the filter only where it fits entirely.
	PaddingValid Padding = iota
	// PaddingSame zero-pads so the output has ceil(size/stride) positions.
	PaddingSame
)

// String returns "valid" or "same".
func (p Padding) String() string {
	switch p {
	case PaddingValid:
		return "valid"
	case PaddingSame:
		return "same"
	}
	return fmt.Sprintf("Padding(%d)", uint8(p))
}

// ParsePadding converts "valid" or "same" into a Padding.
func ParsePadding(s string) (Padding, error) {
	switch s {
	case "valid", "":
		return PaddingValid, nil
	case "same":
		return PaddingSame, nil
	}
	return PaddingValid, errors.Errorf("unknown padding %q, want \"valid\" or \"same\"", s)
}

// ConvConfig parameterizes a 2-D convolution. Zero strides and dilations
// mean 1.
type ConvConfig struct {
	StrideRow, StrideCol     int
	DilationRow, DilationCol int
	Padding                  Padding
}

// Normalized returns c with zero strides and dilations replaced by 1.
func (c ConvConfig) Normalized() ConvConfig {
	for _, v := range []*int{&c.StrideRow, &c.StrideCol, &c.DilationRow, &c.DilationCol} {
		if *v == 0 {
			*v = 1
		}
	}
	return c
}

// Validate rejects negative strides or dilations and unknown paddings.
func (c ConvConfig) Validate() error {
	c = c.Normalized()
	if c.StrideRow < 1 || c.StrideCol < 1 {
		return errors.Errorf("convolution strides must be positive, got %dx%d", c.StrideRow, c.StrideCol)
	}
	if c.DilationRow < 1 || c.DilationCol < 1 {
		return errors.Errorf("convolution dilations must be positive, got %dx%d", c.DilationRow, c.DilationCol)
	}
	if c.Padding > PaddingSame {
		return errors.Errorf("unknown padding %s", c.Padding)
	}
	return nil
}

// convOutDim returns the output size and leading padding of one spatial axis.
func convOutDim(size, kernel, stride, dilation int, padding Padding) (out, pad int) {
	span := dilation*(kernel-1) + 1
	if padding == PaddingSame {
		out = (size + stride - 1) / stride
		total := max((out-1)*stride+span-size, 0)
		return out, total / 2
	}
	if size < span {
		return 0, 0
	}
	return (size-span)/stride + 1, 0
}

// ConvShape validates an NHWC input and an [outChannels, kh, kw, inChannels]
// filter and returns the output shape [N, outH, outW, outChannels]. Dynamic
// input dimensions stay dynamic.
func ConvShape(input, filter Shape, cfg ConvConfig) (Shape, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Normalized()
	if len(input) != 4 {
		return nil, errors.Wrapf(ErrShapeMismatch, "convolution expects a 4-D NHWC input, got shape %s", input)
	}
	if len(filter) != 4 || filter.IsDynamic() {
		return nil, errors.Wrapf(ErrShapeMismatch, "convolution expects a static 4-D filter, got shape %s", filter)
	}
	if input[3] != Dynamic && input[3] != filter[3] {
		return nil, errors.Wrapf(ErrShapeMismatch, "input channels %d differ from filter channels %d",
			input[3], filter[3])
	}
	out := Shape{input[0], Dynamic, Dynamic, filter[0]}
	kernels := [2]int{filter[1], filter[2]}
	strides := [2]int{cfg.StrideRow, cfg.StrideCol}
	dilations := [2]int{cfg.DilationRow, cfg.DilationCol}
	for i, d := range []int{1, 2} {
		if input[d] == Dynamic {
			continue
		}
		o, _ := convOutDim(input[d], kernels[i], strides[i], dilations[i], cfg.Padding)
		if o < 1 {
			return nil, errors.Wrapf(ErrShapeMismatch, "filter %s with dilation %d does not fit input %s",
				filter, dilations[i], input)
		}
		out[d] = o
	}
	return out, nil
}

// convGeometry holds the sizes shared by the forward and backward kernels.
type convGeometry struct {
	n, h, w, c       int
	outC, kh, kw     int
	hOut, wOut       int
	padTop, padLeft  int
	strideR, strideC int
	dilR, dilC       int
}

func newConvGeometry(x, filter *Tensor, cfg ConvConfig) (convGeometry, error) {
	if _, err := ConvShape(x.shape, filter.shape, cfg); err != nil {
		return convGeometry{}, err
	}
	cfg = cfg.Normalized()
	g := convGeometry{
		n: x.shape[0], h: x.shape[1], w: x.shape[2], c: x.shape[3],
		outC: filter.shape[0], kh: filter.shape[1], kw: filter.shape[2],
		strideR: cfg.StrideRow, strideC: cfg.StrideCol,
		dilR: cfg.DilationRow, dilC: cfg.DilationCol,
	}
	g.hOut, g.padTop = convOutDim(g.h, g.kh, g.strideR, g.dilR, cfg.Padding)
	g.wOut, g.padLeft = convOutDim(g.w, g.kw, g.strideC, g.dilC, cfg.Padding)
	return g, nil
}

// patch is the number of columns of the im2col matrix: kh * kw * c.
func (g convGeometry) patch() int { return g.kh * g.kw * g.c }

// rows is the number of rows of the im2col matrix: one per output position.
func (g convGeometry) rows() int { return g.n * g.hOut * g.wOut }

// visit calls f for every (row, column, input index) of the im2col matrix of
// batch item b whose input position lies inside the image.
func (g convGeometry) visit(b int, f func(row, col, idx int)) {
	for oh := 0; oh < g.hOut; oh++ {
		for ow := 0; ow < g.wOut; ow++ {
			row := (b*g.hOut+oh)*g.wOut + ow
			for ki := 0; ki < g.kh; ki++ {
				ih := oh*g.strideR - g.padTop + ki*g.dilR
				if ih < 0 || ih >= g.h {
					continue
				}
				for kj := 0; kj < g.kw; kj++ {
					iw := ow*g.strideC - g.padLeft + kj*g.dilC
					if iw < 0 || iw >= g.w {
						continue
					}
					col := (ki*g.kw + kj) * g.c
					idx := ((b*g.h+ih)*g.w + iw) * g.c
					for ch := 0; ch < g.c; ch++ {
						f(row, col+ch, idx+ch)
					}
				}
			}
		}
	}
}

// im2col lays every receptive field of x out as one row. Padded positions are
// zero.
func (g convGeometry) im2col(x *Tensor) *Tensor {
	cols := New(Shape{g.rows(), g.patch()})
	in, dst, width := x.Data(), cols.buffer, g.patch()
	parallel.For(g.n, func(b int) {
		g.visit(b, func(row, col, idx int) {
			dst[row*width+col] = in[idx]
		})
	}, parallel.DefaultConfig())
	return cols
}

// col2im is the adjoint of im2col: it sums every column entry back into the
// input position it was copied from.
func (g convGeometry) col2im(cols *Tensor) *Tensor {
	out := New(Shape{g.n, g.h, g.w, g.c})
	src, dst, width := cols.Data(), out.buffer, g.patch()
	parallel.For(g.n, func(b int) {
		g.visit(b, func(row, col, idx int) {
			dst[idx] += src[row*width+col]
		})
	}, parallel.DefaultConfig())
	return out
}

// Conv2D convolves an NHWC tensor x with a filter shaped
// [outChannels, kh, kw, inChannels] and returns [N, outH, outW, outChannels].
//
// The input is unrolled with im2col so the product is a single matrix
// multiplication: cols[N*outH*outW, kh*kw*C] @ filterᵀ[kh*kw*C, outChannels].
func Conv2D(x, filter *Tensor, cfg ConvConfig) (*Tensor, error) {
	g, err := newConvGeometry(x, filter, cfg)
	if err != nil {
		return nil, err
	}
	weights, err := Reshape(filter, Shape{g.outC, g.patch()})
	if err != nil {
		return nil, err
	}
	out, err := MatMulTransposed(g.im2col(x), false, weights, true)
	if err != nil {
		return nil, err
	}
	out.shape = Shape{g.n, g.hOut, g.wOut, g.outC}
	return out, nil
}

// Conv2DBackward returns the gradients of Conv2D with respect to x and filter
// given grad, the gradient of the output.
func Conv2DBackward(x, filter, grad *Tensor, cfg ConvConfig) (dx, dFilter *Tensor, err error) {
	g, err := newConvGeometry(x, filter, cfg)
	if err != nil {
		return nil, nil, err
	}
	want := Shape{g.n, g.hOut, g.wOut, g.outC}
	if !grad.shape.Equal(want) {
		return nil, nil, shapeMismatch("Conv2DBackward", grad.shape, want)
	}
	g2, err := Reshape(grad, Shape{g.rows(), g.outC})
	if err != nil {
		return nil, nil, err
	}
	weights, err := Reshape(filter, Shape{g.outC, g.patch()})
	if err != nil {
		return nil, nil, err
	}

	dw, err := MatMulTransposed(g2, true, g.im2col(x), false)
	if err != nil {
		return nil, nil, err
	}
	dw.shape = filter.shape.Clone()

	dcols, err := MatMul(g2, weights)
	if err != nil {
		return nil, nil, err
	}
	return g.col2im(dcols), dw, nil
}

package tensor

import (
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// directConv2D is the textbook convolution loop used as a reference.
func directConv2D(x, filter *Tensor, cfg ConvConfig) *Tensor {
	cfg = cfg.Normalized()
	n, h, w, c := x.shape[0], x.shape[1], x.shape[2], x.shape[3]
	outC, kh, kw := filter.shape[0], filter.shape[1], filter.shape[2]
	hOut, padTop := convOutDim(h, kh, cfg.StrideRow, cfg.DilationRow, cfg.Padding)
	wOut, padLeft := convOutDim(w, kw, cfg.StrideCol, cfg.DilationCol, cfg.Padding)
	out := New(Shape{n, hOut, wOut, outC})
	for b := 0; b < n; b++ {
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				for oc := 0; oc < outC; oc++ {
					var s float64
					for i := 0; i < kh; i++ {
						for j := 0; j < kw; j++ {
							ih := oh*cfg.StrideRow - padTop + i*cfg.DilationRow
							iw := ow*cfg.StrideCol - padLeft + j*cfg.DilationCol
							if ih < 0 || ih >= h || iw < 0 || iw >= w {
								continue
							}
							for ch := 0; ch < c; ch++ {
								s += x.At(b, ih, iw, ch) * filter.At(oc, i, j, ch)
							}
						}
					}
					out.Set(s, b, oh, ow, oc)
				}
			}
		}
	}
	return out
}

func TestConvShape(t *testing.T) {
	tests := []struct {
		name          string
		input, filter Shape
		cfg           ConvConfig
		want          Shape
	}{
		{"valid", Shape{2, 7, 9, 3}, Shape{4, 3, 3, 3}, ConvConfig{}, Shape{2, 5, 7, 4}},
		{"valid strided", Shape{2, 7, 9, 3}, Shape{4, 3, 3, 3}, ConvConfig{StrideRow: 2, StrideCol: 3}, Shape{2, 3, 3, 4}},
		{"same", Shape{1, 7, 9, 1}, Shape{1, 3, 5, 1}, ConvConfig{Padding: PaddingSame}, Shape{1, 7, 9, 1}},
		{"same strided", Shape{1, 7, 9, 1}, Shape{1, 3, 3, 1}, ConvConfig{StrideRow: 2, StrideCol: 2, Padding: PaddingSame}, Shape{1, 4, 5, 1}},
		{"dilated", Shape{1, 7, 7, 1}, Shape{1, 3, 3, 1}, ConvConfig{DilationRow: 2, DilationCol: 3}, Shape{1, 3, 1, 1}},
		{"dynamic", Shape{Dynamic, Dynamic, 8, 2}, Shape{5, 3, 3, 2}, ConvConfig{}, Shape{Dynamic, Dynamic, 6, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvShape(tt.input, tt.filter, tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ConvShape(Shape{1, 2, 2, 1}, Shape{1, 3, 3, 1}, ConvConfig{})
	assert.ErrorIs(t, err, ErrShapeMismatch, "filter larger than the input")
	_, err = ConvShape(Shape{1, 5, 5, 2}, Shape{1, 3, 3, 1}, ConvConfig{})
	assert.ErrorIs(t, err, ErrShapeMismatch, "channel mismatch")
	_, err = ConvShape(Shape{1, 5, 5, 1}, Shape{1, 3, 3, 1}, ConvConfig{Padding: Padding(9)})
	assert.Error(t, err)
}

func TestConv2D_MatchesDirectLoop(t *testing.T) {
	configs := map[string]ConvConfig{
		"valid":         {},
		"same":          {Padding: PaddingSame},
		"same strided":  {StrideRow: 2, StrideCol: 3, Padding: PaddingSame},
		"valid dilated": {DilationRow: 2, DilationCol: 2},
		"same dilated":  {DilationRow: 2, Padding: PaddingSame},
	}
	x := Uniform(Shape{2, 7, 8, 3}, -1, 1, NewSource(1))
	filter := Uniform(Shape{4, 3, 2, 3}, -1, 1, NewSource(2))
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			got, err := Conv2D(x, filter, cfg)
			require.NoError(t, err)
			want := directConv2D(x, filter, cfg)
			assert.Equal(t, want.Shape(), got.Shape())
			assert.True(t, AllClose(want, got, 1e-12), "im2col result differs from the direct loop")
		})
	}
}

func TestConv2D_KnownValues(t *testing.T) {
	// 3x3 single-channel image convolved with a 2x2 box filter.
	x := must.M1(FromSlice([]float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, Shape{1, 3, 3, 1}))
	box := Ones(Shape{1, 2, 2, 1})

	out := must.M1(Conv2D(x, box, ConvConfig{}))
	assert.Equal(t, Shape{1, 2, 2, 1}, out.Shape())
	assert.Equal(t, []float64{12, 16, 24, 28}, out.Data())

	// Same padding with an even kernel pads the bottom and right only.
	same := must.M1(Conv2D(x, box, ConvConfig{Padding: PaddingSame}))
	assert.Equal(t, []float64{12, 16, 9, 24, 28, 15, 15, 17, 9}, same.Data())
}

func TestConv2DBackward_IsAdjoint(t *testing.T) {
	// <conv(x, w), g> is bilinear, so it equals <x, dx> and <w, dw>.
	cfg := ConvConfig{StrideRow: 2, DilationCol: 2, Padding: PaddingSame}
	x := Uniform(Shape{2, 6, 7, 2}, -1, 1, NewSource(3))
	filter := Uniform(Shape{3, 3, 2, 2}, -1, 1, NewSource(4))
	out := must.M1(Conv2D(x, filter, cfg))
	grad := Uniform(out.Shape(), -1, 1, NewSource(5))

	dx, dw, err := Conv2DBackward(x, filter, grad, cfg)
	require.NoError(t, err)
	assert.Equal(t, x.Shape(), dx.Shape())
	assert.Equal(t, filter.Shape(), dw.Shape())

	inner := func(a, b *Tensor) float64 { return Sum(must.M1(Mul(a, b))).Item() }
	total := inner(out, grad)
	assert.InDelta(t, total, inner(x, dx), 1e-9)
	assert.InDelta(t, total, inner(filter, dw), 1e-9)

	_, _, err = Conv2DBackward(x, filter, Ones(Shape{1}), cfg)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestParsePadding(t *testing.T) {
	for _, p := range []Padding{PaddingValid, PaddingSame} {
		got, err := ParsePadding(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePadding("full")
	assert.Error(t, err)
}

func TestConcatAndSliceAxis(t *testing.T) {
	a := must.M1(FromSlice([]float64{1, 2, 3, 4}, Shape{2, 2}))
	b := must.M1(FromSlice([]float64{5, 6}, Shape{2, 1}))

	joined := must.M1(Concat(a, b, -1))
	assert.Equal(t, Shape{2, 3}, joined.Shape())
	assert.Equal(t, []float64{1, 2, 5, 3, 4, 6}, joined.Data())

	rows := must.M1(Concat(a, a, 0))
	assert.Equal(t, []float64{1, 2, 3, 4, 1, 2, 3, 4}, rows.Data())

	left := must.M1(SliceAxis(joined, 1, 0, 2))
	right := must.M1(SliceAxis(joined, 1, 2, 3))
	assert.Equal(t, a.Data(), left.Data())
	assert.Equal(t, b.Data(), right.Data())
	assert.Equal(t, Shape{2, 1}, right.Shape())

	_, err := Concat(a, must.M1(FromSlice([]float64{1, 2, 3}, Shape{3, 1})), 1)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = SliceAxis(joined, 1, 2, 2)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestUpSample2D(t *testing.T) {
	x := nhwc(t, 2, 2,
		1, 2,
		3, 4,
	)
	up := must.M1(UpSample2D(x, 2))
	assert.Equal(t, Shape{1, 4, 4, 1}, up.Shape())
	assert.Equal(t, []float64{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}, up.Data())

	grad := Arange(16)
	g4 := must.M1(Reshape(grad, Shape{1, 4, 4, 1}))
	dx := must.M1(UpSample2DBackward(x.Shape(), g4, 2))
	assert.Equal(t, []float64{0 + 1 + 4 + 5, 2 + 3 + 6 + 7, 8 + 9 + 12 + 13, 10 + 11 + 14 + 15}, dx.Data())

	shape, err := UpSampleShape(Shape{Dynamic, 3, Dynamic, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, Shape{Dynamic, 9, Dynamic, 2}, shape)
}

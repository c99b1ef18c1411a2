package autodiff_test

import (
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/tensor"
)

// TestBackward_MatchesFiniteDifferences compares the analytic gradients of a
// two-layer network against central differences on every parameter.
func TestBackward_MatchesFiniteDifferences(t *testing.T) {
	src := tensor.NewSource(42)
	g := autodiff.NewGraph("mlp")
	x := g.Placeholder("x", tensor.Shape{tensor.Dynamic, 3})
	y := g.Placeholder("y", tensor.Shape{tensor.Dynamic, 1})
	w1 := g.Var("w1", tensor.Normal(tensor.Shape{3, 4}, 0, 0.5, src))
	b1 := g.Var("b1", tensor.Normal(tensor.Shape{4}, 0, 0.1, src))
	w2 := g.Var("w2", tensor.Normal(tensor.Shape{4, 1}, 0, 0.5, src))
	b2 := g.Var("b2", tensor.Zeros(tensor.Shape{1}))

	hidden := autodiff.Tanh(autodiff.Plus(autodiff.Matrix(x, w1), b1))
	pred := autodiff.Sigmoid(autodiff.Plus(autodiff.Matrix(hidden, w2), b2))
	diff := autodiff.Minus(pred, y)
	loss := autodiff.Plus(
		autodiff.Mean(autodiff.Square(diff)),
		autodiff.Scale(autodiff.Sum(autodiff.Abs(w2)), 0.01),
	)
	require.NoError(t, g.Err())

	s := autodiff.NewSession(g)
	require.NoError(t, s.Bind(x, tensor.Uniform(tensor.Shape{5, 3}, -1, 1, src)))
	require.NoError(t, s.Bind(y, tensor.Uniform(tensor.Shape{5, 1}, 0, 1, src)))

	require.NoError(t, s.Backward(loss, nil))
	analytic := make(map[string][]float64)
	for _, v := range g.Variables() {
		analytic[v.Name()] = append([]float64(nil), v.Grad().Data()...)
	}

	const eps = 1e-6
	eval := func() float64 { return must.M1(s.Run(loss)).Item() }
	for _, v := range g.Variables() {
		data := v.Value().Data()
		for i := range data {
			orig := data[i]
			data[i] = orig + eps
			plus := eval()
			data[i] = orig - eps
			minus := eval()
			data[i] = orig

			numeric := (plus - minus) / (2 * eps)
			assert.InDelta(t, numeric, analytic[v.Name()][i], 1e-5, "%s[%d]", v.Name(), i)
		}
	}
}

func TestBackward_ReshapeAndPooling(t *testing.T) {
	g := autodiff.NewGraph("pool")
	img := g.Var("img", must.M1(tensor.FromSlice([]float64{
		1, 2, 5, 0,
		3, 4, 1, 7,
		0, 0, 2, 2,
		9, 1, 2, 2,
	}, tensor.Shape{1, 4, 4, 1})))
	pooled := autodiff.MaxPooling2D(img, 2)
	flat := autodiff.Flatten(pooled)
	out := autodiff.Sum(flat)
	require.NoError(t, g.Err())
	assert.Equal(t, tensor.Shape{1, 4}, flat.Shape())

	s := autodiff.NewSession(g)
	require.NoError(t, s.Backward(out, nil))
	assert.Equal(t, 4.0+7+9+2, s.Value(out).Item())
	assert.Equal(t, []float64{
		0, 0, 0, 0,
		0, 1, 0, 1,
		0, 0, 1, 0,
		1, 0, 0, 0,
	}, img.Variable().Grad().Data())
}

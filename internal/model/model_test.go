package model_test

import (
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/losses"
	"github.com/gradflow/gradflow/internal/model"
	"github.com/gradflow/gradflow/internal/nn"
	"github.com/gradflow/gradflow/internal/optim"
	"github.com/gradflow/gradflow/internal/tensor"
)

// linearModel builds y = W*x + b with a scalar weight and bias.
func linearModel(t *testing.T, w0 float64) (*model.Model, *autodiff.Variable, *autodiff.Variable) {
	t.Helper()
	g := autodiff.NewGraph("linear")
	x := g.Placeholder("x", tensor.Shape{tensor.Dynamic, 1})
	w := g.Var("W", tensor.Full(tensor.Shape{1, 1}, w0))
	b := g.Var("b", tensor.Zeros(tensor.Shape{1}))
	y := autodiff.Plus(autodiff.Matrix(x, w), b)
	m, err := model.New([]*autodiff.Node{x}, y)
	require.NoError(t, err)
	return m, w.Variable(), b.Variable()
}

func scalarRow(v float64) *tensor.Tensor {
	return tensor.Full(tensor.Shape{1, 1}, v)
}

func TestTrainStep_LinearScenario(t *testing.T) {
	m, w, b := linearModel(t, 2.0)
	require.NoError(t, m.Compile(losses.MSE, optim.NewGradientDescent(0.1)))

	pred := must.M1(m.Predict(scalarRow(1)))
	assert.Equal(t, 2.0, pred.Item())

	loss, err := m.TrainStep([]*tensor.Tensor{scalarRow(1)}, scalarRow(4))
	require.NoError(t, err)
	assert.Equal(t, 4.0, loss)
	assert.InDelta(t, -4.0, w.Grad().Item(), 1e-12)
	assert.InDelta(t, 2.4, w.Value().Item(), 1e-12)
	assert.InDelta(t, 0.4, b.Value().Item(), 1e-12)

	// Evaluate sees the updated weights and does not change them.
	after := must.M1(m.Evaluate([]*tensor.Tensor{scalarRow(1)}, scalarRow(4)))
	assert.InDelta(t, (2.8-4)*(2.8-4), after, 1e-12)
	assert.InDelta(t, 2.4, w.Value().Item(), 1e-12)
}

func TestTrainStep_RequiresCompile(t *testing.T) {
	m, _, _ := linearModel(t, 1)

	_, err := m.TrainStep([]*tensor.Tensor{scalarRow(1)}, scalarRow(1))
	assert.ErrorIs(t, err, model.ErrNotCompiled)
	_, err = m.Evaluate([]*tensor.Tensor{scalarRow(1)}, scalarRow(1))
	assert.ErrorIs(t, err, model.ErrNotCompiled)
	_, err = m.Fit(scalarRow(1), scalarRow(1), model.FitConfig{})
	assert.ErrorIs(t, err, model.ErrNotCompiled)
}

func TestTrainStep_BindErrors(t *testing.T) {
	m, _, _ := linearModel(t, 1)
	require.NoError(t, m.Compile(losses.MSE, optim.NewSGD(optim.SGDConfig{})))

	_, err := m.TrainStep(nil, scalarRow(1))
	assert.Error(t, err)

	_, err = m.TrainStep([]*tensor.Tensor{tensor.Ones(tensor.Shape{1, 2})}, scalarRow(1))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = m.TrainStep([]*tensor.Tensor{scalarRow(1)}, tensor.Ones(tensor.Shape{1, 3}))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestNew_Validation(t *testing.T) {
	g := autodiff.NewGraph("g")
	x := g.Placeholder("x", tensor.Shape{1})
	extra := g.Placeholder("extra", tensor.Shape{1})
	w := g.Var("w", tensor.Ones(tensor.Shape{1}))
	y := autodiff.Multiply(autodiff.Plus(x, extra), w)
	foreign := autodiff.NewGraph("other").Placeholder("x", tensor.Shape{1})

	t.Run("undeclared placeholder", func(t *testing.T) {
		_, err := model.New([]*autodiff.Node{x}, y)
		assert.ErrorIs(t, err, autodiff.ErrDanglingReference)
	})
	t.Run("foreign input", func(t *testing.T) {
		_, err := model.New([]*autodiff.Node{x, extra, foreign}, y)
		assert.ErrorIs(t, err, autodiff.ErrDanglingReference)
	})
	t.Run("input is not a placeholder", func(t *testing.T) {
		_, err := model.New([]*autodiff.Node{x, extra, w}, y)
		assert.ErrorIs(t, err, autodiff.ErrDanglingReference)
	})
	t.Run("duplicate input", func(t *testing.T) {
		_, err := model.New([]*autodiff.Node{x, extra, x}, y)
		assert.Error(t, err)
	})
	t.Run("valid", func(t *testing.T) {
		m, err := model.New([]*autodiff.Node{x, extra}, y)
		require.NoError(t, err)
		assert.Len(t, m.Inputs(), 2)
	})
	t.Run("construction error", func(t *testing.T) {
		g := autodiff.NewGraph("broken")
		x := g.Placeholder("x", tensor.Shape{2, 3})
		y := autodiff.Matrix(x, g.Var("w", tensor.Ones(tensor.Shape{2, 1})))
		assert.Nil(t, y)
		_, err := model.New([]*autodiff.Node{x}, y)
		assert.ErrorIs(t, err, autodiff.ErrIncompatibleShape)
	})
}

func TestCompile(t *testing.T) {
	g := autodiff.NewGraph("names")
	x := g.Placeholder("target", tensor.Shape{tensor.Dynamic, 2})
	y := nn.NewLinear("dense", 2, 1, tensor.NewSource(1)).Forward(x)
	m := must.M1(model.New([]*autodiff.Node{x}, y))

	require.NoError(t, m.Compile(losses.MAE, optim.NewAdam(optim.AdamConfig{})))
	assert.Equal(t, "target_1", m.Target().Name(), "the target placeholder gets a free name")
	assert.Equal(t, tensor.Shape{tensor.Dynamic, 1}, m.Target().Shape())
	first := m.Target()

	require.NoError(t, m.Compile(losses.MSE, optim.NewSGD(optim.SGDConfig{})))
	assert.Same(t, first, m.Target())
	assert.Equal(t, 0.01, m.Optimizer().GetLR())

	assert.Error(t, m.Compile(nil, optim.NewSGD(optim.SGDConfig{})))

	nonScalar := func(pred, target *autodiff.Node) *autodiff.Node { return autodiff.Minus(pred, target) }
	assert.ErrorIs(t, m.Compile(nonScalar, optim.NewSGD(optim.SGDConfig{})), autodiff.ErrIncompatibleShape)
}

func TestVariablesAndSummary(t *testing.T) {
	g := autodiff.NewGraph("mlp")
	x := g.Placeholder("x", tensor.Shape{tensor.Dynamic, 3})
	hidden := nn.NewLinear("hidden", 3, 4, tensor.NewSource(1))
	out := nn.NewLinear("out", 4, 1, tensor.NewSource(2))
	y := out.Forward(autodiff.ReLU(hidden.Forward(x)))
	g.Var("unused", tensor.Ones(tensor.Shape{10}))
	m := must.M1(model.New([]*autodiff.Node{x}, y))

	assert.Len(t, m.Variables(), 4)
	assert.Equal(t, 3*4+4+4+1, m.NumParameters())

	out.Bias().SetTrainable(false)
	assert.Len(t, m.Variables(), 3)
	assert.Equal(t, 3*4+4+4, m.NumParameters())

	summary := m.Summary()
	assert.Contains(t, summary, `Variable "hidden.weight"`)
	assert.Contains(t, summary, "(frozen)")
	assert.Contains(t, summary, "Trainable parameters: 20")
	assert.NotContains(t, summary, "unused")
}

func TestFit_LearnsLinearFunction(t *testing.T) {
	// y = 3x - 1 on 64 points.
	xs := tensor.Uniform(tensor.Shape{64, 1}, -1, 1, tensor.NewSource(11))
	ys := xs.Map(func(v float64) float64 { return 3*v - 1 })

	for _, shuffle := range []bool{false, true} {
		m, w, b := linearModel(t, 0)
		require.NoError(t, m.Compile(losses.MSE, optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})))

		epochs := 0
		history, err := m.Fit(xs, ys, model.FitConfig{
			Epochs:    60,
			BatchSize: 10,
			Shuffle:   shuffle,
			Seed:      5,
			OnEpoch:   func(int, float64) { epochs++ },
		})
		require.NoError(t, err)
		assert.Len(t, history, 60)
		assert.Equal(t, 60, epochs)
		assert.Less(t, history[59], history[0])
		assert.InDelta(t, 3.0, w.Value().Item(), 1e-2, "shuffle=%v", shuffle)
		assert.InDelta(t, -1.0, b.Value().Item(), 1e-2, "shuffle=%v", shuffle)
	}
}

func TestFit_Validation(t *testing.T) {
	m, _, _ := linearModel(t, 0)
	require.NoError(t, m.Compile(losses.MSE, optim.NewGradientDescent(0.1)))

	_, err := m.Fit(tensor.Ones(tensor.Shape{4, 1}), tensor.Ones(tensor.Shape{3, 1}), model.FitConfig{})
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	_, err = m.Fit(tensor.Scalar(1), tensor.Ones(tensor.Shape{3, 1}), model.FitConfig{})
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	history, err := m.Fit(tensor.Ones(tensor.Shape{4, 1}), tensor.Ones(tensor.Shape{4, 1}), model.FitConfig{})
	require.NoError(t, err)
	assert.Len(t, history, 1, "default: one epoch")
}

func TestNumericPolicy_Abort(t *testing.T) {
	g := autodiff.NewGraph("nan")
	x := g.Placeholder("x", tensor.Shape{1, 1})
	y := autodiff.Log(x)
	m := must.M1(model.NewWithConfig([]*autodiff.Node{x}, y, model.Config{NumericPolicy: autodiff.NumericAbort}))

	_, err := m.Predict(tensor.Full(tensor.Shape{1, 1}, -1))
	assert.ErrorIs(t, err, autodiff.ErrNumericInstability)

	m = must.M1(model.New([]*autodiff.Node{x}, y))
	_, err = m.Predict(tensor.Full(tensor.Shape{1, 1}, -1))
	require.NoError(t, err)
	assert.NotEmpty(t, m.Session().Instabilities())
}

func TestTrainStep_DropoutOnlyWhileTraining(t *testing.T) {
	g := autodiff.NewGraph("dropout")
	x := g.Placeholder("x", tensor.Shape{tensor.Dynamic, 4})
	drop := nn.NewDropout(0.5, 11)
	y := nn.NewLinear("out", 4, 1, tensor.NewSource(2)).Forward(drop.Forward(x))
	m := must.M1(model.New([]*autodiff.Node{x}, y))
	require.NoError(t, m.Compile(losses.MSE, optim.NewGradientDescent(0.01)))

	in := tensor.Ones(tensor.Shape{3, 4})
	before := must.M1(m.Predict(in))
	again := must.M1(m.Predict(in))
	assert.Equal(t, before.Data(), again.Data(), "prediction is deterministic")

	for step := uint64(1); step <= 3; step++ {
		_, err := m.TrainStep([]*tensor.Tensor{in}, tensor.Ones(tensor.Shape{3, 1}))
		require.NoError(t, err)
		assert.Equal(t, step, drop.State().Step(), "every step draws a fresh mask")
		assert.False(t, drop.State().Training(), "dropout is off again after the step")
	}
}

package optim_test

import (
	"math"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/optim"
	"github.com/gradflow/gradflow/internal/tensor"
)

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func newVar(name string, values ...float64) *autodiff.Variable {
	return autodiff.NewVariable(name, must.M1(tensor.FromSlice(values, tensor.Shape{len(values)})))
}

func grad(values ...float64) *tensor.Tensor {
	return must.M1(tensor.FromSlice(values, tensor.Shape{len(values)}))
}

// TestGradientDescent_TrainingStep replays y = W*x + b with W=2, x=1, target 4:
// the gradient of the MSE loss w.r.t. W is -4 and one step at lr 0.1 gives 2.4.
func TestGradientDescent_TrainingStep(t *testing.T) {
	w := newVar("W", 2.0)
	opt := optim.NewGradientDescent(0.1)

	require.NoError(t, opt.Apply(w, grad(-4.0)))

	if actual := w.Value().Item(); !floatEqual(actual, 2.4, 1e-12) {
		t.Errorf("gradient descent update: got %f, want 2.4", actual)
	}
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	x := newVar("x", 2.0)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})

	require.NoError(t, opt.Apply(x, grad(1.0)))

	// Expected: x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	if actual := x.Value().Item(); !floatEqual(actual, 1.9, 1e-12) {
		t.Errorf("SGD update: got %f, want 1.9", actual)
	}
}

// TestSGD_WithMomentum checks the velocity accumulates to 1.9g after two
// steps with a constant gradient g and momentum 0.9.
func TestSGD_WithMomentum(t *testing.T) {
	x := newVar("x", 1.0)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// Step 1: v = 1.0, x = 1.0 - 0.1*1.0 = 0.9
	require.NoError(t, opt.Apply(x, grad(1.0)))
	assert.InDelta(t, 0.9, x.Value().Item(), 1e-12)

	// Step 2: v = 0.9*1.0 + 1.0 = 1.9, x = 0.9 - 0.1*1.9 = 0.71
	require.NoError(t, opt.Apply(x, grad(1.0)))
	assert.InDelta(t, 0.71, x.Value().Item(), 1e-12)

	state := must.M1(opt.StateDict())
	assert.InDelta(t, 1.9, state["velocity.x"].Item(), 1e-12)
}

func TestSGD_Nesterov(t *testing.T) {
	x := newVar("x", 1.0)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9, Nesterov: true})

	// v = 1, x -= 0.1*(1 + 0.9*1)
	require.NoError(t, opt.Apply(x, grad(1.0)))
	assert.InDelta(t, 1-0.19, x.Value().Item(), 1e-12)

	// v = 1.9, x -= 0.1*(1 + 0.9*1.9)
	require.NoError(t, opt.Apply(x, grad(1.0)))
	assert.InDelta(t, 1-0.19-0.271, x.Value().Item(), 1e-12)
}

func TestOptimizers_ShapeMismatch(t *testing.T) {
	for _, name := range optim.Names() {
		t.Run(name, func(t *testing.T) {
			opt := must.M1(optim.ByName(name, 0.1))
			x := newVar("x", 1, 2, 3)

			err := opt.Apply(x, grad(1, 2))
			assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
			assert.Equal(t, []float64{1, 2, 3}, x.Value().Data(), "a rejected update leaves the value untouched")
		})
	}
}

func TestSGD_StepSkipsFrozenVariables(t *testing.T) {
	a := newVar("a", 1)
	b := newVar("b", 1)
	require.NoError(t, a.Grad().CopyFrom(grad(1)))
	require.NoError(t, b.Grad().CopyFrom(grad(1)))
	b.SetTrainable(false)

	opt := optim.NewSGD(optim.SGDConfig{LR: 0.5})
	require.NoError(t, opt.Step([]*autodiff.Variable{a, b}))

	assert.Equal(t, 0.5, a.Value().Item())
	assert.Equal(t, 1.0, b.Value().Item())
}

func TestSGD_GetSetLR(t *testing.T) {
	opt := optim.NewSGD(optim.SGDConfig{})
	assert.Equal(t, 0.01, opt.GetLR(), "default learning rate")

	opt.SetLR(0.001)
	assert.Equal(t, 0.001, opt.GetLR())
}

// TestAdam_SimpleUpdate checks the first Adam step moves each element by
// about lr in the direction opposite to its gradient.
func TestAdam_SimpleUpdate(t *testing.T) {
	x := newVar("x", 1.0, -1.0)
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.1})

	require.NoError(t, opt.Apply(x, grad(0.5, -3.0)))

	// m_hat = g, v_hat = g², so the step is lr * g / (|g| + eps).
	assert.InDelta(t, 0.9, x.Value().At(0), 1e-6)
	assert.InDelta(t, -0.9, x.Value().At(1), 1e-6)
	assert.Equal(t, 1, opt.GetTimestep(x))
}

// TestAdam_BiasCorrection compares two steps with a hand-computed update.
func TestAdam_BiasCorrection(t *testing.T) {
	x := newVar("x", 0.0)
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.01})

	var want, m, v float64
	for i, g := range []float64{1.0, 0.5} {
		require.NoError(t, opt.Apply(x, grad(g)))

		step := float64(i + 1)
		m = 0.9*m + 0.1*g
		v = 0.999*v + 0.001*g*g
		mHat := m / (1 - math.Pow(0.9, step))
		vHat := v / (1 - math.Pow(0.999, step))
		want -= 0.01 * mHat / (math.Sqrt(vHat) + 1e-8)
	}
	assert.InDelta(t, want, x.Value().Item(), 1e-12)
	assert.Equal(t, 2, opt.GetTimestep(x))

	opt.Reset()
	assert.Equal(t, 0, opt.GetTimestep(x))
}

func TestRMSProp(t *testing.T) {
	x := newVar("x", 1.0)
	opt := optim.NewRMSProp(optim.RMSPropConfig{LR: 0.01})

	require.NoError(t, opt.Apply(x, grad(2.0)))
	cache := 0.1 * 4.0
	assert.InDelta(t, 1-0.01*2/(math.Sqrt(cache)+1e-8), x.Value().Item(), 1e-12)
}

func TestAdagrad(t *testing.T) {
	x := newVar("x", 1.0)
	opt := optim.NewAdagrad(optim.AdagradConfig{LR: 0.1})

	require.NoError(t, opt.Apply(x, grad(1.0)))
	require.NoError(t, opt.Apply(x, grad(1.0)))

	want := 1 - 0.1/(math.Sqrt(1.1)+1e-8) - 0.1/(math.Sqrt(2.1)+1e-8)
	assert.InDelta(t, want, x.Value().Item(), 1e-12)

	state := must.M1(opt.StateDict())
	assert.InDelta(t, 2.1, state["accumulator.x"].Item(), 1e-12)
}

func TestStateDict_RoundTrip(t *testing.T) {
	x := newVar("x", 1.0, 2.0)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	require.NoError(t, opt.Apply(x, grad(1, 1)))

	state := must.M1(opt.StateDict())
	assert.Len(t, state, 1)

	// A fresh optimizer resumes from the loaded velocity of the same-named variable.
	resumed := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	require.NoError(t, resumed.LoadStateDict(state))
	twin := newVar("x", 0.9, 1.9)
	require.NoError(t, resumed.Apply(twin, grad(1, 1)))
	require.NoError(t, opt.Apply(x, grad(1, 1)))
	assert.InDeltaSlice(t, x.Value().Data(), twin.Value().Data(), 1e-12)

	// Wrong shapes surface on first use, unknown keys on load.
	bad := optim.NewSGD(optim.SGDConfig{Momentum: 0.9})
	require.NoError(t, bad.LoadStateDict(map[string]*tensor.Tensor{"velocity.x": tensor.Zeros(tensor.Shape{3})}))
	assert.ErrorIs(t, bad.Apply(newVar("x", 1, 2), grad(1, 1)), tensor.ErrShapeMismatch)
	assert.Error(t, bad.LoadStateDict(map[string]*tensor.Tensor{"m.x": tensor.Zeros(tensor.Shape{2})}))
}

func TestStateDict_DuplicateNames(t *testing.T) {
	opt := optim.NewSGD(optim.SGDConfig{Momentum: 0.9})
	require.NoError(t, opt.Apply(newVar("w", 1), grad(1)))
	require.NoError(t, opt.Apply(newVar("w", 1), grad(1)))

	_, err := opt.StateDict()
	assert.Error(t, err)
}

// TestConvergence_SimpleQuadratic minimizes (x - 3)² through the graph with
// every registered optimizer.
func TestConvergence_SimpleQuadratic(t *testing.T) {
	lrs := map[string]float64{
		"gradient_descent": 0.1,
		"sgd":              0.1,
		"momentum":         0.05,
		"nesterov":         0.05,
		"adam":             0.05,
		"rmsprop":          0.02,
		"adagrad":          0.5,
	}
	for _, name := range optim.Names() {
		t.Run(name, func(t *testing.T) {
			g := autodiff.NewGraph("quadratic")
			x := g.Var("x", tensor.Zeros(tensor.Shape{1}))
			loss := autodiff.Sum(autodiff.Square(autodiff.Minus(x, g.Scalar(3))))
			require.NoError(t, g.Err())

			s := autodiff.NewSession(g)
			opt := must.M1(optim.ByName(name, lrs[name]))
			for range 500 {
				require.NoError(t, s.Backward(loss, nil))
				require.NoError(t, opt.Step(g.Variables()))
			}
			assert.InDelta(t, 3.0, x.Variable().Value().Item(), 0.05)
		})
	}
}

func TestByName_Unknown(t *testing.T) {
	_, err := optim.ByName("lbfgs", 0.1)
	assert.Error(t, err)
}

func TestNameOf_MatchesRegistry(t *testing.T) {
	for _, name := range optim.Names() {
		opt, err := optim.ByName(name, 0)
		require.NoError(t, err)
		assert.Equal(t, name, optim.NameOf(opt))
	}
}

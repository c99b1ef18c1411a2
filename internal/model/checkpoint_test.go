package model_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/losses"
	"github.com/gradflow/gradflow/internal/model"
	"github.com/gradflow/gradflow/internal/optim"
	"github.com/gradflow/gradflow/internal/serialization"
	"github.com/gradflow/gradflow/internal/tensor"
)

func TestSaveLoad_ResumesTraining(t *testing.T) {
	inputs := []*tensor.Tensor{scalarRow(1)}
	target := scalarRow(4)
	path := filepath.Join(t.TempDir(), "linear.gflw")

	src, w, b := linearModel(t, 2)
	require.NoError(t, src.Compile(losses.MSE, optim.NewAdam(optim.AdamConfig{LR: 0.1})))
	for range 3 {
		_, err := src.TrainStep(inputs, target)
		require.NoError(t, err)
	}
	require.NoError(t, src.Save(path, map[string]string{"epoch": "3"}))

	dst, w2, b2 := linearModel(t, 0)
	adam := optim.NewAdam(optim.AdamConfig{LR: 0.5})
	require.NoError(t, dst.Compile(losses.MSE, adam))
	require.NoError(t, dst.Load(path))
	assert.Equal(t, w.Value().Data(), w2.Value().Data())
	assert.Equal(t, b.Value().Data(), b2.Value().Data())
	assert.Equal(t, 0.1, adam.GetLR())

	// With moments and timesteps restored both models take the same step.
	_, err := src.TrainStep(inputs, target)
	require.NoError(t, err)
	_, err = dst.TrainStep(inputs, target)
	require.NoError(t, err)
	assert.InDelta(t, w.Value().Item(), w2.Value().Item(), 1e-12)
	assert.Equal(t, 4, adam.GetTimestep(w2))

	cp, err := serialization.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "adam", cp.Optimizer.Type)
	assert.Equal(t, "3", cp.Metadata["epoch"])
}

func TestRestore_Validation(t *testing.T) {
	m, w, _ := linearModel(t, 2)

	err := m.Restore(&serialization.Checkpoint{Tensors: map[string]*tensor.Tensor{
		"W": tensor.Full(tensor.Shape{1, 1}, 5),
	}})
	assert.Error(t, err, "missing bias")
	assert.Equal(t, 2.0, w.Value().Item(), "nothing is restored on error")

	err = m.Restore(&serialization.Checkpoint{Tensors: map[string]*tensor.Tensor{
		"W": tensor.Full(tensor.Shape{2, 1}, 5),
		"b": tensor.Zeros(tensor.Shape{1}),
	}})
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	assert.Equal(t, 2.0, w.Value().Item())
}

func TestRestore_OtherOptimizerKeepsValues(t *testing.T) {
	src, _, _ := linearModel(t, 2)
	require.NoError(t, src.Compile(losses.MSE, optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})))
	_, err := src.TrainStep([]*tensor.Tensor{scalarRow(1)}, scalarRow(4))
	require.NoError(t, err)
	cp, err := src.Checkpoint(nil)
	require.NoError(t, err)
	assert.Equal(t, "momentum", cp.Optimizer.Type)
	assert.Contains(t, cp.OptimizerState, "velocity.W")

	dst, w2, _ := linearModel(t, 0)
	require.NoError(t, dst.Compile(losses.MSE, optim.NewAdam(optim.AdamConfig{})))
	require.NoError(t, dst.Restore(cp))
	assert.InDelta(t, 2.4, w2.Value().Item(), 1e-12)
}

func TestCheckpoint_DuplicateVariableNames(t *testing.T) {
	g := autodiff.NewGraph("dup")
	x := g.Placeholder("x", tensor.Shape{tensor.Dynamic, 1})
	a := g.Var("w", tensor.Ones(tensor.Shape{1, 1}))
	b := g.Var("w", tensor.Ones(tensor.Shape{1, 1}))
	m, err := model.New([]*autodiff.Node{x}, autodiff.Plus(autodiff.Matrix(x, a), autodiff.Matrix(x, b)))
	require.NoError(t, err)

	_, err = m.Checkpoint(nil)
	assert.Error(t, err)
}

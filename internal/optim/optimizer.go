// Package optim implements optimization algorithms updating graph variables.
//
// This package provides:
//   - Optimizer interface: base interface for all optimizers
//   - GradientDescent: plain gradient descent
//   - SGD: stochastic gradient descent with momentum and optional Nesterov update
//   - Adam: adaptive moment estimation
//   - RMSProp and Adagrad: per-element adaptive learning rates
//
// Optimizers mutate variable values in place. Per-variable state (velocity,
// moments) is created lazily on the first update of each variable.
//
// Example usage:
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})
//
//	for epoch := range epochs {
//	    if err := session.Backward(loss, nil); err != nil {
//	        return err
//	    }
//	    if err := opt.Step(graph.Variables()); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Apply updates v in place from grad. grad must have the shape of v.
	Apply(v *autodiff.Variable, grad *tensor.Tensor) error

	// Step applies the current gradient of every trainable variable.
	Step(vars []*autodiff.Variable) error

	// Reset drops all per-variable state.
	Reset()

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR updates the learning rate.
	//
	// Useful for learning rate scheduling during training.
	SetLR(lr float64)

	// StateDict exports the per-variable state keyed "<slot>.<variable name>".
	StateDict() (map[string]*tensor.Tensor, error)

	// LoadStateDict restores state exported by StateDict. Entries are matched
	// to variables by name on their next update.
	LoadStateDict(state map[string]*tensor.Tensor) error
}

// step applies opt to the gradient of every trainable variable in vars.
func step(opt Optimizer, vars []*autodiff.Variable) error {
	for _, v := range vars {
		if !v.Trainable() {
			continue
		}
		if err := opt.Apply(v, v.Grad()); err != nil {
			return err
		}
	}
	return nil
}

// checkGrad validates the gradient shape against the variable.
func checkGrad(v *autodiff.Variable, grad *tensor.Tensor) error {
	if grad == nil {
		return errors.Errorf("variable %q has no gradient", v.Name())
	}
	if !grad.SameShape(v.Value()) {
		return errors.Wrapf(tensor.ErrShapeMismatch, "gradient %s for variable %s",
			grad.Shape(), v)
	}
	return nil
}

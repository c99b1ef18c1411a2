package optim

import (
	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/tensor"
)

// GradientDescent implements plain gradient descent:
//
//	param = param - lr * gradient
//
// It keeps no state.
type GradientDescent struct {
	lr float64
}

// NewGradientDescent creates a gradient descent optimizer (default lr: 0.01).
func NewGradientDescent(lr float64) *GradientDescent {
	if lr == 0 {
		lr = 0.01
	}
	return &GradientDescent{lr: lr}
}

// Apply performs param -= lr * grad.
func (gd *GradientDescent) Apply(v *autodiff.Variable, grad *tensor.Tensor) error {
	if err := checkGrad(v, grad); err != nil {
		return err
	}
	return v.Value().AxpyInPlace(-gd.lr, grad)
}

// Step applies the gradient of every trainable variable.
func (gd *GradientDescent) Step(vars []*autodiff.Variable) error { return step(gd, vars) }

// Reset is a no-op.
func (gd *GradientDescent) Reset() {}

// GetLR returns the current learning rate.
func (gd *GradientDescent) GetLR() float64 { return gd.lr }

// SetLR updates the learning rate.
func (gd *GradientDescent) SetLR(lr float64) { gd.lr = lr }

// StateDict returns an empty state.
func (gd *GradientDescent) StateDict() (map[string]*tensor.Tensor, error) {
	return map[string]*tensor.Tensor{}, nil
}

// LoadStateDict accepts only an empty state.
func (gd *GradientDescent) LoadStateDict(state map[string]*tensor.Tensor) error {
	if len(state) != 0 {
		return errors.Errorf("gradient descent has no state, got %d entries", len(state))
	}
	return nil
}

// SGD implements Stochastic Gradient Descent with momentum.
//
// Update rule:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// With Nesterov enabled the parameter step looks ahead along the velocity:
//
//	param = param - lr * (gradient + momentum * velocity)
//
// Velocities start at zero on the first update of each variable. With a zero
// momentum SGD behaves like GradientDescent.
//
// Example:
//
//	opt := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	lr       float64
	momentum float64
	nesterov bool
	velocity *slotSet
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
	Nesterov bool    // Use the Nesterov look-ahead update
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		lr:       config.LR,
		momentum: config.Momentum,
		nesterov: config.Nesterov,
		velocity: newSlotSet("velocity"),
	}
}

// Apply performs one momentum update of v.
func (s *SGD) Apply(v *autodiff.Variable, grad *tensor.Tensor) error {
	if err := checkGrad(v, grad); err != nil {
		return err
	}
	vel, err := s.velocity.get(v)
	if err != nil {
		return err
	}

	// velocity = momentum * velocity + grad
	vel.ScaleInPlace(s.momentum)
	if err := vel.AddInPlace(grad); err != nil {
		return err
	}

	value := v.Value()
	if !s.nesterov {
		return value.AxpyInPlace(-s.lr, vel)
	}
	if err := value.AxpyInPlace(-s.lr, grad); err != nil {
		return err
	}
	return value.AxpyInPlace(-s.lr*s.momentum, vel)
}

// Step applies the gradient of every trainable variable.
func (s *SGD) Step(vars []*autodiff.Variable) error { return step(s, vars) }

// Reset drops all velocities.
func (s *SGD) Reset() { s.velocity.reset() }

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 { return s.lr }

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) { s.lr = lr }

// Momentum returns the momentum factor.
func (s *SGD) Momentum() float64 { return s.momentum }

// StateDict exports velocity buffers as "velocity.<variable name>".
func (s *SGD) StateDict() (map[string]*tensor.Tensor, error) {
	return exportAll(s.velocity)
}

// LoadStateDict restores velocity buffers. Shapes are checked when each
// variable is next updated.
func (s *SGD) LoadStateDict(state map[string]*tensor.Tensor) error {
	return loadAll(state, s.velocity)
}

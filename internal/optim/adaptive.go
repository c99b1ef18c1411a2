package optim

import (
	"math"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/tensor"
)

// RMSProp scales each element's step by a running average of its squared
// gradients:
//
//	cache = rho * cache + (1-rho) * gradient²
//	param = param - lr * gradient / (sqrt(cache) + eps)
type RMSProp struct {
	lr    float64
	rho   float64
	eps   float64
	cache *slotSet
}

// RMSPropConfig holds configuration for RMSProp.
type RMSPropConfig struct {
	LR  float64 // Learning rate (default: 0.001)
	Rho float64 // Decay of the squared gradient average (default: 0.9)
	Eps float64 // Term for numerical stability (default: 1e-8)
}

// NewRMSProp creates a new RMSProp optimizer.
func NewRMSProp(config RMSPropConfig) *RMSProp {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Rho == 0 {
		config.Rho = 0.9
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &RMSProp{lr: config.LR, rho: config.Rho, eps: config.Eps, cache: newSlotSet("cache")}
}

// Apply performs one RMSProp update of v.
func (r *RMSProp) Apply(v *autodiff.Variable, grad *tensor.Tensor) error {
	if err := checkGrad(v, grad); err != nil {
		return err
	}
	cache, err := r.cache.get(v)
	if err != nil {
		return err
	}
	gradData, cacheData, paramData := grad.Data(), cache.Data(), v.Value().Data()
	for i, g := range gradData {
		cacheData[i] = r.rho*cacheData[i] + (1-r.rho)*g*g
		paramData[i] -= r.lr * g / (math.Sqrt(cacheData[i]) + r.eps)
	}
	return nil
}

// Step applies the gradient of every trainable variable.
func (r *RMSProp) Step(vars []*autodiff.Variable) error { return step(r, vars) }

// Reset drops the squared gradient averages.
func (r *RMSProp) Reset() { r.cache.reset() }

// GetLR returns the current learning rate.
func (r *RMSProp) GetLR() float64 { return r.lr }

// SetLR updates the learning rate.
func (r *RMSProp) SetLR(lr float64) { r.lr = lr }

// StateDict exports "cache.<name>" entries.
func (r *RMSProp) StateDict() (map[string]*tensor.Tensor, error) { return exportAll(r.cache) }

// LoadStateDict restores the squared gradient averages.
func (r *RMSProp) LoadStateDict(state map[string]*tensor.Tensor) error {
	return loadAll(state, r.cache)
}

// Adagrad accumulates squared gradients for the lifetime of the optimizer:
//
//	accumulator = accumulator + gradient²
//	param = param - lr * gradient / (sqrt(accumulator) + eps)
type Adagrad struct {
	lr          float64
	eps         float64
	accumulator *slotSet
}

// AdagradConfig holds configuration for Adagrad.
type AdagradConfig struct {
	LR                 float64 // Learning rate (default: 0.01)
	InitialAccumulator float64 // Starting accumulator value (default: 0.1)
	Eps                float64 // Term for numerical stability (default: 1e-8)
}

// NewAdagrad creates a new Adagrad optimizer.
func NewAdagrad(config AdagradConfig) *Adagrad {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.InitialAccumulator == 0 {
		config.InitialAccumulator = 0.1
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	acc := newSlotSet("accumulator")
	acc.init = config.InitialAccumulator
	return &Adagrad{lr: config.LR, eps: config.Eps, accumulator: acc}
}

// Apply performs one Adagrad update of v.
func (a *Adagrad) Apply(v *autodiff.Variable, grad *tensor.Tensor) error {
	if err := checkGrad(v, grad); err != nil {
		return err
	}
	acc, err := a.accumulator.get(v)
	if err != nil {
		return err
	}
	gradData, accData, paramData := grad.Data(), acc.Data(), v.Value().Data()
	for i, g := range gradData {
		accData[i] += g * g
		paramData[i] -= a.lr * g / (math.Sqrt(accData[i]) + a.eps)
	}
	return nil
}

// Step applies the gradient of every trainable variable.
func (a *Adagrad) Step(vars []*autodiff.Variable) error { return step(a, vars) }

// Reset drops the accumulators.
func (a *Adagrad) Reset() { a.accumulator.reset() }

// GetLR returns the current learning rate.
func (a *Adagrad) GetLR() float64 { return a.lr }

// SetLR updates the learning rate.
func (a *Adagrad) SetLR(lr float64) { a.lr = lr }

// StateDict exports "accumulator.<name>" entries.
func (a *Adagrad) StateDict() (map[string]*tensor.Tensor, error) { return exportAll(a.accumulator) }

// LoadStateDict restores the accumulators.
func (a *Adagrad) LoadStateDict(state map[string]*tensor.Tensor) error {
	return loadAll(state, a.accumulator)
}

package optim

import (
	"math"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// The timestep t is counted per variable, so variables updated a different
// number of times each get their own bias correction.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	m     *slotSet // First moment estimates
	v     *slotSet // Second moment estimates
	t     *slotSet // Timesteps, stored as scalars
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer. Zero fields take their defaults.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
		m:     newSlotSet("m"),
		v:     newSlotSet("v"),
		t:     newSlotSet("step"),
	}
}

// Apply performs one Adam update of v.
func (a *Adam) Apply(v *autodiff.Variable, grad *tensor.Tensor) error {
	if err := checkGrad(v, grad); err != nil {
		return err
	}
	m, err := a.m.get(v)
	if err != nil {
		return err
	}
	sq, err := a.v.get(v)
	if err != nil {
		return err
	}
	step, err := a.t.getShaped(v, tensor.Shape{})
	if err != nil {
		return err
	}
	step.Data()[0]++
	t := step.Item()

	biasCorrection1 := 1 - math.Pow(a.beta1, t)
	biasCorrection2 := 1 - math.Pow(a.beta2, t)

	gradData := grad.Data()
	mData := m.Data()
	vData := sq.Data()
	paramData := v.Value().Data()
	for i := range paramData {
		g := gradData[i]
		mData[i] = a.beta1*mData[i] + (1-a.beta1)*g
		vData[i] = a.beta2*vData[i] + (1-a.beta2)*g*g

		mHat := mData[i] / biasCorrection1
		vHat := vData[i] / biasCorrection2
		paramData[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
	return nil
}

// Step applies the gradient of every trainable variable.
func (a *Adam) Step(vars []*autodiff.Variable) error { return step(a, vars) }

// Reset drops moments and timesteps.
func (a *Adam) Reset() {
	a.m.reset()
	a.v.reset()
	a.t.reset()
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 { return a.lr }

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) { a.lr = lr }

// GetTimestep returns the number of updates applied to v.
func (a *Adam) GetTimestep(v *autodiff.Variable) int {
	if t, ok := a.t.values[v]; ok {
		return int(t.Item())
	}
	return 0
}

// StateDict exports "m.<name>", "v.<name>" and "step.<name>" entries.
func (a *Adam) StateDict() (map[string]*tensor.Tensor, error) {
	return exportAll(a.m, a.v, a.t)
}

// LoadStateDict restores moments and timesteps.
func (a *Adam) LoadStateDict(state map[string]*tensor.Tensor) error {
	return loadAll(state, a.m, a.v, a.t)
}

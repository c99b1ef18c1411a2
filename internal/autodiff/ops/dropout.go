package ops

import (
	"math/rand/v2"
	"sync/atomic"

	"github.com/gradflow/gradflow/internal/tensor"
)

// DropoutState drives the dropout nodes that share it. While training, the
// mask is a pure function of the seed, the current step and the operand
// shape, so the forward and backward passes of one step drop the same
// elements. Outside training dropout is the identity.
type DropoutState struct {
	seed     uint64
	step     atomic.Uint64
	training atomic.Bool
}

// NewDropoutState returns an inactive state whose masks derive from seed.
func NewDropoutState(seed uint64) *DropoutState {
	return &DropoutState{seed: seed}
}

// SetTraining switches dropout on or off.
func (s *DropoutState) SetTraining(on bool) { s.training.Store(on) }

// Training reports whether dropout is active.
func (s *DropoutState) Training() bool { return s.training.Load() }

// Advance moves to the next step, selecting a fresh mask.
func (s *DropoutState) Advance() { s.step.Add(1) }

// Step returns the current step.
func (s *DropoutState) Step() uint64 { return s.step.Load() }

// mask returns 1/(1-rate) where an element is kept and 0 where it is dropped.
func (s *DropoutState) mask(shape tensor.Shape, rate float64) *tensor.Tensor {
	scale := 1 / (1 - rate)
	draws := tensor.Uniform(shape, 0, 1, rand.NewPCG(s.seed, s.step.Load()))
	return draws.Map(func(u float64) float64 {
		if u > rate {
			return scale
		}
		return 0
	})
}

// DropoutOp zeroes each element with probability Rate while State is
// training and scales the survivors by 1/(1-Rate), so inference needs no
// rescaling.
//
// Backward pass:
//   - the gradient goes through the same mask and scale
type DropoutOp struct {
	Rate  float64
	State *DropoutState
}

// Kind returns KindDropout.
func (DropoutOp) Kind() Kind { return KindDropout }

// InferShape keeps the operand shape and validates the rate.
func (op DropoutOp) InferShape(inputs []tensor.Shape) (tensor.Shape, error) {
	if op.Rate < 0 || op.Rate >= 1 {
		return nil, incompatible(KindDropout, "rate %g outside [0, 1)", op.Rate)
	}
	if op.State == nil {
		return nil, incompatible(KindDropout, "no dropout state")
	}
	return unaryShape(KindDropout, inputs)
}

func (op DropoutOp) active() bool { return op.Rate > 0 && op.State.Training() }

// Forward applies the mask while training and copies x otherwise.
func (op DropoutOp) Forward(inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	x := inputs[0]
	if !op.active() {
		return x.Clone(), nil
	}
	return tensor.Mul(x, op.State.mask(x.Shape(), op.Rate))
}

// Backward applies the forward mask to grad.
func (op DropoutOp) Backward(inputs []*tensor.Tensor, _, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	if !grad.SameShape(inputs[0]) {
		return nil, incompatible(KindDropout, "gradient %s for operand %s", grad.Shape(), inputs[0].Shape())
	}
	if !op.active() {
		return []*tensor.Tensor{grad.Clone()}, nil
	}
	g, err := tensor.Mul(grad, op.State.mask(grad.Shape(), op.Rate))
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{g}, nil
}

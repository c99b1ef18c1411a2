package nn

import (
	"fmt"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/autodiff/ops"
)

// Dropout zeroes inputs with probability rate during training and scales the
// survivors by 1/(1-rate). During inference it forwards its input unchanged.
//
// The layer starts in inference mode; model training switches it on for each
// step through the state returned by State.
type Dropout struct {
	rate  float64
	state *ops.DropoutState
}

// NewDropout creates a dropout layer. seed selects the sequence of masks.
func NewDropout(rate float64, seed uint64) *Dropout {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("dropout: rate %g outside [0, 1)", rate))
	}
	return &Dropout{rate: rate, state: ops.NewDropoutState(seed)}
}

// Forward applies dropout.
func (d *Dropout) Forward(input *autodiff.Node) *autodiff.Node {
	return autodiff.Dropout(input, d.rate, d.state)
}

// Parameters returns nil (Dropout has no trainable parameters).
func (d *Dropout) Parameters() []*autodiff.Variable { return nil }

// State returns the mask state shared by every node this layer built.
func (d *Dropout) State() *ops.DropoutState { return d.state }

// Rate returns the drop probability.
func (d *Dropout) Rate() float64 { return d.rate }

// String returns a short description of the layer.
func (d *Dropout) String() string { return fmt.Sprintf("Dropout(rate=%g)", d.rate) }

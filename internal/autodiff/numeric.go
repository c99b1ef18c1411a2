package autodiff

import (
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gradflow/gradflow/internal/autodiff/ops"
	"github.com/gradflow/gradflow/internal/tensor"
)

// NumericPolicy selects what a session does when a pass produces NaN or Inf.
type NumericPolicy int

const (
	// NumericWarn logs a warning and records an Instability, then continues.
	NumericWarn NumericPolicy = iota
	// NumericIgnore skips the check entirely.
	NumericIgnore
	// NumericAbort records an Instability and fails the pass with
	// ErrNumericInstability.
	NumericAbort
)

// String returns the policy name.
func (p NumericPolicy) String() string {
	switch p {
	case NumericWarn:
		return "warn"
	case NumericIgnore:
		return "ignore"
	case NumericAbort:
		return "abort"
	}
	return fmt.Sprintf("NumericPolicy(%d)", int(p))
}

// ParseNumericPolicy parses "warn", "ignore" or "abort".
func ParseNumericPolicy(s string) (NumericPolicy, error) {
	for _, p := range []NumericPolicy{NumericWarn, NumericIgnore, NumericAbort} {
		if p.String() == s {
			return p, nil
		}
	}
	return NumericWarn, errors.Errorf("unknown numeric policy %q", s)
}

// Phase tells whether an instability appeared in a forward or backward pass.
type Phase int

const (
	PhaseForward Phase = iota
	PhaseBackward
)

// String returns "forward" or "backward".
func (p Phase) String() string {
	if p == PhaseBackward {
		return "backward"
	}
	return "forward"
}

// Instability describes non-finite values produced at one node.
type Instability struct {
	Node  NodeID
	Kind  ops.Kind
	Phase Phase
	NaNs  int
	Infs  int
}

// String returns a one-line description.
func (i Instability) String() string {
	return fmt.Sprintf("%s pass: node #%d (%s) produced %d NaN and %d Inf values",
		i.Phase, i.Node, i.Kind, i.NaNs, i.Infs)
}

// checkFinite applies the session policy to values produced at n.
func (s *Session) checkFinite(n *Node, phase Phase, values *tensor.Tensor) error {
	if s.policy == NumericIgnore {
		return nil
	}
	nans, infs := values.CountNonFinite()
	if nans == 0 && infs == 0 {
		return nil
	}
	inst := Instability{Node: n.id, Kind: n.kind, Phase: phase, NaNs: nans, Infs: infs}
	s.instabilities = append(s.instabilities, inst)
	if s.policy == NumericAbort {
		return errors.Wrapf(ErrNumericInstability, "graph %s: %s", s.graph, inst)
	}
	klog.Warningf("graph %s: %s", s.graph, inst)
	return nil
}

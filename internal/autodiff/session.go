package autodiff

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gradflow/gradflow/internal/autodiff/ops"
	"github.com/gradflow/gradflow/internal/tensor"
)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithNumericPolicy sets the handling of NaN and Inf values. Default: NumericWarn.
func WithNumericPolicy(p NumericPolicy) SessionOption {
	return func(s *Session) {
		s.policy = p
	}
}

// Session evaluates a graph: it holds placeholder bindings and the values and
// gradients cached by the last forward and backward passes.
//
// A Session is not safe for concurrent use.
type Session struct {
	graph    *Graph
	policy   NumericPolicy
	bindings map[NodeID]*tensor.Tensor

	values []*tensor.Tensor // forward outputs, indexed by NodeID
	grads  []*tensor.Tensor // backward gradients, indexed by NodeID

	instabilities []Instability
}

// NewSession creates a session over g.
func NewSession(g *Graph, opts ...SessionOption) *Session {
	s := &Session{
		graph:    g,
		policy:   NumericWarn,
		bindings: make(map[NodeID]*tensor.Tensor),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Graph returns the evaluated graph.
func (s *Session) Graph() *Graph { return s.graph }

// Policy returns the numeric policy.
func (s *Session) Policy() NumericPolicy { return s.policy }

// Bind binds value to placeholder p for the following passes. The value shape
// must match the declared shape, dynamic dimensions accepting any size.
func (s *Session) Bind(p *Node, value *tensor.Tensor) error {
	if !s.graph.Owns(p) {
		return errors.Wrapf(ErrDanglingReference, "bind: %v is not a node of graph %s", p, s.graph)
	}
	if p.kind != ops.KindPlaceholder {
		return errors.Errorf("bind: %s is not a placeholder", p)
	}
	if !p.shape.Matches(value.Shape()) {
		return errors.Wrapf(tensor.ErrShapeMismatch, "bind: placeholder %q declared %s, got %s",
			p.name, p.shape, value.Shape())
	}
	s.bindings[p.id] = value
	return nil
}

// Unbind removes every binding.
func (s *Session) Unbind() {
	clear(s.bindings)
}

// Run evaluates output and returns its value.
//
// Every node output depends on is evaluated exactly once, in ascending id
// order, so each node sees the final values of its operands.
func (s *Session) Run(output *Node) (*tensor.Tensor, error) {
	if err := s.graph.Err(); err != nil {
		return nil, errors.WithMessagef(err, "graph %s has a construction error", s.graph)
	}
	if !s.graph.Owns(output) {
		return nil, errors.Wrapf(ErrDanglingReference, "run: %v is not a node of graph %s", output, s.graph)
	}

	mask := s.graph.reachable(output.id)
	s.values = make([]*tensor.Tensor, s.graph.NumNodes())
	s.grads = nil
	klog.V(2).Infof("graph %s: forward pass to %s", s.graph, output)

	for id, ok := range mask {
		if !ok {
			continue
		}
		n := s.graph.nodes[id]
		value, err := s.evaluate(n)
		if err != nil {
			s.values = nil
			return nil, err
		}
		s.values[id] = value
	}
	return s.values[output.id], nil
}

func (s *Session) evaluate(n *Node) (*tensor.Tensor, error) {
	switch n.kind {
	case ops.KindPlaceholder:
		v, ok := s.bindings[n.id]
		if !ok {
			return nil, errors.Wrapf(ErrUnboundPlaceholder, "placeholder %q (node #%d)", n.name, n.id)
		}
		return v, nil
	case ops.KindVariable:
		return n.variable.Value(), nil
	case ops.KindConstant:
		return n.constant, nil
	}

	inputs := s.operandValues(n)
	out, err := n.rule.Forward(inputs)
	if err != nil {
		return nil, errors.WithMessagef(err, "forward %s", n)
	}
	if !n.shape.Matches(out.Shape()) {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "forward %s: produced shape %s", n, out.Shape())
	}
	if err := s.checkFinite(n, PhaseForward, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) operandValues(n *Node) []*tensor.Tensor {
	inputs := make([]*tensor.Tensor, len(n.operands))
	for i, op := range n.operands {
		inputs[i] = s.values[op]
	}
	return inputs
}

// Value returns the value of n computed by the last forward pass, or nil.
func (s *Session) Value(n *Node) *tensor.Tensor {
	if !s.graph.Owns(n) || int(n.id) >= len(s.values) {
		return nil
	}
	return s.values[n.id]
}

// Backward propagates gradients from output to every node it depends on.
//
// Variable gradients of the graph are reset to zero first. The output is seeded
// with ones, or with upstream when it is non-nil (its shape must equal the
// output value shape). Nodes are visited in descending id order: every consumer
// of a node has a larger id, so its gradient is complete before its own rule
// runs. Variables accumulate into Variable.Grad; placeholders and constants drop
// their gradient.
//
// Backward always starts with a forward pass, so the cached values reflect
// the current bindings and variable values (optimizers mutate the latter).
func (s *Session) Backward(output *Node, upstream *tensor.Tensor) error {
	if _, err := s.Run(output); err != nil {
		return err
	}

	for _, v := range s.graph.Variables() {
		v.ZeroGrad()
	}

	outValue := s.values[output.id]
	var seed *tensor.Tensor
	if upstream == nil {
		seed = tensor.OnesLike(outValue)
	} else {
		if !upstream.SameShape(outValue) {
			return errors.Wrapf(tensor.ErrShapeMismatch, "backward: upstream gradient %s for output %s",
				upstream.Shape(), outValue.Shape())
		}
		seed = upstream.Clone()
	}

	grads := make([]*tensor.Tensor, s.graph.NumNodes())
	grads[output.id] = seed
	klog.V(2).Infof("graph %s: backward pass from %s", s.graph, output)

	for id := output.id; id >= 0; id-- {
		grad := grads[id]
		if grad == nil {
			continue
		}
		n := s.graph.nodes[id]
		if err := s.checkFinite(n, PhaseBackward, grad); err != nil {
			return err
		}

		switch n.kind {
		case ops.KindVariable:
			if err := n.variable.Grad().AddInPlace(grad); err != nil {
				return errors.WithMessagef(err, "backward %s", n)
			}
			continue
		case ops.KindPlaceholder, ops.KindConstant:
			continue
		}

		inputGrads, err := n.rule.Backward(s.operandValues(n), s.values[id], grad)
		if err != nil {
			return errors.WithMessagef(err, "backward %s", n)
		}
		if err := s.accumulate(n, inputGrads, grads); err != nil {
			return err
		}
	}
	s.grads = grads
	return nil
}

// accumulate sums the operand gradients of n into their accumulators.
func (s *Session) accumulate(n *Node, inputGrads []*tensor.Tensor, grads []*tensor.Tensor) error {
	if len(inputGrads) != len(n.operands) {
		return errors.Errorf("backward %s: %d gradients for %d operands", n, len(inputGrads), len(n.operands))
	}
	for j, op := range n.operands {
		g := inputGrads[j]
		if !g.SameShape(s.values[op]) {
			return errors.Wrapf(tensor.ErrShapeMismatch, "backward %s: gradient %s for operand #%d of shape %s",
				n, g.Shape(), op, s.values[op].Shape())
		}
		if existing := grads[op]; existing != nil {
			if err := existing.AddInPlace(g); err != nil {
				return err
			}
			continue
		}
		grads[op] = g
	}
	return nil
}

// Grad returns the gradient of n computed by the last backward pass, or nil
// when n received none.
func (s *Session) Grad(n *Node) *tensor.Tensor {
	if !s.graph.Owns(n) || int(n.id) >= len(s.grads) {
		return nil
	}
	return s.grads[n.id]
}

// Gradients runs a forward and a backward pass from output and returns a copy
// of the gradient of each variable.
func (s *Session) Gradients(output *Node, vars ...*Variable) ([]*tensor.Tensor, error) {
	if err := s.Backward(output, nil); err != nil {
		return nil, err
	}
	out := make([]*tensor.Tensor, len(vars))
	for i, v := range vars {
		out[i] = v.Grad().Clone()
	}
	return out, nil
}

// Instabilities returns the non-finite values recorded so far.
func (s *Session) Instabilities() []Instability {
	return append([]Instability(nil), s.instabilities...)
}

// ClearInstabilities forgets the recorded instabilities.
func (s *Session) ClearInstabilities() {
	s.instabilities = s.instabilities[:0]
}

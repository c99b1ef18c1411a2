// Package model ties a graph output, a loss and an optimizer into a trainable
// model.
//
// A Model is built from the input placeholders and the output node of a graph.
// Compile adds a target placeholder and the loss subgraph; TrainStep then runs
// one forward pass, one backward pass and one optimizer update per trainable
// variable.
package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/autodiff/ops"
	"github.com/gradflow/gradflow/internal/losses"
	"github.com/gradflow/gradflow/internal/optim"
	"github.com/gradflow/gradflow/internal/tensor"
)

// ErrNotCompiled is returned by training and evaluation before Compile.
var ErrNotCompiled = errors.New("model is not compiled")

// Config holds model-wide settings.
type Config struct {
	// NumericPolicy selects how NaN and Inf values are handled during passes.
	// Default: autodiff.NumericWarn.
	NumericPolicy autodiff.NumericPolicy
}

// Model is a graph output with its inputs, and after Compile a loss and an
// optimizer. A Model is not safe for concurrent use.
type Model struct {
	graph   *autodiff.Graph
	inputs  []*autodiff.Node
	output  *autodiff.Node
	session *autodiff.Session

	target    *autodiff.Node
	loss      *autodiff.Node
	optimizer optim.Optimizer

	dropout []*ops.DropoutState // switched on only inside TrainStep
}

// New creates a model computing output from inputs with the default Config.
func New(inputs []*autodiff.Node, output *autodiff.Node) (*Model, error) {
	return NewWithConfig(inputs, output, Config{})
}

// NewWithConfig creates a model computing output from inputs.
//
// Every input must be a distinct placeholder of the output's graph, and every
// placeholder output depends on must be one of the inputs. Violations fail
// with autodiff.ErrDanglingReference. A construction error latched in the
// graph is returned as is.
func NewWithConfig(inputs []*autodiff.Node, output *autodiff.Node, cfg Config) (*Model, error) {
	if output == nil {
		for _, in := range inputs {
			if in != nil && in.Graph().Err() != nil {
				return nil, errors.WithMessage(in.Graph().Err(), "model output was not built")
			}
		}
		return nil, errors.New("model output is nil")
	}
	g := output.Graph()
	if err := g.Err(); err != nil {
		return nil, errors.WithMessagef(err, "graph %s", g)
	}

	var dropout []*ops.DropoutState
	declared := make(map[*autodiff.Node]bool, len(inputs))
	for i, in := range inputs {
		switch {
		case !g.Owns(in):
			return nil, errors.Wrapf(autodiff.ErrDanglingReference, "input %d (%v) is not a node of graph %s", i, in, g)
		case in.Kind() != ops.KindPlaceholder:
			return nil, errors.Wrapf(autodiff.ErrDanglingReference, "input %d (%s) is not a placeholder", i, in)
		case declared[in]:
			return nil, errors.Errorf("input %s declared twice", in)
		}
		declared[in] = true
	}
	for _, n := range g.Reachable(output) {
		if n.Kind() == ops.KindPlaceholder && !declared[n] {
			return nil, errors.Wrapf(autodiff.ErrDanglingReference,
				"output %s depends on placeholder %s which is not a model input", output, n)
		}
		if op, ok := n.Rule().(ops.DropoutOp); ok && !slices.Contains(dropout, op.State) {
			dropout = append(dropout, op.State)
		}
	}

	klog.V(2).Infof("model over graph %s: %d inputs, output %s", g, len(inputs), output)
	return &Model{
		graph:   g,
		inputs:  append([]*autodiff.Node(nil), inputs...),
		output:  output,
		session: autodiff.NewSession(g, autodiff.WithNumericPolicy(cfg.NumericPolicy)),
		dropout: dropout,
	}, nil
}

// Compile creates the target placeholder, shaped like the output, and the
// loss subgraph comparing output and target. Compiling again replaces the
// loss and the optimizer and keeps the target.
func (m *Model) Compile(lossFn losses.Func, optimizer optim.Optimizer) error {
	if lossFn == nil || optimizer == nil {
		return errors.New("compile: loss function and optimizer are required")
	}
	if m.target == nil {
		target := m.graph.Placeholder(m.uniqueName("target"), m.output.Shape())
		if err := m.graph.Err(); err != nil {
			return errors.WithMessage(err, "compile")
		}
		m.target = target
	}

	loss := lossFn(m.output, m.target)
	if err := m.graph.Err(); err != nil {
		return errors.WithMessage(err, "compile: building the loss")
	}
	if loss.Shape().Rank() != 0 {
		return errors.Wrapf(autodiff.ErrIncompatibleShape, "compile: loss must be a scalar, got shape %s", loss.Shape())
	}
	m.loss = loss
	m.optimizer = optimizer
	klog.V(2).Infof("model compiled: loss %s, lr %g", loss, optimizer.GetLR())
	return nil
}

// uniqueName returns base, or base with a numeric suffix if a placeholder
// already uses it.
func (m *Model) uniqueName(base string) string {
	name := base
	for i := 1; m.graph.PlaceholderNamed(name) != nil; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return name
}

// bind binds one tensor per input.
func (m *Model) bind(inputs []*tensor.Tensor) error {
	if len(inputs) != len(m.inputs) {
		return errors.Errorf("model has %d inputs, got %d tensors", len(m.inputs), len(inputs))
	}
	for i, in := range m.inputs {
		if err := m.session.Bind(in, inputs[i]); err != nil {
			return errors.WithMessagef(err, "input %d", i)
		}
	}
	return nil
}

func (m *Model) bindTarget(inputs []*tensor.Tensor, target *tensor.Tensor) error {
	if m.loss == nil {
		return ErrNotCompiled
	}
	if err := m.bind(inputs); err != nil {
		return err
	}
	if err := m.session.Bind(m.target, target); err != nil {
		return errors.WithMessage(err, "target")
	}
	return nil
}

// TrainStep binds inputs and target, runs the forward and backward passes and
// applies the optimizer once per trainable variable. It returns the loss
// computed before the update. Dropout layers draw a fresh mask for the step
// and are inactive again once it returns.
func (m *Model) TrainStep(inputs []*tensor.Tensor, target *tensor.Tensor) (float64, error) {
	if err := m.bindTarget(inputs, target); err != nil {
		return 0, err
	}
	for _, d := range m.dropout {
		d.Advance()
		d.SetTraining(true)
	}
	defer func() {
		for _, d := range m.dropout {
			d.SetTraining(false)
		}
	}()
	if err := m.session.Backward(m.loss, nil); err != nil {
		return 0, errors.WithMessage(err, "train step")
	}
	loss := m.session.Value(m.loss).Item()
	if err := m.optimizer.Step(m.Variables()); err != nil {
		return 0, errors.WithMessage(err, "train step: optimizer")
	}
	return loss, nil
}

// Predict runs a forward pass only and returns a copy of the output.
func (m *Model) Predict(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	if err := m.bind(inputs); err != nil {
		return nil, err
	}
	out, err := m.session.Run(m.output)
	if err != nil {
		return nil, errors.WithMessage(err, "predict")
	}
	return out.Clone(), nil
}

// Evaluate returns the loss of inputs against target without updating variables.
func (m *Model) Evaluate(inputs []*tensor.Tensor, target *tensor.Tensor) (float64, error) {
	if err := m.bindTarget(inputs, target); err != nil {
		return 0, err
	}
	loss, err := m.session.Run(m.loss)
	if err != nil {
		return 0, errors.WithMessage(err, "evaluate")
	}
	return loss.Item(), nil
}

// Graph returns the model graph.
func (m *Model) Graph() *autodiff.Graph { return m.graph }

// Session returns the session evaluating the model, e.g. to inspect
// instabilities.
func (m *Model) Session() *autodiff.Session { return m.session }

// Inputs returns the input placeholders.
func (m *Model) Inputs() []*autodiff.Node { return append([]*autodiff.Node(nil), m.inputs...) }

// Output returns the output node.
func (m *Model) Output() *autodiff.Node { return m.output }

// Loss returns the loss node, nil before Compile.
func (m *Model) Loss() *autodiff.Node { return m.loss }

// Target returns the target placeholder, nil before Compile.
func (m *Model) Target() *autodiff.Node { return m.target }

// Optimizer returns the optimizer, nil before Compile.
func (m *Model) Optimizer() optim.Optimizer { return m.optimizer }

// Variables returns the trainable variables the output depends on, in node order.
func (m *Model) Variables() []*autodiff.Variable {
	var vars []*autodiff.Variable
	for _, n := range m.graph.Reachable(m.output) {
		if v := n.Variable(); v != nil && v.Trainable() {
			vars = append(vars, v)
		}
	}
	return vars
}

// NumParameters returns the number of trainable scalars.
func (m *Model) NumParameters() int {
	total := 0
	for _, v := range m.Variables() {
		total += v.Shape().NumElements()
	}
	return total
}

// Summary renders one line per node of the output subgraph followed by the
// parameter count.
func (m *Model) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Model over graph %s\n", m.graph)
	for _, n := range m.graph.Reachable(m.output) {
		params := ""
		if v := n.Variable(); v != nil {
			params = humanize.Comma(int64(v.Shape().NumElements()))
			if !v.Trainable() {
				params += " (frozen)"
			}
		}
		fmt.Fprintf(&sb, "  %-48s %s\n", n, params)
	}
	fmt.Fprintf(&sb, "Trainable parameters: %s\n", humanize.Comma(int64(m.NumParameters())))
	return sb.String()
}

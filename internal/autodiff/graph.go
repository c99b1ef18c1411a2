// Package autodiff implements the expression graph and reverse-mode automatic
// differentiation of gradflow.
//
// Architecture:
//   - Graph: an arena of nodes addressed by NodeID. Operands are always built
//     before their consumers, so ascending ids are a topological order and the
//     graph is acyclic by construction.
//   - Rules: each operator node carries an ops.Rule with its shape inference,
//     forward and backward computations.
//   - Session: binds placeholders, runs forward passes (each reachable node
//     evaluated exactly once, in ascending id order) and backward passes
//     (descending id order, gradients summed over all consumers).
//   - Variable: trainable tensors referenced by the graph and updated in place
//     by optimizers.
//
// Usage:
//
//	g := autodiff.NewGraph("linear")
//	x := g.Placeholder("x", tensor.Shape{tensor.Dynamic, 1})
//	w := g.Var("w", tensor.Full(tensor.Shape{1, 1}, 2))
//	y := autodiff.Matrix(x, w)
//	if err := g.Err(); err != nil { ... }
//
//	s := autodiff.NewSession(g)
//	_ = s.Bind(x, input)
//	out, err := s.Run(y)
//	err = s.Backward(y, nil)
//	fmt.Println(w.Variable().Grad())
package autodiff

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gradflow/gradflow/internal/autodiff/ops"
	"github.com/gradflow/gradflow/internal/tensor"
)

// Graph owns the nodes of one expression graph.
//
// Node construction validates operands eagerly. The primitives NewUnary and
// NewBinary return errors; the named builders (Plus, Matrix, Mean, ...) latch the
// first error in the graph instead, see Err.
//
// A Graph is not safe for concurrent use.
type Graph struct {
	id        uuid.UUID
	name      string
	nodes     []*Node
	variables map[*Variable]*Node
	err       error
}

// NewGraph creates an empty graph.
func NewGraph(name string) *Graph {
	return &Graph{
		id:        uuid.New(),
		name:      name,
		nodes:     make([]*Node, 0, 64),
		variables: make(map[*Variable]*Node),
	}
}

// ID returns the unique id of the graph, used in logs and error messages.
func (g *Graph) ID() uuid.UUID { return g.id }

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// String returns the graph name and a short form of its id.
func (g *Graph) String() string {
	return g.name + "[" + g.id.String()[:8] + "]"
}

// Err returns the first error latched by a named builder, or nil.
func (g *Graph) Err() error { return g.err }

// SetErr latches err unless an earlier error is already held.
func (g *Graph) SetErr(err error) {
	if err == nil || g.err != nil {
		return
	}
	klog.V(2).Infof("graph %s: %v", g, err)
	g.err = err
}

// NumNodes returns the number of nodes in the arena.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Node returns the node with the given id, or nil when out of range.
func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Nodes returns every node in id (topological) order.
func (g *Graph) Nodes() []*Node {
	return append([]*Node(nil), g.nodes...)
}

// Variables returns the variables used by the graph in node order.
func (g *Graph) Variables() []*Variable {
	var vars []*Variable
	for _, n := range g.nodes {
		if n.kind == ops.KindVariable {
			vars = append(vars, n.variable)
		}
	}
	return vars
}

// Owns reports whether n is a node of this graph.
func (g *Graph) Owns(n *Node) bool {
	return n != nil && n.graph == g && int(n.id) < len(g.nodes) && g.nodes[n.id] == n
}

// Placeholder declares an input bound to a fresh tensor on every forward pass.
// Dimensions may be tensor.Dynamic, typically the batch size.
func (g *Graph) Placeholder(name string, shape tensor.Shape) *Node {
	for i, d := range shape {
		if d <= 0 && d != tensor.Dynamic {
			g.SetErr(errors.Wrapf(ErrIncompatibleShape, "placeholder %q: invalid dimension %d at index %d", name, d, i))
			return nil
		}
	}
	if g.PlaceholderNamed(name) != nil {
		g.SetErr(errors.Errorf("placeholder %q declared twice", name))
		return nil
	}
	return g.push(&Node{kind: ops.KindPlaceholder, name: name, shape: shape.Clone()})
}

// PlaceholderNamed returns the placeholder declared as name, or nil.
func (g *Graph) PlaceholderNamed(name string) *Node {
	for _, n := range g.nodes {
		if n.kind == ops.KindPlaceholder && n.name == name {
			return n
		}
	}
	return nil
}

// Constant adds an immutable tensor to the graph. Constants receive no gradient.
func (g *Graph) Constant(value *tensor.Tensor) *Node {
	return g.push(&Node{kind: ops.KindConstant, constant: value.Clone(), shape: value.Shape().Clone()})
}

// Scalar adds a rank-0 constant.
func (g *Graph) Scalar(value float64) *Node {
	return g.Constant(tensor.Scalar(value))
}

// Variable returns the node referencing v, adding it on first use. A variable
// has a single node per graph but may be shared by several graphs.
func (g *Graph) Variable(v *Variable) *Node {
	if n, ok := g.variables[v]; ok {
		return n
	}
	n := g.push(&Node{kind: ops.KindVariable, variable: v, shape: v.Shape().Clone()})
	g.variables[v] = n
	return n
}

// Var creates a trainable variable named name holding value and returns its node.
func (g *Graph) Var(name string, value *tensor.Tensor) *Node {
	return g.Variable(NewVariable(name, value))
}

// NewUnary adds an operator node over a single operand.
// It fails with ErrDanglingReference when x belongs to another graph and with
// ErrIncompatibleShape when the rule rejects the operand shape.
func (g *Graph) NewUnary(rule ops.Rule, x *Node) (*Node, error) {
	return g.newOp(rule, x)
}

// NewBinary adds an operator node over two operands.
// It fails with ErrDanglingReference when an operand belongs to another graph
// and with ErrIncompatibleShape when the rule rejects the operand shapes.
func (g *Graph) NewBinary(rule ops.Rule, a, b *Node) (*Node, error) {
	return g.newOp(rule, a, b)
}

func (g *Graph) newOp(rule ops.Rule, operands ...*Node) (*Node, error) {
	shapes := make([]tensor.Shape, len(operands))
	ids := make([]NodeID, len(operands))
	for i, op := range operands {
		if op == nil {
			return nil, errors.Errorf("%s: operand %d is nil", rule.Kind(), i)
		}
		if !g.Owns(op) {
			return nil, errors.Wrapf(ErrDanglingReference, "%s: operand %s is not a node of graph %s",
				rule.Kind(), op, g)
		}
		shapes[i] = op.shape
		ids[i] = op.id
	}
	shape, err := rule.InferShape(shapes)
	if err != nil {
		return nil, err
	}
	return g.push(&Node{kind: rule.Kind(), rule: rule, operands: ids, shape: shape}), nil
}

func (g *Graph) push(n *Node) *Node {
	n.graph = g
	n.id = NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	klog.V(3).Infof("graph %s: added %s", g, n)
	return n
}

// Reachable returns the nodes output depends on, itself included, in
// ascending id order.
func (g *Graph) Reachable(output *Node) []*Node {
	if !g.Owns(output) {
		return nil
	}
	mask := g.reachable(output.id)
	var nodes []*Node
	for id, ok := range mask {
		if ok {
			nodes = append(nodes, g.nodes[id])
		}
	}
	return nodes
}

// reachable marks the nodes root depends on. Operand ids are smaller than
// consumer ids, so a single descending sweep suffices.
func (g *Graph) reachable(root NodeID) []bool {
	mask := make([]bool, root+1)
	mask[root] = true
	for id := root; id >= 0; id-- {
		if !mask[id] {
			continue
		}
		for _, op := range g.nodes[id].operands {
			mask[op] = true
		}
	}
	return mask
}

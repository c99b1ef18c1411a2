package autodiff

import (
	"fmt"
	"strings"

	"github.com/gradflow/gradflow/internal/autodiff/ops"
	"github.com/gradflow/gradflow/internal/tensor"
)

// NodeID identifies a node inside its graph. It is the node's index in the
// graph arena: operands always have smaller ids than their consumers.
type NodeID int

// Node is an element of an expression graph: a placeholder, a variable, a
// constant or an operator over one or two operand nodes.
type Node struct {
	graph    *Graph
	id       NodeID
	kind     ops.Kind
	rule     ops.Rule // nil for leaves
	operands []NodeID
	shape    tensor.Shape

	name     string         // placeholders
	variable *Variable      // variables
	constant *tensor.Tensor // constants
}

// ID returns the node id.
func (n *Node) ID() NodeID { return n.id }

// Graph returns the graph owning the node.
func (n *Node) Graph() *Graph { return n.graph }

// Kind returns the node kind.
func (n *Node) Kind() ops.Kind { return n.kind }

// Rule returns the operator rule, or nil for leaves.
func (n *Node) Rule() ops.Rule { return n.rule }

// Shape returns the static shape. Placeholders declared with a dynamic
// dimension propagate it to their consumers.
func (n *Node) Shape() tensor.Shape { return n.shape }

// Operands returns the ids of the operand nodes.
func (n *Node) Operands() []NodeID { return n.operands }

// Name returns the placeholder or variable name, empty for other nodes.
func (n *Node) Name() string {
	if n.variable != nil {
		return n.variable.Name()
	}
	return n.name
}

// Variable returns the variable behind a variable node, nil otherwise.
func (n *Node) Variable() *Variable { return n.variable }

// String returns a description such as "#3 MatMul(#1, #2) (?, 1)".
func (n *Node) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s", n.id, n.kind)
	if n.kind.IsLeaf() {
		if name := n.Name(); name != "" {
			fmt.Fprintf(&sb, " %q", name)
		}
	} else {
		sb.WriteString("(")
		for i, op := range n.operands {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "#%d", op)
		}
		sb.WriteString(")")
	}
	sb.WriteString(" ")
	sb.WriteString(n.shape.String())
	return sb.String()
}

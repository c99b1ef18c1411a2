package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W + b
// where:
//   - x is the input node with shape [batch_size, in_features]
//   - W is the weight matrix with shape [in_features, out_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output node with shape [batch_size, out_features]
//
// Weights are initialized using Glorot uniform initialization.
// Biases are initialized to zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *autodiff.Variable // [in_features, out_features]
	bias        *autodiff.Variable // [out_features]
}

// NewLinear creates a new Linear layer. Its variables are named
// "<name>.weight" and "<name>.bias".
func NewLinear(name string, inFeatures, outFeatures int, src rand.Source) *Linear {
	weight := GlorotUniform(inFeatures, outFeatures, tensor.Shape{inFeatures, outFeatures}, src)
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      autodiff.NewVariable(name+".weight", weight),
		bias:        autodiff.NewVariable(name+".bias", Zeros(tensor.Shape{outFeatures})),
	}
}

// NewLinearFrom creates a Linear layer around existing variables.
func NewLinearFrom(weight, bias *autodiff.Variable) (*Linear, error) {
	ws := weight.Shape()
	if ws.Rank() != 2 || bias.Shape().Rank() != 1 || bias.Shape()[0] != ws[1] {
		return nil, errors.Wrapf(autodiff.ErrIncompatibleShape, "linear: weight %s and bias %s", ws, bias.Shape())
	}
	return &Linear{inFeatures: ws[0], outFeatures: ws[1], weight: weight, bias: bias}, nil
}

// Forward computes x @ W + b.
func (l *Linear) Forward(input *autodiff.Node) *autodiff.Node {
	if input == nil {
		return nil
	}
	g := input.Graph()
	return autodiff.Plus(autodiff.Matrix(input, g.Variable(l.weight)), g.Variable(l.bias))
}

// Parameters returns the weight and bias.
func (l *Linear) Parameters() []*autodiff.Variable {
	return []*autodiff.Variable{l.weight, l.bias}
}

// Weight returns the weight variable.
func (l *Linear) Weight() *autodiff.Variable { return l.weight }

// Bias returns the bias variable.
func (l *Linear) Bias() *autodiff.Variable { return l.bias }

// InFeatures returns the input feature count.
func (l *Linear) InFeatures() int { return l.inFeatures }

// OutFeatures returns the output feature count.
func (l *Linear) OutFeatures() int { return l.outFeatures }

// String returns a short description of the layer.
func (l *Linear) String() string {
	return fmt.Sprintf("Linear(in=%d, out=%d)", l.inFeatures, l.outFeatures)
}

// Package losses builds loss and metric subgraphs from autodiff builders.
//
// Every function takes a prediction and a target node of the same graph and
// returns a scalar node. Errors are latched in the graph like any builder.
package losses

import (
	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/tensor"
)

// Epsilon bounds probabilities away from 0 and 1 in BinaryCrossEntropy.
const Epsilon = 1e-7

// Func builds a loss comparing pred with target.
type Func func(pred, target *autodiff.Node) *autodiff.Node

// MeanSquaredError returns mean((pred - target)²).
func MeanSquaredError(pred, target *autodiff.Node) *autodiff.Node {
	if !checkPair("MeanSquaredError", pred, target) {
		return nil
	}
	return autodiff.Mean(autodiff.Square(autodiff.Minus(pred, target)))
}

// MeanAbsoluteError returns mean(|pred - target|).
func MeanAbsoluteError(pred, target *autodiff.Node) *autodiff.Node {
	if !checkPair("MeanAbsoluteError", pred, target) {
		return nil
	}
	return autodiff.Mean(autodiff.Abs(autodiff.Minus(pred, target)))
}

// MeanSquaredLogarithmicError returns mean((log(1+pred) - log(1+target))²).
// Values at or below -1 produce NaN, reported through the session numeric policy.
func MeanSquaredLogarithmicError(pred, target *autodiff.Node) *autodiff.Node {
	if !checkPair("MeanSquaredLogarithmicError", pred, target) {
		return nil
	}
	g := pred.Graph()
	one := g.Scalar(1)
	logPred := autodiff.Log(autodiff.Plus(pred, one))
	logTarget := autodiff.Log(autodiff.Plus(target, one))
	return autodiff.Mean(autodiff.Square(autodiff.Minus(logPred, logTarget)))
}

// SquaredLoss returns sum((pred - target)²).
func SquaredLoss(pred, target *autodiff.Node) *autodiff.Node {
	if !checkPair("SquaredLoss", pred, target) {
		return nil
	}
	return autodiff.Sum(autodiff.Square(autodiff.Minus(pred, target)))
}

// BinaryCrossEntropy returns -mean(t·log(p) + (1-t)·log(1-p)) with p clipped
// to [Epsilon, 1-Epsilon]. pred holds probabilities, not logits.
func BinaryCrossEntropy(pred, target *autodiff.Node) *autodiff.Node {
	if !checkPair("BinaryCrossEntropy", pred, target) {
		return nil
	}
	g := pred.Graph()
	one := g.Scalar(1)
	p := autodiff.Clip(pred, Epsilon, 1-Epsilon)
	pos := autodiff.Multiply(target, autodiff.Log(p))
	neg := autodiff.Multiply(autodiff.Minus(one, target), autodiff.Log(autodiff.Minus(one, p)))
	return autodiff.Negative(autodiff.Mean(autodiff.Plus(pos, neg)))
}

// Aliases.
var (
	MSE  Func = MeanSquaredError
	MAE  Func = MeanAbsoluteError
	MSLE Func = MeanSquaredLogarithmicError
)

// checkPair reports whether pred and target have equal shapes, dynamic
// dimensions matching anything. On failure the error is latched in the graph.
func checkPair(name string, pred, target *autodiff.Node) bool {
	if pred == nil || target == nil {
		return false
	}
	g := pred.Graph()
	if target.Graph() != g {
		g.SetErr(errors.Wrapf(autodiff.ErrDanglingReference, "%s: target %s belongs to graph %s, prediction to %s",
			name, target, target.Graph(), g))
		return false
	}
	if !compatible(pred.Shape(), target.Shape()) {
		g.SetErr(errors.Wrapf(autodiff.ErrIncompatibleShape, "%s: prediction %s vs target %s",
			name, pred.Shape(), target.Shape()))
		return false
	}
	return true
}

func compatible(a, b tensor.Shape) bool {
	if a.Rank() != b.Rank() {
		return false
	}
	for i := range a {
		if a[i] != b[i] && a[i] != tensor.Dynamic && b[i] != tensor.Dynamic {
			return false
		}
	}
	return true
}

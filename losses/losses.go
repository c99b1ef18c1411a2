// Copyright 2025 The gradflow Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package losses provides loss functions built as autodiff subgraphs.
//
// Each loss compares a prediction node with a target node of the same shape
// and returns a scalar node:
//
//	loss := losses.MSE(pred, target)
package losses

import (
	"github.com/gradflow/gradflow/internal/losses"
)

// Func builds a loss comparing a prediction with a target.
type Func = losses.Func

// Epsilon bounds probabilities in BinaryCrossEntropy.
const Epsilon = losses.Epsilon

// Loss functions.
var (
	MeanSquaredError            = losses.MeanSquaredError
	MeanAbsoluteError           = losses.MeanAbsoluteError
	MeanSquaredLogarithmicError = losses.MeanSquaredLogarithmicError
	SquaredLoss                 = losses.SquaredLoss
	BinaryCrossEntropy          = losses.BinaryCrossEntropy

	MSE  = losses.MSE
	MAE  = losses.MAE
	MSLE = losses.MSLE
)

// ByName returns the loss registered under name, e.g. "mse".
func ByName(name string) (Func, error) { return losses.ByName(name) }

// Names returns the registered loss names.
func Names() []string { return losses.Names() }

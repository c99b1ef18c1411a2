// Copyright 2025 The gradflow Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training models.
//
// # Overview
//
// This package contains:
//   - GradientDescent: plain gradient descent
//   - SGD: Stochastic Gradient Descent with momentum and Nesterov look-ahead
//   - Adam: Adaptive Moment Estimation with bias correction
//   - RMSProp and Adagrad
//   - Optimizer interface for custom optimizers
//
// # Training Loop Pattern
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.01, Momentum: 0.9})
//
//	for epoch := range numEpochs {
//	    // 1. Forward and backward pass
//	    if err := session.Backward(loss, nil); err != nil {
//	        return err
//	    }
//
//	    // 2. Update parameters
//	    if err := opt.Step(graph.Variables()); err != nil {
//	        return err
//	    }
//	}
//
// model.Model.TrainStep runs this loop body for a compiled model.
package optim

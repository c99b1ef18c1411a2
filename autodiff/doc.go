// Copyright 2025 The gradflow Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides expression graphs with reverse-mode automatic
// differentiation.
//
// A Graph is an arena of nodes: placeholders (inputs bound per pass),
// variables (trainable tensors), constants and operator nodes. Every node is
// created after its operands, so ids give a topological order. A Session binds
// placeholders, evaluates a node (Run) and propagates gradients back to the
// variables (Backward).
//
// Example:
//
//	g := autodiff.NewGraph("linear")
//	x := g.Placeholder("x", tensor.Shape{tensor.Dynamic, 1})
//	w := g.Var("W", tensor.Full(tensor.Shape{1, 1}, 2))
//	y := autodiff.Matrix(x, w)
//	if err := g.Err(); err != nil {
//	    return err
//	}
//
//	s := autodiff.NewSession(g)
//	_ = s.Bind(x, tensor.Ones(tensor.Shape{1, 1}))
//	out, err := s.Run(y)          // 2
//	err = s.Backward(y, nil)      // w.Variable().Grad() == 1
//
// Builders such as Plus or Matrix latch the first construction error in the
// graph and return nil; check Graph.Err once the graph is built.
package autodiff

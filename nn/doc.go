// Copyright 2025 The gradflow Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers built on autodiff graphs.
//
// # Overview
//
//   - Linear: fully connected layer (x @ W + b)
//   - ReLU, LeakyReLU, ELU, Sigmoid, Tanh and Softmax activations
//   - Conv2D, MaxPool2D, AvgPool2D, UpSampling2D and Flatten for NHWC images
//   - Dropout, active only while a model trains
//   - Concatenate for joining two branches
//   - Sequential: container chaining modules
//   - Initializers: GlorotUniform, HeNormal, Normal, Zeros
//
// # Basic Usage
//
//	src := tensor.NewSource(42)
//	mlp := nn.NewSequential(
//	    nn.NewLinear("hidden", 2, 8, src),
//	    nn.NewTanh(),
//	    nn.NewLinear("out", 8, 1, src),
//	    nn.NewSigmoid(),
//	)
//
//	g := autodiff.NewGraph("xor")
//	x := g.Placeholder("x", tensor.Shape{tensor.Dynamic, 2})
//	y := mlp.Forward(x)
package nn

// Copyright 2025 The gradflow Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides dense float64 tensors for the gradflow library.
//
// # Overview
//
// Tensors are the fundamental data structure of gradflow. This package provides:
//   - Row-major tensors with an explicit Shape
//   - NumPy-style broadcasting for element-wise arithmetic
//   - Zero-copy views over contiguous rows (View, Rows)
//   - Reductions, matrix multiplication and 2-D pooling kernels
//
// # Basic Usage
//
//	x := tensor.Zeros(tensor.Shape{2, 3})
//	y := tensor.Ones(tensor.Shape{2, 3})
//	z, err := tensor.Add(x, y)
//
// # Broadcasting
//
// Element-wise operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros(tensor.Shape{3, 1})     // (3, 1)
//	b := tensor.Ones(tensor.Shape{3, 4})      // (3, 4)
//	c, _ := tensor.Add(a, b)                  // (3, 4)
//
// Incompatible shapes fail with ErrShapeMismatch.
//
// # Dynamic dimensions
//
// Shapes declared on graph placeholders may contain Dynamic (-1), typically
// for the batch dimension. Concrete tensors never do.
//
// # Randomness
//
// Uniform and Normal draw from a math/rand/v2 source; NewSource(seed) gives
// reproducible values.
package tensor

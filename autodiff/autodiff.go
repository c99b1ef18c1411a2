// Copyright 2025 The gradflow Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff

import (
	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/autodiff/ops"
)

// Core types.
type (
	// Graph is an expression graph.
	Graph = autodiff.Graph
	// Node is a graph node.
	Node = autodiff.Node
	// NodeID identifies a node within its graph.
	NodeID = autodiff.NodeID
	// Variable is a trainable tensor with its gradient accumulator.
	Variable = autodiff.Variable
	// Session evaluates a graph.
	Session = autodiff.Session
	// SessionOption configures a Session.
	SessionOption = autodiff.SessionOption
	// NumericPolicy selects how NaN and Inf values are handled.
	NumericPolicy = autodiff.NumericPolicy
	// Instability records non-finite values produced by a node.
	Instability = autodiff.Instability
	// Rule is the interface implemented by operators.
	Rule = ops.Rule
	// Kind identifies an operator.
	Kind = ops.Kind
	// DropoutState switches dropout nodes between training and inference.
	DropoutState = ops.DropoutState
)

// Numeric policies.
const (
	NumericWarn   = autodiff.NumericWarn
	NumericIgnore = autodiff.NumericIgnore
	NumericAbort  = autodiff.NumericAbort
)

// Errors.
var (
	ErrIncompatibleShape  = autodiff.ErrIncompatibleShape
	ErrDanglingReference  = autodiff.ErrDanglingReference
	ErrNumericInstability = autodiff.ErrNumericInstability
	ErrUnboundPlaceholder = autodiff.ErrUnboundPlaceholder
)

// Graphs and sessions.
var (
	NewGraph           = autodiff.NewGraph
	NewVariable        = autodiff.NewVariable
	NewSession         = autodiff.NewSession
	WithNumericPolicy  = autodiff.WithNumericPolicy
	ParseNumericPolicy = autodiff.ParseNumericPolicy
	NewDropoutState    = ops.NewDropoutState
)

// Binary builders.
var (
	Plus        = autodiff.Plus
	Minus       = autodiff.Minus
	Multiply    = autodiff.Multiply
	Divide      = autodiff.Divide
	Maximum     = autodiff.Maximum
	Minimum     = autodiff.Minimum
	Matrix      = autodiff.Matrix
	Concatenate = autodiff.Concatenate
	Conv2D      = autodiff.Conv2D
)

// Unary builders.
var (
	Negative  = autodiff.Negative
	Square    = autodiff.Square
	Abs       = autodiff.Abs
	Log       = autodiff.Log
	Exp       = autodiff.Exp
	Sqrt      = autodiff.Sqrt
	ReLU      = autodiff.ReLU
	LeakyReLU = autodiff.LeakyReLU
	ELU       = autodiff.ELU
	Sigmoid   = autodiff.Sigmoid
	Tanh      = autodiff.Tanh
	Softmax   = autodiff.Softmax
	Dropout   = autodiff.Dropout
	Clip      = autodiff.Clip
	Scale     = autodiff.Scale
	Identity  = autodiff.Identity
)

// Layout, reduction and pooling builders.
var (
	Transpose        = autodiff.Transpose
	Reshape          = autodiff.Reshape
	Flatten          = autodiff.Flatten
	Sum              = autodiff.Sum
	SumAxis          = autodiff.SumAxis
	Mean             = autodiff.Mean
	MeanAxis         = autodiff.MeanAxis
	Max              = autodiff.Max
	MaxAxis          = autodiff.MaxAxis
	Min              = autodiff.Min
	MinAxis          = autodiff.MinAxis
	MaxPooling2D     = autodiff.MaxPooling2D
	AveragePooling2D = autodiff.AveragePooling2D
	UpSampling2D     = autodiff.UpSampling2D
)

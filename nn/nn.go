// Copyright 2025 The gradflow Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/gradflow/gradflow/internal/nn"
	"github.com/gradflow/gradflow/internal/tensor"
)

// Module is the base interface for all neural network components.
type Module = nn.Module

// Layer types.
type (
	Linear       = nn.Linear
	Conv2D       = nn.Conv2D
	ReLU         = nn.ReLU
	LeakyReLU    = nn.LeakyReLU
	ELU          = nn.ELU
	Sigmoid      = nn.Sigmoid
	Tanh         = nn.Tanh
	Softmax      = nn.Softmax
	Dropout      = nn.Dropout
	MaxPool2D    = nn.MaxPool2D
	AvgPool2D    = nn.AvgPool2D
	UpSampling2D = nn.UpSampling2D
	Flatten      = nn.Flatten
	Concatenate  = nn.Concatenate
	Sequential   = nn.Sequential
)

// NewLinear creates a fully connected layer with Glorot-initialized weights.
func NewLinear(name string, inFeatures, outFeatures int, src rand.Source) *Linear {
	return nn.NewLinear(name, inFeatures, outFeatures, src)
}

// NewConv2D creates an NHWC convolution layer with Glorot-initialized filters.
func NewConv2D(name string, inChannels, outChannels, kernelH, kernelW int, cfg tensor.ConvConfig, src rand.Source) *Conv2D {
	return nn.NewConv2D(name, inChannels, outChannels, kernelH, kernelW, cfg, src)
}

// Constructors.
var (
	NewLinearFrom   = nn.NewLinearFrom
	NewReLU         = nn.NewReLU
	NewLeakyReLU    = nn.NewLeakyReLU
	NewELU          = nn.NewELU
	NewSigmoid      = nn.NewSigmoid
	NewTanh         = nn.NewTanh
	NewSoftmax      = nn.NewSoftmax
	NewDropout      = nn.NewDropout
	NewMaxPool2D    = nn.NewMaxPool2D
	NewAvgPool2D    = nn.NewAvgPool2D
	NewUpSampling2D = nn.NewUpSampling2D
	NewFlatten      = nn.NewFlatten
	NewConcatenate  = nn.NewConcatenate
	NewSequential   = nn.NewSequential
	Activation      = nn.Activation
	HeNormal        = nn.HeNormal
	Normal          = nn.Normal
	GlorotUniform   = nn.GlorotUniform
)

// Zeros creates a zero-filled tensor, used for biases.
func Zeros(shape tensor.Shape) *tensor.Tensor { return nn.Zeros(shape) }

// Copyright 2025 The gradflow Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model trains expression graphs.
//
// Example:
//
//	m, err := model.New([]*autodiff.Node{x}, y)
//	if err != nil {
//	    return err
//	}
//	if err := m.Compile(losses.MSE, optim.NewGradientDescent(0.1)); err != nil {
//	    return err
//	}
//	loss, err := m.TrainStep([]*tensor.Tensor{input}, target)
//
// Trained variables and optimizer state are saved with m.Save and restored
// into an identically built model with m.Load.
package model

import (
	"github.com/gradflow/gradflow/internal/model"
	"github.com/gradflow/gradflow/internal/serialization"
)

// Model ties a graph output, a loss and an optimizer together.
type Model = model.Model

// Config holds model-wide settings.
type Config = model.Config

// FitConfig controls mini-batch training.
type FitConfig = model.FitConfig

// ErrNotCompiled is returned by training before Compile.
var ErrNotCompiled = model.ErrNotCompiled

// Constructors.
var (
	New           = model.New
	NewWithConfig = model.NewWithConfig
)

// Checkpoint is the in-memory form of a saved model.
type Checkpoint = serialization.Checkpoint

// ReadCheckpoint reads a checkpoint file written by Model.Save.
func ReadCheckpoint(path string) (*Checkpoint, error) { return serialization.ReadFile(path) }

// WriteCheckpoint writes cp to path.
func WriteCheckpoint(path string, cp *Checkpoint) error { return serialization.WriteFile(path, cp) }

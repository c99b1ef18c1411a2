package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/autodiff"
	"github.com/gradflow/gradflow/losses"
	"github.com/gradflow/gradflow/model"
	"github.com/gradflow/gradflow/nn"
	"github.com/gradflow/gradflow/optim"
	"github.com/gradflow/gradflow/tensor"
)

var (
	xorInputs  = []float64{0, 0, 0, 1, 1, 0, 1, 1}
	xorTargets = []float64{0, 1, 1, 0}
)

func runXOR(args []string) error {
	fs := flag.NewFlagSet("xor", flag.ExitOnError)
	hidden := fs.Int("hidden", 8, "Hidden units")
	activation := fs.String("activation", "tanh", "Hidden activation: relu, sigmoid, tanh or linear")
	lossName := fs.String("loss", "binary_cross_entropy", fmt.Sprintf("Loss, one of %q", losses.Names()))
	optName := fs.String("optimizer", "adam", fmt.Sprintf("Optimizer, one of %q", optim.Names()))
	lr := fs.Float64("lr", 0.05, "Learning rate")
	epochs := fs.Int("epochs", 500, "Training epochs")
	seed := fs.Uint64("seed", 42, "Random seed for weight initialization")
	policy := fs.String("numeric", "warn", "Handling of NaN/Inf values: warn, ignore or abort")
	quiet := fs.Bool("quiet", false, "Disable the progress bar")
	save := fs.String("save", "", "Write a checkpoint of the trained network to this path")
	must.M(fs.Parse(args))

	lossFn, err := losses.ByName(*lossName)
	if err != nil {
		return err
	}
	opt, err := optim.ByName(*optName, *lr)
	if err != nil {
		return err
	}
	numeric, err := autodiff.ParseNumericPolicy(*policy)
	if err != nil {
		return err
	}
	act, err := nn.Activation(*activation)
	if err != nil {
		return err
	}

	src := tensor.NewSource(*seed)
	mlp := nn.NewSequential(
		nn.NewLinear("hidden", 2, *hidden, src),
		act,
		nn.NewLinear("out", *hidden, 1, src),
		nn.NewSigmoid(),
	)
	g := autodiff.NewGraph("xor")
	x := g.Placeholder("x", tensor.Shape{tensor.Dynamic, 2})
	m, err := model.NewWithConfig([]*autodiff.Node{x}, mlp.Forward(x), model.Config{NumericPolicy: numeric})
	if err != nil {
		return errors.WithMessage(err, "building the network")
	}
	if err := m.Compile(lossFn, opt); err != nil {
		return err
	}
	fmt.Printf("XOR network: %s trainable parameters\n", humanize.Comma(int64(m.NumParameters())))

	inputs := must.M1(tensor.FromSlice(xorInputs, tensor.Shape{4, 2}))
	targets := must.M1(tensor.FromSlice(xorTargets, tensor.Shape{4, 1}))
	bar, onEpoch := newEpochBar(*epochs, *quiet)
	history, err := m.Fit(inputs, targets, model.FitConfig{Epochs: *epochs, BatchSize: 4, OnEpoch: onEpoch})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	fmt.Printf("Loss: %.4g -> %.4g after %s epochs\n", history[0], history[len(history)-1], humanize.Comma(int64(*epochs)))

	pred, err := m.Predict(inputs)
	if err != nil {
		return err
	}
	correct := 0
	for i := range 4 {
		p := pred.At(i, 0)
		if (p >= 0.5) == (xorTargets[i] == 1) {
			correct++
		}
		fmt.Printf("  %v XOR %v = %.3f (want %v)\n", xorInputs[2*i], xorInputs[2*i+1], p, xorTargets[i])
	}
	fmt.Printf("Accuracy: %d/4\n", correct)
	if n := len(m.Session().Instabilities()); n > 0 {
		fmt.Printf("Numeric instabilities: %s\n", humanize.Comma(int64(n)))
	}

	if *save != "" {
		meta := map[string]string{"task": "xor", "epochs": strconv.Itoa(*epochs), "activation": *activation}
		if err := m.Save(*save, meta); err != nil {
			return err
		}
		info, err := os.Stat(*save)
		if err != nil {
			return errors.Wrap(err, "checkpoint written but not readable")
		}
		fmt.Printf("Checkpoint saved to %s (%s)\n", *save, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

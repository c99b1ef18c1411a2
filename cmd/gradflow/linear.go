package main

import (
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"

	"github.com/gradflow/gradflow/autodiff"
	"github.com/gradflow/gradflow/losses"
	"github.com/gradflow/gradflow/model"
	"github.com/gradflow/gradflow/nn"
	"github.com/gradflow/gradflow/optim"
	"github.com/gradflow/gradflow/tensor"
)

func runLinear(args []string) error {
	fs := flag.NewFlagSet("linear", flag.ExitOnError)
	weight := fs.Float64("w", 3, "True weight")
	bias := fs.Float64("b", -1, "True bias")
	noise := fs.Float64("noise", 0.1, "Standard deviation of the target noise")
	samples := fs.Int("samples", 256, "Number of samples")
	batch := fs.Int("batch", 32, "Batch size")
	epochs := fs.Int("epochs", 50, "Training epochs")
	lr := fs.Float64("lr", 0.05, "Learning rate")
	momentum := fs.Float64("momentum", 0.9, "SGD momentum")
	nesterov := fs.Bool("nesterov", false, "Use Nesterov momentum")
	seed := fs.Uint64("seed", 1, "Random seed")
	quiet := fs.Bool("quiet", false, "Disable the progress bar")
	summary := fs.Bool("summary", false, "Print the model summary")
	must.M(fs.Parse(args))

	src := tensor.NewSource(*seed)
	xs := tensor.Uniform(tensor.Shape{*samples, 1}, -2, 2, src)
	ys := must.M1(tensor.Add(
		xs.Map(func(v float64) float64 { return *weight*v + *bias }),
		tensor.Normal(tensor.Shape{*samples, 1}, 0, *noise, src),
	))

	layer := nn.NewLinear("linear", 1, 1, src)
	g := autodiff.NewGraph("linear")
	x := g.Placeholder("x", tensor.Shape{tensor.Dynamic, 1})
	m, err := model.New([]*autodiff.Node{x}, layer.Forward(x))
	if err != nil {
		return err
	}
	opt := optim.NewSGD(optim.SGDConfig{LR: *lr, Momentum: *momentum, Nesterov: *nesterov})
	if err := m.Compile(losses.MSE, opt); err != nil {
		return err
	}
	if *summary {
		fmt.Print(m.Summary())
	}

	bar, onEpoch := newEpochBar(*epochs, *quiet)
	history, err := m.Fit(xs, ys, model.FitConfig{
		Epochs:    *epochs,
		BatchSize: *batch,
		Shuffle:   true,
		Seed:      *seed,
		OnEpoch:   onEpoch,
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	steps := *epochs * ((*samples + *batch - 1) / *batch)
	fmt.Printf("Trained on %s samples in %s steps, final loss %.4g\n",
		humanize.Comma(int64(*samples)), humanize.Comma(int64(steps)), history[len(history)-1])
	fmt.Printf("W = %.4f (true %g), b = %.4f (true %g)\n",
		layer.Weight().Value().Item(), *weight, layer.Bias().Value().Item(), *bias)
	return nil
}

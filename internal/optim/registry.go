package optim

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

var constructors = map[string]func(lr float64) Optimizer{
	"gradient_descent": func(lr float64) Optimizer { return NewGradientDescent(lr) },
	"sgd":              func(lr float64) Optimizer { return NewSGD(SGDConfig{LR: lr}) },
	"momentum":         func(lr float64) Optimizer { return NewSGD(SGDConfig{LR: lr, Momentum: 0.9}) },
	"nesterov":         func(lr float64) Optimizer { return NewSGD(SGDConfig{LR: lr, Momentum: 0.9, Nesterov: true}) },
	"adam":             func(lr float64) Optimizer { return NewAdam(AdamConfig{LR: lr}) },
	"rmsprop":          func(lr float64) Optimizer { return NewRMSProp(RMSPropConfig{LR: lr}) },
	"adagrad":          func(lr float64) Optimizer { return NewAdagrad(AdagradConfig{LR: lr}) },
}

// ByName creates the optimizer registered under name with the given learning
// rate and default hyperparameters. A zero lr selects the optimizer's default.
func ByName(name string, lr float64) (Optimizer, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, errors.Errorf("unknown optimizer %q, valid values are %q", name, Names())
	}
	return ctor(lr), nil
}

// Names returns the registered optimizer names, sorted.
func Names() []string {
	names := maps.Keys(constructors)
	slices.Sort(names)
	return names
}

// NameOf returns a descriptive name for opt, matching a registered name for
// optimizers the registry can build. Unknown implementations report their
// Go type.
func NameOf(opt Optimizer) string {
	switch o := opt.(type) {
	case *GradientDescent:
		return "gradient_descent"
	case *SGD:
		switch {
		case o.nesterov:
			return "nesterov"
		case o.momentum != 0:
			return "momentum"
		}
		return "sgd"
	case *Adam:
		return "adam"
	case *RMSProp:
		return "rmsprop"
	case *Adagrad:
		return "adagrad"
	}
	return fmt.Sprintf("%T", opt)
}

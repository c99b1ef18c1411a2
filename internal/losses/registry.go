package losses

import (
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

var registry = map[string]Func{
	"mean_squared_error":             MeanSquaredError,
	"mse":                            MeanSquaredError,
	"mean_absolute_error":            MeanAbsoluteError,
	"mae":                            MeanAbsoluteError,
	"mean_squared_logarithmic_error": MeanSquaredLogarithmicError,
	"msle":                           MeanSquaredLogarithmicError,
	"squared_loss":                   SquaredLoss,
	"binary_cross_entropy":           BinaryCrossEntropy,
	"bce":                            BinaryCrossEntropy,
}

// ByName returns the loss registered under name.
func ByName(name string) (Func, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("unknown loss %q, valid values are %q", name, Names())
	}
	return fn, nil
}

// Names returns the registered loss names, sorted.
func Names() []string {
	names := maps.Keys(registry)
	slices.Sort(names)
	return names
}

package model

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gradflow/gradflow/internal/tensor"
)

// FitConfig controls mini-batch training.
type FitConfig struct {
	Epochs    int    // Passes over the data (default: 1)
	BatchSize int    // Rows per step (default: 32, capped at the row count)
	Shuffle   bool   // Visit rows in a new random order every epoch
	Seed      uint64 // Seed of the shuffling order

	// OnEpoch, if set, is called after every epoch with the 0-based epoch
	// index and its mean loss.
	OnEpoch func(epoch int, loss float64)
}

// Fit trains a single-input model on the rows of x against the rows of y and
// returns the mean training loss of every epoch.
//
// Without shuffling, batches are views over consecutive rows. The last batch of
// an epoch may be smaller, so the input and target placeholders need a dynamic
// leading dimension unless BatchSize divides the row count.
func (m *Model) Fit(x, y *tensor.Tensor, cfg FitConfig) ([]float64, error) {
	if m.loss == nil {
		return nil, ErrNotCompiled
	}
	if len(m.inputs) != 1 {
		return nil, errors.Errorf("fit needs a single-input model, this one has %d inputs", len(m.inputs))
	}
	if x.Rank() == 0 || y.Rank() == 0 {
		return nil, errors.Wrap(tensor.ErrShapeMismatch, "fit: inputs and targets need a leading row dimension")
	}
	rows := x.Shape()[0]
	if y.Shape()[0] != rows {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "fit: %d input rows but %d target rows", rows, y.Shape()[0])
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	cfg.BatchSize = min(cfg.BatchSize, rows)

	var rng *rand.Rand
	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}
	if cfg.Shuffle {
		rng = rand.New(tensor.NewSource(cfg.Seed))
	}

	history := make([]float64, 0, cfg.Epochs)
	for epoch := range cfg.Epochs {
		if rng != nil {
			rng.Shuffle(rows, func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		var total float64
		for start := 0; start < rows; start += cfg.BatchSize {
			end := min(start+cfg.BatchSize, rows)
			xb, yb, err := batch(x, y, order, start, end, rng != nil)
			if err != nil {
				return history, err
			}
			loss, err := m.TrainStep([]*tensor.Tensor{xb}, yb)
			if err != nil {
				return history, errors.WithMessagef(err, "epoch %d, rows [%d, %d)", epoch, start, end)
			}
			total += loss * float64(end-start)
		}
		mean := total / float64(rows)
		history = append(history, mean)
		klog.V(1).Infof("epoch %d/%d: loss=%.6g", epoch+1, cfg.Epochs, mean)
		if cfg.OnEpoch != nil {
			cfg.OnEpoch(epoch, mean)
		}
	}
	return history, nil
}

// batch returns rows [start, end) of the visiting order: views when the order
// is the identity, gathered copies otherwise.
func batch(x, y *tensor.Tensor, order []int, start, end int, shuffled bool) (*tensor.Tensor, *tensor.Tensor, error) {
	if !shuffled {
		xb, err := x.Rows(start, end)
		if err != nil {
			return nil, nil, err
		}
		yb, err := y.Rows(start, end)
		return xb, yb, err
	}
	idx := order[start:end]
	xb, err := tensor.TakeRows(x, idx)
	if err != nil {
		return nil, nil, err
	}
	yb, err := tensor.TakeRows(y, idx)
	return xb, yb, err
}

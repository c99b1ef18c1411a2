package model

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/optim"
	"github.com/gradflow/gradflow/internal/serialization"
	"github.com/gradflow/gradflow/internal/tensor"
)

// Save writes every variable of the model, frozen ones included, to path.
// After Compile the optimizer hyperparameters and state are saved as well.
func (m *Model) Save(path string, metadata map[string]string) error {
	cp, err := m.Checkpoint(metadata)
	if err != nil {
		return err
	}
	return serialization.WriteFile(path, cp)
}

// Load restores a checkpoint written by Save.
func (m *Model) Load(path string) error {
	cp, err := serialization.ReadFile(path)
	if err != nil {
		return err
	}
	return m.Restore(cp)
}

// Checkpoint snapshots the model variables and optimizer state. The returned
// tensors alias the live values; write them out before training further.
func (m *Model) Checkpoint(metadata map[string]string) (*serialization.Checkpoint, error) {
	vars, err := m.namedVariables()
	if err != nil {
		return nil, err
	}
	cp := &serialization.Checkpoint{
		GraphID:  m.graph.ID().String(),
		Tensors:  make(map[string]*tensor.Tensor, len(vars)),
		Metadata: metadata,
	}
	for name, v := range vars {
		cp.Tensors[name] = v.Value()
	}
	if m.optimizer != nil {
		state, err := m.optimizer.StateDict()
		if err != nil {
			return nil, errors.WithMessage(err, "optimizer state")
		}
		cp.Optimizer = &serialization.OptimizerMeta{Type: optim.NameOf(m.optimizer), LR: m.optimizer.GetLR()}
		cp.OptimizerState = state
	}
	return cp, nil
}

// Restore copies checkpoint values into the model variables, matched by name.
// Every model variable must be present with its exact shape; nothing is
// modified otherwise. Optimizer state is restored only when the compiled
// optimizer is of the checkpointed type.
func (m *Model) Restore(cp *serialization.Checkpoint) error {
	vars, err := m.namedVariables()
	if err != nil {
		return err
	}
	for name, v := range vars {
		value, ok := cp.Tensors[name]
		if !ok {
			return errors.Errorf("checkpoint has no value for variable %q", name)
		}
		if !value.Shape().Equal(v.Shape()) {
			return errors.Wrapf(tensor.ErrShapeMismatch, "variable %q: checkpoint shape %s, model shape %s",
				name, value.Shape(), v.Shape())
		}
	}
	for name := range cp.Tensors {
		if _, ok := vars[name]; !ok {
			klog.Warningf("checkpoint variable %q is not used by the model", name)
		}
	}
	for name, v := range vars {
		if err := v.Value().CopyFrom(cp.Tensors[name]); err != nil {
			return errors.WithMessagef(err, "variable %q", name)
		}
	}

	if m.optimizer == nil || cp.Optimizer == nil {
		return nil
	}
	if got := optim.NameOf(m.optimizer); got != cp.Optimizer.Type {
		klog.Warningf("checkpoint optimizer %q differs from model optimizer %q, optimizer state not restored",
			cp.Optimizer.Type, got)
		return nil
	}
	m.optimizer.SetLR(cp.Optimizer.LR)
	return errors.WithMessage(m.optimizer.LoadStateDict(cp.OptimizerState), "optimizer state")
}

// namedVariables returns the variables the loss (or before Compile the
// output) depends on, keyed by name.
func (m *Model) namedVariables() (map[string]*autodiff.Variable, error) {
	root := m.output
	if m.loss != nil {
		root = m.loss
	}
	vars := make(map[string]*autodiff.Variable)
	for _, n := range m.graph.Reachable(root) {
		v := n.Variable()
		if v == nil {
			continue
		}
		if other, ok := vars[v.Name()]; ok && other != v {
			return nil, errors.Errorf("two variables share the name %q", v.Name())
		}
		vars[v.Name()] = v
	}
	return vars, nil
}

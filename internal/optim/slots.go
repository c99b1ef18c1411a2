package optim

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/autodiff"
	"github.com/gradflow/gradflow/internal/tensor"
)

// slotSet holds one named state tensor (a velocity, a moment...) per variable.
type slotSet struct {
	name    string
	init    float64 // fill value of fresh slots
	values  map[*autodiff.Variable]*tensor.Tensor
	pending map[string]*tensor.Tensor // loaded by variable name, claimed on first use
}

func newSlotSet(name string) *slotSet {
	return &slotSet{
		name:    name,
		values:  make(map[*autodiff.Variable]*tensor.Tensor),
		pending: make(map[string]*tensor.Tensor),
	}
}

// get returns the slot of v, creating it from loaded state or filled with init.
func (s *slotSet) get(v *autodiff.Variable) (*tensor.Tensor, error) {
	return s.getShaped(v, v.Shape())
}

func (s *slotSet) getShaped(v *autodiff.Variable, shape tensor.Shape) (*tensor.Tensor, error) {
	if t, ok := s.values[v]; ok {
		return t, nil
	}
	t, ok := s.pending[v.Name()]
	if ok {
		if !t.Shape().Equal(shape) {
			return nil, errors.Wrapf(tensor.ErrShapeMismatch, "loaded %s state for %s has shape %s",
				s.name, v, t.Shape())
		}
		delete(s.pending, v.Name())
	} else {
		t = tensor.Full(shape, s.init)
	}
	s.values[v] = t
	return t, nil
}

func (s *slotSet) reset() {
	clear(s.values)
	clear(s.pending)
}

// export copies every slot into dict.
func (s *slotSet) export(dict map[string]*tensor.Tensor) error {
	for v, t := range s.values {
		key := s.name + "." + v.Name()
		if _, dup := dict[key]; dup {
			return errors.Errorf("duplicate optimizer state %q: variable names must be unique", key)
		}
		dict[key] = t.Clone()
	}
	for name, t := range s.pending {
		key := s.name + "." + name
		if _, dup := dict[key]; !dup {
			dict[key] = t.Clone()
		}
	}
	return nil
}

// load queues the entries of dict prefixed with the slot name.
func (s *slotSet) load(dict map[string]*tensor.Tensor) {
	clear(s.values)
	clear(s.pending)
	prefix := s.name + "."
	for key, t := range dict {
		if name, ok := strings.CutPrefix(key, prefix); ok {
			s.pending[name] = t.Clone()
		}
	}
}

// exportAll merges the slots of every set into a new state dict.
func exportAll(sets ...*slotSet) (map[string]*tensor.Tensor, error) {
	dict := make(map[string]*tensor.Tensor)
	for _, s := range sets {
		if err := s.export(dict); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

// loadAll loads dict into every set, rejecting keys none of them own.
func loadAll(dict map[string]*tensor.Tensor, sets ...*slotSet) error {
	for key := range dict {
		owned := false
		for _, s := range sets {
			if strings.HasPrefix(key, s.name+".") {
				owned = true
				break
			}
		}
		if !owned {
			return errors.Errorf("unexpected optimizer state %q", key)
		}
	}
	for _, s := range sets {
		s.load(dict)
	}
	return nil
}

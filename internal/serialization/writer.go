package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/gradflow/gradflow/internal/tensor"
)

// WriteFile writes cp to path, replacing any existing file.
func WriteFile(path string, cp *Checkpoint) (err error) {
	//nolint:gosec // G304: path is chosen by the caller
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create checkpoint file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "failed to close checkpoint file")
		}
	}()
	w := bufio.NewWriter(f)
	if err := Write(w, cp); err != nil {
		return errors.WithMessagef(err, "writing %s", path)
	}
	return errors.Wrap(w.Flush(), "failed to flush checkpoint file")
}

// Write encodes cp to w. Tensors are laid out in name order, variables
// first and optimizer state after.
func Write(w io.Writer, cp *Checkpoint) error {
	if (cp.Optimizer == nil) != (cp.OptimizerState == nil) {
		return errors.New("optimizer metadata and optimizer state must be set together")
	}
	entries, err := collect(cp)
	if err != nil {
		return err
	}

	header := Header{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		GraphID:       cp.GraphID,
		Tensors:       make([]TensorMeta, 0, len(entries)),
		Optimizer:     cp.Optimizer,
		Metadata:      cp.Metadata,
	}
	var data []byte
	for _, e := range entries {
		offset := int64(len(data))
		for _, v := range e.value.Data() {
			data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
		}
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   e.name,
			Shape:  []int(e.value.Shape().Clone()),
			Offset: offset,
			Size:   int64(len(data)) - offset,
		})
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}
	flags := uint32(0)
	if cp.Optimizer != nil {
		flags |= FlagHasOptimizer
	}
	if len(cp.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	fixed := make([]byte, 0, FixedHeaderSize)
	fixed = append(fixed, MagicBytes...)
	fixed = binary.LittleEndian.AppendUint32(fixed, FormatVersion)
	fixed = binary.LittleEndian.AppendUint32(fixed, flags)
	fixed = binary.LittleEndian.AppendUint64(fixed, uint64(len(headerJSON)))
	checksum := ComputeChecksum(data)
	fixed = append(fixed, checksum[:]...)

	padding := make([]byte, paddingAfter(len(headerJSON)))
	for _, chunk := range [][]byte{fixed, headerJSON, padding, data} {
		if _, err := w.Write(chunk); err != nil {
			return errors.Wrap(err, "failed to write checkpoint")
		}
	}
	return nil
}

// paddingAfter returns the zero bytes that align the data section after a
// JSON header of headerSize bytes.
func paddingAfter(headerSize int) int {
	pos := FixedHeaderSize + headerSize
	return (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
}

type entry struct {
	name  string
	value *tensor.Tensor
}

func collect(cp *Checkpoint) ([]entry, error) {
	entries := make([]entry, 0, len(cp.Tensors)+len(cp.OptimizerState))
	add := func(prefix string, tensors map[string]*tensor.Tensor) error {
		names := maps.Keys(tensors)
		slices.Sort(names)
		for _, name := range names {
			if err := ValidateTensorName(name); err != nil {
				return err
			}
			if prefix == "" && strings.HasPrefix(name, OptimizerPrefix) {
				return &ValidationError{Type: "invalid_name", Tensor: name,
					Details: "variable names may not start with " + OptimizerPrefix}
			}
			if tensors[name] == nil {
				return errors.Errorf("tensor %q is nil", name)
			}
			entries = append(entries, entry{prefix + name, tensors[name]})
		}
		return nil
	}
	if err := add("", cp.Tensors); err != nil {
		return nil, err
	}
	if err := add(OptimizerPrefix, cp.OptimizerState); err != nil {
		return nil, err
	}
	return entries, nil
}

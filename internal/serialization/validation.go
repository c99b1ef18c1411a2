package serialization

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Limits applied when reading untrusted files.
const (
	MaxHeaderSize    = 100 * 1024 * 1024
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// ValidateTensorName rejects empty, oversized and control-character names.
func ValidateTensorName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Type: "invalid_name", Details: "empty tensor name"}
	case len(name) > MaxTensorNameLen:
		return &ValidationError{Type: "name_too_long", Tensor: name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen)}
	case strings.ContainsFunc(name, func(r rune) bool { return r < 0x20 }):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains control characters"}
	}
	return nil
}

// ValidateTensors checks the tensor table against a data section of dataSize
// bytes: names are valid and unique, sizes agree with shapes, and regions
// stay in bounds without overlapping.
func ValidateTensors(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{Type: "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount)}
	}
	seen := make(map[string]bool, len(tensors))
	for _, t := range tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if seen[t.Name] {
			return &ValidationError{Type: "duplicate_name", Tensor: t.Name, Details: "appears more than once"}
		}
		seen[t.Name] = true

		numElements := int64(1)
		for _, d := range t.Shape {
			if d <= 0 {
				return &ValidationError{Type: "invalid_shape", Tensor: t.Name,
					Details: fmt.Sprintf("dimension %d in shape %v", d, t.Shape)}
			}
			if numElements > math.MaxInt64/ElementSize/int64(d) {
				return &ValidationError{Type: "size_overflow", Tensor: t.Name,
					Details: fmt.Sprintf("shape %v exceeds addressable size", t.Shape)}
			}
			numElements *= int64(d)
		}
		if t.Size != numElements*ElementSize {
			return &ValidationError{Type: "size_mismatch", Tensor: t.Name,
				Details: fmt.Sprintf("size %d does not hold shape %v", t.Size, t.Shape)}
		}
		if t.Offset < 0 || t.Offset+t.Size > dataSize {
			return &ValidationError{Type: "out_of_bounds", Tensor: t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize)}
		}
	}

	sorted := slices.Clone(tensors)
	slices.SortFunc(sorted, func(a, b TensorMeta) int { return cmp.Compare(a.Offset, b.Offset) })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Offset+prev.Size > cur.Offset {
			return &ValidationError{Type: "offset_overlap", Tensor: prev.Name, Tensor2: cur.Name,
				Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
					prev.Offset, prev.Offset+prev.Size, cur.Offset, cur.Offset+cur.Size)}
		}
	}
	return nil
}

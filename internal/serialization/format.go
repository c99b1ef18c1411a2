package serialization

import (
	"time"

	"github.com/gradflow/gradflow/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "GFLW"
	FormatVersion   = 1
	HeaderAlignment = 64
	FixedHeaderSize = 4 + 4 + 4 + 8 + ChecksumSize
	ChecksumSize    = 32
	ElementSize     = 8 // float64
)

// Flags of the fixed header.
const (
	FlagHasOptimizer uint32 = 1 << 0 // optimizer state included
	FlagHasMetadata  uint32 = 1 << 1 // custom metadata included
)

// Header is the JSON header of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	CreatedAt     time.Time         `json:"created_at"`
	GraphID       string            `json:"graph_id,omitempty"`
	Tensors       []TensorMeta      `json:"tensors"`
	Optimizer     *OptimizerMeta    `json:"optimizer,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta locates one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// OptimizerMeta describes the optimizer a checkpoint was taken with. Its
// state tensors are stored under OptimizerPrefix.
type OptimizerMeta struct {
	Type  string  `json:"type"`
	LR    float64 `json:"lr"`
	Epoch int     `json:"epoch,omitempty"`
	Loss  float64 `json:"loss,omitempty"`
}

// OptimizerPrefix is prepended to optimizer state keys in the tensor table.
const OptimizerPrefix = "optimizer:"

// Checkpoint is the in-memory form of a checkpoint file.
type Checkpoint struct {
	// GraphID optionally records the graph the tensors were taken from.
	GraphID string

	// Tensors maps variable names to values.
	Tensors map[string]*tensor.Tensor

	// Optimizer and OptimizerState are both set or both nil.
	Optimizer      *OptimizerMeta
	OptimizerState map[string]*tensor.Tensor

	Metadata map[string]string

	// CreatedAt is filled in by Read.
	CreatedAt time.Time
}

package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/tensor"
)

// ReadFile reads the checkpoint stored at path.
func ReadFile(path string) (*Checkpoint, error) {
	//nolint:gosec // G304: path is chosen by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open checkpoint file")
	}
	defer func() { _ = f.Close() }()
	cp, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, errors.WithMessagef(err, "reading %s", path)
	}
	return cp, nil
}

// Read decodes a checkpoint from r, verifying the data checksum and the
// tensor table before any tensor is built.
func Read(r io.Reader) (*Checkpoint, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, errors.Wrap(err, "failed to read fixed header")
	}
	if string(fixed[:4]) != MagicBytes {
		return nil, errors.WithStack(ErrInvalidMagic)
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", version, FormatVersion)
	}
	// fixed[8:12] holds the flags, which the JSON header makes redundant on read.
	headerSize := binary.LittleEndian.Uint64(fixed[12:20])
	if headerSize > MaxHeaderSize {
		return nil, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", headerSize)
	}
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[20:])

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, errors.Wrap(err, "failed to parse header")
	}
	if _, err := io.CopyN(io.Discard, r, int64(paddingAfter(int(headerSize)))); err != nil {
		return nil, errors.Wrap(err, "failed to skip header padding")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tensor data")
	}
	if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
		return nil, err
	}
	if err := ValidateTensors(header.Tensors, int64(len(data))); err != nil {
		return nil, errors.WithMessage(err, "validation failed")
	}

	cp := &Checkpoint{
		GraphID:   header.GraphID,
		Tensors:   make(map[string]*tensor.Tensor),
		Optimizer: header.Optimizer,
		Metadata:  header.Metadata,
		CreatedAt: header.CreatedAt,
	}
	if header.Optimizer != nil {
		cp.OptimizerState = make(map[string]*tensor.Tensor)
	}
	for _, meta := range header.Tensors {
		values := make([]float64, meta.Size/ElementSize)
		raw := data[meta.Offset : meta.Offset+meta.Size]
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*ElementSize:]))
		}
		t, err := tensor.FromSlice(values, tensor.Shape(meta.Shape))
		if err != nil {
			return nil, errors.WithMessagef(err, "tensor %q", meta.Name)
		}
		if key, ok := strings.CutPrefix(meta.Name, OptimizerPrefix); ok {
			if cp.OptimizerState == nil {
				return nil, &ValidationError{Type: "orphan_optimizer_state", Tensor: meta.Name,
					Details: "optimizer state without optimizer metadata"}
			}
			cp.OptimizerState[key] = t
			continue
		}
		cp.Tensors[meta.Name] = t
	}
	return cp, nil
}

package serialization

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradflow/gradflow/internal/tensor"
)

func sampleCheckpoint() *Checkpoint {
	return &Checkpoint{
		GraphID: "graph-1",
		Tensors: map[string]*tensor.Tensor{
			"dense.weight": must.M1(tensor.FromSlice([]float64{1, -2, 3.5, 4}, tensor.Shape{2, 2})),
			"dense.bias":   must.M1(tensor.FromSlice([]float64{0.25, -0.5}, tensor.Shape{2})),
		},
		Optimizer: &OptimizerMeta{Type: "Adam", LR: 0.001, Epoch: 3, Loss: 0.5},
		OptimizerState: map[string]*tensor.Tensor{
			"m.dense.weight":  tensor.Full(tensor.Shape{2, 2}, 0.1),
			"step.dense.bias": tensor.Scalar(7),
		},
		Metadata: map[string]string{"task": "xor"},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	cp := sampleCheckpoint()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cp))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, "graph-1", got.GraphID)
	assert.Equal(t, cp.Optimizer, got.Optimizer)
	assert.Equal(t, cp.Metadata, got.Metadata)
	assert.False(t, got.CreatedAt.IsZero())
	require.Len(t, got.Tensors, 2)
	for name, want := range cp.Tensors {
		assert.True(t, tensor.AllClose(want, got.Tensors[name], 0), name)
	}
	require.Len(t, got.OptimizerState, 2)
	assert.Equal(t, 0, got.OptimizerState["step.dense.bias"].Rank())
	assert.Equal(t, 7.0, got.OptimizerState["step.dense.bias"].Item())
	assert.Equal(t, tensor.Shape{2, 2}, got.OptimizerState["m.dense.weight"].Shape())
}

func TestWrite_DataIsAligned(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleCheckpoint()))

	b := buf.Bytes()
	headerSize := int(binary.LittleEndian.Uint64(b[12:20]))
	dataStart := FixedHeaderSize + headerSize + paddingAfter(headerSize)
	assert.Zero(t, dataStart%HeaderAlignment)
	assert.Equal(t, (4+2+4+1)*ElementSize, len(b)-dataStart)
}

func TestWriteFile_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gflw")
	cp := &Checkpoint{Tensors: map[string]*tensor.Tensor{"w": tensor.Arange(3)}}
	require.NoError(t, WriteFile(path, cp))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, got.Tensors["w"].Data())
	assert.Nil(t, got.Optimizer)
	assert.Nil(t, got.OptimizerState)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.gflw"))
	assert.Error(t, err)
}

func TestRead_Corruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleCheckpoint()))
	good := buf.Bytes()

	t.Run("checksum", func(t *testing.T) {
		b := bytes.Clone(good)
		b[len(b)-1] ^= 0xff
		_, err := Read(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})
	t.Run("magic", func(t *testing.T) {
		b := bytes.Clone(good)
		copy(b, "NOPE")
		_, err := Read(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})
	t.Run("version", func(t *testing.T) {
		b := bytes.Clone(good)
		binary.LittleEndian.PutUint32(b[4:8], 99)
		_, err := Read(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})
	t.Run("header too large", func(t *testing.T) {
		b := bytes.Clone(good)
		binary.LittleEndian.PutUint64(b[12:20], MaxHeaderSize+1)
		_, err := Read(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrHeaderTooLarge)
	})
	t.Run("truncated", func(t *testing.T) {
		_, err := Read(bytes.NewReader(good[:10]))
		assert.Error(t, err)
	})
}

func TestWrite_Rejects(t *testing.T) {
	var buf bytes.Buffer

	err := Write(&buf, &Checkpoint{Optimizer: &OptimizerMeta{Type: "SGD"}})
	assert.Error(t, err, "optimizer metadata without state")

	err = Write(&buf, &Checkpoint{Tensors: map[string]*tensor.Tensor{"": tensor.Scalar(1)}})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	err = Write(&buf, &Checkpoint{Tensors: map[string]*tensor.Tensor{OptimizerPrefix + "x": tensor.Scalar(1)}})
	assert.ErrorAs(t, err, &verr)

	err = Write(&buf, &Checkpoint{Tensors: map[string]*tensor.Tensor{"x": nil}})
	assert.Error(t, err)
}

func TestValidateTensors(t *testing.T) {
	tests := []struct {
		name    string
		tensors []TensorMeta
		errType string
	}{
		{"valid", []TensorMeta{
			{Name: "a", Shape: []int{2}, Offset: 0, Size: 16},
			{Name: "b", Shape: []int{}, Offset: 16, Size: 8},
		}, ""},
		{"overlap", []TensorMeta{
			{Name: "a", Shape: []int{2}, Offset: 0, Size: 16},
			{Name: "b", Shape: []int{2}, Offset: 8, Size: 16},
		}, "offset_overlap"},
		{"out of bounds", []TensorMeta{{Name: "a", Shape: []int{4}, Offset: 8, Size: 32}}, "out_of_bounds"},
		{"negative offset", []TensorMeta{{Name: "a", Shape: []int{1}, Offset: -8, Size: 8}}, "out_of_bounds"},
		{"size mismatch", []TensorMeta{{Name: "a", Shape: []int{3}, Offset: 0, Size: 16}}, "size_mismatch"},
		{"bad shape", []TensorMeta{{Name: "a", Shape: []int{0}, Offset: 0, Size: 0}}, "invalid_shape"},
		{"element count overflow", []TensorMeta{{Name: "a", Shape: []int{1 << 32, 1 << 32}, Offset: 0, Size: 0}}, "size_overflow"},
		{"byte size overflow", []TensorMeta{{Name: "a", Shape: []int{1 << 61}, Offset: 0, Size: 0}}, "size_overflow"},
		{"duplicate", []TensorMeta{
			{Name: "a", Shape: []int{1}, Offset: 0, Size: 8},
			{Name: "a", Shape: []int{1}, Offset: 8, Size: 8},
		}, "duplicate_name"},
		{"control character", []TensorMeta{{Name: "a\x00", Shape: []int{1}, Offset: 0, Size: 8}}, "invalid_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensors(tt.tensors, 32)
			if tt.errType == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.errType, verr.Type)
		})
	}
}

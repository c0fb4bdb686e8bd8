package embeddings

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

// Safetensors layout:
//
//	[8 bytes: header size as little-endian u64]
//	[header_size bytes: JSON header]
//	[remaining bytes: tensor data]

// maxHeaderBytes bounds the JSON header size read from disk.
const maxHeaderBytes = 100 * 1024 * 1024

// tensorMeta mirrors one entry of a safetensors JSON header.
type tensorMeta struct {
	Dtype       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// loadSafetensors reads the "embeddings" tensor from a safetensors file.
// Only F32 and F64 matrices are accepted; F64 data is narrowed to
// float32.
func loadSafetensors(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open embeddings file %q", path)
	}
	defer f.Close()

	var headerSize uint64
	if err := binary.Read(f, binary.LittleEndian, &headerSize); err != nil {
		return nil, errors.Wrapf(err, "failed to read safetensors header size from %q", path)
	}
	if headerSize > maxHeaderBytes {
		return nil, errors.Errorf("safetensors header too large: %d bytes", headerSize)
	}
	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(f, headerBytes); err != nil {
		return nil, errors.Wrapf(err, "failed to read safetensors header from %q", path)
	}

	var rawHeader map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &rawHeader); err != nil {
		return nil, errors.Wrapf(err, "failed to parse safetensors header from %q", path)
	}
	rawMeta, ok := rawHeader[ArrayName]
	if !ok {
		return nil, errors.Errorf("tensor %q not found in %q", ArrayName, path)
	}
	var meta tensorMeta
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return nil, errors.Wrapf(err, "failed to parse metadata for tensor %q", ArrayName)
	}
	if len(meta.Shape) != 2 {
		return nil, errors.Errorf("embeddings must be a matrix, got shape %v", meta.Shape)
	}

	dataOffset := int64(8+headerSize) + meta.DataOffsets[0]
	if _, err := f.Seek(dataOffset, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to seek to tensor data")
	}

	m := &Matrix{Rows: meta.Shape[0], Cols: meta.Shape[1]}
	n := m.Rows * m.Cols
	m.Data = make([]float32, n)
	switch meta.Dtype {
	case "F32":
		buf := make([]byte, 4*n)
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, errors.Wrap(err, "failed to read tensor data")
		}
		for i := 0; i < n; i++ {
			m.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
		}
	case "F64":
		buf := make([]byte, 8*n)
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, errors.Wrap(err, "failed to read tensor data")
		}
		for i := 0; i < n; i++ {
			m.Data[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:])))
		}
	default:
		return nil, errors.Errorf("unsupported safetensors dtype %q for embeddings", meta.Dtype)
	}
	return m, nil
}

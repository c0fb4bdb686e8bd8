// Package embeddings loads pretrained word-embedding matrices row-aligned
// to word vocabulary ids, from npz archives or safetensors files, and
// trims raw GloVe text files down to a vocabulary.
package embeddings

import (
	"path/filepath"
)

// ArrayName is the array entry every embeddings file must carry.
const ArrayName = "embeddings"

// Matrix is a dense row-major float32 matrix. Row i is the embedding
// vector of the token with id i; row 0 is conventionally the padding
// vector.
type Matrix struct {
	Rows, Cols int
	Data       []float32
}

// Row returns the i-th embedding vector, sharing the underlying storage.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Load reads the "embeddings" array from path. Files ending in
// .safetensors are read as safetensors; anything else is treated as an
// npz archive. A missing or unreadable file is a configuration error,
// surfaced immediately with no retry.
func Load(path string) (*Matrix, error) {
	if filepath.Ext(path) == ".safetensors" {
		return loadSafetensors(path)
	}
	return loadNpz(path)
}

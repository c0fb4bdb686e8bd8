package embeddings

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqtag/go-seqtag/vocab"
)

func TestTrimAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	glovePath := filepath.Join(dir, "glove.txt")
	glove := "hello 0.1 0.2\nworld -0.3 0.4\nextra 9.0 9.0\n"
	require.NoError(t, os.WriteFile(glovePath, []byte(glove), 0o644))

	words := vocab.FromTokens([]string{vocab.Pad, vocab.Unknown, "hello", "world"})
	outPath := filepath.Join(dir, "embeddings.npz")
	require.NoError(t, Trim(glovePath, words, 2, outPath))

	m, err := Load(outPath)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Rows)
	assert.Equal(t, 2, m.Cols)

	// Row 0 is the padding vector; tokens without a pretrained vector
	// stay zero.
	assert.Equal(t, []float32{0, 0}, m.Row(0))
	assert.Equal(t, []float32{0, 0}, m.Row(1))
	assert.InDelta(t, 0.1, m.Row(2)[0], 1e-6)
	assert.InDelta(t, 0.2, m.Row(2)[1], 1e-6)
	assert.InDelta(t, -0.3, m.Row(3)[0], 1e-6)
	assert.InDelta(t, 0.4, m.Row(3)[1], 1e-6)
}

func TestTrimDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	glovePath := filepath.Join(dir, "glove.txt")
	require.NoError(t, os.WriteFile(glovePath, []byte("hello 0.1 0.2 0.3\n"), 0o644))

	words := vocab.FromTokens([]string{vocab.Pad, "hello"})
	err := Trim(glovePath, words, 2, filepath.Join(dir, "out.npz"))
	require.Error(t, err)
}

func TestTrimInvalidDimension(t *testing.T) {
	words := vocab.FromTokens([]string{vocab.Pad})
	err := Trim("unused", words, 0, filepath.Join(t.TempDir(), "out.npz"))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.npz"))
	require.Error(t, err)
}

func TestLoadNpzMissingArray(t *testing.T) {
	// An npz whose only entry has the wrong name.
	path := filepath.Join(t.TempDir(), "wrong.npz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("other.npy")
	require.NoError(t, err)
	require.NoError(t, writeNpy(w, &Matrix{Rows: 1, Cols: 1, Data: []float32{1}}))
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Load(path)
	require.Error(t, err)
}

func TestParseNpyHeader(t *testing.T) {
	descr, fortran, shape, err := parseNpyHeader("{'descr': '<f4', 'fortran_order': False, 'shape': (100, 300), }")
	require.NoError(t, err)
	assert.Equal(t, "<f4", descr)
	assert.False(t, fortran)
	assert.Equal(t, []int{100, 300}, shape)

	_, fortran, _, err = parseNpyHeader("{'descr': '<f8', 'fortran_order': True, 'shape': (2, 2), }")
	require.NoError(t, err)
	assert.True(t, fortran)

	_, _, _, err = parseNpyHeader("{'fortran_order': False}")
	require.Error(t, err)
}

func TestReadNpyFloat64(t *testing.T) {
	var buf bytes.Buffer
	header := "{'descr': '<f8', 'fortran_order': False, 'shape': (1, 2), }\n"
	buf.WriteString(npyMagic)
	buf.Write([]byte{1, 0})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(header))))
	buf.WriteString(header)
	for _, v := range []float64{1.5, -2.25} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float64bits(v)))
	}

	m, err := readNpy(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2.25}, m.Data)
}

func TestLoadSafetensors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.safetensors")
	header := `{"embeddings":{"dtype":"F32","shape":[2,2],"data_offsets":[0,16]}}`

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
	buf.WriteString(header)
	for _, v := range []float32{1, 2, 3, 4} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(v)))
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 2, m.Cols)
	assert.Equal(t, []float32{1, 2}, m.Row(0))
	assert.Equal(t, []float32{3, 4}, m.Row(1))
}

func TestLoadSafetensorsMissingTensor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.safetensors")
	header := `{"weights":{"dtype":"F32","shape":[1,1],"data_offsets":[0,4]}}`

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
	buf.WriteString(header)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(0)))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

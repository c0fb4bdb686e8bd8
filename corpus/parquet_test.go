package corpus

import (
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadParquetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.parquet")
	rows := []parquetSentence{
		{Tokens: []string{"EU", "rejects"}, Tags: []string{"B-ORG", "O"}},
		{Tokens: nil, Tags: nil}, // empty rows are skipped
		{Tokens: []string{"Peter"}, Tags: []string{"B-PER"}},
	}
	require.NoError(t, parquet.WriteFile(path, rows))

	got, err := ReadParquetFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Sentence{Words: []string{"EU", "rejects"}, Tags: []string{"B-ORG", "O"}}, got[0])
	assert.Equal(t, Sentence{Words: []string{"Peter"}, Tags: []string{"B-PER"}}, got[1])
}

func TestReadParquetFileMissing(t *testing.T) {
	_, err := ReadParquetFile(filepath.Join(t.TempDir(), "absent.parquet"))
	require.Error(t, err)
}

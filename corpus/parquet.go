package corpus

import (
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// parquetSentence mirrors the column layout HuggingFace datasets use for
// CoNLL-style corpora: one row per sentence with token and tag lists.
type parquetSentence struct {
	Tokens []string `parquet:"tokens,list"`
	Tags   []string `parquet:"tags,list"`
}

// ReadParquetFile loads a tagged corpus stored as parquet, one row per
// sentence with "tokens" and "tags" list columns. Rows with zero tokens
// are skipped, matching the line-oriented Reader.
func ReadParquetFile(path string) ([]Sentence, error) {
	rows, err := parquet.ReadFile[parquetSentence](path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read parquet corpus %q", path)
	}
	sentences := make([]Sentence, 0, len(rows))
	for _, row := range rows {
		if len(row.Tokens) == 0 {
			continue
		}
		sentences = append(sentences, Sentence{Words: row.Tokens, Tags: row.Tags})
	}
	klog.V(2).Infof("parquet corpus %s: %d sentences", path, len(sentences))
	return sentences, nil
}

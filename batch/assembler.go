package batch

import (
	"github.com/pkg/errors"

	"github.com/seqtag/go-seqtag/encoder"
)

// Encoded is one sentence ready for batching: encoded tokens and their
// index-aligned tag ids.
type Encoded struct {
	Tokens []encoder.Token
	TagIDs []int
}

// Batch holds a group of sentences as parallel ragged arrays, ready for
// padding. CharIDs is nil when character features are disabled.
type Batch struct {
	WordIDs [][]int
	CharIDs [][][]int
	TagIDs  [][]int
}

// Len returns the number of sentences in the batch.
func (b *Batch) Len() int {
	return len(b.WordIDs)
}

// Batches lazily groups sentences from src into batches of exactly size
// sentences; the final batch holds the remainder (one to size sentences)
// and is always emitted even when incomplete. The sequence is single-pass:
// it consumes src as it is ranged over and stops consuming when the
// caller stops. Any error from src ends the iteration.
func Batches(src func(yield func(Encoded, error) bool), size int) func(yield func(Batch, error) bool) {
	return func(yield func(Batch, error) bool) {
		if size <= 0 {
			yield(Batch{}, errors.Errorf("batch size must be positive, got %d", size))
			return
		}
		var cur Batch
		stopped := false
		src(func(s Encoded, err error) bool {
			if err != nil {
				yield(Batch{}, err)
				stopped = true
				return false
			}
			if cur.Len() == size {
				if !yield(cur, nil) {
					stopped = true
					return false
				}
				cur = Batch{}
			}
			cur.append(s)
			return true
		})
		if stopped {
			return
		}
		if cur.Len() > 0 {
			yield(cur, nil)
		}
	}
}

// append transposes a sentence's (chars, word) token pairs into the
// batch's parallel arrays. Sentences of bare word ids pass through with
// no character column.
func (b *Batch) append(s Encoded) {
	words := make([]int, len(s.Tokens))
	var chars [][]int
	hasChars := len(s.Tokens) > 0 && s.Tokens[0].CharIDs != nil
	if hasChars {
		chars = make([][]int, len(s.Tokens))
	}
	for i, tok := range s.Tokens {
		words[i] = tok.WordID
		if hasChars {
			chars[i] = tok.CharIDs
		}
	}
	b.WordIDs = append(b.WordIDs, words)
	if hasChars {
		b.CharIDs = append(b.CharIDs, chars)
	}
	b.TagIDs = append(b.TagIDs, s.TagIDs)
}

package batch

import (
	"github.com/pkg/errors"

	"github.com/seqtag/go-seqtag/corpus"
	"github.com/seqtag/go-seqtag/encoder"
	"github.com/seqtag/go-seqtag/vocab"
)

// EncodeSentences adapts a corpus sentence iterator into the Encoded
// sequence consumed by Batches, encoding words with enc and tags against
// the tag vocabulary. An unknown tag or encode failure is terminal for
// the iteration: corpora and vocabularies must agree upfront.
func EncodeSentences(src func(yield func(corpus.Sentence, error) bool), enc *encoder.Encoder, tags *vocab.Vocab) func(yield func(Encoded, error) bool) {
	return func(yield func(Encoded, error) bool) {
		src(func(s corpus.Sentence, err error) bool {
			if err != nil {
				yield(Encoded{}, err)
				return false
			}
			out := Encoded{
				Tokens: make([]encoder.Token, len(s.Words)),
				TagIDs: make([]int, len(s.Tags)),
			}
			for i, w := range s.Words {
				tok, err := enc.Encode(w)
				if err != nil {
					yield(Encoded{}, err)
					return false
				}
				out.Tokens[i] = tok
			}
			for i, tag := range s.Tags {
				id, ok := tags.ID(tag)
				if !ok {
					yield(Encoded{}, errors.Errorf("tag %q not in tag vocabulary", tag))
					return false
				}
				out.TagIDs[i] = id
			}
			return yield(out, nil)
		})
	}
}

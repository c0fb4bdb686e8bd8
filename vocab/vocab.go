// Package vocab provides immutable token-to-id vocabularies loaded from
// newline-delimited files, with the reserved sentinel tokens used by the
// sequence-labeling pipeline.
package vocab

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Reserved tokens. Vocabulary files must include the ones required by the
// features enabled at encoding time: Unknown for unknown-word fallback,
// Numeric for digit normalization. Pad is id 0 by convention, matching
// row 0 of the embedding matrix.
const (
	Pad     = "<PAD>"
	Unknown = "<UNK>"
	Numeric = "<NUM>"

	// Outside is the default tag of the BIO scheme, carried by tokens
	// that are not part of any entity.
	Outside = "O"
)

// Vocab is an immutable mapping between tokens and dense integer ids.
// Ids are assigned by line order, starting at 0. A Vocab is read-only
// after construction and safe for concurrent use without locking.
type Vocab struct {
	ids    map[string]int
	tokens []string
}

// Load reads a newline-delimited vocabulary file. The 0-based line index
// of each token is its id.
func Load(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open vocabulary file %q", path)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read vocabulary file %q", path)
	}
	return FromTokens(tokens), nil
}

// FromTokens builds a vocabulary from an ordered token list. The slice
// index of each token is its id. The slice is copied.
func FromTokens(tokens []string) *Vocab {
	v := &Vocab{
		ids:    make(map[string]int, len(tokens)),
		tokens: make([]string, len(tokens)),
	}
	copy(v.tokens, tokens)
	for id, token := range v.tokens {
		v.ids[token] = id
	}
	return v
}

// ID returns the id of token.
func (v *Vocab) ID(token string) (int, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Token returns the token with the given id.
func (v *Vocab) Token(id int) (string, bool) {
	if id < 0 || id >= len(v.tokens) {
		return "", false
	}
	return v.tokens[id], true
}

// Contains reports whether token is in the vocabulary.
func (v *Vocab) Contains(token string) bool {
	_, ok := v.ids[token]
	return ok
}

// Len returns the number of tokens in the vocabulary.
func (v *Vocab) Len() int {
	return len(v.tokens)
}

// Save writes the vocabulary in id order, one token per line, so that
// Load reads back an identical vocabulary.
func (v *Vocab) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create vocabulary file %q", path)
	}
	w := bufio.NewWriter(f)
	for _, token := range v.tokens {
		if _, err := w.WriteString(token + "\n"); err != nil {
			_ = f.Close()
			return errors.Wrapf(err, "failed to write vocabulary file %q", path)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to flush vocabulary file %q", path)
	}
	return errors.Wrapf(f.Close(), "failed to close vocabulary file %q", path)
}

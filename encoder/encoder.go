// Package encoder converts corpus tokens into vocabulary ids, applying
// the normalization, case folding and character-level encoding fixed at
// construction time.
package encoder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/seqtag/go-seqtag/vocab"
)

// Config fixes the encoding behavior of an Encoder at construction.
type Config struct {
	// Lowercase case-folds tokens before the word vocabulary lookup.
	// Character ids are always taken from the original casing.
	Lowercase bool
	// UseChars emits per-character ids from the character vocabulary.
	UseChars bool
	// AllowUnknown falls back to the <UNK> id for out-of-vocabulary
	// words instead of failing the encode call.
	AllowUnknown bool
	// NFC applies Unicode NFC normalization before any other processing.
	NFC bool
}

// Token is an encoded token: the word id, plus the per-character ids when
// character features are enabled. CharIDs is nil when they are not.
type Token struct {
	WordID  int
	CharIDs []int
}

// UnknownTokenError reports a token absent from the word vocabulary while
// unknown fallback is disabled. The caller recovers by enabling the
// fallback or fixing the vocabulary, not by retrying.
type UnknownTokenError struct {
	Token string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("token %q not in vocabulary and unknown fallback is disabled", e.Token)
}

// Encoder maps single tokens to ids. It is a pure function of the
// vocabularies and flags fixed at construction and safe for concurrent
// use.
type Encoder struct {
	words *vocab.Vocab
	chars *vocab.Vocab
	conf  Config
	unkID int
}

// New builds an Encoder over the given vocabularies. words is required;
// chars only when cfg.UseChars is set. The word vocabulary must carry the
// <UNK> sentinel when cfg.AllowUnknown is set.
func New(words, chars *vocab.Vocab, cfg Config) (*Encoder, error) {
	if words == nil {
		return nil, errors.New("word vocabulary is required")
	}
	if cfg.UseChars && chars == nil {
		return nil, errors.New("character features enabled but no character vocabulary given")
	}
	e := &Encoder{words: words, chars: chars, conf: cfg, unkID: -1}
	if id, ok := words.ID(vocab.Unknown); ok {
		e.unkID = id
	} else if cfg.AllowUnknown {
		return nil, errors.Errorf("unknown fallback enabled but %q missing from word vocabulary", vocab.Unknown)
	}
	return e, nil
}

// Encode converts one token into its id form. Character ids come from the
// original casing; characters absent from the character vocabulary are
// dropped, not mapped to an unknown id. Numeric tokens are replaced by
// the <NUM> placeholder before the word lookup.
func (e *Encoder) Encode(word string) (Token, error) {
	if e.conf.NFC {
		word = norm.NFC.String(word)
	}

	var charIDs []int
	if e.conf.UseChars {
		charIDs = make([]int, 0, utf8.RuneCountInString(word))
		for _, r := range word {
			if id, ok := e.chars.ID(string(r)); ok {
				charIDs = append(charIDs, id)
			}
		}
	}

	if e.conf.Lowercase {
		word = strings.ToLower(word)
	}
	if IsNumeric(word) {
		word = vocab.Numeric
	}

	id, ok := e.words.ID(word)
	if !ok {
		if !e.conf.AllowUnknown {
			return Token{}, &UnknownTokenError{Token: word}
		}
		id = e.unkID
	}
	return Token{WordID: id, CharIDs: charIDs}, nil
}

// commaDecimal matches the comma-separated decimal form. It intentionally
// also matches thousands-separated integers like "12,345": downstream
// placeholder substitution depends on that exact pattern.
var commaDecimal = regexp.MustCompile(`^[-+]?[0-9]+,[0-9]+$`)

// IsNumeric reports whether a token is treated as a number and replaced
// by the <NUM> placeholder before lookup. A token qualifies when it
// parses as a floating-point number, is a single rune with a Unicode
// numeric value, or matches the comma decimal form.
func IsNumeric(s string) bool {
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	if r, size := utf8.DecodeRuneInString(s); size > 0 && size == len(s) && unicode.IsNumber(r) {
		return true
	}
	return commaDecimal.MatchString(s)
}

// Package chunk groups a flat BIO tag-id sequence into typed entity
// spans.
package chunk

import (
	"fmt"
	"strings"

	"github.com/seqtag/go-seqtag/vocab"
)

// Chunk is a maximal run of tokens forming one entity: the entity type
// label and the half-open index interval [Start, End) over the tag
// sequence.
type Chunk struct {
	Type  string
	Start int
	End   int
}

// String returns a debug representation, e.g. PER[0:2].
func (c Chunk) String() string {
	return fmt.Sprintf("%s[%d:%d]", c.Type, c.Start, c.End)
}

// beginPrefix is the scheme prefix that forces a new chunk even when the
// entity type does not change.
const beginPrefix = "B"

// open is the in-progress chunk of the extraction scan. A nil *open
// means no chunk is open.
type open struct {
	typ   string
	start int
}

// splitTag decodes a tag name into its scheme prefix and entity type:
// the prefix is the text before the first '-', the type the text after
// the last '-'. A name with no '-' is its own prefix and type.
func splitTag(name string) (prefix, typ string) {
	prefix, typ = name, name
	if i := strings.Index(name, "-"); i >= 0 {
		prefix = name[:i]
	}
	if i := strings.LastIndex(name, "-"); i >= 0 {
		typ = name[i+1:]
	}
	return prefix, typ
}

// Extract scans tagIDs left to right and returns the entity chunks in
// span order, non-overlapping. The outside tag "O" is matched by id
// against the tag vocabulary; every other id is decoded to a (prefix,
// type) pair through it. An open chunk closes on an outside tag, on a
// type change, or on a begin marker (the last two immediately reopening
// at the same position), and a chunk still open after the scan closes at
// len(tagIDs). Ids with no entry in the tag vocabulary are treated as
// outside. Extract is pure and never fails.
func Extract(tagIDs []int, tags *vocab.Vocab) []Chunk {
	outsideID := -1
	if id, ok := tags.ID(vocab.Outside); ok {
		outsideID = id
	}

	var chunks []Chunk
	var cur *open
	for i, id := range tagIDs {
		name, known := tags.Token(id)
		if id == outsideID || !known {
			if cur != nil {
				chunks = append(chunks, Chunk{Type: cur.typ, Start: cur.start, End: i})
				cur = nil
			}
			continue
		}
		prefix, typ := splitTag(name)
		if cur == nil {
			cur = &open{typ: typ, start: i}
			continue
		}
		// The single tie-break: a type change or an explicit begin
		// marker ends the open chunk and starts a new one here.
		if typ != cur.typ || prefix == beginPrefix {
			chunks = append(chunks, Chunk{Type: cur.typ, Start: cur.start, End: i})
			cur = &open{typ: typ, start: i}
		}
	}
	if cur != nil {
		chunks = append(chunks, Chunk{Type: cur.typ, Start: cur.start, End: len(tagIDs)})
	}
	return chunks
}

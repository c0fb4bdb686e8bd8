// Package corpus reads tagged token corpora in the CoNLL one-token-per-line
// layout, yielding one sentence at a time.
package corpus

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DocStart marks a document boundary. A line beginning with it terminates
// the current sentence, just like a blank line.
const DocStart = "-DOCSTART-"

// Sentence is one corpus sentence: the surface words and their
// index-aligned tag strings.
type Sentence struct {
	Words []string
	Tags  []string
}

// MalformedLineError reports a corpus line with fewer delimited fields
// than the configured tag column. It is terminal for the iteration:
// corpus and reader configuration must agree upfront, there is no
// per-line recovery.
type MalformedLineError struct {
	Path   string
	Line   int
	Fields int
	Column int
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("%s:%d: line has %d fields, tag column %d out of range", e.Path, e.Line, e.Fields, e.Column)
}

// Reader iterates a tagged corpus file. Configure it with the chained
// setters, then range over Sentences. Every Sentences call re-opens the
// file, so a Reader can be iterated any number of times.
type Reader struct {
	path         string
	tagColumn    int
	delimiter    string
	maxSentences int

	length      int
	lengthValid bool
}

// NewReader creates a Reader for path, taking the tag from the delimited
// field at tagColumn. The field delimiter defaults to a single space.
func NewReader(path string, tagColumn int) *Reader {
	return &Reader{path: path, tagColumn: tagColumn, delimiter: " "}
}

// WithDelimiter sets the field separator.
func (r *Reader) WithDelimiter(delimiter string) *Reader {
	r.delimiter = delimiter
	return r
}

// WithMaxSentences stops iteration after n sentences. Zero means
// unbounded.
func (r *Reader) WithMaxSentences(n int) *Reader {
	r.maxSentences = n
	return r
}

// Sentences returns an iterator over the corpus. Blank lines and lines
// starting with -DOCSTART- terminate the current sentence; sentences of
// zero tokens are never yielded; a sentence still open at end of file is
// yielded. Any error ends the iteration.
func (r *Reader) Sentences() func(yield func(Sentence, error) bool) {
	return func(yield func(Sentence, error) bool) {
		f, err := os.Open(r.path)
		if err != nil {
			yield(Sentence{}, errors.Wrapf(err, "failed to open corpus %q", r.path))
			return
		}
		defer f.Close()

		var cur Sentence
		count := 0
		// flush yields the pending sentence, if any. It returns false
		// when iteration must stop.
		flush := func() bool {
			if len(cur.Words) == 0 {
				return true
			}
			count++
			if r.maxSentences > 0 && count > r.maxSentences {
				return false
			}
			ok := yield(cur, nil)
			cur = Sentence{}
			return ok
		}

		scanner := bufio.NewScanner(f)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, DocStart) {
				if !flush() {
					return
				}
				continue
			}
			fields := strings.Split(line, r.delimiter)
			if r.tagColumn >= len(fields) {
				yield(Sentence{}, &MalformedLineError{
					Path:   r.path,
					Line:   lineNo,
					Fields: len(fields),
					Column: r.tagColumn,
				})
				return
			}
			cur.Words = append(cur.Words, fields[0])
			cur.Tags = append(cur.Tags, fields[r.tagColumn])
		}
		if err := scanner.Err(); err != nil {
			yield(Sentence{}, errors.Wrapf(err, "failed to read corpus %q", r.path))
			return
		}
		flush()
	}
}

// Len iterates the corpus once and returns the number of sentences the
// Reader yields. The count is cached for subsequent calls.
func (r *Reader) Len() (int, error) {
	if r.lengthValid {
		return r.length, nil
	}
	n := 0
	var iterErr error
	r.Sentences()(func(_ Sentence, err error) bool {
		if err != nil {
			iterErr = err
			return false
		}
		n++
		return true
	})
	if iterErr != nil {
		return 0, iterErr
	}
	klog.V(2).Infof("corpus %s: %d sentences", r.path, n)
	r.length, r.lengthValid = n, true
	return n, nil
}

// Iter adapts an in-memory sentence slice to the iterator shape Sentences
// returns, so parquet corpora feed the same batching pipeline.
func Iter(sentences []Sentence) func(yield func(Sentence, error) bool) {
	return func(yield func(Sentence, error) bool) {
		for _, s := range sentences {
			if !yield(s, nil) {
				return
			}
		}
	}
}

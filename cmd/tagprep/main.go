// tagprep builds the files a sequence-labeling trainer consumes: it scans
// a tagged corpus, writes word, character and tag vocabularies, and
// optionally trims a GloVe text file to the word vocabulary.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"k8s.io/klog/v2"

	"github.com/seqtag/go-seqtag/corpus"
	"github.com/seqtag/go-seqtag/embeddings"
	"github.com/seqtag/go-seqtag/encoder"
	"github.com/seqtag/go-seqtag/vocab"
)

var (
	corpusPath = flag.String("corpus", "", "tagged corpus file (required)")
	tagColumn  = flag.Int("tag-column", 1, "delimited field holding the tag")
	delimiter  = flag.String("delimiter", " ", "field separator")
	lowercase  = flag.Bool("lowercase", true, "case-fold words before collecting the vocabulary")
	outDir     = flag.String("out", ".", "directory for the generated files")
	glovePath  = flag.String("glove", "", "GloVe text file to trim (optional)")
	gloveDim   = flag.Int("dim", 300, "GloVe vector dimension")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *corpusPath == "" {
		fmt.Fprintln(os.Stderr, "tagprep: -corpus is required")
		flag.Usage()
		os.Exit(2)
	}
	if err := run(); err != nil {
		klog.Exitf("tagprep: %v", err)
	}
}

func run() error {
	r := corpus.NewReader(*corpusPath, *tagColumn).WithDelimiter(*delimiter)

	wordSet := map[string]bool{}
	charSet := map[string]bool{}
	tagSet := map[string]bool{}
	sentences := 0
	var iterErr error
	r.Sentences()(func(s corpus.Sentence, err error) bool {
		if err != nil {
			iterErr = err
			return false
		}
		sentences++
		for _, w := range s.Words {
			for _, c := range w {
				charSet[string(c)] = true
			}
			if *lowercase {
				w = strings.ToLower(w)
			}
			if encoder.IsNumeric(w) {
				continue
			}
			wordSet[w] = true
		}
		for _, t := range s.Tags {
			tagSet[t] = true
		}
		return true
	})
	if iterErr != nil {
		return iterErr
	}
	klog.V(1).Infof("scanned %d sentences from %s", sentences, *corpusPath)

	// Sentinels go first so <PAD> lands on id 0, matching embedding row 0.
	words := vocab.FromTokens(append([]string{vocab.Pad, vocab.Unknown, vocab.Numeric}, sorted(wordSet)...))
	chars := vocab.FromTokens(append([]string{vocab.Pad}, sorted(charSet)...))
	tags := vocab.FromTokens(sorted(tagSet))

	if err := words.Save(filepath.Join(*outDir, "words.txt")); err != nil {
		return err
	}
	if err := chars.Save(filepath.Join(*outDir, "chars.txt")); err != nil {
		return err
	}
	if err := tags.Save(filepath.Join(*outDir, "tags.txt")); err != nil {
		return err
	}

	trimmed := "-"
	if *glovePath != "" {
		out := filepath.Join(*outDir, "embeddings.npz")
		if err := embeddings.Trim(*glovePath, words, *gloveDim, out); err != nil {
			return err
		}
		trimmed = out
	}

	style := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	fmt.Println(style.Render(fmt.Sprintf(
		"sentences  %d\nwords      %d\nchars      %d\ntags       %d\nembeddings %s",
		sentences, words.Len(), chars.Len(), tags.Len(), trimmed)))
	return nil
}

func sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

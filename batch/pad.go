// Package batch turns ragged encoded sentences into fixed-shape training
// batches: one- and two-level sequence padding, plus lazy grouping of an
// encoded corpus into batches of parallel arrays.
package batch

import "github.com/pkg/errors"

// Pad right-pads every sequence with padVal to exactly target elements,
// clipping longer sequences first. target <= 0 means the maximum input
// length, computed once over all sequences; inferring it requires at
// least one sequence. The returned lengths are the clipped lengths,
// never the padded ones. Padding a sequence to its own length is a no-op.
func Pad[T any](seqs [][]T, target int, padVal T) ([][]T, []int, error) {
	if target <= 0 {
		if len(seqs) == 0 {
			return nil, nil, errors.New("cannot infer a target length from zero sequences")
		}
		for _, s := range seqs {
			if len(s) > target {
				target = len(s)
			}
		}
	}
	padded := make([][]T, len(seqs))
	lengths := make([]int, len(seqs))
	for i, s := range seqs {
		padded[i], lengths[i] = padOne(s, target, padVal)
	}
	return padded, lengths, nil
}

func padOne[T any](s []T, target int, padVal T) ([]T, int) {
	out := make([]T, target)
	n := copy(out, s)
	for j := n; j < target; j++ {
		out[j] = padVal
	}
	return out, n
}

// PadNested pads a sentence/word/element nesting to a rectangle: every
// word to wordLen elements, every sentence to sentLen words, using a full
// word of padVal as the sentence filler. The returned lengths hold the
// per-word clipped lengths, with 0 filling the sentence tail. sentLen or
// wordLen <= 0 means the respective maximum over the input, which
// requires at least one sentence.
func PadNested[T any](seqs [][][]T, sentLen, wordLen int, padVal T) ([][][]T, [][]int, error) {
	if len(seqs) == 0 && (sentLen <= 0 || wordLen <= 0) {
		return nil, nil, errors.New("cannot infer target lengths from zero sentences")
	}
	if wordLen <= 0 {
		for _, sent := range seqs {
			for _, word := range sent {
				if len(word) > wordLen {
					wordLen = len(word)
				}
			}
		}
	}
	if sentLen <= 0 {
		for _, sent := range seqs {
			if len(sent) > sentLen {
				sentLen = len(sent)
			}
		}
	}

	filler := make([]T, wordLen)
	for i := range filler {
		filler[i] = padVal
	}

	padded := make([][][]T, len(seqs))
	lengths := make([][]int, len(seqs))
	for i, sent := range seqs {
		words := make([][]T, sentLen)
		lens := make([]int, sentLen)
		n := len(sent)
		if n > sentLen {
			n = sentLen
		}
		for j := 0; j < n; j++ {
			words[j], lens[j] = padOne(sent[j], wordLen, padVal)
		}
		for j := n; j < sentLen; j++ {
			words[j] = append([]T(nil), filler...)
		}
		padded[i] = words
		lengths[i] = lens
	}
	return padded, lengths, nil
}

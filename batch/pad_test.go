package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadExtends(t *testing.T) {
	padded, lengths, err := Pad([][]int{{1, 2}, {3}}, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 0, 0}, {3, 0, 0, 0}}, padded)
	assert.Equal(t, []int{2, 1}, lengths)
}

func TestPadClips(t *testing.T) {
	padded, lengths, err := Pad([][]int{{1, 2, 3, 4}}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}}, padded)
	// The reported length is the clipped length, not the original.
	assert.Equal(t, []int{2}, lengths)
}

func TestPadInfersMaxLength(t *testing.T) {
	padded, lengths, err := Pad([][]int{{1}, {2, 3, 4}, {5, 6}}, 0, 9)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 9, 9}, {2, 3, 4}, {5, 6, 9}}, padded)
	assert.Equal(t, []int{1, 3, 2}, lengths)
}

func TestPadExactLengthIsNoOp(t *testing.T) {
	padded, lengths, err := Pad([][]int{{7, 8, 9}}, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{7, 8, 9}}, padded)
	assert.Equal(t, []int{3}, lengths)
}

func TestPadNonZeroPadValue(t *testing.T) {
	padded, _, err := Pad([][]string{{"a"}}, 3, "<PAD>")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "<PAD>", "<PAD>"}}, padded)
}

func TestPadEmptyInputWithoutTargetFails(t *testing.T) {
	_, _, err := Pad([][]int{}, 0, 0)
	require.Error(t, err)
}

func TestPadEmptyInputWithTarget(t *testing.T) {
	padded, lengths, err := Pad([][]int{}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, padded)
	assert.Empty(t, lengths)
}

func TestPadNestedShapes(t *testing.T) {
	// Two sentences, ragged in both words-per-sentence and
	// chars-per-word.
	seqs := [][][]int{
		{{1, 2, 3}, {4}},
		{{5}, {6, 7}, {8}},
	}
	padded, lengths, err := PadNested(seqs, 0, 0, 0)
	require.NoError(t, err)

	require.Len(t, padded, 2)
	for i, sent := range padded {
		require.Len(t, sent, 3, "sentence %d should have 3 words", i)
		for j, word := range sent {
			assert.Len(t, word, 3, "sentence %d word %d should have 3 chars", i, j)
		}
		require.Len(t, lengths[i], 3)
	}

	assert.Equal(t, [][]int{{1, 2, 3}, {4, 0, 0}, {0, 0, 0}}, padded[0])
	assert.Equal(t, []int{3, 1, 0}, lengths[0])
	assert.Equal(t, [][]int{{5, 0, 0}, {6, 7, 0}, {8, 0, 0}}, padded[1])
	assert.Equal(t, []int{1, 2, 1}, lengths[1])
}

func TestPadNestedExplicitTargetsClip(t *testing.T) {
	seqs := [][][]int{
		{{1, 2, 3, 4}, {5}, {6}},
	}
	padded, lengths, err := PadNested(seqs, 2, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, [][][]int{{{1, 2}, {5, 0}}}, padded)
	assert.Equal(t, [][]int{{2, 1}}, lengths)
}

func TestPadNestedEmptyInputWithoutTargetsFails(t *testing.T) {
	_, _, err := PadNested([][][]int{}, 0, 0, 0)
	require.Error(t, err)
}

func TestPadNestedFillerRowsAreIndependent(t *testing.T) {
	padded, _, err := PadNested([][][]int{{{1}}, {}}, 0, 0, 0)
	require.NoError(t, err)
	// Mutating one filler word must not leak into another sentence.
	padded[1][0][0] = 99
	assert.Equal(t, []int{1}, padded[0][0])
}

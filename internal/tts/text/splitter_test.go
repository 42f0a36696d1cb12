package text_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedtape/tts-service/internal/tts/text"
)

const testMaxSize = 3000

// assertContentPreserved verifies that joining all batches with single
// spaces and splitting on whitespace yields the original word sequence.
func assertContentPreserved(t *testing.T, original string, batches []string) {
	t.Helper()

	reconstructed := strings.Join(batches, " ")
	originalWords := strings.Fields(original)
	reconstructedWords := strings.Fields(reconstructed)

	require.Equal(t, len(originalWords), len(reconstructedWords),
		"word count must be preserved")
	assert.Equal(t, originalWords, reconstructedWords)
}

func TestSplitBatches_SmallText(t *testing.T) {
	t.Parallel()

	input := "This is a short text."
	batches := text.SplitBatches(input, testMaxSize)

	require.Len(t, batches, 1)
	assert.Equal(t, input, batches[0])
}

func TestSplitBatches_RespectsMaxSize(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("This is a sentence. ", 200)
	batches := text.SplitBatches(input, testMaxSize)

	require.GreaterOrEqual(t, len(batches), 2,
		"text longer than the limit must be split")

	for i, batch := range batches {
		assert.LessOrEqual(t, len(batch), testMaxSize,
			"batch %d has length %d", i, len(batch))
	}

	assertContentPreserved(t, input, batches)
}

func TestSplitBatches_RespectsSentenceBoundaries(t *testing.T) {
	t.Parallel()

	input := "First sentence. Second sentence. Third sentence."
	batches := text.SplitBatches(input, testMaxSize)

	require.Len(t, batches, 1)
	assert.Equal(t, input, batches[0])
}

func TestSplitBatches_MultiplePunctuationMarks(t *testing.T) {
	t.Parallel()

	batches := text.SplitBatches("Question? Answer! Statement. Exclamation!", testMaxSize)
	assert.Len(t, batches, 1)
}

func TestSplitBatches_NoPunctuation(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("a", testMaxSize+500)
	batches := text.SplitBatches(input, testMaxSize)

	require.GreaterOrEqual(t, len(batches), 2)

	for i, batch := range batches {
		assert.LessOrEqual(t, len(batch), testMaxSize, "batch %d", i)
	}
}

func TestSplitBatches_PreservesContent(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("This is sentence number X. ", 200)
	batches := text.SplitBatches(input, testMaxSize)

	assertContentPreserved(t, input, batches)
}

func TestSplitBatches_ExactlyMaxSize(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("a", testMaxSize)
	batches := text.SplitBatches(input, testMaxSize)

	require.Len(t, batches, 1)
	assert.Len(t, batches[0], testMaxSize)
}

func TestSplitBatches_OneOverMaxSize(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("a", testMaxSize+1)
	batches := text.SplitBatches(input, testMaxSize)

	assert.GreaterOrEqual(t, len(batches), 2)
}

func TestSplitBatches_DifferentProviderLimits(t *testing.T) {
	t.Parallel()

	// The same boundary finder serves every provider limit.
	input := strings.Repeat("This is a sentence. ", 300)

	for _, maxSize := range []int{3000, 4096} {
		batches := text.SplitBatches(input, maxSize)

		require.GreaterOrEqual(t, len(batches), 2, "maxSize %d", maxSize)

		for i, batch := range batches {
			assert.LessOrEqual(t, len(batch), maxSize,
				"maxSize %d, batch %d", maxSize, i)
		}

		assertContentPreserved(t, input, batches)
	}
}

func TestSplitBatches_MultiByteHardSplit(t *testing.T) {
	t.Parallel()

	// Hard splitting must never cut a multi-byte character in half.
	input := strings.Repeat("ü", 120)
	batches := text.SplitBatches(input, 100)

	require.GreaterOrEqual(t, len(batches), 2)

	for _, batch := range batches {
		assert.True(t, strings.HasPrefix(batch, "ü"),
			"batch must start on a rune boundary")
	}
}

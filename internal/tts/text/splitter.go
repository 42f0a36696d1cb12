package text

import (
	"regexp"
	"strings"
)

// sentenceBoundaryPattern matches sentence-ending punctuation followed by
// whitespace. This is the one canonical boundary finder; it is shared by
// every provider regardless of which call-size limit is active.
const sentenceBoundaryPattern = `[.!?]+\s+`

var sentenceBoundary = regexp.MustCompile(sentenceBoundaryPattern)

// SplitBatches divides normalized text into ordered chunks no longer than
// maxSize characters, preferring sentence boundaries. Whole sentences are
// accumulated greedily; a tail with no recognized boundary that exceeds
// maxSize on its own is hard-split by character count.
//
// Joining the returned batches with single spaces and splitting on
// whitespace yields the same word sequence as the input.
func SplitBatches(input string, maxSize int) []string {
	if len(input) <= maxSize {
		return []string{input}
	}

	var (
		batches      []string
		currentBatch strings.Builder
	)

	flush := func() {
		if currentBatch.Len() > 0 {
			batches = append(batches, strings.TrimSpace(currentBatch.String()))
			currentBatch.Reset()
		}
	}

	lastEnd := 0

	for _, match := range sentenceBoundary.FindAllStringIndex(input, -1) {
		sentence := input[lastEnd:match[1]]

		// Flush before a sentence that would push the batch over the limit.
		if currentBatch.Len() > 0 && currentBatch.Len()+len(sentence) > maxSize {
			flush()
		}

		currentBatch.WriteString(sentence)

		lastEnd = match[1]
	}

	// Handle the tail after the last recognized boundary.
	if lastEnd < len(input) {
		remaining := input[lastEnd:]

		if currentBatch.Len() > 0 && currentBatch.Len()+len(remaining) > maxSize {
			flush()
		}

		if len(remaining) > maxSize {
			batches = append(batches, hardSplit(remaining, maxSize)...)
		} else {
			currentBatch.WriteString(remaining)
		}
	}

	flush()

	return batches
}

// hardSplit divides text into fixed-size character chunks with no
// punctuation awareness. Splitting is rune-based so multi-byte characters
// are never cut in half.
func hardSplit(input string, maxSize int) []string {
	runes := []rune(input)

	chunks := make([]string, 0, (len(runes)+maxSize-1)/maxSize)

	for start := 0; start < len(runes); start += maxSize {
		end := min(start+maxSize, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}

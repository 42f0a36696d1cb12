// Package audio provides audio stream handling for the synthesis pipeline.
package audio

import (
	"bytes"
	"errors"
)

// Format represents supported audio container formats.
type Format string

// Formats the providers can return.
const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// ContentTypeMP3 is the MIME type for merged synthesis output.
const ContentTypeMP3 = "audio/mpeg"

// Static errors.
var (
	// ErrNoStreams is returned when a merge is attempted with no input.
	ErrNoStreams = errors.New("no audio streams to merge")

	// ErrEmptyStream is returned when any input stream carries no data.
	ErrEmptyStream = errors.New("audio stream is empty")
)

// MergeStreams concatenates per-batch audio streams in their original order
// into a single playable stream. MP3 frames are self-delimiting, so byte
// concatenation preserves narrative order without re-encoding.
func MergeStreams(streams [][]byte) ([]byte, error) {
	if len(streams) == 0 {
		return nil, ErrNoStreams
	}

	total := 0

	for _, stream := range streams {
		if len(stream) == 0 {
			return nil, ErrEmptyStream
		}

		total += len(stream)
	}

	merged := bytes.NewBuffer(make([]byte, 0, total))

	for _, stream := range streams {
		merged.Write(stream)
	}

	return merged.Bytes(), nil
}

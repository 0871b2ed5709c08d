package speech_extraction

import "github.com/go-audio/audio"

// Interface cuts a stream of audio chunks into utterances.
type Interface interface {
	// Feed consumes one chunk and returns an utterance when this chunk
	// completes one.
	Feed(chunk []int16) (*audio.IntBuffer, bool)
	// Flush returns the utterance in progress, if speech was heard.
	Flush() (*audio.IntBuffer, bool)
	Reset()
}

package speech_to_text

import (
	"context"
	"time"

	"github.com/go-audio/audio"
)

type Segment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Interface transcribes one utterance.
type Interface interface {
	Process(ctx context.Context, wavBuffer audio.Buffer) ([]Segment, error)
}

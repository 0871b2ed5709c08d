package speech_engine

import (
	"context"
	"errors"
	"time"

	"handsfree-presenter/grammar"
	"handsfree-presenter/lifecycle"
)

var (
	ErrNotInitialized    = errors.New("speech engine is not initialized")
	ErrSourceUnavailable = errors.New("speech source unavailable")
	ErrSourceFailed      = errors.New("speech source failed")
)

// Utterance is one recognized phrase with the recognizer's confidence in [0,1].
type Utterance struct {
	Text       string
	Confidence float64
	Duration   time.Duration
}

// Source produces utterances constrained to a grammar from live audio.
//
// Recognize calls handle for every utterance, in order, on the calling
// goroutine. It returns nil once ctx is cancelled and an error if the audio
// source fails.
type Source interface {
	Name() string
	Probe(ctx context.Context) error
	Recognize(ctx context.Context, g grammar.Grammar, handle func(Utterance)) error
}

// Interface is the speech engine. Its lifecycle mirrors the gesture engine.
type Interface interface {
	Initialize(ctx context.Context) error
	// Start returns the run's accepted utterances; the channel is closed
	// when the worker exits.
	Start(g grammar.Grammar) (<-chan Utterance, error)
	Stop()
	State() lifecycle.State
	Err() error
}

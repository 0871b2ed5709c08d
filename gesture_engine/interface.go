package gesture_engine

import (
	"context"
	"errors"

	"handsfree-presenter/gesture"
	"handsfree-presenter/lifecycle"
)

var (
	ErrNotInitialized    = errors.New("gesture engine is not initialized")
	ErrSourceUnavailable = errors.New("motion sensor unavailable")
	ErrSourceFailed      = errors.New("motion sensor failed")
)

// Interface is the motion engine: one worker per Start/Stop pair that feeds
// every sensor frame to the active recognizers.
type Interface interface {
	Initialize(ctx context.Context) error
	// Start returns the run's recognition events. The channel is closed when
	// the worker exits, either after Stop or after a sensor failure.
	Start(recognizers []gesture.Recognizer) (<-chan gesture.RecognitionEvent, error)
	Stop()
	State() lifecycle.State
	// Err reports the failure that ended the last run, if any.
	Err() error
}

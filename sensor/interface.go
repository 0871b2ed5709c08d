// Package sensor delivers skeletal frames from a motion sensor.
package sensor

import (
	"context"

	"handsfree-presenter/skeleton"
)

// Source is a stream of skeletal frames.
//
// Probe opens and closes a trial session. Stream opens a live session and
// calls handle for every frame, in arrival order, on the calling goroutine.
// It returns nil once ctx is cancelled and an error if the session fails.
type Source interface {
	Probe(ctx context.Context) error
	Stream(ctx context.Context, handle func(skeleton.Frame)) error
}

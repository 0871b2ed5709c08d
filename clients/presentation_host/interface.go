package presentation_host

import (
	"context"

	"handsfree-presenter/slideshow"
)

// Interface is a connection to the presentation host bridge.
type Interface interface {
	slideshow.Host
	// Connect dials the bridge. The connection lives until ctx ends or
	// Close is called.
	Connect(ctx context.Context) error
	// Events is closed when the connection ends.
	Events() <-chan slideshow.HostEvent
	Close() error
}

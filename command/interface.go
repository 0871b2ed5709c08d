package command

import "context"

// Detector turns one input modality into commands.
type Detector interface {
	Name() string
	Initialize(ctx context.Context) error
	// Start returns the commands of this run. The channel is closed once the
	// underlying engine stops, after which Err reports why.
	Start(ctx context.Context) (<-chan Command, error)
	// Stop stops the engine and waits for pending translation to finish. No
	// command is delivered after Stop returns.
	Stop()
	Err() error
}

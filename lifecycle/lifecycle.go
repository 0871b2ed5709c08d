// Package lifecycle holds the run state shared by the streaming engines.
package lifecycle

import "fmt"

// State is where an engine is in its Initialize/Start/Stop cycle.
type State int

const (
	Uninitialized State = iota
	Idle
	Running
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Idle:
		return "idle"
	case Running:
		return "running"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// Run is one Start/Stop pair of an engine: the worker's cancel func and its
// done channel are created together and discarded together.
type Run struct {
	cancel func()
	done   chan struct{}
	err    error
}

func NewRun(cancel func()) *Run {
	return &Run{cancel: cancel, done: make(chan struct{})}
}

// Finish is called by the worker as its last action.
func (r *Run) Finish(err error) {
	r.err = err
	close(r.done)
}

// Stop cancels the worker and waits for it to exit.
func (r *Run) Stop() error {
	r.cancel()
	<-r.done

	return r.err
}

// Done reports whether the worker has exited.
func (r *Run) Done() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Err is the worker's failure, valid once Done reports true.
func (r *Run) Err() error {
	if !r.Done() {
		return nil
	}

	return r.err
}

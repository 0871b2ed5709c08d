package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	t.Run("stop cancels and waits for the worker", func(t *testing.T) {
		cancelled := make(chan struct{})
		run := NewRun(func() { close(cancelled) })

		go func() {
			<-cancelled
			run.Finish(nil)
		}()

		assert.False(t, run.Done())
		assert.NoError(t, run.Stop())
		assert.True(t, run.Done())
	})

	t.Run("worker failure is kept", func(t *testing.T) {
		run := NewRun(func() {})
		failure := errors.New("boom")

		assert.NoError(t, run.Err())
		run.Finish(failure)

		assert.True(t, run.Done())
		assert.ErrorIs(t, run.Err(), failure)
		assert.ErrorIs(t, run.Stop(), failure)
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "State(7)", State(7).String())
}

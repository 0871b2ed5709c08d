package gesture_engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"handsfree-presenter/gesture"
	"handsfree-presenter/lifecycle"
	"handsfree-presenter/logger"
	"handsfree-presenter/sensor"
	"handsfree-presenter/skeleton"
)

const defaultEventBuffer = 16

type engineImpl struct {
	source      sensor.Source
	eventBuffer int
	logger      *log.Logger

	// mu serializes Initialize, Start and Stop
	mu          sync.Mutex
	initialized bool
	run         *lifecycle.Run
	lastErr     error
}

type Config struct {
	Source      sensor.Source
	EventBuffer int
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Source == nil {
		return nil, fmt.Errorf("source is nil")
	}

	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}

	return &engineImpl{
		source:      cfg.Source,
		eventBuffer: buffer,
		logger:      logger.NewStyledLogger("GestureEngine"),
	}, nil
}

func (e *engineImpl) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	if err := e.source.Probe(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	e.initialized = true
	e.logger.Debug("sensor probe succeeded")

	return nil
}

func (e *engineImpl) Start(recognizers []gesture.Recognizer) (<-chan gesture.RecognitionEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, ErrNotInitialized
	}

	if e.run != nil {
		e.stopLocked()
	}

	active := make([]gesture.Recognizer, len(recognizers))
	copy(active, recognizers)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan gesture.RecognitionEvent, e.eventBuffer)

	e.run = lifecycle.NewRun(cancel)
	e.lastErr = nil

	go e.work(ctx, e.run, active, events)

	e.logger.Info("started", "recognizers", len(active))

	return events, nil
}

func (e *engineImpl) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
}

func (e *engineImpl) stopLocked() {
	if e.run == nil {
		return
	}

	e.lastErr = e.run.Stop()
	e.run = nil

	e.logger.Info("stopped")
}

func (e *engineImpl) State() lifecycle.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case !e.initialized:
		return lifecycle.Uninitialized
	case e.run != nil && !e.run.Done():
		return lifecycle.Running
	default:
		return lifecycle.Idle
	}
}

func (e *engineImpl) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run != nil {
		return e.run.Err()
	}

	return e.lastErr
}

func (e *engineImpl) work(ctx context.Context, run *lifecycle.Run, recognizers []gesture.Recognizer, events chan<- gesture.RecognitionEvent) {
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSourceFailed, r)
		}

		// Err is settled before consumers observe the closed channel
		run.Finish(err)
		close(events)
	}()

	err = e.source.Stream(ctx, func(frame skeleton.Frame) {
		for _, recognizer := range recognizers {
			ev, ok := e.match(recognizer, frame)
			if !ok {
				continue
			}

			e.logger.Debug("gesture recognized", "gesture", ev.SubType)

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	})

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSourceFailed, err)
		e.logger.Error("sensor stream ended", "error", err)
	}
}

// match isolates a misbehaving recognizer so one bad frame cannot end the run.
func (e *engineImpl) match(recognizer gesture.Recognizer, frame skeleton.Frame) (ev gesture.RecognitionEvent, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("recognizer panicked, frame dropped", "gesture", recognizer.SubType(), "panic", r)
			ev, ok = gesture.RecognitionEvent{}, false
		}
	}()

	return recognizer.MatchFrame(frame)
}

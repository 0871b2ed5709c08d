package speech_engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"handsfree-presenter/grammar"
	"handsfree-presenter/lifecycle"
	"handsfree-presenter/logger"
)

const (
	DefaultConfidenceThreshold = 0.8
	defaultEventBuffer         = 8
)

type engineImpl struct {
	source    Source
	threshold float64
	culture   string
	logger    *log.Logger

	mu          sync.Mutex
	initialized bool
	run         *lifecycle.Run
	lastErr     error
}

type Config struct {
	Source Source
	// Utterances at or below the threshold are dropped. Zero means 0.8.
	ConfidenceThreshold float64
	// Culture applied to grammars that carry none, e.g. "en".
	Culture string
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Source == nil {
		return nil, fmt.Errorf("source is nil")
	}

	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("confidence threshold %v is outside [0,1]", cfg.ConfidenceThreshold)
	}

	threshold := cfg.ConfidenceThreshold
	if threshold == 0 {
		threshold = DefaultConfidenceThreshold
	}

	culture := cfg.Culture
	if culture == "" {
		culture = grammar.DefaultCulture
	}

	return &engineImpl{
		source:    cfg.Source,
		threshold: threshold,
		culture:   culture,
		logger:    logger.NewStyledLogger("SpeechEngine"),
	}, nil
}

func (e *engineImpl) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	if err := e.source.Probe(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, e.source.Name(), err)
	}

	e.initialized = true
	e.logger.Debug("speech source probe succeeded", "source", e.source.Name())

	return nil
}

func (e *engineImpl) Start(g grammar.Grammar) (<-chan Utterance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, ErrNotInitialized
	}

	if e.run != nil {
		e.stopLocked()
	}

	if g.Culture() == "" {
		g = g.WithCulture(e.culture)
	}

	ctx, cancel := context.WithCancel(context.Background())
	utterances := make(chan Utterance, defaultEventBuffer)

	e.run = lifecycle.NewRun(cancel)
	e.lastErr = nil

	go e.work(ctx, e.run, g, utterances)

	e.logger.Info("started", "source", e.source.Name(), "phrases", g.Len(), "culture", g.Culture())

	return utterances, nil
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

func (e *engineImpl) work(ctx context.Context, run *lifecycle.Run, g grammar.Grammar, utterances chan<- Utterance) {
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSourceFailed, r)
		}

		run.Finish(err)
		close(utterances)
	}()

	err = e.source.Recognize(ctx, g, func(u Utterance) {
		if u.Confidence <= e.threshold {
			e.logger.Debug("utterance below confidence threshold", "text", u.Text, "confidence", u.Confidence)
			return
		}

		e.logger.Debug("utterance accepted", "text", u.Text, "confidence", u.Confidence)

		select {
		case utterances <- u:
		case <-ctx.Done():
		}
	})

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSourceFailed, err)
		e.logger.Error("speech source ended", "source", e.source.Name(), "error", err)
	}
}

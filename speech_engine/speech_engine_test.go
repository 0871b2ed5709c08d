package speech_engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handsfree-presenter/grammar"
	"handsfree-presenter/lifecycle"
)

type fakeSource struct {
	probeErr   error
	utterances chan Utterance
	fail       chan error
	grammars   chan grammar.Grammar
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		utterances: make(chan Utterance),
		fail:       make(chan error, 1),
		grammars:   make(chan grammar.Grammar, 4),
	}
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Probe(_ context.Context) error { return s.probeErr }

func (s *fakeSource) Recognize(ctx context.Context, g grammar.Grammar, handle func(Utterance)) error {
	s.grammars <- g

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-s.fail:
			return err
		case u := <-s.utterances:
			handle(u)
		}
	}
}

func startedEngine(t *testing.T, src *fakeSource, cfg Config) (Interface, <-chan Utterance) {
	t.Helper()

	cfg.Source = src
	engine, err := New(&cfg)
	require.NoError(t, err)
	require.NoError(t, engine.Initialize(context.Background()))

	out, err := engine.Start(grammar.NewBuilder().Add("powerpoint next").Build())
	require.NoError(t, err)

	return engine, out
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{})
	assert.Error(t, err)

	_, err = New(&Config{Source: newFakeSource(), ConfidenceThreshold: 1.5})
	assert.Error(t, err)
}

func TestInitialize_ProbeFailure(t *testing.T) {
	src := newFakeSource()
	src.probeErr = errors.New("no microphone")

	engine, err := New(&Config{Source: src})
	require.NoError(t, err)

	err = engine.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "no microphone")
	assert.Equal(t, lifecycle.Uninitialized, engine.State())

	out, err := engine.Start(grammar.NewBuilder().Build())
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Nil(t, out)
}

func TestConfidenceFilter(t *testing.T) {
	src := newFakeSource()
	engine, out := startedEngine(t, src, Config{})
	defer engine.Stop()

	src.utterances <- Utterance{Text: "powerpoint next", Confidence: 0.5}
	src.utterances <- Utterance{Text: "powerpoint next", Confidence: 0.8}
	src.utterances <- Utterance{Text: "powerpoint next", Confidence: 0.81}

	got := <-out
	assert.Equal(t, 0.81, got.Confidence)

	select {
	case extra := <-out:
		t.Fatalf("unexpected utterance %+v", extra)
	default:
	}
}

func TestCustomThreshold(t *testing.T) {
	src := newFakeSource()
	engine, out := startedEngine(t, src, Config{ConfidenceThreshold: 0.3})
	defer engine.Stop()

	src.utterances <- Utterance{Text: "powerpoint next", Confidence: 0.5}
	got := <-out
	assert.Equal(t, "powerpoint next", got.Text)
}

func TestGrammarCulture(t *testing.T) {
	src := newFakeSource()
	engine, _ := startedEngine(t, src, Config{Culture: "de"})
	defer engine.Stop()

	g := <-src.grammars
	assert.Equal(t, "de", g.Culture())
	assert.True(t, g.Contains("powerpoint next"))

	_, err := engine.Start(grammar.NewBuilder().SetCulture("fr").Build())
	require.NoError(t, err)

	g = <-src.grammars
	assert.Equal(t, "fr", g.Culture())
}

func TestStopClosesRun(t *testing.T) {
	src := newFakeSource()
	engine, out := startedEngine(t, src, Config{})
	assert.Equal(t, lifecycle.Running, engine.State())

	engine.Stop()
	engine.Stop()

	_, open := <-out
	assert.False(t, open)
	assert.Equal(t, lifecycle.Idle, engine.State())
	assert.NoError(t, engine.Err())
}

func TestSourceFailure(t *testing.T) {
	src := newFakeSource()
	engine, out := startedEngine(t, src, Config{})

	src.fail <- errors.New("device unplugged")

	select {
	case _, open := <-out:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("utterance channel was not closed after the source failed")
	}

	assert.ErrorIs(t, engine.Err(), ErrSourceFailed)
	assert.Equal(t, lifecycle.Idle, engine.State())

	engine.Stop()
	assert.ErrorIs(t, engine.Err(), ErrSourceFailed)
}

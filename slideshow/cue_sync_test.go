package slideshow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handsfree-presenter/command_detection"
	"handsfree-presenter/cue_index"
	"handsfree-presenter/grammar"
	"handsfree-presenter/speech_engine"
)

type scriptedSpeech struct {
	utterances chan string
}

func (s *scriptedSpeech) Name() string { return "scripted" }

func (s *scriptedSpeech) Probe(_ context.Context) error { return nil }

func (s *scriptedSpeech) Recognize(ctx context.Context, _ grammar.Grammar, handle func(speech_engine.Utterance)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case text := <-s.utterances:
			handle(speech_engine.Utterance{Text: text, Confidence: 0.9})
		}
	}
}

func TestController_SpokenCueAdvancesShow(t *testing.T) {
	cues := cue_index.New()
	require.NoError(t, cues.Set(256, 0, "cue open"))
	require.NoError(t, cues.Set(256, 1, "and now the numbers"))

	src := &scriptedSpeech{utterances: make(chan string)}
	engine, err := speech_engine.New(&speech_engine.Config{Source: src})
	require.NoError(t, err)

	host := &fakeHost{count: 5}
	c := newController(t, host, &recordingReporter{})

	detector, err := command_detection.NewSpeechDetector(&command_detection.SpeechConfig{
		Engine:   engine,
		Cues:     cues,
		Position: c,
	})
	require.NoError(t, err)
	c.Register(detector)

	c.OnShowBegin(context.Background(), 256, 5)
	defer c.OnShowEnd()

	t.Run("cue of a later step is ignored", func(t *testing.T) {
		src.utterances <- "and now the numbers"
		src.utterances <- "powerpoint slide 9"

		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, host.Calls())
		assert.Equal(t, 0, c.CurrentStep())
	})

	t.Run("current cue advances", func(t *testing.T) {
		src.utterances <- "cue open"

		assert.Eventually(t, func() bool { return c.CurrentStep() == 1 }, time.Second, time.Millisecond)
		assert.Equal(t, []string{"next"}, host.Calls())
	})

	t.Run("the following cue now matches", func(t *testing.T) {
		src.utterances <- "and now the numbers"

		assert.Eventually(t, func() bool { return c.CurrentStep() == 2 }, time.Second, time.Millisecond)
		assert.Equal(t, []string{"next", "next"}, host.Calls())
	})
}

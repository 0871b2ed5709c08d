package command_detection

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"handsfree-presenter/command"
	"handsfree-presenter/cue_index"
	"handsfree-presenter/grammar"
	"handsfree-presenter/logger"
	"handsfree-presenter/speech_engine"
)

const (
	DefaultWakeWord = "powerpoint"

	phraseNext     = "next"
	phrasePrevious = "previous"
	phraseEndShow  = "end slideshow"
	phraseSlide    = "slide"
)

var simpleCommands = map[string]command.Type{
	phraseNext:     command.TypeNext,
	phrasePrevious: command.TypePrevious,
	phraseEndShow:  command.TypeEndShow,
}

// Position is the presentation state the speech detector reads when it
// parses slide numbers and checks cues.
type Position interface {
	CurrentSlide() int
	CurrentStep() int
	SlideCount() int
}

// BuildGrammar returns every phrase the speech detector can act on: the
// wake-word commands, one "slide N" per slide and every known cue.
func BuildGrammar(wakeWord string, slideCount int, cues []string) grammar.Grammar {
	b := grammar.NewBuilder()

	for _, phrase := range []string{phraseNext, phrasePrevious, phraseEndShow} {
		b.Add(wakeWord + " " + phrase)
	}

	for i := 1; i <= slideCount; i++ {
		b.Add(fmt.Sprintf("%s %s %d", wakeWord, phraseSlide, i))
	}

	b.Add(cues...)

	return b.Build()
}

type speechDetectorImpl struct {
	engine   speech_engine.Interface
	cues     cue_index.Interface
	position Position
	wakeWord string
	logger   *log.Logger

	mu   sync.Mutex
	quit chan struct{}
	done chan struct{}
}

type SpeechConfig struct {
	Engine   speech_engine.Interface
	Cues     cue_index.Interface
	Position Position
	// WakeWord defaults to "powerpoint".
	WakeWord string
}

func NewSpeechDetector(cfg *SpeechConfig) (command.Detector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is nil")
	}

	if cfg.Cues == nil {
		return nil, fmt.Errorf("cues is nil")
	}

	if cfg.Position == nil {
		return nil, fmt.Errorf("position is nil")
	}

	wakeWord := grammar.Normalize(cfg.WakeWord)
	if wakeWord == "" {
		wakeWord = DefaultWakeWord
	}

	return &speechDetectorImpl{
		engine:   cfg.Engine,
		cues:     cfg.Cues,
		position: cfg.Position,
		wakeWord: wakeWord,
		logger:   logger.NewStyledLogger("SpeechDetector"),
	}, nil
}

func (d *speechDetectorImpl) Name() string {
	return "speech"
}

func (d *speechDetectorImpl) Initialize(ctx context.Context) error {
	return d.engine.Initialize(ctx)
}

func (d *speechDetectorImpl) Start(ctx context.Context) (<-chan command.Command, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	g := BuildGrammar(d.wakeWord, d.position.SlideCount(), d.cues.FlattenAll())

	utterances, err := d.engine.Start(g)
	if err != nil {
		return nil, err
	}

	commands := make(chan command.Command)
	d.quit = make(chan struct{})
	d.done = make(chan struct{})

	go d.translateAll(ctx, utterances, commands, d.quit, d.done)

	return commands, nil
}

func (d *speechDetectorImpl) translateAll(ctx context.Context, utterances <-chan speech_engine.Utterance, commands chan<- command.Command, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer close(commands)

	for u := range utterances {
		cmd, ok, err := d.translate(u.Text)
		if err != nil {
			d.logger.Warn("dropping utterance", "text", u.Text, "error", err)
			continue
		}

		if !ok {
			continue
		}

		if cmd.Type == command.TypeCue && !d.isCurrentCue(cmd.Cue) {
			d.logger.Debug("cue does not match current step", "text", cmd.Cue)
			continue
		}

		d.logger.Info("speech recognized", "text", u.Text, "confidence", u.Confidence, "command", cmd)

		select {
		case commands <- cmd:
		case <-quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

// translate maps recognized text to a command. Text without the wake word is
// a cue. Text with the wake word is a built-in command, or a cue that happens
// to start with the wake word.
func (d *speechDetectorImpl) translate(text string) (command.Command, bool, error) {
	text = grammar.Normalize(text)
	if text == "" {
		return command.Command{}, false, nil
	}

	rest, ok := strings.CutPrefix(text, d.wakeWord+" ")
	if !ok {
		return command.Cue(text), true, nil
	}

	if rest == phraseSlide || strings.HasPrefix(rest, phraseSlide+" ") {
		n, err := d.parseSlide(strings.TrimSpace(strings.TrimPrefix(rest, phraseSlide)))
		if err != nil {
			return command.Command{}, false, err
		}

		return command.GotoSlide(n), true, nil
	}

	if cmdType, ok := simpleCommands[rest]; ok {
		return command.Command{Type: cmdType}, true, nil
	}

	return command.Cue(text), true, nil
}

func (d *speechDetectorImpl) parseSlide(number string) (int, error) {
	n, err := strconv.Atoi(number)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a slide number", ErrMalformedSlideCommand, number)
	}

	count := d.position.SlideCount()
	if n < 1 || n > count {
		return 0, fmt.Errorf("%w: slide %d outside 1..%d", ErrMalformedSlideCommand, n, count)
	}

	return n, nil
}

func (d *speechDetectorImpl) isCurrentCue(text string) bool {
	expected, ok := d.cues.Lookup(d.position.CurrentSlide(), d.position.CurrentStep())
	if !ok {
		return false
	}

	return grammar.Normalize(expected) == text
}

func (d *speechDetectorImpl) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
}

func (d *speechDetectorImpl) stopLocked() {
	if d.done == nil {
		return
	}

	d.engine.Stop()
	close(d.quit)
	<-d.done

	d.quit = nil
	d.done = nil
}

func (d *speechDetectorImpl) Err() error {
	return d.engine.Err()
}

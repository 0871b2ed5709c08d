package listener

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"

	"handsfree-presenter/grammar"
	"handsfree-presenter/speech_engine"
	"handsfree-presenter/speech_extraction"
	"handsfree-presenter/speech_to_text"
)

// pipeline turns audio chunks into grammar-constrained utterances. One
// pipeline serves one Recognize call.
type pipeline struct {
	segmenter   speech_extraction.Interface
	transcriber speech_to_text.Interface
	capture     *speech_extraction.Capture
	grammar     grammar.Grammar
	handle      func(speech_engine.Utterance)
	logger      *log.Logger
}

func newPipeline(segmenterCfg speech_extraction.Config, transcriber speech_to_text.Interface, capture *speech_extraction.Capture, g grammar.Grammar, handle func(speech_engine.Utterance), l *log.Logger) (*pipeline, error) {
	segmenter, err := speech_extraction.New(&segmenterCfg)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		segmenter:   segmenter,
		transcriber: transcriber,
		capture:     capture,
		grammar:     g,
		handle:      handle,
		logger:      l,
	}, nil
}

func (p *pipeline) feed(ctx context.Context, chunk []int16) {
	if buf, ok := p.segmenter.Feed(chunk); ok {
		p.recognize(ctx, buf)
	}
}

func (p *pipeline) flush(ctx context.Context) {
	if buf, ok := p.segmenter.Flush(); ok {
		p.recognize(ctx, buf)
	}
}

// recognize never fails the stream: a bad utterance is logged and dropped.
func (p *pipeline) recognize(ctx context.Context, buf *audio.IntBuffer) {
	duration := time.Duration(len(buf.Data)) * time.Second / time.Duration(buf.Format.SampleRate)

	if p.capture != nil {
		if name, err := p.capture.Write(buf); err != nil {
			p.logger.Warn("failed to capture utterance", "error", err)
		} else {
			p.logger.Debug("captured utterance", "file", name)
		}
	}

	segments, err := p.transcriber.Process(ctx, buf)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("transcription failed", "error", err)
		}
		return
	}

	for _, segment := range segments {
		p.logger.Debugf("[%6s->%6s] %s", segment.Start.Truncate(time.Millisecond), segment.End.Truncate(time.Millisecond), segment.Text)
	}

	text := speech_to_text.Transcript(segments)
	if text == "" {
		return
	}

	phrase, confidence, ok := p.grammar.Match(text)
	if !ok {
		p.logger.Debug("no phrase matches", "text", text)
		return
	}

	p.handle(speech_engine.Utterance{Text: phrase, Confidence: confidence, Duration: duration})
}

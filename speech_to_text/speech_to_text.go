package speech_to_text

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/audio"
)

type sttImpl struct {
	model    whisper.Model
	language string
}

type Config struct {
	Model whisper.Model
	// Language is a whisper language code such as "en". Empty means the
	// model's default.
	Language string
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Model == nil {
		return nil, fmt.Errorf("model is nil")
	}

	return &sttImpl{
		model:    cfg.Model,
		language: cfg.Language,
	}, nil
}

func (stt *sttImpl) Process(ctx context.Context, wavBuffer audio.Buffer) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Create processing context
	whisperCtx, err := stt.model.NewContext()
	if err != nil {
		return nil, err
	}

	if stt.language != "" {
		if err := whisperCtx.SetLanguage(stt.language); err != nil {
			return nil, fmt.Errorf("failed to set language %q: %w", stt.language, err)
		}
	}

	data := wavBuffer.AsFloat32Buffer().Data

	var cb whisper.SegmentCallback

	err = whisperCtx.Process(data, cb)
	if err != nil {
		return nil, err
	}

	var raw []whisper.Segment
	for {
		segment, err := whisperCtx.NextSegment()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		raw = append(raw, segment)
	}

	return outputSegments(raw), nil
}

// outputSegments drops non-speech annotations such as "[BLANK_AUDIO]" or
// "(music)" and repeated text.
func outputSegments(raw []whisper.Segment) []Segment {
	seenText := make(map[string]bool)

	segments := make([]Segment, 0, len(raw))

	for _, segment := range raw {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}

		if text[0] == '(' || text[0] == '[' || text[len(text)-1] == ')' || text[len(text)-1] == ']' {
			continue
		}

		if seenText[text] {
			continue
		}
		seenText[text] = true

		segments = append(segments, Segment{Text: text, Start: segment.Start, End: segment.End})
	}

	return segments
}

// Transcript joins the text of segments.
func Transcript(segments []Segment) string {
	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		texts = append(texts, s.Text)
	}

	return strings.Join(texts, " ")
}

package listener

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"handsfree-presenter/grammar"
	"handsfree-presenter/logger"
	"handsfree-presenter/speech_engine"
	"handsfree-presenter/speech_extraction"
	"handsfree-presenter/speech_to_text"
)

type wavReplayImpl struct {
	fileSys     afero.Fs
	path        string
	realtime    bool
	segmenter   speech_extraction.Config
	transcriber speech_to_text.Interface
	capture     *speech_extraction.Capture
	logger      *log.Logger
}

type WavReplayConfig struct {
	FileSys afero.Fs
	// Path of a 16-bit mono WAV recording
	Path      string
	STTEngine speech_to_text.Interface
	Segmenter speech_extraction.Config
	Capture   *speech_extraction.Capture
	// Realtime paces chunks at the speed they were recorded.
	Realtime bool
}

// NewWavReplay returns a speech source that plays back a recording through
// the same pipeline as the microphone.
func NewWavReplay(cfg *WavReplayConfig) (speech_engine.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("path is empty")
	}

	if cfg.STTEngine == nil {
		return nil, fmt.Errorf("sttEngine is nil")
	}

	return &wavReplayImpl{
		fileSys:     cfg.FileSys,
		path:        cfg.Path,
		realtime:    cfg.Realtime,
		segmenter:   cfg.Segmenter,
		transcriber: cfg.STTEngine,
		capture:     cfg.Capture,
		logger:      logger.NewStyledLogger("WavReplay"),
	}, nil
}

func (r *wavReplayImpl) Name() string {
	return "wav:" + r.path
}

func (r *wavReplayImpl) Probe(_ context.Context) error {
	_, err := r.decode()
	return err
}

func (r *wavReplayImpl) decode() (*audio.IntBuffer, error) {
	file, err := r.fileSys.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid wav file", r.path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode recording: %w", err)
	}

	if buf.Format.NumChannels != 1 || buf.SourceBitDepth != 16 {
		return nil, fmt.Errorf("%s must be 16-bit mono, got %d channels at %d bits", r.path, buf.Format.NumChannels, buf.SourceBitDepth)
	}

	if r.segmenter.SampleRate != 0 && buf.Format.SampleRate != r.segmenter.SampleRate {
		return nil, fmt.Errorf("%s is sampled at %d Hz, expected %d Hz", r.path, buf.Format.SampleRate, r.segmenter.SampleRate)
	}

	return buf, nil
}

func (r *wavReplayImpl) Recognize(ctx context.Context, g grammar.Grammar, handle func(speech_engine.Utterance)) error {
	buf, err := r.decode()
	if err != nil {
		return err
	}

	segmenterCfg := r.segmenter
	segmenterCfg.SampleRate = buf.Format.SampleRate
	if segmenterCfg.ChunkSize == 0 {
		segmenterCfg.ChunkSize = speech_extraction.DefaultChunkSize
	}

	p, err := newPipeline(segmenterCfg, r.transcriber, r.capture, g, handle, r.logger)
	if err != nil {
		return err
	}

	chunkSize := segmenterCfg.ChunkSize
	chunkDuration := time.Duration(chunkSize) * time.Second / time.Duration(buf.Format.SampleRate)

	var ticker *time.Ticker
	if r.realtime {
		ticker = time.NewTicker(chunkDuration)
		defer ticker.Stop()
	}

	for start := 0; start < len(buf.Data); start += chunkSize {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		end := min(start+chunkSize, len(buf.Data))
		chunk := make([]int16, end-start)
		for i, sample := range buf.Data[start:end] {
			chunk[i] = int16(sample)
		}

		p.feed(ctx, chunk)
	}

	p.flush(ctx)

	r.logger.Debug("recording exhausted", "path", r.path)

	// an exhausted recording behaves like a quiet room
	<-ctx.Done()

	return nil
}

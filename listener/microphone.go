package listener

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"

	"handsfree-presenter/grammar"
	"handsfree-presenter/logger"
	"handsfree-presenter/speech_engine"
	"handsfree-presenter/speech_extraction"
	"handsfree-presenter/speech_to_text"
)

type microphoneImpl struct {
	sampleRate  int
	chunkSize   int
	segmenter   speech_extraction.Config
	transcriber speech_to_text.Interface
	capture     *speech_extraction.Capture
	logger      *log.Logger
}

type MicrophoneConfig struct {
	STTEngine speech_to_text.Interface
	Segmenter speech_extraction.Config
	// Capture, when set, keeps a WAV copy of every utterance.
	Capture *speech_extraction.Capture
}

// NewMicrophone returns a speech source reading the default input device.
func NewMicrophone(cfg *MicrophoneConfig) (speech_engine.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.STTEngine == nil {
		return nil, fmt.Errorf("sttEngine is nil")
	}

	segmenter := cfg.Segmenter
	if segmenter.SampleRate == 0 {
		segmenter.SampleRate = speech_extraction.DefaultSampleRate
	}
	if segmenter.ChunkSize == 0 {
		segmenter.ChunkSize = speech_extraction.DefaultChunkSize
	}

	return &microphoneImpl{
		sampleRate:  segmenter.SampleRate,
		chunkSize:   segmenter.ChunkSize,
		segmenter:   segmenter,
		transcriber: cfg.STTEngine,
		capture:     cfg.Capture,
		logger:      logger.NewStyledLogger("Microphone"),
	}, nil
}

func (m *microphoneImpl) Name() string {
	return "microphone"
}

func (m *microphoneImpl) Probe(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer m.freeAudio()

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return fmt.Errorf("no input device: %w", err)
	}

	m.logger.Debug("found input device", "device", device.Name, "channels", device.MaxInputChannels)

	return nil
}

func (m *microphoneImpl) freeAudio() {
	if err := portaudio.Terminate(); err != nil {
		m.logger.Warn("error while freeing audio", "error", err)
	}
}

func (m *microphoneImpl) Recognize(ctx context.Context, g grammar.Grammar, handle func(speech_engine.Utterance)) error {
	p, err := newPipeline(m.segmenter, m.transcriber, m.capture, g, handle, m.logger)
	if err != nil {
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer m.freeAudio()

	in := make([]int16, m.chunkSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(in), in)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err = stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	m.logger.Info("listening", "sample_rate", m.sampleRate, "phrases", g.Len())

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err = stream.Read(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read microphone: %w", err)
		}

		chunk := make([]int16, len(in))
		copy(chunk, in)

		p.feed(ctx, chunk)
	}
}

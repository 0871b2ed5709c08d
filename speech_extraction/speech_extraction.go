package speech_extraction

import (
	"fmt"
	"time"

	"github.com/go-audio/audio"

	"handsfree-presenter/ring_buffer"
	"handsfree-presenter/speech_extraction/vad"
)

const (
	DefaultSampleRate = 16000
	DefaultChunkSize  = 8196
	DefaultQuietTime  = time.Millisecond * 200
	DefaultMinFlux    = 0.001

	// a chunk whose flux is this many times the last loud chunk is an onset,
	// and the inverse marks a quiet chunk
	fluxRatio = 1.75
)

type segmenterImpl struct {
	sampleRate int
	quietTime  time.Duration
	maxTime    time.Duration
	minFlux    float64

	vad        *vad.VAD
	ringBuffer *ring_buffer.Buffer

	heardSomething bool
	quiet          bool
	quietSamples   int
	heardSamples   int
	lastFlux       float64
	samples        []int
}

type Config struct {
	SampleRate int
	ChunkSize  int
	// QuietTime of audio without a new onset ends an utterance.
	QuietTime time.Duration
	// MaxTime caps an utterance. Zero means no cap.
	MaxTime time.Duration
	// MinFlux is the flux an onset needs to reach, so that noise after
	// digital silence does not open an utterance.
	MinFlux float64
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.SampleRate < 0 || cfg.ChunkSize < 0 || cfg.QuietTime < 0 || cfg.MaxTime < 0 || cfg.MinFlux < 0 {
		return nil, fmt.Errorf("segmenter settings must not be negative")
	}

	s := &segmenterImpl{
		sampleRate: cfg.SampleRate,
		quietTime:  cfg.QuietTime,
		maxTime:    cfg.MaxTime,
		minFlux:    cfg.MinFlux,
	}

	if s.sampleRate == 0 {
		s.sampleRate = DefaultSampleRate
	}

	if s.quietTime == 0 {
		s.quietTime = DefaultQuietTime
	}

	if s.minFlux == 0 {
		s.minFlux = DefaultMinFlux
	}

	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}

	s.vad = vad.New(chunkSize)
	s.ringBuffer = ring_buffer.New(chunkSize)

	return s, nil
}

func (s *segmenterImpl) duration(samples int) time.Duration {
	return time.Duration(samples) * time.Second / time.Duration(s.sampleRate)
}

func (s *segmenterImpl) Feed(chunk []int16) (*audio.IntBuffer, bool) {
	// keep a buffer of the first bit of audio before detection
	if !s.heardSomething {
		s.ringBuffer.Add(chunk)
	} else {
		s.append(chunk)
		s.heardSamples += len(chunk)

		if s.maxTime != 0 && s.duration(s.heardSamples) > s.maxTime {
			return s.emit()
		}
	}

	primed := s.vad.Primed()
	flux := s.vad.Flux(chunk)

	if !primed {
		s.lastFlux = flux
		return nil, false
	}

	if s.heardSomething {
		if flux*fluxRatio <= s.lastFlux {
			if s.quiet {
				s.quietSamples += len(chunk)
				if s.duration(s.quietSamples) > s.quietTime {
					return s.emit()
				}
			}

			s.quiet = true
		} else {
			s.quiet = false
			s.quietSamples = 0
			s.lastFlux = flux
		}

		return nil, false
	}

	if flux >= s.minFlux && flux >= s.lastFlux*fluxRatio {
		s.heardSomething = true

		// the ring already holds this chunk
		for _, sample := range s.ringBuffer.Read() {
			s.samples = append(s.samples, int(sample))
		}
	}

	s.lastFlux = flux

	return nil, false
}

func (s *segmenterImpl) append(chunk []int16) {
	for _, sample := range chunk {
		s.samples = append(s.samples, int(sample))
	}
}

func (s *segmenterImpl) Flush() (*audio.IntBuffer, bool) {
	if !s.heardSomething {
		s.Reset()
		return nil, false
	}

	return s.emit()
}

func (s *segmenterImpl) emit() (*audio.IntBuffer, bool) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  s.sampleRate,
		},
		Data:           s.samples,
		SourceBitDepth: 16,
	}

	s.samples = nil
	s.Reset()

	return buf, true
}

func (s *segmenterImpl) Reset() {
	s.vad.Reset()
	s.ringBuffer.Clear()
	s.heardSomething = false
	s.quiet = false
	s.quietSamples = 0
	s.heardSamples = 0
	s.lastFlux = 0
	s.samples = nil
}

package main

import (
	"fmt"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"handsfree-presenter/command"
	"handsfree-presenter/command_detection"
	"handsfree-presenter/cue_index"
	"handsfree-presenter/gesture"
	"handsfree-presenter/gesture_engine"
	"handsfree-presenter/listener"
	"handsfree-presenter/logger"
	"handsfree-presenter/sensor"
	"handsfree-presenter/slideshow"
	"handsfree-presenter/speech_engine"
	"handsfree-presenter/speech_extraction"
	"handsfree-presenter/speech_to_text"
)

// registerDetectors builds both detectors and registers the ones that could
// be built. The returned func frees the speech model. A speech detector that
// could not be built is reported and returned as the error.
func registerDetectors(controller slideshow.Interface, cues cue_index.Interface, mode slideshow.Mode) (func(), error) {
	reporter := slideshow.NewLogReporter()

	gestureDetector, err := newGestureDetector()
	if err != nil {
		logger.Fatal("Invalid gesture configuration", "error", err)
	}
	controller.Register(gestureDetector)

	speechDetector, model, err := newSpeechDetector(cues, controller)
	if err != nil {
		reporter.SourceUnavailable(mode, "speech", err)
		return func() {}, err
	}
	controller.Register(speechDetector)

	released := false

	return func() {
		if !released {
			released = true
			_ = model.Close()
		}
	}, nil
}

func newGestureDetector() (command.Detector, error) {
	var (
		source sensor.Source
		err    error
	)

	if cfg.Sensor.Replay != "" {
		source, err = sensor.NewReplay(&sensor.ReplayConfig{
			FileSys:       fileSys,
			Path:          cfg.Sensor.Replay,
			FrameInterval: cfg.Sensor.FrameInterval,
			Loop:          true,
		})
	} else {
		source, err = sensor.NewWebSocket(&sensor.WebSocketConfig{URL: cfg.Sensor.URL})
	}
	if err != nil {
		return nil, err
	}

	engine, err := gesture_engine.New(&gesture_engine.Config{Source: source})
	if err != nil {
		return nil, err
	}

	table, err := command_detection.ParseGestureTable(cfg.Gesture.Next, cfg.Gesture.Previous)
	if err != nil {
		return nil, err
	}

	return command_detection.NewGestureDetector(&command_detection.GestureConfig{
		Engine: engine,
		Table:  table,
		Options: gesture.SwipeOptions{
			FramesThreshold:       cfg.Gesture.FramesThreshold,
			MinDistance:           cfg.Gesture.MinDistance,
			MaxDistance:           cfg.Gesture.MaxDistance,
			SecondaryAxisVariance: cfg.Gesture.SecondaryVariance,
		},
	})
}

func newSpeechDetector(cues cue_index.Interface, position command_detection.Position) (command.Detector, whisper.Model, error) {
	model, err := whisper.New(cfg.Speech.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load speech model %s: %w", cfg.Speech.Model, err)
	}

	detector, err := buildSpeechDetector(model, cues, position)
	if err != nil {
		_ = model.Close()
		return nil, nil, err
	}

	return detector, model, nil
}

func buildSpeechDetector(model whisper.Model, cues cue_index.Interface, position command_detection.Position) (command.Detector, error) {
	sttEngine, err := speech_to_text.New(&speech_to_text.Config{
		Model:    model,
		Language: cfg.Speech.Language,
	})
	if err != nil {
		return nil, err
	}

	var capture *speech_extraction.Capture
	if cfg.Speech.CaptureDir != "" {
		capture, err = speech_extraction.NewCapture(fileSys, cfg.Speech.CaptureDir)
		if err != nil {
			return nil, err
		}
	}

	segmenter := speech_extraction.Config{SampleRate: cfg.Speech.DeviceSampleRate}

	var source speech_engine.Source
	if cfg.Speech.Replay != "" {
		source, err = listener.NewWavReplay(&listener.WavReplayConfig{
			FileSys:   fileSys,
			Path:      cfg.Speech.Replay,
			STTEngine: sttEngine,
			Segmenter: segmenter,
			Capture:   capture,
			Realtime:  true,
		})
	} else {
		source, err = listener.NewMicrophone(&listener.MicrophoneConfig{
			STTEngine: sttEngine,
			Segmenter: segmenter,
			Capture:   capture,
		})
	}
	if err != nil {
		return nil, err
	}

	engine, err := speech_engine.New(&speech_engine.Config{
		Source:              source,
		ConfidenceThreshold: cfg.Speech.Confidence,
		Culture:             cfg.Speech.Language,
	})
	if err != nil {
		return nil, err
	}

	return command_detection.NewSpeechDetector(&command_detection.SpeechConfig{
		Engine:   engine,
		Cues:     cues,
		Position: position,
		WakeWord: cfg.Speech.WakeWord,
	})
}

// offlineHost stands in for the presentation host when only the sensors are
// checked.
type offlineHost struct{}

func (offlineHost) SlideCount() int       { return 0 }
func (offlineHost) Next() error           { return nil }
func (offlineHost) Previous() error       { return nil }
func (offlineHost) GotoSlide(_ int) error { return nil }
func (offlineHost) EndShow() error        { return nil }

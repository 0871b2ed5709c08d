package sensor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"handsfree-presenter/logger"
	"handsfree-presenter/skeleton"
)

// DefaultFrameInterval matches a 30 fps skeleton stream.
const DefaultFrameInterval = time.Second / 30

type replaySource struct {
	fileSys       afero.Fs
	path          string
	frameInterval time.Duration
	loop          bool
	logger        *log.Logger
}

type ReplayConfig struct {
	FileSys afero.Fs
	// Path of a JSON-lines recording, one frame per line
	Path          string
	FrameInterval time.Duration
	Loop          bool
}

// NewReplay returns a Source that plays back a recorded frame stream.
func NewReplay(cfg *ReplayConfig) (Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("path is empty")
	}

	interval := cfg.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	return &replaySource{
		fileSys:       cfg.FileSys,
		path:          cfg.Path,
		frameInterval: interval,
		loop:          cfg.Loop,
		logger:        logger.NewStyledLogger("SensorReplay"),
	}, nil
}

func (s *replaySource) Probe(_ context.Context) error {
	file, err := s.fileSys.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open recording: %w", err)
	}

	return file.Close()
}

func (s *replaySource) Stream(ctx context.Context, handle func(skeleton.Frame)) error {
	file, err := s.fileSys.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open recording: %w", err)
	}
	defer file.Close()

	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	for {
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		line, delivered := 0, 0
		for scanner.Scan() {
			line++

			if len(scanner.Bytes()) == 0 {
				continue
			}

			var frame skeleton.Frame
			if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
				s.logger.Warn("skipping malformed frame", "line", line, "error", err)
				continue
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}

			handle(frame)
			delivered++
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read recording: %w", err)
		}

		if !s.loop || delivered == 0 {
			break
		}

		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to rewind recording: %w", err)
		}
	}

	s.logger.Debug("recording exhausted", "path", s.path)

	// an exhausted recording behaves like an idle sensor
	<-ctx.Done()

	return nil
}

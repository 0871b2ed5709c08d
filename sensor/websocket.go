package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"handsfree-presenter/logger"
	"handsfree-presenter/skeleton"
)

const defaultHandshakeTimeout = 5 * time.Second

type websocketSource struct {
	url    string
	dialer *websocket.Dialer
	logger *log.Logger
}

type WebSocketConfig struct {
	// URL of the sensor bridge, e.g. ws://localhost:8765/skeleton
	URL              string
	HandshakeTimeout time.Duration
}

// NewWebSocket returns a Source reading one JSON frame per message from a
// sensor bridge.
func NewWebSocket(cfg *WebSocketConfig) (Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("url is empty")
	}

	timeout := cfg.HandshakeTimeout
	if timeout == 0 {
		timeout = defaultHandshakeTimeout
	}

	return &websocketSource{
		url:    cfg.URL,
		dialer: &websocket.Dialer{HandshakeTimeout: timeout},
		logger: logger.NewStyledLogger("SensorBridge"),
	}, nil
}

func (s *websocketSource) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sensor bridge %s: %w", s.url, err)
	}

	return conn, nil
}

func (s *websocketSource) Probe(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}

	return conn.Close()
}

func (s *websocketSource) Stream(ctx context.Context, handle func(skeleton.Frame)) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}

	closed := make(chan struct{})
	defer close(closed)

	// unblock ReadMessage on cancellation
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-closed:
			_ = conn.Close()
		}
	}()

	s.logger.Debug("streaming frames", "url", s.url)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("sensor bridge read failed: %w", err)
		}

		var frame skeleton.Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			s.logger.Warn("dropping malformed frame", "error", err)
			continue
		}

		handle(frame)
	}
}

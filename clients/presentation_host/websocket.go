package presentation_host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"handsfree-presenter/logger"
	"handsfree-presenter/slideshow"
)

const (
	defaultHandshakeTimeout = 5 * time.Second
	writeTimeout            = 2 * time.Second
	eventBuffer             = 16

	actionNext      = "next"
	actionPrevious  = "previous"
	actionGotoSlide = "goto_slide"
	actionEndShow   = "end_show"
)

var ErrNotConnected = errors.New("presentation host is not connected")

// request is sent to the bridge for every navigation call.
type request struct {
	Action string `json:"action"`
	Slide  int    `json:"slide,omitempty"`
}

type clientImpl struct {
	url    string
	dialer *websocket.Dialer
	logger *log.Logger
	events chan slideshow.HostEvent

	// writeMu serializes writers, the websocket allows only one
	writeMu sync.Mutex
	conn    *websocket.Conn
	started bool

	mu         sync.Mutex
	slideCount int
}

type Config struct {
	// URL of the host bridge, e.g. ws://localhost:8766/presentation
	URL              string
	HandshakeTimeout time.Duration
}

func New(cfg *Config) (Interface, error) {
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

	return &clientImpl{
		url:    cfg.URL,
		dialer: &websocket.Dialer{HandshakeTimeout: timeout},
		logger: logger.NewStyledLogger("PresentationHost"),
		events: make(chan slideshow.HostEvent, eventBuffer),
	}, nil
}

func (c *clientImpl) Connect(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// the event stream belongs to one connection
	if c.started {
		return fmt.Errorf("already connected to %s", c.url)
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to presentation host %s: %w", c.url, err)
	}

	c.conn = conn
	c.started = true

	go c.readLoop(ctx, conn)

	c.logger.Info("connected", "url", c.url)

	return nil
}

func (c *clientImpl) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer close(c.events)

	stop := context.AfterFunc(ctx, func() {
		_ = c.Close()
	})
	defer stop()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil || !c.connected() {
				c.logger.Info("presentation host disconnected")
			} else {
				c.logger.Error("presentation host connection lost", "error", err)
			}
			return
		}

		var ev slideshow.HostEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			c.logger.Warn("dropping malformed host event", "error", err)
			continue
		}

		if ev.SlideCount > 0 {
			c.mu.Lock()
			c.slideCount = ev.SlideCount
			c.mu.Unlock()
		}

		c.logger.Debug("host event", "type", ev.Type, "slide", ev.SlideID)

		select {
		case c.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (c *clientImpl) connected() bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn != nil
}

func (c *clientImpl) Events() <-chan slideshow.HostEvent {
	return c.events
}

func (c *clientImpl) SlideCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.slideCount
}

func (c *clientImpl) send(req request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("failed to send %s: %w", req.Action, err)
	}

	return nil
}

func (c *clientImpl) Next() error {
	return c.send(request{Action: actionNext})
}

func (c *clientImpl) Previous() error {
	return c.send(request{Action: actionPrevious})
}

func (c *clientImpl) GotoSlide(n int) error {
	return c.send(request{Action: actionGotoSlide, Slide: n})
}

func (c *clientImpl) EndShow() error {
	return c.send(request{Action: actionEndShow})
}

func (c *clientImpl) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return nil
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil

	return err
}

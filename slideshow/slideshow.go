package slideshow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"handsfree-presenter/command"
	"handsfree-presenter/logger"
)

type controllerImpl struct {
	host     Host
	reporter Reporter
	logger   *log.Logger

	// showMu serializes show begin and end
	showMu    sync.Mutex
	detectors []command.Detector
	running   []command.Detector
	wg        sync.WaitGroup

	// mu guards the position and command dispatch
	mu         sync.Mutex
	showID     string
	slideID    int
	step       int
	slideCount int
}

type Config struct {
	Host Host
	// Reporter defaults to NewLogReporter.
	Reporter Reporter
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Host == nil {
		return nil, fmt.Errorf("host is nil")
	}

	reporter := cfg.Reporter
	if reporter == nil {
		reporter = NewLogReporter()
	}

	return &controllerImpl{
		host:     cfg.Host,
		reporter: reporter,
		logger:   logger.NewStyledLogger("SlideShow"),
	}, nil
}

func (c *controllerImpl) Register(detectors ...command.Detector) {
	c.showMu.Lock()
	defer c.showMu.Unlock()

	c.detectors = append(c.detectors, detectors...)
}

func (c *controllerImpl) CurrentSlide() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.slideID
}

func (c *controllerImpl) CurrentStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.step
}

func (c *controllerImpl) SlideCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.slideCount
}

func (c *controllerImpl) OnShowBegin(ctx context.Context, slideID int, slideCount int) {
	c.showMu.Lock()
	defer c.showMu.Unlock()

	if c.running != nil {
		c.endShowLocked()
	}

	if slideCount <= 0 {
		slideCount = c.host.SlideCount()
	}

	c.mu.Lock()
	c.showID = uuid.NewString()
	c.slideID = slideID
	c.step = 0
	c.slideCount = slideCount
	showLogger := c.logger.With("show", c.showID)
	c.mu.Unlock()

	showLogger.Info("show started", "slide", slideID, "slides", slideCount)

	c.running = make([]command.Detector, 0, len(c.detectors))

	for _, d := range c.detectors {
		if err := d.Initialize(ctx); err != nil {
			c.reporter.SourceUnavailable(ShowMode, d.Name(), err)
			continue
		}

		commands, err := d.Start(ctx)
		if err != nil {
			c.reporter.SourceUnavailable(ShowMode, d.Name(), err)
			continue
		}

		c.running = append(c.running, d)

		c.wg.Add(1)
		go c.dispatchAll(d, commands, showLogger)
	}
}

func (c *controllerImpl) dispatchAll(d command.Detector, commands <-chan command.Command, showLogger *log.Logger) {
	defer c.wg.Done()

	for cmd := range commands {
		c.dispatch(cmd, d.Name(), showLogger)
	}

	if err := d.Err(); err != nil {
		showLogger.Error("detector stopped", "detector", d.Name(), "error", err)
		c.reporter.SourceUnavailable(ShowMode, d.Name(), err)
	}
}

// dispatch may run on any detector's goroutine.
func (c *controllerImpl) dispatch(cmd command.Command, source string, showLogger *log.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()

	showLogger.Info("command", "command", cmd, "detector", source, "slide", c.slideID, "step", c.step)

	var err error

	switch cmd.Type {
	case command.TypeNext:
		err = c.host.Next()
	case command.TypePrevious:
		err = c.host.Previous()
	case command.TypeGotoSlide:
		err = c.host.GotoSlide(cmd.SlideIndex)
	case command.TypeEndShow:
		err = c.host.EndShow()
	case command.TypeCue:
		err = c.host.Next()
		if err == nil {
			c.step++
		}
	default:
		err = fmt.Errorf("unknown command %s", cmd)
	}

	if err != nil {
		showLogger.Error("host rejected command", "command", cmd, "error", err)
	}
}

func (c *controllerImpl) OnShowEnd() {
	c.showMu.Lock()
	defer c.showMu.Unlock()

	c.endShowLocked()
}

func (c *controllerImpl) endShowLocked() {
	for _, d := range c.running {
		d.Stop()
	}
	c.wg.Wait()

	wasRunning := c.running != nil
	c.running = nil

	c.mu.Lock()
	showID := c.showID
	c.showID = ""
	c.slideID = 0
	c.step = 0
	c.mu.Unlock()

	if wasRunning {
		c.logger.Info("show ended", "show", showID)
	}
}

func (c *controllerImpl) OnSlideChanged(slideID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.slideID = slideID
	c.step = 0

	c.logger.Debug("slide changed", "show", c.showID, "slide", slideID)
}

func (c *controllerImpl) Run(ctx context.Context, events <-chan HostEvent) error {
	defer c.OnShowEnd()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				c.logger.Info("host event stream closed")
				return nil
			}

			switch ev.Type {
			case ShowBegin:
				c.OnShowBegin(ctx, ev.SlideID, ev.SlideCount)
			case ShowEnd:
				c.OnShowEnd()
			case SlideChanged:
				c.OnSlideChanged(ev.SlideID)
			default:
				c.logger.Warn("ignoring unknown host event", "type", ev.Type)
			}
		}
	}
}

func (c *controllerImpl) CheckSensors(ctx context.Context) error {
	c.showMu.Lock()
	defer c.showMu.Unlock()

	var errs []error

	for _, d := range c.detectors {
		if err := d.Initialize(ctx); err != nil {
			c.reporter.SourceUnavailable(SetupMode, d.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
			continue
		}

		c.logger.Info("sensor ready", "detector", d.Name())
	}

	return errors.Join(errs...)
}

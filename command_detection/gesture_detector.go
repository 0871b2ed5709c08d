package command_detection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"handsfree-presenter/command"
	"handsfree-presenter/gesture"
	"handsfree-presenter/gesture_engine"
	"handsfree-presenter/logger"
)

// GestureTable binds recognized swipes to navigation commands.
type GestureTable map[gesture.SubType]command.Type

// DefaultGestureTable is a right hand sweeping left for next and a left hand
// sweeping right for previous.
func DefaultGestureTable() GestureTable {
	return GestureTable{
		gesture.RightHandedSwipeFromRightToLeft: command.TypeNext,
		gesture.LeftHandedSwipeFromLeftToRight:  command.TypePrevious,
	}
}

// ParseGestureTable builds a table from sub-type names such as
// "RightHandedSwipeFromRightToLeft".
func ParseGestureTable(next string, previous string) (GestureTable, error) {
	nextType, err := gesture.ParseSubType(next)
	if err != nil {
		return nil, fmt.Errorf("next gesture: %w", err)
	}

	previousType, err := gesture.ParseSubType(previous)
	if err != nil {
		return nil, fmt.Errorf("previous gesture: %w", err)
	}

	if nextType == previousType {
		return nil, fmt.Errorf("next and previous both use %s", nextType)
	}

	return GestureTable{nextType: command.TypeNext, previousType: command.TypePrevious}, nil
}

type gestureDetectorImpl struct {
	engine  gesture_engine.Interface
	table   GestureTable
	options gesture.SwipeOptions
	logger  *log.Logger

	mu   sync.Mutex
	quit chan struct{}
	done chan struct{}
}

type GestureConfig struct {
	Engine gesture_engine.Interface
	// Table defaults to DefaultGestureTable.
	Table   GestureTable
	Options gesture.SwipeOptions
}

func NewGestureDetector(cfg *GestureConfig) (command.Detector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is nil")
	}

	table := cfg.Table
	if len(table) == 0 {
		table = DefaultGestureTable()
	}

	copied := make(GestureTable, len(table))
	for subType, cmd := range table {
		if cmd != command.TypeNext && cmd != command.TypePrevious {
			return nil, fmt.Errorf("%w: %s -> %s", ErrUnmappedGesture, subType, cmd)
		}

		if _, _, err := subType.Split(); err != nil {
			return nil, err
		}

		copied[subType] = cmd
	}

	return &gestureDetectorImpl{
		engine:  cfg.Engine,
		table:   copied,
		options: cfg.Options,
		logger:  logger.NewStyledLogger("GestureDetector"),
	}, nil
}

func (d *gestureDetectorImpl) Name() string {
	return "gesture"
}

func (d *gestureDetectorImpl) Initialize(ctx context.Context) error {
	return d.engine.Initialize(ctx)
}

func (d *gestureDetectorImpl) recognizers() ([]gesture.Recognizer, error) {
	subTypes := make([]gesture.SubType, 0, len(d.table))
	for subType := range d.table {
		subTypes = append(subTypes, subType)
	}
	sort.Slice(subTypes, func(i, j int) bool { return subTypes[i] < subTypes[j] })

	out := make([]gesture.Recognizer, 0, len(subTypes))
	for _, subType := range subTypes {
		r, err := gesture.NewSwipeRecognizerForSubType(subType, d.options)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}

	return out, nil
}

func (d *gestureDetectorImpl) Start(ctx context.Context) (<-chan command.Command, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	recognizers, err := d.recognizers()
	if err != nil {
		return nil, err
	}

	events, err := d.engine.Start(recognizers)
	if err != nil {
		return nil, err
	}

	commands := make(chan command.Command)
	d.quit = make(chan struct{})
	d.done = make(chan struct{})

	go d.translate(ctx, events, commands, d.quit, d.done)

	return commands, nil
}

func (d *gestureDetectorImpl) translate(ctx context.Context, events <-chan gesture.RecognitionEvent, commands chan<- command.Command, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer close(commands)

	for ev := range events {
		cmdType, ok := d.table[ev.SubType]
		if !ok {
			d.logger.Debug("no command for gesture", "gesture", ev.SubType)
			continue
		}

		cmd := command.Command{Type: cmdType}
		d.logger.Info("gesture recognized", "gesture", ev.SubType, "command", cmd)

		select {
		case commands <- cmd:
		case <-quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *gestureDetectorImpl) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
}

func (d *gestureDetectorImpl) stopLocked() {
	if d.done == nil {
		return
	}

	d.engine.Stop()
	close(d.quit)
	<-d.done

	d.quit = nil
	d.done = nil
}

func (d *gestureDetectorImpl) Err() error {
	return d.engine.Err()
}

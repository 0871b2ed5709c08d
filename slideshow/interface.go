package slideshow

import (
	"context"
	"fmt"

	"handsfree-presenter/command"
)

// Host is the presentation program being driven.
type Host interface {
	SlideCount() int
	Next() error
	Previous() error
	GotoSlide(n int) error
	EndShow() error
}

type HostEventType string

const (
	ShowBegin    HostEventType = "show_begin"
	ShowEnd      HostEventType = "show_end"
	SlideChanged HostEventType = "slide_changed"
)

// HostEvent is a notification from the host. SlideCount is only set on
// ShowBegin.
type HostEvent struct {
	Type       HostEventType `json:"type"`
	SlideID    int           `json:"slide_id"`
	SlideCount int           `json:"slide_count,omitempty"`
}

// Mode tells the operator whether a show is waiting on the failure.
type Mode int

const (
	SetupMode Mode = iota
	ShowMode
)

func (m Mode) String() string {
	switch m {
	case SetupMode:
		return "setup"
	case ShowMode:
		return "show"
	}

	return fmt.Sprintf("Mode(%d)", int(m))
}

// Reporter tells the operator a detector could not reach its sensor.
type Reporter interface {
	SourceUnavailable(mode Mode, detector string, err error)
}

type Interface interface {
	// Register adds detectors used by the next show.
	Register(detectors ...command.Detector)
	OnShowBegin(ctx context.Context, slideID int, slideCount int)
	OnShowEnd()
	OnSlideChanged(slideID int)
	// Run follows host events until ctx ends or events closes.
	Run(ctx context.Context, events <-chan HostEvent) error
	// CheckSensors initializes every detector outside of a show.
	CheckSensors(ctx context.Context) error

	CurrentSlide() int
	CurrentStep() int
	SlideCount() int
}

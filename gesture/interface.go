package gesture

import (
	"errors"
	"fmt"

	"handsfree-presenter/skeleton"
)

// ErrUnsupportedGesture is returned when a recognizer is configured with a
// hand or direction it cannot track.
var ErrUnsupportedGesture = errors.New("unsupported gesture")

// Recognizer consumes skeletal frames one at a time. MatchFrame never blocks
// and reports at most one recognition per frame.
type Recognizer interface {
	SubType() SubType
	MatchFrame(frame skeleton.Frame) (RecognitionEvent, bool)
}

type Type int

const (
	SingleHandedSwipe Type = iota
)

func (t Type) String() string {
	if t == SingleHandedSwipe {
		return "SingleHandedSwipe"
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

type Hand int

const (
	LeftHand Hand = iota
	RightHand
	BothHands
)

func (h Hand) String() string {
	switch h {
	case LeftHand:
		return "LeftHand"
	case RightHand:
		return "RightHand"
	case BothHands:
		return "BothHands"
	}

	return fmt.Sprintf("Hand(%d)", int(h))
}

type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
	TopToBottom
	BottomToTop
)

func (d Direction) String() string {
	switch d {
	case LeftToRight:
		return "LeftToRight"
	case RightToLeft:
		return "RightToLeft"
	case TopToBottom:
		return "TopToBottom"
	case BottomToTop:
		return "BottomToTop"
	}

	return fmt.Sprintf("Direction(%d)", int(d))
}

// SubType is a hand × direction combination.
type SubType int

const (
	LeftHandedSwipeFromLeftToRight SubType = iota
	LeftHandedSwipeFromRightToLeft
	LeftHandedSwipeFromTopToBottom
	LeftHandedSwipeFromBottomToTop
	RightHandedSwipeFromLeftToRight
	RightHandedSwipeFromRightToLeft
	RightHandedSwipeFromTopToBottom
	RightHandedSwipeFromBottomToTop
)

var subTypeNames = map[SubType]string{
	LeftHandedSwipeFromLeftToRight:  "LeftHandedSwipeFromLeftToRight",
	LeftHandedSwipeFromRightToLeft:  "LeftHandedSwipeFromRightToLeft",
	LeftHandedSwipeFromTopToBottom:  "LeftHandedSwipeFromTopToBottom",
	LeftHandedSwipeFromBottomToTop:  "LeftHandedSwipeFromBottomToTop",
	RightHandedSwipeFromLeftToRight: "RightHandedSwipeFromLeftToRight",
	RightHandedSwipeFromRightToLeft: "RightHandedSwipeFromRightToLeft",
	RightHandedSwipeFromTopToBottom: "RightHandedSwipeFromTopToBottom",
	RightHandedSwipeFromBottomToTop: "RightHandedSwipeFromBottomToTop",
}

func (s SubType) String() string {
	if name, ok := subTypeNames[s]; ok {
		return name
	}

	return fmt.Sprintf("SubType(%d)", int(s))
}

// Split returns the hand and direction of the sub-type.
func (s SubType) Split() (Hand, Direction, error) {
	if _, ok := subTypeNames[s]; !ok {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnsupportedGesture, s)
	}

	hand := LeftHand
	if s >= RightHandedSwipeFromLeftToRight {
		hand = RightHand
	}

	return hand, Direction(int(s) % 4), nil
}

// SubTypeFor combines a single hand and a direction.
func SubTypeFor(hand Hand, direction Direction) (SubType, error) {
	if direction < LeftToRight || direction > BottomToTop {
		return 0, fmt.Errorf("%w: direction %v", ErrUnsupportedGesture, direction)
	}

	switch hand {
	case LeftHand:
		return SubType(int(direction)), nil
	case RightHand:
		return SubType(4 + int(direction)), nil
	}

	return 0, fmt.Errorf("%w: hand %v", ErrUnsupportedGesture, hand)
}

// ParseSubType resolves a sub-type by its name, as used in configuration.
func ParseSubType(name string) (SubType, error) {
	for subType, n := range subTypeNames {
		if n == name {
			return subType, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedGesture, name)
}

// RecognitionEvent is produced once per satisfied gesture.
type RecognitionEvent struct {
	Type       Type
	SubType    SubType
	Hand       Hand
	Direction  Direction
	Confidence float64
	Start      Point
	End        Point
}

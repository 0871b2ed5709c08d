package command_detection

import "errors"

var (
	// ErrUnmappedGesture is returned when a gesture table binds a sub-type to
	// something other than next or previous.
	ErrUnmappedGesture = errors.New("gesture is not mapped to a navigation command")
	// ErrMalformedSlideCommand marks a "slide N" utterance whose number does
	// not parse or names no slide. Such utterances are dropped.
	ErrMalformedSlideCommand = errors.New("malformed slide command")
)

package gesture

import (
	"fmt"
	"math"

	"handsfree-presenter/skeleton"
)

const (
	DefaultFramesThreshold = 20
	DefaultMinDistance     = 0.0
)

// SwipeOptions tunes the swipe recognizer. Zero fields take the defaults:
// 20 frames, no minimum distance, no maximum distance, unbounded variance.
type SwipeOptions struct {
	FramesThreshold       int
	MinDistance           float64
	MaxDistance           float64
	SecondaryAxisVariance float64
}

func (o SwipeOptions) withDefaults() SwipeOptions {
	if o.FramesThreshold <= 0 {
		o.FramesThreshold = DefaultFramesThreshold
	}
	if o.MinDistance < 0 {
		o.MinDistance = DefaultMinDistance
	}
	if o.MaxDistance <= 0 {
		o.MaxDistance = math.Inf(1)
	}
	if o.SecondaryAxisVariance <= 0 {
		o.SecondaryAxisVariance = math.Inf(1)
	}

	return o
}

// SwipeRecognizer detects a single-handed swipe: FramesThreshold consecutive
// frames of monotonic motion along one axis. It fires once per continuous
// motion and is owned by a single goroutine.
type SwipeRecognizer struct {
	hand      Hand
	direction Direction
	subType   SubType
	opts      SwipeOptions

	// framesMatched, initial and previous only change together, in reset,
	// or together with previous on an accepted frame.
	framesMatched int
	initial       *Point
	previous      *Point
}

func NewSwipeRecognizer(hand Hand, direction Direction, opts SwipeOptions) (*SwipeRecognizer, error) {
	subType, err := SubTypeFor(hand, direction)
	if err != nil {
		return nil, err
	}

	r := &SwipeRecognizer{
		hand:      hand,
		direction: direction,
		subType:   subType,
		opts:      opts.withDefaults(),
	}
	r.reset(nil)

	return r, nil
}

func NewSwipeRecognizerForSubType(subType SubType, opts SwipeOptions) (*SwipeRecognizer, error) {
	hand, direction, err := subType.Split()
	if err != nil {
		return nil, err
	}

	return NewSwipeRecognizer(hand, direction, opts)
}

func (r *SwipeRecognizer) SubType() SubType {
	return r.subType
}

func (r *SwipeRecognizer) String() string {
	return fmt.Sprintf("swipe(%v)", r.subType)
}

func (r *SwipeRecognizer) reset(seed *Point) {
	if seed == nil {
		r.framesMatched = 0
	} else {
		r.framesMatched = 1
	}
	r.initial = seed
	r.previous = seed
}

func (r *SwipeRecognizer) handJoint() skeleton.JointID {
	if r.hand == LeftHand {
		return skeleton.JointHandLeft
	}

	return skeleton.JointHandRight
}

func (r *SwipeRecognizer) MatchFrame(frame skeleton.Frame) (RecognitionEvent, bool) {
	body, ok := frame.FirstTracked()
	if !ok {
		r.reset(nil)
		return RecognitionEvent{}, false
	}

	position, ok := body.Joints[r.handJoint()]
	if !ok {
		r.reset(nil)
		return RecognitionEvent{}, false
	}
	current := PointFromVector(position)

	if r.framesMatched == 0 {
		r.reset(&current)
		return RecognitionEvent{}, false
	}

	if !r.primaryAxisAdvanced(current) || !r.withinVariance(current) {
		r.reset(&current)
		return RecognitionEvent{}, false
	}

	threshold := r.opts.FramesThreshold

	switch {
	case r.framesMatched > threshold:
		// already fired for this motion
		r.advance(current)
		return RecognitionEvent{}, false

	case r.framesMatched < threshold:
		if current.DistanceFrom(*r.initial) > r.opts.MaxDistance {
			r.reset(&current)
			return RecognitionEvent{}, false
		}

		r.advance(current)
		return RecognitionEvent{}, false

	default:
		dist := current.DistanceFrom(*r.initial)
		if dist <= r.opts.MinDistance || dist >= r.opts.MaxDistance {
			r.reset(&current)
			return RecognitionEvent{}, false
		}

		start := *r.initial
		r.advance(current)

		return RecognitionEvent{
			Type:       SingleHandedSwipe,
			SubType:    r.subType,
			Hand:       r.hand,
			Direction:  r.direction,
			Confidence: 1.0,
			Start:      start,
			End:        current,
		}, true
	}
}

func (r *SwipeRecognizer) advance(current Point) {
	r.previous = &current
	r.framesMatched++
}

func (r *SwipeRecognizer) primaryAxisAdvanced(current Point) bool {
	switch r.direction {
	case LeftToRight:
		return current.X > r.previous.X
	case RightToLeft:
		return current.X < r.previous.X
	case TopToBottom:
		return current.Y < r.previous.Y
	case BottomToTop:
		return current.Y > r.previous.Y
	}

	return false
}

func (r *SwipeRecognizer) withinVariance(current Point) bool {
	bound := r.opts.SecondaryAxisVariance

	var secondary float64
	switch r.direction {
	case LeftToRight, RightToLeft:
		secondary = current.Y - r.initial.Y
	default:
		secondary = current.X - r.initial.X
	}

	if math.Abs(secondary) >= bound {
		return false
	}

	if current.Is3D && r.initial.Is3D && math.Abs(current.Z-r.initial.Z) >= bound {
		return false
	}

	return true
}

// Package skeleton holds the skeletal tracking data delivered by a motion sensor.
package skeleton

// TrackingState says how well the sensor follows a skeleton.
type TrackingState string

const (
	NotTracked   TrackingState = "not_tracked"
	PositionOnly TrackingState = "position_only"
	Tracked      TrackingState = "tracked"
)

// JointID names a joint of a tracked skeleton.
type JointID string

const (
	JointHead      JointID = "head"
	JointHandLeft  JointID = "hand_left"
	JointHandRight JointID = "hand_right"
)

// Vector is a sensor-space position in meters.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Skeleton is one body in a frame.
type Skeleton struct {
	TrackingID    int                `json:"tracking_id"`
	TrackingState TrackingState      `json:"tracking_state"`
	Joints        map[JointID]Vector `json:"joints"`
}

// Frame is one sampled instant of skeletal tracking data.
type Frame struct {
	FrameNumber int64      `json:"frame_number"`
	Timestamp   int64      `json:"timestamp"`
	Skeletons   []Skeleton `json:"skeletons"`
}

// FirstTracked returns the first tracked skeleton of the frame.
func (f Frame) FirstTracked() (Skeleton, bool) {
	for _, s := range f.Skeletons {
		if s.TrackingState == Tracked {
			return s, true
		}
	}

	return Skeleton{}, false
}

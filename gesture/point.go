package gesture

import (
	"math"

	"handsfree-presenter/skeleton"
)

// Point is a 3-D position; Is3D marks whether Z carries real depth.
type Point struct {
	X, Y, Z float64
	Is3D    bool
}

func PointFromVector(v skeleton.Vector) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z, Is3D: true}
}

// DistanceFrom is the Euclidean distance between p and other.
func (p Point) DistanceFrom(other Point) float64 {
	return math.Sqrt(math.Pow(p.X-other.X, 2) + math.Pow(p.Y-other.Y, 2) + math.Pow(p.Z-other.Z, 2))
}

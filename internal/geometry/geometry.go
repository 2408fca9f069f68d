// Package geometry holds the small vector helpers shared by the gesture estimators.
package geometry

import (
	"image"
	"math"

	"github.com/golang/geo/r3"
)

// Distance returns the Euclidean distance between two pixel points.
func Distance(p1, p2 image.Point) float64 {
	dx := float64(p2.X - p1.X)
	dy := float64(p2.Y - p1.Y)
	return math.Hypot(dx, dy)
}

// Cross returns the cross product v1 × v2.
func Cross(v1, v2 r3.Vector) r3.Vector {
	return v1.Cross(v2)
}

// Normalize returns the unit vector of v.
// The second result is false when v has exactly zero magnitude, in which case
// the zero vector is returned.
func Normalize(v r3.Vector) (r3.Vector, bool) {
	n := v.Norm()
	if n == 0 {
		return r3.Vector{}, false
	}
	return v.Mul(1 / n), true
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// ClampPercent rounds v and limits it to [0, 100].
func ClampPercent(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

package gesture

import (
	"image"
	"math"

	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/geometry"
)

// Reach is a depth proxy: the pixel distance from the wrist to the middle finger base.
// A larger value means the hand is closer to the camera. It is not calibrated.
func Reach(hand *detector.HandLandmarks, size image.Point) int {
	d := geometry.Distance(hand.Pixel(detector.Wrist, size), hand.Pixel(detector.MiddleMCP, size))
	return int(math.Round(d))
}

// Package detector provides hand detection interfaces and the canonical 21-point hand model.
package detector

import (
	"errors"
	"fmt"
	"image"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrLandmarkCount is returned when a keypoint set does not hold exactly NumLandmarks points.
var ErrLandmarkCount = errors.New("hand must have exactly 21 landmarks")

// Point3D is a normalized landmark: X and Y in [0,1] relative to the frame
// width and height, Z relative depth (more negative is closer to the camera).
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks of one detected hand in one frame.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// NewHandLandmarks builds the canonical hand model from a raw keypoint list.
// The list must be ordered by landmark index and contain exactly NumLandmarks points.
func NewHandLandmarks(points []Point3D, handedness string, score float64) (HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return HandLandmarks{}, fmt.Errorf("%w: got %d", ErrLandmarkCount, len(points))
	}

	h := HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}
	copy(h.Points[:], points)
	return h, nil
}

// Pixel converts landmark idx to integer pixel coordinates for a frame of the given size.
// Coordinates are truncated, not rounded.
func (h *HandLandmarks) Pixel(idx int, size image.Point) image.Point {
	p := h.Points[idx]
	return image.Point{
		X: int(p.X * float64(size.X)),
		Y: int(p.Y * float64(size.Y)),
	}
}

// Pixels converts every landmark to pixel coordinates.
func (h *HandLandmarks) Pixels(size image.Point) [NumLandmarks]image.Point {
	var out [NumLandmarks]image.Point
	for i := range h.Points {
		out[i] = h.Pixel(i, size)
	}
	return out
}

// Package gesture derives hand gesture metrics (openness, palm facing, stationarity, reach)
// from the 21 tracked hand landmarks.
package gesture

import (
	"image"

	"github.com/ayusman/handarm/internal/detector"
)

// OpennessState is the discrete hand openness class.
type OpennessState string

const (
	StateOpen    OpennessState = "OPEN"
	StatePartial OpennessState = "PARTIAL"
	StateClosed  OpennessState = "CLOSED"
)

// Facing is the direction the palm faces relative to the camera.
type Facing string

const (
	FacingCamera Facing = "FACING_CAMERA"
	FacingAway   Facing = "FACING_AWAY"
	SideOn       Facing = "SIDE_ON"
)

// MotionPhase is the stationarity state of the wrist.
type MotionPhase string

const (
	PhaseMoving     MotionPhase = "MOVING"
	PhasePending    MotionPhase = "PENDING_STATIONARY"
	PhaseStationary MotionPhase = "STATIONARY"
)

// Tips holds the fingertip pixel positions used by the spread model and the CSV log.
type Tips struct {
	Thumb  image.Point `json:"thumb"`
	Index  image.Point `json:"index"`
	Middle image.Point `json:"middle"`
}

// TipsOf returns the thumb, index and middle fingertip pixels of hand.
func TipsOf(hand *detector.HandLandmarks, size image.Point) Tips {
	return Tips{
		Thumb:  hand.Pixel(detector.ThumbTip, size),
		Index:  hand.Pixel(detector.IndexTip, size),
		Middle: hand.Pixel(detector.MiddleTip, size),
	}
}

// Metrics is the per-frame gesture summary of the primary hand.
type Metrics struct {
	OpennessPercent int           `json:"openness_percent"`
	OpennessState   OpennessState `json:"openness_state"`
	Facing          Facing        `json:"facing"`
	FacingPercent   int           `json:"facing_percent"`
	Wrist           image.Point   `json:"wrist"`
	Reach           int           `json:"reach"`
	Stationary      bool          `json:"stationary"`
	Motion          MotionPhase   `json:"motion"`
	Tips            Tips          `json:"tips"`
	Handedness      string        `json:"handedness"`
}

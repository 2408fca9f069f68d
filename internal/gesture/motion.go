package gesture

import (
	"image"
	"time"

	"github.com/ayusman/handarm/internal/geometry"
)

// Motion defaults.
const (
	DefaultMovementThreshold  = 5.0
	DefaultStationaryDuration = time.Second
)

// MotionState is the wrist continuity carried from one frame to the next.
// The zero value is the initial state: no previous position, no timer, moving.
type MotionState struct {
	HasPrevious bool
	Previous    image.Point
	Timing      bool
	Since       time.Time
	Phase       MotionPhase
}

// Stationary reports whether the wrist has been still for the required duration.
func (s MotionState) Stationary() bool {
	return s.Phase == PhaseStationary
}

// phase returns Phase, treating the zero value as moving.
func (s MotionState) phase() MotionPhase {
	if s.Phase == "" {
		return PhaseMoving
	}
	return s.Phase
}

// MotionTracker is a hysteresis classifier over consecutive wrist positions.
// A wrist that moves less than Threshold pixels per frame for at least Duration
// becomes stationary; a single larger step makes it moving again.
type MotionTracker struct {
	Threshold float64
	Duration  time.Duration
}

// NewMotionTracker returns a tracker with the default 5px / 1s settings.
func NewMotionTracker() MotionTracker {
	return MotionTracker{Threshold: DefaultMovementThreshold, Duration: DefaultStationaryDuration}
}

// Reset returns the initial state. Call it on every frame without a detected hand.
func (t MotionTracker) Reset() MotionState {
	return MotionState{Phase: PhaseMoving}
}

// Step advances state with the wrist position of a frame captured at now.
func (t MotionTracker) Step(state MotionState, wrist image.Point, now time.Time) MotionState {
	next := state
	next.HasPrevious = true
	next.Previous = wrist
	next.Phase = state.phase()

	if !state.HasPrevious {
		return next
	}

	if geometry.Distance(wrist, state.Previous) >= t.Threshold {
		next.Phase = PhaseMoving
		next.Timing = false
		next.Since = time.Time{}
		return next
	}

	if !state.Timing {
		next.Timing = true
		next.Since = now
		next.Phase = PhasePending
		return next
	}

	if now.Sub(state.Since) >= t.Duration {
		next.Phase = PhaseStationary
	} else {
		next.Phase = PhasePending
	}
	return next
}

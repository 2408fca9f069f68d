package gesture

import (
	"fmt"
	"image"
	"time"

	"github.com/ayusman/handarm/internal/detector"
)

// Config selects and calibrates the estimators.
type Config struct {
	Model              string
	Thresholds         Thresholds
	FingerReach        float64
	ThumbReach         float64
	MinDistance        float64
	MaxDistance        float64
	IncludeIndexMiddle bool
	InvertFacing       bool
	MovementThreshold  float64
	StationaryDuration time.Duration
}

// DefaultConfig returns the extension model with default calibration.
func DefaultConfig() Config {
	return Config{
		Model:              ModelExtension,
		Thresholds:         DefaultThresholds(),
		FingerReach:        DefaultFingerReach,
		ThumbReach:         DefaultThumbReach,
		MinDistance:        DefaultMinDistance,
		MaxDistance:        DefaultMaxDistance,
		IncludeIndexMiddle: true,
		MovementThreshold:  DefaultMovementThreshold,
		StationaryDuration: DefaultStationaryDuration,
	}
}

// Analyzer composes the estimators into per-frame Metrics.
// It holds no per-frame state; motion continuity is passed in and returned.
type Analyzer struct {
	openness    OpennessModel
	thresholds  Thresholds
	orientation Orientation
	motion      MotionTracker
}

// NewAnalyzer builds an Analyzer from cfg.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if cfg.MovementThreshold <= 0 {
		return nil, fmt.Errorf("movement threshold must be positive, got %f", cfg.MovementThreshold)
	}
	if cfg.StationaryDuration < 0 {
		return nil, fmt.Errorf("stationary duration must not be negative, got %s", cfg.StationaryDuration)
	}

	var model OpennessModel
	switch cfg.Model {
	case ModelExtension, "":
		if cfg.FingerReach <= 0 || cfg.ThumbReach <= 0 {
			return nil, fmt.Errorf("extension reach constants must be positive")
		}
		model = ExtensionModel{FingerReach: cfg.FingerReach, ThumbReach: cfg.ThumbReach}
	case ModelDistance:
		if cfg.MinDistance < 0 || cfg.MaxDistance <= cfg.MinDistance {
			return nil, fmt.Errorf("distance model needs 0 <= min < max, got min=%f max=%f", cfg.MinDistance, cfg.MaxDistance)
		}
		model = SpreadModel{
			MinDistance:        cfg.MinDistance,
			MaxDistance:        cfg.MaxDistance,
			IncludeIndexMiddle: cfg.IncludeIndexMiddle,
		}
	default:
		return nil, fmt.Errorf("unknown openness model %q", cfg.Model)
	}

	return &Analyzer{
		openness:    model,
		thresholds:  cfg.Thresholds,
		orientation: Orientation{Invert: cfg.InvertFacing},
		motion:      MotionTracker{Threshold: cfg.MovementThreshold, Duration: cfg.StationaryDuration},
	}, nil
}

// Model returns the active openness model.
func (a *Analyzer) Model() OpennessModel {
	return a.openness
}

// Reset returns the initial motion state.
func (a *Analyzer) Reset() MotionState {
	return a.motion.Reset()
}

// Analyze computes the metrics of hand in a frame of the given size captured at now.
// It returns the metrics and the motion state to carry into the next frame.
func (a *Analyzer) Analyze(hand *detector.HandLandmarks, size image.Point, state MotionState, now time.Time) (Metrics, MotionState) {
	score := a.openness.Score(hand, size)
	facing, facingPct := a.orientation.EstimateHand(hand)
	wrist := hand.Pixel(detector.Wrist, size)
	next := a.motion.Step(state, wrist, now)

	return Metrics{
		OpennessPercent: score,
		OpennessState:   a.thresholds.State(a.openness.Closure(score)),
		Facing:          facing,
		FacingPercent:   facingPct,
		Wrist:           wrist,
		Reach:           Reach(hand, size),
		Stationary:      next.Stationary(),
		Motion:          next.Phase,
		Tips:            TipsOf(hand, size),
		Handedness:      hand.Handedness,
	}, next
}

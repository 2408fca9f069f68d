package gesture

import (
	"fmt"
	"image"
	"math"

	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/geometry"
)

// Openness model names.
const (
	ModelExtension = "extension"
	ModelDistance  = "distance"
)

// Calibration defaults.
const (
	DefaultFingerReach = 0.12 // normalized PIP-to-tip rise of a fully extended finger
	DefaultThumbReach  = 0.08 // normalized sideways thumb extension beyond its MCP
	DefaultMinDistance = 50.0
	DefaultMaxDistance = 200.0
	DefaultOpenBelow   = 30
	DefaultClosedAbove = 70
)

// OpennessModel scores how open a hand is on a 0-100 scale.
type OpennessModel interface {
	// Name identifies the model in config and logs.
	Name() string
	// Score returns the model's 0-100 score for hand.
	Score(hand *detector.HandLandmarks, size image.Point) int
	// Closure converts a score of this model to a closure value, where 100 is fully closed.
	Closure(score int) int
}

// ExtensionModel scores openness from per-finger extension ratios in normalized
// coordinates, so it does not depend on camera resolution. 100 is fully open.
type ExtensionModel struct {
	FingerReach float64
	ThumbReach  float64
}

// NewExtensionModel returns the extension model with default reach constants.
func NewExtensionModel() ExtensionModel {
	return ExtensionModel{FingerReach: DefaultFingerReach, ThumbReach: DefaultThumbReach}
}

func (m ExtensionModel) Name() string { return ModelExtension }

// Ratios returns the clamped extension ratios of the thumb, index and middle fingers.
func (m ExtensionModel) Ratios(hand *detector.HandLandmarks) (thumb, index, middle float64) {
	p := hand.Points
	index = geometry.Clamp01((p[detector.IndexPIP].Y - p[detector.IndexTip].Y) / m.FingerReach)
	middle = geometry.Clamp01((p[detector.MiddlePIP].Y - p[detector.MiddleTip].Y) / m.FingerReach)

	wristX := p[detector.Wrist].X
	thumbSpread := math.Abs(p[detector.ThumbTip].X-wristX) - math.Abs(p[detector.ThumbMCP].X-wristX)
	thumb = geometry.Clamp01(thumbSpread / m.ThumbReach)
	return thumb, index, middle
}

func (m ExtensionModel) Score(hand *detector.HandLandmarks, _ image.Point) int {
	thumb, index, middle := m.Ratios(hand)
	return geometry.ClampPercent((thumb + index + middle) / 3 * 100)
}

func (m ExtensionModel) Closure(score int) int { return 100 - score }

// SpreadModel is the legacy fingertip-distance model. It maps the mean pixel
// distance between fingertips linearly from MinDistance (100, pinched) to
// MaxDistance (0, spread). Both bounds depend on how far the hand is from the camera.
type SpreadModel struct {
	MinDistance        float64
	MaxDistance        float64
	IncludeIndexMiddle bool
}

// NewSpreadModel returns the spread model with default calibration.
func NewSpreadModel() SpreadModel {
	return SpreadModel{
		MinDistance:        DefaultMinDistance,
		MaxDistance:        DefaultMaxDistance,
		IncludeIndexMiddle: true,
	}
}

func (m SpreadModel) Name() string { return ModelDistance }

// MeanDistance averages the fingertip pair distances used by the model.
func (m SpreadModel) MeanDistance(tips Tips) float64 {
	sum := geometry.Distance(tips.Thumb, tips.Index) + geometry.Distance(tips.Thumb, tips.Middle)
	n := 2.0
	if m.IncludeIndexMiddle {
		sum += geometry.Distance(tips.Index, tips.Middle)
		n++
	}
	return sum / n
}

// Percent maps a mean fingertip distance to the unrounded 0-100 score.
func (m SpreadModel) Percent(d float64) float64 {
	switch {
	case d <= m.MinDistance:
		return 100
	case d >= m.MaxDistance:
		return 0
	}
	return 100 - (d-m.MinDistance)/(m.MaxDistance-m.MinDistance)*100
}

// ScoreTips scores three fingertip pixel positions.
func (m SpreadModel) ScoreTips(tips Tips) int {
	return geometry.ClampPercent(m.Percent(m.MeanDistance(tips)))
}

func (m SpreadModel) Score(hand *detector.HandLandmarks, size image.Point) int {
	return m.ScoreTips(TipsOf(hand, size))
}

func (m SpreadModel) Closure(score int) int { return score }

// Thresholds classify a closure value into an OpennessState.
type Thresholds struct {
	OpenBelow   int
	ClosedAbove int
}

// DefaultThresholds returns OPEN below 30 and CLOSED above 70.
func DefaultThresholds() Thresholds {
	return Thresholds{OpenBelow: DefaultOpenBelow, ClosedAbove: DefaultClosedAbove}
}

// Validate reports an error when the thresholds overlap or leave [0,100].
func (t Thresholds) Validate() error {
	if t.OpenBelow < 0 || t.ClosedAbove > 100 {
		return fmt.Errorf("openness thresholds must be within [0,100], got open<%d closed>%d", t.OpenBelow, t.ClosedAbove)
	}
	if t.OpenBelow > t.ClosedAbove {
		return fmt.Errorf("open threshold %d must not exceed closed threshold %d", t.OpenBelow, t.ClosedAbove)
	}
	return nil
}

// State classifies a closure value.
func (t Thresholds) State(closure int) OpennessState {
	switch {
	case closure > t.ClosedAbove:
		return StateClosed
	case closure < t.OpenBelow:
		return StateOpen
	default:
		return StatePartial
	}
}

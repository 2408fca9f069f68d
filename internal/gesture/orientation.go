package gesture

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/geometry"
)

// Facing classification bounds on the facing percentage.
const (
	FacingAwayMax   = 40
	FacingCameraMin = 60
	degeneratePct   = 50
)

// Orientation estimates which way the palm faces from the normal of the plane
// spanned by the wrist, index base and pinky base.
//
// The sign of the normal depends on handedness and on the v1 × v2 order, so the
// polarity must be checked against a real hand; Invert flips it.
type Orientation struct {
	Invert bool
}

// Estimate returns the facing direction and a 0-100 facing percentage.
// Collinear inputs have no normal and yield (SideOn, 50).
func (o Orientation) Estimate(wrist, indexBase, pinkyBase r3.Vector) (Facing, int) {
	v1 := indexBase.Sub(wrist)
	v2 := pinkyBase.Sub(wrist)

	normal, ok := geometry.Normalize(geometry.Cross(v1, v2))
	if !ok {
		return SideOn, degeneratePct
	}

	percent := int(math.Round((1 - (normal.Z+1)/2) * 100))
	if o.Invert {
		percent = 100 - percent
	}
	return FacingFromPercent(percent), percent
}

// EstimateHand runs Estimate on the wrist, index MCP and pinky MCP of hand.
func (o Orientation) EstimateHand(hand *detector.HandLandmarks) (Facing, int) {
	return o.Estimate(
		vec(hand.Points[detector.Wrist]),
		vec(hand.Points[detector.IndexMCP]),
		vec(hand.Points[detector.PinkyMCP]),
	)
}

// FacingFromPercent classifies a facing percentage.
func FacingFromPercent(percent int) Facing {
	switch {
	case percent <= FacingAwayMax:
		return FacingAway
	case percent >= FacingCameraMin:
		return FacingCamera
	default:
		return SideOn
	}
}

func vec(p detector.Point3D) r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

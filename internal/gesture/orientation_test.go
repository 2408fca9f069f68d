package gesture

import (
	"testing"

	"github.com/golang/geo/r3"

	"github.com/ayusman/handarm/internal/detector"
)

func TestOrientation_Collinear(t *testing.T) {
	o := Orientation{}

	tests := []struct {
		name                    string
		wrist, index, pinkyBase r3.Vector
	}{
		{"on a line", r3.Vector{}, r3.Vector{X: 0.1, Y: 0.1}, r3.Vector{X: 0.2, Y: 0.2}},
		{"coincident", r3.Vector{X: 0.5, Y: 0.5}, r3.Vector{X: 0.5, Y: 0.5}, r3.Vector{X: 0.5, Y: 0.5}},
		{"opposite directions", r3.Vector{X: 0.5, Y: 0.5, Z: 0.1}, r3.Vector{X: 0.6, Y: 0.5, Z: 0.1}, r3.Vector{X: 0.4, Y: 0.5, Z: 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facing, pct := o.Estimate(tt.wrist, tt.index, tt.pinkyBase)
			if facing != SideOn || pct != 50 {
				t.Errorf("Estimate() = (%s, %d), want (SIDE_ON, 50)", facing, pct)
			}
		})
	}
}

func TestOrientation_Planes(t *testing.T) {
	tests := []struct {
		name       string
		index      r3.Vector
		pinkyBase  r3.Vector
		invert     bool
		wantFacing Facing
		wantPct    int
	}{
		{"normal +z", r3.Vector{X: 1}, r3.Vector{Y: 1}, false, FacingAway, 0},
		{"normal -z", r3.Vector{Y: 1}, r3.Vector{X: 1}, false, FacingCamera, 100},
		{"normal +x", r3.Vector{Y: 1}, r3.Vector{Z: 1}, false, SideOn, 50},
		{"normal +z inverted", r3.Vector{X: 1}, r3.Vector{Y: 1}, true, FacingCamera, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Orientation{Invert: tt.invert}
			facing, pct := o.Estimate(r3.Vector{}, tt.index, tt.pinkyBase)
			if facing != tt.wantFacing || pct != tt.wantPct {
				t.Errorf("Estimate() = (%s, %d), want (%s, %d)", facing, pct, tt.wantFacing, tt.wantPct)
			}
		})
	}
}

func TestOrientation_OpenPalmFixture(t *testing.T) {
	palm := detector.OpenPalmLandmarks()

	facing, pct := Orientation{}.EstimateHand(&palm)
	if facing != FacingCamera || pct != 100 {
		t.Errorf("open palm = (%s, %d), want (FACING_CAMERA, 100)", facing, pct)
	}

	facing, pct = Orientation{Invert: true}.EstimateHand(&palm)
	if facing != FacingAway || pct != 0 {
		t.Errorf("inverted open palm = (%s, %d), want (FACING_AWAY, 0)", facing, pct)
	}
}

func TestFacingFromPercent(t *testing.T) {
	tests := []struct {
		pct  int
		want Facing
	}{
		{0, FacingAway},
		{40, FacingAway},
		{41, SideOn},
		{59, SideOn},
		{60, FacingCamera},
		{100, FacingCamera},
	}
	for _, tt := range tests {
		if got := FacingFromPercent(tt.pct); got != tt.want {
			t.Errorf("FacingFromPercent(%d) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}

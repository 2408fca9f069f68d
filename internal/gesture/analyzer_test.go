package gesture

import (
	"image"
	"testing"
	"time"

	"github.com/ayusman/handarm/internal/detector"
)

func TestNewAnalyzer_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"distance model", func(c *Config) { c.Model = ModelDistance }, false},
		{"unknown model", func(c *Config) { c.Model = "curl" }, true},
		{"overlapping thresholds", func(c *Config) { c.Thresholds = Thresholds{OpenBelow: 80, ClosedAbove: 20} }, true},
		{"zero movement threshold", func(c *Config) { c.MovementThreshold = 0 }, true},
		{"zero finger reach", func(c *Config) { c.FingerReach = 0 }, true},
		{"distance min above max", func(c *Config) {
			c.Model = ModelDistance
			c.MinDistance, c.MaxDistance = 200, 50
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewAnalyzer(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewAnalyzer() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnalyzer_OpenPalm(t *testing.T) {
	a, err := NewAnalyzer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	hand := detector.OpenPalmLandmarks()
	m, state := a.Analyze(&hand, frameSize, a.Reset(), t0)

	if m.OpennessPercent != 100 || m.OpennessState != StateOpen {
		t.Errorf("openness = %d %s, want 100 OPEN", m.OpennessPercent, m.OpennessState)
	}
	if m.Facing != FacingCamera || m.FacingPercent != 100 {
		t.Errorf("facing = %s %d, want FACING_CAMERA 100", m.Facing, m.FacingPercent)
	}
	if m.Wrist != image.Pt(320, 384) {
		t.Errorf("wrist = %v, want (320,384)", m.Wrist)
	}
	if m.Reach != 68 {
		t.Errorf("reach = %d, want 68", m.Reach)
	}
	if m.Tips.Thumb != image.Pt(467, 288) || m.Tips.Middle != image.Pt(320, 134) {
		t.Errorf("tips = %+v", m.Tips)
	}
	if m.Stationary || m.Motion != PhaseMoving {
		t.Errorf("first frame motion = %s stationary=%v", m.Motion, m.Stationary)
	}
	if m.Handedness != "Right" {
		t.Errorf("handedness = %q", m.Handedness)
	}
	if !state.HasPrevious {
		t.Error("returned state should carry the wrist position")
	}
}

func TestAnalyzer_DistanceModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = ModelDistance
	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	if a.Model().Name() != ModelDistance {
		t.Fatalf("model = %s", a.Model().Name())
	}

	fist := detector.FistLandmarks()
	m, _ := a.Analyze(&fist, frameSize, a.Reset(), t0)
	if m.OpennessPercent != 100 || m.OpennessState != StateClosed {
		t.Errorf("fist = %d %s, want 100 CLOSED", m.OpennessPercent, m.OpennessState)
	}
}

func TestAnalyzer_Deterministic(t *testing.T) {
	a, err := NewAnalyzer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	hand := detector.ThumbsUpLandmarks()
	state := a.Reset()
	m1, s1 := a.Analyze(&hand, frameSize, state, t0)
	m2, s2 := a.Analyze(&hand, frameSize, state, t0)
	if m1 != m2 || s1 != s2 {
		t.Errorf("same inputs gave different results:\n%+v\n%+v", m1, m2)
	}
}

func TestAnalyzer_StationaryAcrossFrames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StationaryDuration = 300 * time.Millisecond
	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	hand := detector.OpenPalmLandmarks()
	state := a.Reset()
	var m Metrics
	for i := 0; i < 5; i++ {
		m, state = a.Analyze(&hand, frameSize, state, at(time.Duration(i)*100*time.Millisecond))
	}
	if !m.Stationary {
		t.Errorf("motion = %s after 400ms still, want STATIONARY", m.Motion)
	}

	moved := detector.Translated(hand, 0.1, 0)
	m, _ = a.Analyze(&moved, frameSize, state, at(500*time.Millisecond))
	if m.Stationary {
		t.Error("a 64px jump should clear stationary")
	}
}

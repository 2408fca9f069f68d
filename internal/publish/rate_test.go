package publish

import (
	"testing"
	"time"
)

func TestFrameLimiter_Cadence(t *testing.T) {
	l := NewFrameLimiter(5)
	now := time.Now()

	var allowed []int
	for i := 0; i < 16; i++ {
		if l.Allow(now) {
			allowed = append(allowed, i)
		}
	}

	want := []int{0, 5, 10, 15}
	if len(allowed) != len(want) {
		t.Fatalf("allowed = %v, want %v", allowed, want)
	}
	for i := range want {
		if allowed[i] != want[i] {
			t.Fatalf("allowed = %v, want %v", allowed, want)
		}
	}
}

func TestFrameLimiter_EveryOne(t *testing.T) {
	for _, n := range []int{1, 0, -3} {
		l := NewFrameLimiter(n)
		for i := 0; i < 5; i++ {
			if !l.Allow(time.Time{}) {
				t.Fatalf("n=%d: call %d denied", n, i)
			}
		}
	}
}

func TestIntervalLimiter(t *testing.T) {
	l := NewIntervalLimiter(500 * time.Millisecond)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		offset time.Duration
		want   bool
	}{
		{0, true},
		{100 * time.Millisecond, false},
		{499 * time.Millisecond, false},
		{500 * time.Millisecond, true},
		{900 * time.Millisecond, false},
		{1100 * time.Millisecond, true},
	}
	for _, tt := range tests {
		if got := l.Allow(base.Add(tt.offset)); got != tt.want {
			t.Errorf("Allow(+%s) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestNewLimiter(t *testing.T) {
	l, err := NewLimiter(Config{EveryFrames: 3, Interval: time.Second})
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}
	if _, ok := l.(*FrameLimiter); !ok {
		t.Errorf("every_frames should take precedence, got %T", l)
	}

	l, err = NewLimiter(Config{Interval: time.Second})
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}
	if _, ok := l.(*IntervalLimiter); !ok {
		t.Errorf("got %T, want *IntervalLimiter", l)
	}

	if _, err := NewLimiter(Config{}); err == nil {
		t.Error("expected error with no cadence")
	}
}

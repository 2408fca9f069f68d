package publish

import (
	"fmt"
	"sync"
	"time"
)

// Limiter decides whether the current frame may publish.
// Allow is called once per frame that carries a hand.
type Limiter interface {
	Allow(now time.Time) bool
}

// FrameLimiter allows every Every-th call, starting with the first: calls 0, N, 2N, ...
// Its cadence follows the frame rate, so runs are reproducible.
type FrameLimiter struct {
	Every int

	count int
}

// NewFrameLimiter returns a limiter allowing one in every n calls. n < 1 is treated as 1.
func NewFrameLimiter(n int) *FrameLimiter {
	if n < 1 {
		n = 1
	}
	return &FrameLimiter{Every: n}
}

func (l *FrameLimiter) Allow(time.Time) bool {
	every := l.Every
	if every < 1 {
		every = 1
	}
	ok := l.count%every == 0
	l.count++
	return ok
}

// IntervalLimiter allows a call when at least Interval has passed since the last allowed one.
type IntervalLimiter struct {
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewIntervalLimiter returns a wall-clock limiter.
func NewIntervalLimiter(d time.Duration) *IntervalLimiter {
	return &IntervalLimiter{Interval: d}
}

func (l *IntervalLimiter) Allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.last.IsZero() && now.Sub(l.last) < l.Interval {
		return false
	}
	l.last = now
	return true
}

// NewLimiter builds the limiter selected by cfg.
func NewLimiter(cfg Config) (Limiter, error) {
	switch {
	case cfg.EveryFrames > 0:
		return NewFrameLimiter(cfg.EveryFrames), nil
	case cfg.Interval > 0:
		return NewIntervalLimiter(cfg.Interval), nil
	default:
		return nil, fmt.Errorf("publish cadence needs every_frames > 0 or interval > 0")
	}
}

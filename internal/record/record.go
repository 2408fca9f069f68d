// Package record keeps a throttled log of per-frame gesture metrics.
package record

import (
	"errors"
	"sync"
	"time"

	"github.com/ayusman/handarm/internal/gesture"
)

// DefaultInterval is the minimum wall-clock gap between saved samples.
const DefaultInterval = 500 * time.Millisecond

// Sample is one saved frame.
type Sample struct {
	Time    time.Time
	Metrics gesture.Metrics
}

// Recorder persists samples.
type Recorder interface {
	Record(s Sample) error
	Close() error
}

// Throttled forwards at most one sample per interval to the wrapped recorder.
// The gate runs on sample time and is independent of the publish cadence.
type Throttled struct {
	rec      Recorder
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewThrottled wraps rec. A non-positive interval records every sample.
func NewThrottled(rec Recorder, interval time.Duration) *Throttled {
	return &Throttled{rec: rec, interval: interval}
}

// Due reports whether a sample taken at now would be recorded.
func (t *Throttled) Due(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.due(now)
}

func (t *Throttled) due(now time.Time) bool {
	return t.last.IsZero() || now.Sub(t.last) >= t.interval
}

// Record saves s if the interval has elapsed since the last saved sample.
func (t *Throttled) Record(s Sample) error {
	t.mu.Lock()
	if !t.due(s.Time) {
		t.mu.Unlock()
		return nil
	}
	t.last = s.Time
	t.mu.Unlock()
	return t.rec.Record(s)
}

func (t *Throttled) Close() error {
	return t.rec.Close()
}

// Multi fans samples out to several recorders.
type Multi []Recorder

func (m Multi) Record(s Sample) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package app

import (
	"image"
	"time"

	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/gesture"
	"github.com/ayusman/handarm/internal/publish"
)

// Result is what one frame produced. All fields are nil when no hand was seen.
type Result struct {
	Hand    *detector.HandLandmarks
	Metrics *gesture.Metrics
	// Message is set when the limiter allowed this frame to be published.
	Message *publish.Message
}

// Pipeline turns the hands detected in one frame into metrics and an optional
// arm command. It carries the motion state from frame to frame and is not
// safe for concurrent use.
type Pipeline struct {
	analyzer *gesture.Analyzer
	limiter  publish.Limiter
	primary  string
	state    gesture.MotionState
}

// NewPipeline creates a pipeline. primary is "Left", "Right" or "any";
// a nil limiter never publishes.
func NewPipeline(analyzer *gesture.Analyzer, limiter publish.Limiter, primary string) *Pipeline {
	return &Pipeline{
		analyzer: analyzer,
		limiter:  limiter,
		primary:  primary,
		state:    analyzer.Reset(),
	}
}

// Process analyzes the primary hand of a frame of the given size captured at now.
func (p *Pipeline) Process(hands []detector.HandLandmarks, size image.Point, now time.Time) Result {
	hand := SelectPrimary(hands, p.primary)
	if hand == nil {
		// Losing the hand breaks stationarity.
		p.state = p.analyzer.Reset()
		return Result{}
	}

	m, next := p.analyzer.Analyze(hand, size, p.state, now)
	p.state = next

	res := Result{Hand: hand, Metrics: &m}
	if p.limiter != nil && p.limiter.Allow(now) {
		res.Message = &publish.Message{X: m.Wrist.X, Y: m.Wrist.Y, Openness: m.OpennessPercent}
	}
	return res
}

// Reset clears the motion state.
func (p *Pipeline) Reset() {
	p.state = p.analyzer.Reset()
}

// Model returns the name of the active openness model.
func (p *Pipeline) Model() string {
	return p.analyzer.Model().Name()
}

// SelectPrimary returns the first hand whose handedness matches primary,
// falling back to the first hand. It returns nil when hands is empty.
func SelectPrimary(hands []detector.HandLandmarks, primary string) *detector.HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	if primary == "Left" || primary == "Right" {
		for i := range hands {
			if hands[i].Handedness == primary {
				return &hands[i]
			}
		}
	}
	return &hands[0]
}

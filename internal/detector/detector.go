package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to report (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Script is the path of the landmark service script. Empty means search the usual locations.
	Script string

	// Python is the interpreter used to run Script. Empty means venv or python3.
	Python string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// filterHands drops hands under the confidence floor and truncates to MaxHands.
func filterHands(hands []HandLandmarks, cfg Config) []HandLandmarks {
	out := hands[:0]
	for _, h := range hands {
		if h.Score < cfg.MinConfidence {
			continue
		}
		out = append(out, h)
	}
	if cfg.MaxHands > 0 && len(out) > cfg.MaxHands {
		out = out[:cfg.MaxHands]
	}
	return out
}

// Package app runs the frame loop: capture, hand detection, gesture metrics,
// rendering, publishing to the arm and recording.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handarm/internal/capture"
	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/logging"
	"github.com/ayusman/handarm/internal/publish"
	"github.com/ayusman/handarm/internal/record"
	"github.com/ayusman/handarm/internal/render"
	"github.com/ayusman/handarm/internal/server"
	"github.com/ayusman/handarm/internal/store"
	"github.com/ayusman/handarm/internal/tray"
)

// DefaultMaxFailures is the number of consecutive failed reads tolerated before Run gives up.
const DefaultMaxFailures = 3

// ErrTooManyFailures is returned by Run when the camera keeps failing.
var ErrTooManyFailures = errors.New("too many consecutive frame read failures")

// Config holds the collaborators of an App. Camera, Detector and Pipeline are
// required; the rest are optional.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Pipeline *Pipeline

	Publisher  *publish.Async
	Publishing bool

	Recorders      []record.Recorder
	RecordInterval time.Duration

	// Store records sessions and samples and persists the publishing toggle.
	Store         *store.Store
	SessionConfig string

	Hub     *server.Hub
	Overlay *render.Overlay
	Window  *render.Window
	Tray    *tray.Tray

	MaxFailures int
	Log         *logging.Logger

	// Now is the frame clock. Defaults to time.Now.
	Now func() time.Time
}

// App is the main application that orchestrates the frame loop.
type App struct {
	config   Config
	log      *logging.Logger
	recorder *record.Throttled
	now      func() time.Time

	mu         sync.RWMutex
	publishing bool
	sessionID  string

	frames    atomic.Int64
	published atomic.Int64
	closeOnce sync.Once
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.Camera == nil || config.Detector == nil || config.Pipeline == nil {
		return nil, fmt.Errorf("app needs a camera, a detector and a pipeline")
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = DefaultMaxFailures
	}
	if config.Overlay == nil {
		config.Overlay = render.NewOverlay()
	}

	a := &App{
		config:     config,
		log:        config.Log,
		now:        config.Now,
		publishing: config.Publishing,
	}
	if a.now == nil {
		a.now = time.Now
	}

	// The saved toggle wins over the configured default.
	if config.Store != nil {
		a.publishing = config.Store.Settings().Bool(store.SettingPublishing, config.Publishing)
	}
	return a, nil
}

// Publishing reports whether arm commands are currently sent.
func (a *App) Publishing() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.publishing
}

// SetPublishing turns sending arm commands on or off.
func (a *App) SetPublishing(on bool) {
	a.mu.Lock()
	changed := a.publishing != on
	a.publishing = on
	a.mu.Unlock()

	if !changed {
		return
	}
	a.log.Info("Publishing toggled", "publishing", on)

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingPublishing, on); err != nil {
			a.log.Warn("Failed to save publishing setting", "error", err)
		}
	}
	if a.config.Tray != nil {
		a.config.Tray.SetPublishing(on)
	}
}

// Frames returns the number of frames processed so far.
func (a *App) Frames() int64 {
	return a.frames.Load()
}

// Published returns the number of commands handed to the publisher.
func (a *App) Published() int64 {
	return a.published.Load()
}

// SessionID returns the id of the running session, if any.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// Run processes frames until ctx is cancelled, the stream ends, the window
// is closed or the camera fails MaxFailures times in a row.
// Stream end and quit return nil.
func (a *App) Run(ctx context.Context) error {
	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}
	defer func() {
		if err := a.config.Camera.Close(); err != nil {
			a.log.Warn("Error closing camera", "error", err)
		}
	}()

	a.startSession()
	defer a.finishSession()

	a.log.Info("Frame loop started", "model", a.config.Pipeline.Model(), "publishing", a.Publishing())
	defer func() {
		a.log.Info("Frame loop stopped", "frames", a.Frames(), "published", a.Published())
	}()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		frame, err := a.config.Camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrStreamClosed) {
				a.log.Info("Video stream ended")
				return nil
			}
			failures++
			a.log.Warn("Error reading frame", "error", err, "failures", failures)
			if failures >= a.config.MaxFailures {
				return fmt.Errorf("%w: %v", ErrTooManyFailures, err)
			}
			continue
		}
		failures = 0

		quit := a.step(frame)
		frame.Close()
		if quit {
			a.log.Info("Quit requested")
			return nil
		}
	}
}

// step handles one captured frame and reports whether the user asked to quit.
func (a *App) step(frame *gocv.Mat) bool {
	a.frames.Add(1)
	now := a.now()
	size := image.Pt(frame.Cols(), frame.Rows())

	hands, err := a.config.Detector.Detect(frame)
	if err != nil {
		a.log.Warn("Hand detection failed", "error", err)
		hands = nil
	}

	res := a.config.Pipeline.Process(hands, size, now)
	sent := a.emit(res, now)
	return a.present(frame, res, sent, now)
}

// emit publishes and records the metrics of res. It reports whether a command was queued.
func (a *App) emit(res Result, now time.Time) bool {
	sent := false
	if res.Message != nil && a.config.Publisher != nil && a.Publishing() {
		if a.config.Publisher.Send(*res.Message) {
			sent = true
			a.published.Add(1)
		}
	}

	if res.Metrics != nil && a.recorder != nil {
		if err := a.recorder.Record(record.Sample{Time: now, Metrics: *res.Metrics}); err != nil {
			a.log.Warn("Failed to record sample", "error", err)
		}
	}

	if a.config.Tray != nil {
		a.config.Tray.SetMetrics(res.Metrics)
	}
	return sent
}

// present draws the overlay when someone is watching and forwards the live update.
func (a *App) present(frame *gocv.Mat, res Result, sent bool, now time.Time) bool {
	hub := a.config.Hub
	if hub != nil {
		hub.PublishMetrics(server.Update{
			Hand:       res.Hand != nil,
			Metrics:    res.Metrics,
			Published:  sent,
			Publishing: a.Publishing(),
			Timestamp:  now.UnixMilli(),
		})
	}

	wantsFrames := hub != nil && hub.WantsFrames()
	if a.config.Window == nil && !wantsFrames {
		return false
	}

	a.config.Overlay.Draw(frame, res.Hand, res.Metrics, render.Status{
		Model:      a.config.Pipeline.Model(),
		Publishing: a.Publishing(),
	})

	if wantsFrames {
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
		if err != nil {
			a.log.Debug("Failed to encode frame", "error", err)
		} else {
			// GetBytes aliases C memory that Close frees.
			jpeg := append([]byte(nil), buf.GetBytes()...)
			buf.Close()
			hub.PublishFrame(jpeg)
		}
	}

	if a.config.Window != nil {
		return a.config.Window.Show(*frame)
	}
	return false
}

func (a *App) startSession() {
	var recs record.Multi
	recs = append(recs, a.config.Recorders...)

	if a.config.Store != nil {
		sess, err := a.config.Store.Sessions().Start(a.config.SessionConfig)
		if err != nil {
			a.log.Warn("Failed to start session", "error", err)
		} else {
			a.mu.Lock()
			a.sessionID = sess.ID
			a.mu.Unlock()
			recs = append(recs, a.config.Store.Recorder(sess.ID))
			a.log.Info("Session started", "id", sess.ID)
		}
	}

	if len(recs) > 0 {
		a.recorder = record.NewThrottled(recs, a.config.RecordInterval)
	}
}

func (a *App) finishSession() {
	id := a.SessionID()
	if id == "" || a.config.Store == nil {
		return
	}
	if err := a.config.Store.Sessions().Finish(id, a.Frames(), a.Published()); err != nil {
		a.log.Warn("Failed to finish session", "id", id, "error", err)
		return
	}
	a.log.Info("Session finished", "id", id, "frames", a.Frames(), "published", a.Published())
}

// Close releases the detector, the publisher and the recorders.
// The store, hub and window belong to the caller.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		if err := a.config.Detector.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close detector: %w", err))
		}
		if a.config.Publisher != nil {
			if err := a.config.Publisher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close publisher: %w", err))
			}
		}
		if a.recorder != nil {
			if err := a.recorder.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close recorders: %w", err))
			}
		} else {
			for _, r := range a.config.Recorders {
				if err := r.Close(); err != nil {
					errs = append(errs, fmt.Errorf("close recorder: %w", err))
				}
			}
		}
	})
	return errors.Join(errs...)
}

// Package capture provides camera and video-file capture using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrStreamClosed is returned when the device or file stops delivering frames for good.
	ErrStreamClosed = errors.New("video stream closed")
	// ErrReadFailed is returned for a single failed read that may succeed on retry.
	ErrReadFailed = errors.New("failed to read frame")
)

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
	// Size returns the frame size in pixels, or the zero point before the first frame.
	Size() image.Point
}

// Config selects the video source.
type Config struct {
	// Source is a device index ("0") or a video file path.
	Source string
	Width  int
	Height int
	FPS    int
	// Mirror flips frames horizontally so the preview behaves like a mirror.
	Mirror bool
}

// DefaultConfig returns device 0 at 640x480, mirrored.
func DefaultConfig() Config {
	return Config{
		Source: "0",
		Width:  DefaultWidth,
		Height: DefaultHeight,
		FPS:    DefaultFPS,
		Mirror: true,
	}
}

// cameraImpl manages video capture from a camera device or file using GoCV.
type cameraImpl struct {
	config  Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
	size    image.Point
}

// NewCamera creates a Camera for cfg.Source. Nothing is opened until Open.
func NewCamera(cfg Config) Camera {
	fps := cfg.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &cameraImpl{
		config: cfg,
		fps:    fps,
	}
}

// IsDevice reports whether source names a camera index rather than a file.
func IsDevice(source string) bool {
	_, err := strconv.Atoi(source)
	return err == nil
}

// Open opens the device or file. Devices are asked for the configured resolution.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	var (
		capture *gocv.VideoCapture
		err     error
	)
	if id, convErr := strconv.Atoi(c.config.Source); convErr == nil {
		capture, err = gocv.OpenVideoCapture(id)
	} else {
		capture, err = gocv.VideoCaptureFile(c.config.Source)
	}
	if err != nil {
		return fmt.Errorf("failed to open video source %q: %w", c.config.Source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("failed to open video source %q", c.config.Source)
	}

	if IsDevice(c.config.Source) {
		if c.config.Width > 0 && c.config.Height > 0 {
			capture.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
			capture.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
		}
		capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
	}

	c.size = image.Pt(
		int(capture.Get(gocv.VideoCaptureFrameWidth)),
		int(capture.Get(gocv.VideoCaptureFrameHeight)),
	)
	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}
	if !c.capture.IsOpened() {
		return nil, ErrStreamClosed
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		// A file that stops reading has reached its end.
		if !IsDevice(c.config.Source) {
			return nil, ErrStreamClosed
		}
		return nil, ErrReadFailed
	}

	if mat.Empty() {
		mat.Close()
		if !IsDevice(c.config.Source) {
			return nil, ErrStreamClosed
		}
		return nil, fmt.Errorf("%w: captured frame is empty", ErrReadFailed)
	}

	if c.config.Mirror {
		gocv.Flip(mat, &mat, 1)
	}
	c.size = image.Pt(mat.Cols(), mat.Rows())

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Size returns the size of the last frame, or the size reported at Open.
func (c *cameraImpl) Size() image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.size
}

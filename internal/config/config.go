// Package config loads handarm settings from a YAML file, a .env file and
// HANDARM_* environment variables, in that order of precedence (lowest first).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/handarm/internal/capture"
	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/gesture"
	"github.com/ayusman/handarm/internal/logging"
	"github.com/ayusman/handarm/internal/publish"
	"github.com/ayusman/handarm/internal/record"
)

// Detector kinds.
const (
	DetectorMediaPipe = "mediapipe"
	DetectorMock      = "mock"
)

// Primary hand choices.
const (
	HandAny   = "any"
	HandLeft  = "Left"
	HandRight = "Right"
)

// Config holds all settings.
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Gesture  GestureConfig  `yaml:"gesture"`
	Publish  PublishConfig  `yaml:"publish"`
	Record   RecordConfig   `yaml:"record"`
	Server   ServerConfig   `yaml:"server"`
	Display  DisplayConfig  `yaml:"display"`
	Log      LogConfig      `yaml:"log"`
}

type CameraConfig struct {
	// Source is a device index or a video file path.
	Source      string `yaml:"source"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	FPS         int    `yaml:"fps"`
	Mirror      bool   `yaml:"mirror"`
	MaxFailures int    `yaml:"max_failures"`
}

type DetectorConfig struct {
	Kind                  string  `yaml:"kind"`
	MaxHands              int     `yaml:"max_hands"`
	MinConfidence         float64 `yaml:"min_confidence"`
	MinTrackingConfidence float64 `yaml:"min_tracking_confidence"`
	Script                string  `yaml:"script"`
	Python                string  `yaml:"python"`
}

type GestureConfig struct {
	PrimaryHand string            `yaml:"primary_hand"`
	Openness    OpennessConfig    `yaml:"openness"`
	Orientation OrientationConfig `yaml:"orientation"`
	Motion      MotionConfig      `yaml:"motion"`
}

type OpennessConfig struct {
	Model              string  `yaml:"model"`
	OpenBelow          int     `yaml:"open_below"`
	ClosedAbove        int     `yaml:"closed_above"`
	FingerReach        float64 `yaml:"finger_reach"`
	ThumbReach         float64 `yaml:"thumb_reach"`
	MinDistance        float64 `yaml:"min_distance"`
	MaxDistance        float64 `yaml:"max_distance"`
	IncludeIndexMiddle bool    `yaml:"include_index_middle"`
}

type OrientationConfig struct {
	Invert bool `yaml:"invert"`
}

type MotionConfig struct {
	Threshold float64       `yaml:"threshold"`
	Duration  time.Duration `yaml:"duration"`
}

type PublishConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Transport   string        `yaml:"transport"`
	Broker      string        `yaml:"broker"`
	Topic       string        `yaml:"topic"`
	QoS         int           `yaml:"qos"`
	RedisURL    string        `yaml:"redis_url"`
	Command     []string      `yaml:"command"`
	EveryFrames int           `yaml:"every_frames"`
	Interval    time.Duration `yaml:"interval"`
	Timeout     time.Duration `yaml:"timeout"`
	QueueSize   int           `yaml:"queue_size"`
}

type RecordConfig struct {
	// CSV is the CSV log path; empty disables the CSV log.
	CSV         string        `yaml:"csv"`
	CSVOpenness bool          `yaml:"csv_openness"`
	Interval    time.Duration `yaml:"interval"`
	// Database is the SQLite path for sessions and samples; empty disables it.
	Database string `yaml:"database"`
}

type ServerConfig struct {
	// Addr is the monitor listen address; empty disables the monitor.
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type DisplayConfig struct {
	Window bool   `yaml:"window"`
	Title  string `yaml:"title"`
	Tray   bool   `yaml:"tray"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in settings.
func Default() *Config {
	cam := capture.DefaultConfig()
	det := detector.DefaultConfig()
	ges := gesture.DefaultConfig()
	pub := publish.DefaultConfig()

	return &Config{
		Camera: CameraConfig{
			Source:      cam.Source,
			Width:       cam.Width,
			Height:      cam.Height,
			FPS:         cam.FPS,
			Mirror:      cam.Mirror,
			MaxFailures: 3,
		},
		Detector: DetectorConfig{
			Kind:                  DetectorMediaPipe,
			MaxHands:              det.MaxHands,
			MinConfidence:         det.MinConfidence,
			MinTrackingConfidence: det.MinTrackingConf,
		},
		Gesture: GestureConfig{
			PrimaryHand: HandAny,
			Openness: OpennessConfig{
				Model:              ges.Model,
				OpenBelow:          ges.Thresholds.OpenBelow,
				ClosedAbove:        ges.Thresholds.ClosedAbove,
				FingerReach:        ges.FingerReach,
				ThumbReach:         ges.ThumbReach,
				MinDistance:        ges.MinDistance,
				MaxDistance:        ges.MaxDistance,
				IncludeIndexMiddle: ges.IncludeIndexMiddle,
			},
			Motion: MotionConfig{
				Threshold: ges.MovementThreshold,
				Duration:  ges.StationaryDuration,
			},
		},
		Publish: PublishConfig{
			Enabled:     true,
			Transport:   pub.Transport,
			Broker:      pub.Broker,
			Topic:       pub.Topic,
			RedisURL:    pub.RedisURL,
			EveryFrames: pub.EveryFrames,
			Timeout:     pub.Timeout,
			QueueSize:   pub.QueueSize,
		},
		Record: RecordConfig{
			Interval: record.DefaultInterval,
		},
		Display: DisplayConfig{
			Window: true,
			Title:  "Hand Tracking",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file; a named file that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. It reports false when the
// file does not exist.
func LoadEnvFile(path string) (bool, error) {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return true, nil
}

func (c *Config) applyEnv() {
	c.Camera.Source = getEnvOrDefault("HANDARM_CAMERA_SOURCE", c.Camera.Source)
	c.Camera.MaxFailures = getEnvAsIntOrDefault("HANDARM_CAMERA_MAX_FAILURES", c.Camera.MaxFailures)
	c.Detector.Kind = getEnvOrDefault("HANDARM_DETECTOR", c.Detector.Kind)
	c.Detector.Script = getEnvOrDefault("HANDARM_DETECTOR_SCRIPT", c.Detector.Script)
	c.Detector.Python = getEnvOrDefault("HANDARM_DETECTOR_PYTHON", c.Detector.Python)
	c.Gesture.PrimaryHand = getEnvOrDefault("HANDARM_PRIMARY_HAND", c.Gesture.PrimaryHand)
	c.Gesture.Openness.Model = getEnvOrDefault("HANDARM_OPENNESS_MODEL", c.Gesture.Openness.Model)
	c.Gesture.Orientation.Invert = getEnvAsBoolOrDefault("HANDARM_INVERT_FACING", c.Gesture.Orientation.Invert)
	c.Publish.Enabled = getEnvAsBoolOrDefault("HANDARM_PUBLISH_ENABLED", c.Publish.Enabled)
	c.Publish.Transport = getEnvOrDefault("HANDARM_PUBLISH_TRANSPORT", c.Publish.Transport)
	c.Publish.Broker = getEnvOrDefault("HANDARM_MQTT_BROKER", c.Publish.Broker)
	c.Publish.Topic = getEnvOrDefault("HANDARM_PUBLISH_TOPIC", c.Publish.Topic)
	c.Publish.RedisURL = getEnvOrDefault("HANDARM_REDIS_URL", c.Publish.RedisURL)
	c.Publish.EveryFrames = getEnvAsIntOrDefault("HANDARM_PUBLISH_EVERY_FRAMES", c.Publish.EveryFrames)
	c.Publish.Interval = getEnvAsDurationOrDefault("HANDARM_PUBLISH_INTERVAL", c.Publish.Interval)
	c.Record.CSV = getEnvOrDefault("HANDARM_CSV_PATH", c.Record.CSV)
	c.Record.Database = getEnvOrDefault("HANDARM_DB_PATH", c.Record.Database)
	c.Server.Addr = getEnvOrDefault("HANDARM_SERVER_ADDR", c.Server.Addr)
	c.Display.Window = getEnvAsBoolOrDefault("HANDARM_DISPLAY_WINDOW", c.Display.Window)
	c.Display.Tray = getEnvAsBoolOrDefault("HANDARM_DISPLAY_TRAY", c.Display.Tray)
	c.Log.Level = getEnvOrDefault("HANDARM_LOG_LEVEL", c.Log.Level)
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Camera.Source == "" {
		return fmt.Errorf("camera.source is required")
	}
	if c.Camera.MaxFailures < 1 {
		return fmt.Errorf("camera.max_failures must be at least 1, got %d", c.Camera.MaxFailures)
	}

	switch c.Detector.Kind {
	case DetectorMediaPipe, DetectorMock:
	default:
		return fmt.Errorf("detector.kind must be %q or %q, got %q", DetectorMediaPipe, DetectorMock, c.Detector.Kind)
	}
	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("detector.max_hands must be at least 1, got %d", c.Detector.MaxHands)
	}

	hand, err := normalizeHand(c.Gesture.PrimaryHand)
	if err != nil {
		return err
	}
	c.Gesture.PrimaryHand = hand

	if _, err := gesture.NewAnalyzer(c.GestureConfig()); err != nil {
		return fmt.Errorf("gesture: %w", err)
	}

	if c.Publish.QoS < 0 || c.Publish.QoS > 2 {
		return fmt.Errorf("publish.qos must be 0, 1 or 2, got %d", c.Publish.QoS)
	}
	if err := c.PublishConfig().Validate(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	if c.Record.Interval < 0 {
		return fmt.Errorf("record.interval must not be negative, got %s", c.Record.Interval)
	}
	if c.Display.Tray && c.Display.Window {
		return fmt.Errorf("display.tray and display.window are exclusive")
	}
	return nil
}

func normalizeHand(h string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(h)) {
	case "", HandAny:
		return HandAny, nil
	case "left":
		return HandLeft, nil
	case "right":
		return HandRight, nil
	default:
		return "", fmt.Errorf("gesture.primary_hand must be any, left or right, got %q", h)
	}
}

// CameraConfig converts the camera section.
func (c *Config) CameraConfig() capture.Config {
	return capture.Config{
		Source: c.Camera.Source,
		Width:  c.Camera.Width,
		Height: c.Camera.Height,
		FPS:    c.Camera.FPS,
		Mirror: c.Camera.Mirror,
	}
}

// DetectorConfig converts the detector section.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
		Script:          c.Detector.Script,
		Python:          c.Detector.Python,
	}
}

// GestureConfig converts the gesture section.
func (c *Config) GestureConfig() gesture.Config {
	o := c.Gesture.Openness
	return gesture.Config{
		Model:              o.Model,
		Thresholds:         gesture.Thresholds{OpenBelow: o.OpenBelow, ClosedAbove: o.ClosedAbove},
		FingerReach:        o.FingerReach,
		ThumbReach:         o.ThumbReach,
		MinDistance:        o.MinDistance,
		MaxDistance:        o.MaxDistance,
		IncludeIndexMiddle: o.IncludeIndexMiddle,
		InvertFacing:       c.Gesture.Orientation.Invert,
		MovementThreshold:  c.Gesture.Motion.Threshold,
		StationaryDuration: c.Gesture.Motion.Duration,
	}
}

// PublishConfig converts the publish section.
func (c *Config) PublishConfig() publish.Config {
	p := c.Publish
	return publish.Config{
		Transport:   p.Transport,
		Broker:      p.Broker,
		Topic:       p.Topic,
		QoS:         byte(p.QoS),
		RedisURL:    p.RedisURL,
		Command:     p.Command,
		EveryFrames: p.EveryFrames,
		Interval:    p.Interval,
		Timeout:     p.Timeout,
		QueueSize:   p.QueueSize,
	}
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

// Snapshot returns a compact JSON summary stored with each session.
func (c *Config) Snapshot() string {
	b, err := json.Marshal(map[string]interface{}{
		"source":       c.Camera.Source,
		"model":        c.Gesture.Openness.Model,
		"primary_hand": c.Gesture.PrimaryHand,
		"transport":    c.Publish.Transport,
		"topic":        c.Publish.Topic,
		"every_frames": c.Publish.EveryFrames,
		"interval":     c.Publish.Interval.String(),
	})
	if err != nil {
		return "{}"
	}
	return string(b)
}

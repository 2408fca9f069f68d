// Package publish forwards arm commands over publish-subscribe transports.
// Delivery is fire-and-forget: at most once, no acknowledgement, no retry.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/handarm/internal/logging"
)

// Transport names.
const (
	TransportMQTT  = "mqtt"
	TransportRedis = "redis"
	TransportExec  = "exec"
	TransportLog   = "log"
	TransportNone  = "none"
)

// Defaults.
const (
	DefaultBroker      = "tcp://broker.emqx.io:1883"
	DefaultTopic       = "robotic_arm/command"
	DefaultRedisURL    = "redis://localhost:6379/0"
	DefaultEveryFrames = 5
	DefaultTimeout     = 2 * time.Second
	DefaultQueueSize   = 16
)

// ErrUnknownTransport is returned by New for an unsupported transport name.
var ErrUnknownTransport = errors.New("unknown publish transport")

// Message is the command sent to the arm: wrist pixel position and openness percentage.
type Message struct {
	X        int `json:"x"`
	Y        int `json:"y"`
	Openness int `json:"openness"`
}

// Encode returns the JSON wire form of m.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Publisher delivers messages to the arm.
type Publisher interface {
	// Publish sends msg once. It must honour ctx cancellation.
	Publish(ctx context.Context, msg Message) error

	// Close releases the connection.
	Close() error
}

// Config holds the transport and cadence settings.
type Config struct {
	Transport string
	Broker    string
	Topic     string
	QoS       byte
	RedisURL  string
	Command   []string

	// EveryFrames > 0 publishes on every N-th frame with a hand; otherwise Interval is used.
	EveryFrames int
	Interval    time.Duration

	Timeout   time.Duration
	QueueSize int
}

// DefaultConfig returns MQTT on the public EMQX broker, every 5th hand frame.
func DefaultConfig() Config {
	return Config{
		Transport:   TransportMQTT,
		Broker:      DefaultBroker,
		Topic:       DefaultTopic,
		RedisURL:    DefaultRedisURL,
		EveryFrames: DefaultEveryFrames,
		Timeout:     DefaultTimeout,
		QueueSize:   DefaultQueueSize,
	}
}

// Validate checks cfg for obvious mistakes.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportMQTT:
		if c.Broker == "" {
			return fmt.Errorf("mqtt transport needs a broker")
		}
		if c.QoS > 2 {
			return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.QoS)
		}
	case TransportRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis transport needs a url")
		}
	case TransportExec:
		if len(c.Command) == 0 {
			return fmt.Errorf("exec transport needs a command")
		}
	case TransportLog, TransportNone:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, c.Transport)
	}
	if c.Transport != TransportNone && c.Topic == "" {
		return fmt.Errorf("publish topic must not be empty")
	}
	if c.EveryFrames <= 0 && c.Interval <= 0 {
		return fmt.Errorf("publish cadence needs every_frames > 0 or interval > 0")
	}
	return nil
}

// New connects the transport named by cfg.Transport.
func New(ctx context.Context, cfg Config, log *logging.Logger) (Publisher, error) {
	switch cfg.Transport {
	case TransportMQTT:
		return NewMQTTPublisher(cfg, log)
	case TransportRedis:
		return NewRedisPublisher(ctx, cfg, log)
	case TransportExec:
		return NewExecPublisher(cfg.Command, cfg.Timeout), nil
	case TransportLog:
		return NewLogPublisher(cfg.Topic, log), nil
	case TransportNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
}

// LogPublisher only logs messages. Useful without a broker.
type LogPublisher struct {
	topic string
	log   *logging.Logger
}

// NewLogPublisher returns a publisher that logs each message at info level.
func NewLogPublisher(topic string, log *logging.Logger) *LogPublisher {
	return &LogPublisher{topic: topic, log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, msg Message) error {
	p.log.Info("publish", "topic", p.topic, "x", msg.X, "y", msg.Y, "openness", msg.Openness)
	return ctx.Err()
}

func (p *LogPublisher) Close() error { return nil }

// Nop discards every message.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }
func (Nop) Close() error                           { return nil }

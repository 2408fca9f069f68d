package publish

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ayusman/handarm/internal/logging"
)

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes JSON commands with PUBLISH on a Redis channel.
type RedisPublisher struct {
	client  redisClient
	channel string
	log     *logging.Logger
}

// NewRedisPublisher parses cfg.RedisURL, connects and pings the server.
func NewRedisPublisher(ctx context.Context, cfg Config, log *logging.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	log.Info("redis connected", "addr", opts.Addr, "channel", cfg.Topic)

	return &RedisPublisher{client: client, channel: cfg.Topic, log: log}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, msg Message) error {
	payload, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("redis publish to %s: %w", p.channel, err)
	}
	if receivers == 0 {
		p.log.Debug("no subscribers", "channel", p.channel)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultFeedChannel is the pub/sub channel used when none is configured.
const DefaultFeedChannel = "finagent:activity"

// RedisConfig describes the activity feed connection.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Channel  string
}

type pubsubClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

// RedisFeed publishes protocol events to a Redis pub/sub channel.
type RedisFeed struct {
	client  pubsubClient
	channel string
	now     func() time.Time
}

// NewRedisFeed connects to Redis and verifies the connection.
func NewRedisFeed(ctx context.Context, cfg RedisConfig) (*RedisFeed, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisFeed(client, cfg.Channel), nil
}

func newRedisFeed(client pubsubClient, channel string) *RedisFeed {
	if channel == "" {
		channel = DefaultFeedChannel
	}
	return &RedisFeed{client: client, channel: channel, now: time.Now}
}

// PublishEvent publishes event for connectionID.
func (f *RedisFeed) PublishEvent(ctx context.Context, connectionID string, event any) error {
	payload, err := encodeFeed(connectionID, event, f.now())
	if err != nil {
		return fmt.Errorf("failed to encode feed message: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", f.channel, err)
	}
	return nil
}

// Close closes the Redis client.
func (f *RedisFeed) Close() error {
	if f == nil || f.client == nil {
		return nil
	}
	return f.client.Close()
}

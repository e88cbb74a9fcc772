package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/deskline/helpdesk-service/internal/config"
)

// ErrNoRedis is returned by EventBus methods on a bus that was never opened.
var ErrNoRedis = errors.New("redis not configured")

// EventBus is the Redis connection behind the ticket event channel.
type EventBus struct {
	client  *redis.Client
	channel string
}

// OpenEventBus dials Redis. The service runs without it: an unreachable server only
// costs the event broadcast and fails readiness.
func OpenEventBus(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *EventBus {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	bus := &EventBus{client: client, channel: cfg.EventsChannel}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := bus.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable; ticket events will not be broadcast",
			zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("redis event bus ready", zap.String("addr", cfg.Addr), zap.String("channel", cfg.EventsChannel))
	}
	return bus
}

// Client returns the go-redis client.
func (b *EventBus) Client() *redis.Client {
	if b == nil {
		return nil
	}
	return b.client
}

// Channel is the pub/sub channel ticket events go to.
func (b *EventBus) Channel() string {
	if b == nil {
		return ""
	}
	return b.channel
}

func (b *EventBus) Ping(ctx context.Context) error {
	if b.Client() == nil {
		return ErrNoRedis
	}
	return b.client.Ping(ctx).Err()
}

func (b *EventBus) Close() {
	if b.Client() != nil {
		_ = b.client.Close()
	}
}

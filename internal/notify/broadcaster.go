package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/deskline/helpdesk-service/internal/events"
)

// Broadcaster fans ticket events out to live listeners such as dashboards.
type Broadcaster interface {
	Broadcast(ctx context.Context, event events.Event) error
}

// RedisBroadcaster publishes events as JSON on a Redis pub/sub channel. Pub/sub keeps no
// backlog, so a listener that is not connected misses the event.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
}

// NewRedisBroadcaster builds a broadcaster for the given channel.
func NewRedisBroadcaster(client *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, channel: channel}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Channel returns the pub/sub channel name.
func (b *RedisBroadcaster) Channel() string {
	return b.channel
}

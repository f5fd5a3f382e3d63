package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"presencerelay/internal/events"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus publishes notifications on a Redis channel; every instance running
// Subscribe fans them out to its own connections.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	b       Broadcaster
}

func NewRedisBus(rdb *redis.Client, channel string, b Broadcaster) *RedisBus {
	return &RedisBus{rdb: rdb, channel: channel, b: b}
}

func (r *RedisBus) Publish(ctx context.Context, n events.NotificationBody) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, r.channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Subscribe blocks until ctx is done, relaying every payload on the channel.
func (r *RedisBus) Subscribe(ctx context.Context) {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			r.relay(m.Payload)
		}
	}
}

func (r *RedisBus) relay(payload string) {
	var n events.NotificationBody
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		zap.L().Warn("notify.decode_failed", zap.Error(err))
		return
	}
	sent := r.b.Broadcast(events.Notification, n)
	zap.L().Info("notify.broadcast", zap.String("title", n.Title), zap.Int("recipients", sent))
}

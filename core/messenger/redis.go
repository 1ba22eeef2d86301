package messenger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis fans messages out over Redis pub/sub.
type Redis struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedis wraps client. The caller keeps ownership of the client.
func NewRedis(client *redis.Client, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, log: logger}
}

// Publish sends msg on channel.
func (r *Redis) Publish(ctx context.Context, channel string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe starts delivering messages on channel to fn in a background goroutine.
// It returns once Redis has confirmed the subscription.
func (r *Redis) Subscribe(ctx context.Context, channel string, fn func(Message)) (func(), error) {
	sub := r.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	ch := sub.Channel()
	go func() {
		for m := range ch {
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				r.log.Warn("dropping malformed message", zap.String("channel", channel), zap.Error(err))
				continue
			}
			fn(msg)
		}
	}()
	return func() { _ = sub.Close() }, nil
}

// Close is a no-op; the client belongs to the caller.
func (r *Redis) Close() error {
	return nil
}

package config

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis returns a client when REDIS_ADDR is set, nil otherwise.
// An unreachable server is treated like no server.
func NewRedis(ctx context.Context, cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

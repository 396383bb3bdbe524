package redis

import (
	"context"

	"github.com/go-redis/redis/v8"

	"sangha/sangha-common/config"
)

// Client is the go-redis client used across services.
type Client = redis.Client

// NewClient creates a client from cfg. It does not dial; call Ping to verify.
func NewClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping checks the connection.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Close closes client when it is non-nil.
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

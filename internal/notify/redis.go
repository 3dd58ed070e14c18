package notify

import (
	"context"
	"encoding/json"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis list events are pushed onto.
const DefaultKey = "feedtrack:notifications"

// Redis pushes events as JSON onto a Redis list, where the mail and
// reminder workers pick them up.
type Redis struct {
	client *backend.Client
	key    string
}

// RedisOption configures a Redis notifier.
type RedisOption func(*Redis)

// WithKey sets the list key events are pushed onto.
func WithKey(key string) RedisOption {
	return func(r *Redis) {
		if key != "" {
			r.key = key
		}
	}
}

// NewRedis connects a notifier to the Redis server at address.
func NewRedis(address, password string, db int, opts ...RedisOption) *Redis {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(client, opts...)
}

// NewRedisFromClient creates a notifier from an existing client.
func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		key:    DefaultKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Notify implements Notifier.
func (r *Redis) Notify(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push event: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

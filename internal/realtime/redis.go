package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/pkg/api"
)

// Channel is the Redis pub/sub channel carrying events between instances.
const Channel = "splitledger:events"

type envelope struct {
	UserID string    `json:"user_id"`
	Event  api.Event `json:"event"`
}

// RedisBus publishes events through Redis so that every server instance,
// this one included, delivers them to its local hub.
type RedisBus struct {
	client *redis.Client
	hub    *Hub
	logger *slog.Logger
}

var _ Publisher = (*RedisBus)(nil)

// ConnectRedis parses url (a redis:// URL or a bare host:port) and pings
// the server. It returns nil, nil when url is empty.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// NewRedisBus wraps a connected client.
func NewRedisBus(client *redis.Client, hub *Hub, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{client: client, hub: hub, logger: logger}
}

// Publish implements Publisher.
func (b *RedisBus) Publish(ctx context.Context, userID string, event api.Event) error {
	payload, err := json.Marshal(envelope{UserID: userID, Event: event})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, Channel, payload).Err()
}

// Run relays channel messages to the local hub until ctx is done.
func (b *RedisBus) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.logger.Info("Realtime bus subscribed", "channel", Channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("Skipping malformed realtime message", "error", err)
				continue
			}
			if err := b.hub.Publish(ctx, env.UserID, env.Event); err != nil {
				b.logger.Warn("Realtime delivery failed", "user_id", env.UserID, "error", err)
			}
		}
	}
}

// Close closes the Redis client.
func (b *RedisBus) Close() error {
	return b.client.Close()
}

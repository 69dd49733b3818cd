package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/collab-match-api/internal/models"
)

const notificationChannelPrefix = "notifications:"

// NotificationChannel returns the pub/sub channel a user's stream listens on.
func NotificationChannel(userID uint64) string {
	return fmt.Sprintf("%s%d", notificationChannelPrefix, userID)
}

// RedisPublisher pushes notifications to connected clients over redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher connects to redis at addr and verifies the connection.
func NewRedisPublisher(addr string) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisPublisherWithClient(client), nil
}

// NewRedisPublisherWithClient creates a publisher from an existing client.
func NewRedisPublisherWithClient(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends the notification as JSON on the recipient's channel.
func (p *RedisPublisher) Publish(ctx context.Context, notification *models.Notification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := p.client.Publish(ctx, NotificationChannel(notification.UserID), data).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Subscribe opens a subscription on the user's channel. The caller must
// close the returned PubSub.
func (p *RedisPublisher) Subscribe(ctx context.Context, userID uint64) (*redis.PubSub, error) {
	pubsub := p.client.Subscribe(ctx, NotificationChannel(userID))
	// Receive blocks until the subscription is confirmed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to notifications: %w", err)
	}
	return pubsub, nil
}

// Close closes the redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/collab-match-api/internal/models"
)

func setupTestPublisher(t *testing.T) (*RedisPublisher, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	publisher, err := NewRedisPublisher(s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() {
		publisher.Close()
	})
	return publisher, s
}

func TestNotificationChannel(t *testing.T) {
	assert.Equal(t, "notifications:42", NotificationChannel(42))
}

func TestRedisPublisher_PublishReachesSubscriber(t *testing.T) {
	publisher, _ := setupTestPublisher(t)
	ctx := context.Background()

	pubsub, err := publisher.Subscribe(ctx, 7)
	require.NoError(t, err)
	defer pubsub.Close()

	err = publisher.Publish(ctx, &models.Notification{
		ID:      3,
		UserID:  7,
		Type:    models.NotificationMatchAccepted,
		Message: "Your request to join Rocket was accepted",
		Payload: map[string]string{PayloadRequestID: "9"},
	})
	require.NoError(t, err)

	select {
	case msg := <-pubsub.Channel():
		assert.Equal(t, "notifications:7", msg.Channel)
		var got models.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, uint64(3), got.ID)
		assert.Equal(t, models.NotificationMatchAccepted, got.Type)
		assert.Equal(t, "9", got.Payload[PayloadRequestID])
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNewRedisPublisher_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := NewRedisPublisher(addr)
	assert.Error(t, err)
}

func TestNotificationService_NotifyStoresAndPublishes(t *testing.T) {
	_, store := setupTestStore(t)
	publisher, _ := setupTestPublisher(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	pubsub, err := publisher.Subscribe(ctx, user.ID)
	require.NoError(t, err)
	defer pubsub.Close()

	service := NewNotificationService(store.Notifications(), publisher)
	err = service.Notify(ctx, user.ID, models.NotificationMatchRequest, map[string]string{
		PayloadProjectTitle:    "Rocket",
		PayloadCounterpartName: "carol",
	})
	require.NoError(t, err)

	notifications, total, err := service.ListNotifications(ctx, ListNotificationsInput{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, notifications, 1)
	assert.Equal(t, "carol requested to join Rocket", notifications[0].Message)
	assert.Equal(t, "Rocket", notifications[0].Payload[PayloadProjectTitle])
	assert.False(t, notifications[0].IsRead)

	select {
	case msg := <-pubsub.Channel():
		var got models.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, notifications[0].ID, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNotificationService_PublishFailureKeepsRow(t *testing.T) {
	_, store := setupTestStore(t)
	publisher, s := setupTestPublisher(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	s.Close()

	service := NewNotificationService(store.Notifications(), publisher)
	err := service.Notify(ctx, user.ID, models.NotificationMatchRejected, map[string]string{PayloadProjectTitle: "Rocket"})
	assert.Error(t, err)

	count, err := service.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationService_WithoutPublisher(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	service := NewNotificationService(store.Notifications(), nil)
	require.NoError(t, service.Notify(ctx, user.ID, models.NotificationMatchAccepted, nil))

	notifications, _, err := service.ListNotifications(ctx, ListNotificationsInput{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Your request to join a project was accepted", notifications[0].Message)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	service := NewNotificationService(store.Notifications(), nil)
	require.NoError(t, service.Notify(ctx, alice.ID, models.NotificationMatchAccepted, nil))
	require.NoError(t, service.Notify(ctx, alice.ID, models.NotificationMatchRejected, nil))

	notifications, _, err := service.ListNotifications(ctx, ListNotificationsInput{UserID: alice.ID})
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	// Someone else's notification looks missing.
	assert.ErrorIs(t, service.MarkAsRead(ctx, bob.ID, notifications[0].ID), ErrNotificationNotFound)
	assert.ErrorIs(t, service.MarkAsRead(ctx, alice.ID, 999), ErrNotificationNotFound)

	require.NoError(t, service.MarkAsRead(ctx, alice.ID, notifications[0].ID))

	count, err := service.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	unread, total, err := service.ListNotifications(ctx, ListNotificationsInput{UserID: alice.ID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, unread, 1)
	assert.Equal(t, notifications[1].ID, unread[0].ID)
}

func TestNewRedisPublisherWithClient(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	publisher := NewRedisPublisherWithClient(client)
	t.Cleanup(func() {
		publisher.Close()
	})
	ctx := context.Background()

	pubsub, err := publisher.Subscribe(ctx, 11)
	require.NoError(t, err)
	defer pubsub.Close()

	require.NoError(t, publisher.Publish(ctx, &models.Notification{UserID: 11, Type: models.NotificationMatchRequest}))

	select {
	case msg := <-pubsub.Channel():
		assert.Equal(t, NotificationChannel(11), msg.Channel)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

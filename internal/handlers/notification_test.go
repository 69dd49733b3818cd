package handlers

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/collab-match-api/internal/dto"
	"github.com/yukikurage/collab-match-api/internal/models"
	"github.com/yukikurage/collab-match-api/internal/services"
)

func TestNotificationHandler_ListAndMarkAsRead(t *testing.T) {
	env := setupTestEnv(t, envOptions{})
	ctx := context.Background()
	user := env.createUser(t, "alice")
	other := env.createUser(t, "bob")

	require.NoError(t, env.notificationService.Notify(ctx, user.ID, models.NotificationMatchAccepted, map[string]string{
		services.PayloadProjectTitle: "Rocket",
	}))
	require.NoError(t, env.notificationService.Notify(ctx, user.ID, models.NotificationMatchRejected, nil))

	w := env.request(t, http.MethodGet, "/api/notifications", nil, user.ID)
	assertStatus(t, w, http.StatusOK)
	var list dto.NotificationListResponse
	decode(t, w, &list)
	assert.Equal(t, int64(2), list.TotalCount)
	require.Len(t, list.Notifications, 2)
	assert.Equal(t, models.NotificationMatchRejected, list.Notifications[0].Type)
	assert.NotNil(t, list.Notifications[0].Payload)
	assert.Equal(t, "Your request to join Rocket was accepted", list.Notifications[1].Message)

	target := list.Notifications[1].ID
	readPath := fmt.Sprintf("/api/notifications/%d/read", target)

	w = env.request(t, http.MethodPatch, readPath, nil, other.ID)
	assertStatus(t, w, http.StatusNotFound)

	w = env.request(t, http.MethodPatch, readPath, nil, user.ID)
	assertStatus(t, w, http.StatusOK)

	w = env.request(t, http.MethodGet, "/api/notifications?unread=true", nil, user.ID)
	assertStatus(t, w, http.StatusOK)
	decode(t, w, &list)
	assert.Equal(t, int64(1), list.TotalCount)

	w = env.request(t, http.MethodGet, "/api/notifications/unread-count", nil, user.ID)
	assertStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `{"unread_count":1}`, w.Body.String())

	w = env.request(t, http.MethodGet, "/api/notifications?unread=maybe", nil, user.ID)
	assertStatus(t, w, http.StatusBadRequest)
}

func TestNotificationHandler_StreamWithoutRedis(t *testing.T) {
	env := setupTestEnv(t, envOptions{})
	user := env.createUser(t, "alice")

	w := env.request(t, http.MethodGet, "/api/notifications/stream", nil, user.ID)
	assertStatus(t, w, http.StatusServiceUnavailable)
}

func TestNotificationHandler_StreamDeliversNotifications(t *testing.T) {
	s := miniredis.RunT(t)
	publisher, err := services.NewRedisPublisher(s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() {
		publisher.Close()
	})

	env := setupTestEnv(t, envOptions{publisher: publisher})
	owner := env.createUser(t, "owner")
	requester := env.createUser(t, "requester")
	project := env.createProject(t, owner.ID, "Rocket")

	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/notifications/stream", nil)
	require.NoError(t, err)
	token, _, err := env.tokens.IssueAccessToken(owner.ID, owner.Username)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"), resp.Header.Get("Content-Type"))

	events := make(chan string, 8)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		var event string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:") && event != "":
				events <- event + " " + strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				event = ""
			}
		}
	}()

	next := func() string {
		select {
		case e, ok := <-events:
			require.True(t, ok, "stream closed")
			return e
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
			return ""
		}
	}

	// The subscription is live once ready arrives.
	require.True(t, strings.HasPrefix(next(), "ready "))

	w := env.request(t, http.MethodPost, "/api/matches", map[string]interface{}{
		"project_id": project.ID,
		"message":    "I'd like to help build this.",
	}, requester.ID)
	assertStatus(t, w, http.StatusCreated)

	event := next()
	require.True(t, strings.HasPrefix(event, "notification "), event)
	assert.Contains(t, event, `"type":"match_request"`)
	assert.Contains(t, event, "requester requested to join Rocket")
}

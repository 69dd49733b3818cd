package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/collab-match-api/internal/dto"
	apierrors "github.com/yukikurage/collab-match-api/internal/errors"
	"github.com/yukikurage/collab-match-api/internal/middleware"
	"github.com/yukikurage/collab-match-api/internal/services"
	"github.com/yukikurage/collab-match-api/internal/utils"
)

const defaultHeartbeatInterval = 25 * time.Second

// NotificationSubscriber opens a live feed of a user's notifications.
type NotificationSubscriber interface {
	Subscribe(ctx context.Context, userID uint64) (*redis.PubSub, error)
}

type NotificationHandler struct {
	notificationService *services.NotificationService
	subscriber          NotificationSubscriber
	heartbeat           time.Duration
}

// NewNotificationHandler creates a NotificationHandler. subscriber may be nil,
// which disables the stream endpoint.
func NewNotificationHandler(notificationService *services.NotificationService, subscriber NotificationSubscriber) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		subscriber:          subscriber,
		heartbeat:           defaultHeartbeatInterval,
	}
}

// ListNotifications returns the current user's notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	unreadOnly := false
	if raw := c.Query("unread"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.BadRequestWithDetails(c, "Invalid unread filter", gin.H{"field": "unread"})
			return
		}
		unreadOnly = parsed
	}

	params := utils.GetPaginationParams(c)
	notifications, total, err := h.notificationService.ListNotifications(c.Request.Context(), services.ListNotificationsInput{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Page:       params.Page,
		PageSize:   params.Limit,
	})
	if err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to fetch notifications")
		return
	}

	c.JSON(http.StatusOK, dto.ToNotificationListResponse(notifications, params.Page, params.Limit, total))
}

// MarkAsRead marks one notification as read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	notificationID, ok := middleware.GetIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid notification ID")
		return
	}

	if err := h.notificationService.MarkAsRead(c.Request.Context(), userID, notificationID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to update notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notification marked as read",
	})
}

// UnreadCount returns the number of unread notifications
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to count notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unread_count": count,
	})
}

// Stream pushes the user's notifications as server-sent events until the
// client disconnects.
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	if h.subscriber == nil {
		apierrors.ServiceUnavailable(c, "Realtime notifications are not configured")
		return
	}

	ctx := c.Request.Context()
	pubsub, err := h.subscriber.Subscribe(ctx, userID)
	if err != nil {
		_ = c.Error(err)
		apierrors.ServiceUnavailable(c, "Realtime notifications are unavailable")
		return
	}
	defer pubsub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"user_id": userID})
	c.Writer.Flush()

	messages := pubsub.Channel()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			c.SSEvent("notification", msg.Payload)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yukikurage/collab-match-api/internal/logger"
	"github.com/yukikurage/collab-match-api/internal/models"
	"github.com/yukikurage/collab-match-api/internal/repository"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Payload keys carried by match notifications.
const (
	PayloadRequestID       = "request_id"
	PayloadProjectID       = "project_id"
	PayloadProjectTitle    = "project_title"
	PayloadCounterpartID   = "counterpart_id"
	PayloadCounterpartName = "counterpart_username"
)

// Notifier is the delivery boundary used by MatchService.
type Notifier interface {
	Notify(ctx context.Context, userID uint64, notificationType models.NotificationType, payload map[string]string) error
}

// Publisher pushes a stored notification to connected clients.
type Publisher interface {
	Publish(ctx context.Context, notification *models.Notification) error
}

// NotificationService persists notifications and pushes them in real time.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	publisher        Publisher
	log              *slog.Logger
}

// NewNotificationService creates a new NotificationService. publisher may be
// nil, in which case notifications are only stored.
func NewNotificationService(notificationRepo repository.NotificationRepository, publisher Publisher) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		log:              logger.WithService("notifications"),
	}
}

// Notify stores the notification and then publishes it. A publish failure is
// returned after the row is committed, so the notification stays readable.
func (s *NotificationService) Notify(ctx context.Context, userID uint64, notificationType models.NotificationType, payload map[string]string) error {
	notification := &models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Message: renderNotificationMessage(notificationType, payload),
		Payload: payload,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(ctx, notification); err != nil {
		return fmt.Errorf("failed to push notification %d: %w", notification.ID, err)
	}

	s.log.DebugContext(ctx, "notification delivered",
		"notification_id", notification.ID,
		"user_id", userID,
		"type", notificationType,
	)
	return nil
}

// ListNotificationsInput holds filters for listing notifications.
type ListNotificationsInput struct {
	UserID     uint64
	UnreadOnly bool
	Page       int
	PageSize   int
}

// ListNotifications returns a user's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, input ListNotificationsInput) ([]models.Notification, int64, error) {
	notifications, total, err := s.notificationRepo.ListByUser(ctx, input.UserID, input.UnreadOnly, input.Page, input.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkAsRead marks one of the user's notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID uint64) error {
	if err := s.notificationRepo.MarkAsRead(ctx, notificationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// UnreadCount returns the number of unread notifications of a user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func renderNotificationMessage(notificationType models.NotificationType, payload map[string]string) string {
	title := payload[PayloadProjectTitle]
	if title == "" {
		title = "a project"
	}

	switch notificationType {
	case models.NotificationMatchRequest:
		name := payload[PayloadCounterpartName]
		if name == "" {
			name = "Someone"
		}
		return fmt.Sprintf("%s requested to join %s", name, title)
	case models.NotificationMatchAccepted:
		return fmt.Sprintf("Your request to join %s was accepted", title)
	case models.NotificationMatchRejected:
		return fmt.Sprintf("Your request to join %s was declined", title)
	default:
		return string(notificationType)
	}
}

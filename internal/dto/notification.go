package dto

import (
	"time"

	"github.com/yukikurage/collab-match-api/internal/models"
)

type NotificationDTO struct {
	ID        uint64                  `json:"id"`
	Type      models.NotificationType `json:"type"`
	Message   string                  `json:"message"`
	Payload   map[string]string       `json:"payload"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
	ReadAt    *time.Time              `json:"read_at,omitempty"`
}

type NotificationListResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
	Page          int               `json:"page"`
	PageSize      int               `json:"page_size"`
	TotalCount    int64             `json:"total_count"`
}

func ToNotificationDTO(n models.Notification) NotificationDTO {
	payload := n.Payload
	if payload == nil {
		payload = map[string]string{}
	}
	return NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		Payload:   payload,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
}

func ToNotificationListResponse(notifications []models.Notification, page, pageSize int, totalCount int64) NotificationListResponse {
	items := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		items[i] = ToNotificationDTO(n)
	}
	return NotificationListResponse{
		Notifications: items,
		Page:          page,
		PageSize:      pageSize,
		TotalCount:    totalCount,
	}
}

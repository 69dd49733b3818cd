package models

import "time"

type NotificationType string

const (
	NotificationMatchRequest  NotificationType = "match_request"
	NotificationMatchAccepted NotificationType = "match_accepted"
	NotificationMatchRejected NotificationType = "match_rejected"
)

type Notification struct {
	ID        uint64            `gorm:"primarykey" json:"id"`
	UserID    uint64            `gorm:"not null;index" json:"user_id"`
	Type      NotificationType  `gorm:"type:varchar(32);not null" json:"type"`
	Message   string            `gorm:"type:varchar(500)" json:"message"`
	Payload   map[string]string `gorm:"serializer:json;type:text" json:"payload"`
	IsRead    bool              `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
}

package models

import (
	"fmt"
	"time"
)

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusAccepted  MatchStatus = "accepted"
	MatchStatusRejected  MatchStatus = "rejected"
	MatchStatusBlocked   MatchStatus = "blocked"
	MatchStatusCancelled MatchStatus = "cancelled"
)

// AllMatchStatuses lists every status in lifecycle order.
var AllMatchStatuses = []MatchStatus{
	MatchStatusPending,
	MatchStatusAccepted,
	MatchStatusRejected,
	MatchStatusBlocked,
	MatchStatusCancelled,
}

// Valid reports whether s is a known status.
func (s MatchStatus) Valid() bool {
	for _, known := range AllMatchStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s MatchStatus) Terminal() bool {
	return s != MatchStatusPending
}

// HoldsPair reports whether a request in status s still occupies its
// (project, requester) slot, i.e. forbids a new request for the same pair.
func (s MatchStatus) HoldsPair() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusBlocked:
		return true
	default:
		return false
	}
}

// MatchRequest is a user's request to join another user's project.
type MatchRequest struct {
	ID          uint64      `gorm:"primarykey" json:"id"`
	ProjectID   uint64      `gorm:"not null;index" json:"project_id"`
	RequesterID uint64      `gorm:"not null;index" json:"requester_id"`
	Message     string      `gorm:"type:varchar(500);not null" json:"message"`
	Status      MatchStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	// ActivePair is set while Status holds the pair and NULL otherwise; its
	// unique index is what keeps concurrent creates from both succeeding.
	ActivePair *string   `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relations
	Project   Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Requester User    `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
}

// ActivePairKey returns the slot key for a (project, requester) pair.
func ActivePairKey(projectID, requesterID uint64) string {
	return fmt.Sprintf("%d:%d", projectID, requesterID)
}

// ActivePairFor returns the ActivePair value a request in status should carry.
func ActivePairFor(status MatchStatus, projectID, requesterID uint64) *string {
	if !status.HoldsPair() {
		return nil
	}
	key := ActivePairKey(projectID, requesterID)
	return &key
}

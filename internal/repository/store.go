package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore is a GORM implementation of Store
type GormStore struct {
	db            *gorm.DB
	users         UserRepository
	projects      ProjectRepository
	matches       MatchRequestRepository
	notifications NotificationRepository
}

// NewStore creates a Store whose repositories share db
func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:            db,
		users:         NewUserRepository(db),
		projects:      NewProjectRepository(db),
		matches:       NewMatchRequestRepository(db),
		notifications: NewNotificationRepository(db),
	}
}

func (s *GormStore) Users() UserRepository                 { return s.users }
func (s *GormStore) Projects() ProjectRepository           { return s.projects }
func (s *GormStore) Matches() MatchRequestRepository       { return s.matches }
func (s *GormStore) Notifications() NotificationRepository { return s.notifications }

// Transaction runs fn inside a database transaction
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

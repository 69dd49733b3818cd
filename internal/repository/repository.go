package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/collab-match-api/internal/models"
)

var (
	// ErrDuplicateActiveRequest is returned when the (project, requester) slot is already held.
	ErrDuplicateActiveRequest = errors.New("match repository: pair already has an active request")
	// ErrStatusConflict is returned when a conditional status update matched no row.
	ErrStatusConflict = errors.New("match repository: status changed concurrently")
	// ErrAlreadyTeamMember is returned when adding a team member twice.
	ErrAlreadyTeamMember = errors.New("project repository: user is already a team member")
)

// MatchFilter holds filtering options for listing match requests.
// Exactly one of RequesterID and OwnerID is expected to be set.
type MatchFilter struct {
	RequesterID *uint64
	OwnerID     *uint64
	Status      *models.MatchStatus
	Page        int
	PageSize    int
}

// MatchRequestRepository defines the interface for match request data access
type MatchRequestRepository interface {
	// Create inserts a new request; the pair slot is claimed atomically
	Create(ctx context.Context, req *models.MatchRequest) error

	// FindByID finds a request by ID with project and requester preloaded
	FindByID(ctx context.Context, id uint64) (*models.MatchRequest, error)

	// ListForPair returns every request a requester made for a project, newest first
	ListForPair(ctx context.Context, projectID, requesterID uint64) ([]models.MatchRequest, error)

	// UpdateStatus moves a request from one status to another only if it is still in from
	UpdateStatus(ctx context.Context, id uint64, from, to models.MatchStatus, at time.Time) error

	// List retrieves requests with filtering and pagination, newest first
	List(ctx context.Context, filter MatchFilter) ([]models.MatchRequest, int64, error)

	// CountByStatus aggregates request counts per status for the filter
	CountByStatus(ctx context.Context, filter MatchFilter) (map[models.MatchStatus]int64, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(ctx context.Context, project *models.Project) error

	// FindByID finds a project by ID
	FindByID(ctx context.Context, id uint64) (*models.Project, error)

	// GetOwner returns the owner of a project
	GetOwner(ctx context.Context, projectID uint64) (uint64, error)

	// ListByOwner lists projects created by a user
	ListByOwner(ctx context.Context, ownerID uint64) ([]models.Project, error)

	// AddTeamMember appends a user to the project's team
	AddTeamMember(ctx context.Context, projectID, userID uint64) error

	// IsTeamMember reports whether a user is on the project's team
	IsTeamMember(ctx context.Context, projectID, userID uint64) (bool, error)

	// ListMembers lists the team of a project
	ListMembers(ctx context.Context, projectID uint64) ([]models.ProjectMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create persists a notification row
	Create(ctx context.Context, notification *models.Notification) error

	// ListByUser lists a user's notifications, newest first
	ListByUser(ctx context.Context, userID uint64, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error)

	// MarkAsRead marks one of the user's notifications as read
	MarkAsRead(ctx context.Context, id, userID uint64) error

	// CountUnread counts unread notifications of a user
	CountUnread(ctx context.Context, userID uint64) (int64, error)
}

// Store groups the repositories that must be able to commit together.
type Store interface {
	Users() UserRepository
	Projects() ProjectRepository
	Matches() MatchRequestRepository
	Notifications() NotificationRepository

	// Transaction runs fn against a Store bound to a single database
	// transaction; any error returned by fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/collab-match-api/internal/database"
	"github.com/yukikurage/collab-match-api/internal/models"
	"github.com/yukikurage/collab-match-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestStore(t *testing.T) (*gorm.DB, *repository.GormStore) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.Options(gormlogger.Silent))
	require.NoError(t, err)

	// One connection keeps every goroutine on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db, repository.NewStore(db)
}

func createTestUser(t *testing.T, store repository.Store, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hashedpassword"}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func createTestProject(t *testing.T, store repository.Store, ownerID uint64, title string) *models.Project {
	t.Helper()
	project := &models.Project{Title: title, Description: "Test Description", OwnerID: ownerID}
	require.NoError(t, store.Projects().Create(context.Background(), project))
	return project
}

type sentNotification struct {
	UserID  uint64
	Type    models.NotificationType
	Payload map[string]string
}

// recordingNotifier captures notifications and optionally fails every call.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, userID uint64, notificationType models.NotificationType, payload map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: notificationType, Payload: payload})
	return nil
}

func (n *recordingNotifier) Sent() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentNotification, len(n.sent))
	copy(out, n.sent)
	return out
}

var errTeamUnavailable = errors.New("team membership unavailable")

// brokenTeamStore fails AddTeamMember, inside or outside transactions.
type brokenTeamStore struct {
	repository.Store
}

func (s brokenTeamStore) Projects() repository.ProjectRepository {
	return brokenTeamProjects{ProjectRepository: s.Store.Projects()}
}

func (s brokenTeamStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repository.Store) error {
		return fn(brokenTeamStore{Store: tx})
	})
}

type brokenTeamProjects struct {
	repository.ProjectRepository
}

func (brokenTeamProjects) AddTeamMember(context.Context, uint64, uint64) error {
	return errTeamUnavailable
}

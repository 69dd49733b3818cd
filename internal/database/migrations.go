package database

import (
	"fmt"
	"strings"

	"github.com/yukikurage/collab-match-api/internal/logger"
	"gorm.io/gorm"
)

type indexSpec struct {
	table   string
	name    string
	columns []string
}

// compositeIndexes backs the list and stats queries of the match subsystem.
var compositeIndexes = []indexSpec{
	{"match_requests", "idx_match_requests_project_requester", []string{"project_id", "requester_id"}},
	{"match_requests", "idx_match_requests_requester_created", []string{"requester_id", "created_at"}},
	{"match_requests", "idx_match_requests_project_created", []string{"project_id", "created_at"}},
	{"notifications", "idx_notifications_user_read", []string{"user_id", "is_read"}},
	{"project_members", "idx_project_members_user_id", []string{"user_id"}},
}

// AddIndexes adds the composite indexes gorm tags do not express
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			logger.Debug("Index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logger.Info("Created index", "index", idx.name, "table", idx.table)
	}

	return nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/collab-match-api/internal/database"
	"github.com/yukikurage/collab-match-api/internal/models"
	"github.com/yukikurage/collab-match-api/internal/utils"
	"gorm.io/gorm"
)

// GormMatchRequestRepository is a GORM implementation of MatchRequestRepository
type GormMatchRequestRepository struct {
	db *gorm.DB
}

// NewMatchRequestRepository creates a new MatchRequestRepository
func NewMatchRequestRepository(db *gorm.DB) MatchRequestRepository {
	return &GormMatchRequestRepository{db: db}
}

// Create inserts the request. The active_pair unique index rejects a second
// row for a pair whose slot is still held, even under concurrent inserts.
func (r *GormMatchRequestRepository) Create(ctx context.Context, req *models.MatchRequest) error {
	if req.Status == "" {
		req.Status = models.MatchStatusPending
	}
	req.ActivePair = models.ActivePairFor(req.Status, req.ProjectID, req.RequesterID)

	if err := r.db.WithContext(ctx).Omit("Project", "Requester").Create(req).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateActiveRequest
		}
		return err
	}
	return nil
}

// FindByID finds a request by ID
func (r *GormMatchRequestRepository) FindByID(ctx context.Context, id uint64) (*models.MatchRequest, error) {
	var req models.MatchRequest
	if err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Requester").
		First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ListForPair returns the request history of a requester for one project
func (r *GormMatchRequestRepository) ListForPair(ctx context.Context, projectID, requesterID uint64) ([]models.MatchRequest, error) {
	var reqs []models.MatchRequest
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND requester_id = ?", projectID, requesterID).
		Scopes(database.NewestFirst("match_requests")).
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// UpdateStatus is a compare-and-swap on the status column. When no row is
// still in from, nothing is written and ErrStatusConflict is returned.
func (r *GormMatchRequestRepository) UpdateStatus(ctx context.Context, id uint64, from, to models.MatchStatus, at time.Time) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	if !to.HoldsPair() {
		updates["active_pair"] = nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.MatchRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// List retrieves requests with filtering and pagination
func (r *GormMatchRequestRepository) List(ctx context.Context, filter MatchFilter) ([]models.MatchRequest, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := r.filtered(ctx, filter).
		Select("match_requests.*").
		Scopes(database.NewestFirst("match_requests"))
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	var reqs []models.MatchRequest
	if err := listQuery.
		Preload("Project").
		Preload("Requester").
		Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

type statusCount struct {
	Status models.MatchStatus
	Count  int64
}

// CountByStatus aggregates counts per status; statuses with no rows are absent
func (r *GormMatchRequestRepository) CountByStatus(ctx context.Context, filter MatchFilter) (map[models.MatchStatus]int64, error) {
	filter.Status = nil

	var rows []statusCount
	if err := r.filtered(ctx, filter).
		Select("match_requests.status AS status, COUNT(*) AS count").
		Group("match_requests.status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.MatchStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *GormMatchRequestRepository) filtered(ctx context.Context, filter MatchFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.MatchRequest{})

	if filter.RequesterID != nil {
		query = query.Where("match_requests.requester_id = ?", *filter.RequesterID)
	}
	if filter.OwnerID != nil {
		query = query.
			Joins("JOIN projects ON projects.id = match_requests.project_id").
			Where("projects.owner_id = ? AND projects.deleted_at IS NULL", *filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("match_requests.status = ?", *filter.Status)
	}
	return query
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/collab-match-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Preload("Owner").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// GetOwner returns the owner of a project without loading relations
func (r *GormProjectRepository) GetOwner(ctx context.Context, projectID uint64) (uint64, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Select("id", "owner_id").First(&project, projectID).Error; err != nil {
		return 0, err
	}
	return project.OwnerID, nil
}

// ListByOwner lists projects created by a user, newest first
func (r *GormProjectRepository) ListByOwner(ctx context.Context, ownerID uint64) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// AddTeamMember adds a user to the project's team
func (r *GormProjectRepository) AddTeamMember(ctx context.Context, projectID, userID uint64) error {
	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyTeamMember
		}
		return err
	}
	return nil
}

// IsTeamMember reports whether a user is on the project's team
func (r *GormProjectRepository) IsTeamMember(ctx context.Context, projectID, userID uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListMembers lists all members of a project
func (r *GormProjectRepository) ListMembers(ctx context.Context, projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

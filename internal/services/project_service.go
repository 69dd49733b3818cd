package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/collab-match-api/internal/models"
	"github.com/yukikurage/collab-match-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrInvalidProjectTitle = errors.New("project title cannot be empty")
	ErrProjectTitleTooLong = errors.New("project title is too long")
)

const maxProjectTitleLength = 255

// ProjectService provides business logic for project operations.
type ProjectService struct {
	projectRepo repository.ProjectRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Title       string
	Description string
	OwnerID     uint64
}

// CreateProject creates a new project owned by the caller. The owner is not
// added to the team; ownership is tracked on the project itself.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidProjectTitle
	}
	if len([]rune(title)) > maxProjectTitleLength {
		return nil, ErrProjectTitleTooLong
	}

	project := &models.Project{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     input.OwnerID,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// ListProjectsForOwner returns projects the user owns.
func (s *ProjectService) ListProjectsForOwner(ctx context.Context, ownerID uint64) ([]models.Project, error) {
	projects, err := s.projectRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProjectWithTeam returns a project and its team members.
func (s *ProjectService) GetProjectWithTeam(ctx context.Context, projectID uint64) (*models.Project, []models.ProjectMember, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to find project: %w", err)
	}

	members, err := s.projectRepo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list project members: %w", err)
	}

	return project, members, nil
}

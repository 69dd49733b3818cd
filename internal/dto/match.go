package dto

import (
	"time"

	"github.com/yukikurage/collab-match-api/internal/models"
	"github.com/yukikurage/collab-match-api/internal/services"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// MatchRequestDTO represents a participation request in API responses
type MatchRequestDTO struct {
	ID          uint64             `json:"id"`
	ProjectID   uint64             `json:"project_id"`
	RequesterID uint64             `json:"requester_id"`
	Message     string             `json:"message"`
	Status      models.MatchStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Project     *ProjectDTO        `json:"project,omitempty"`
	Requester   *UserDTO           `json:"requester,omitempty"`
}

// MatchListResponse represents a paginated list of requests
type MatchListResponse struct {
	Requests   []MatchRequestDTO `json:"requests"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int64             `json:"total_count"`
	TotalPages int               `json:"total_pages"`
}

// StatusCountsDTO holds per-status request counts
type StatusCountsDTO struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Accepted  int64 `json:"accepted"`
	Rejected  int64 `json:"rejected"`
	Blocked   int64 `json:"blocked"`
	Cancelled int64 `json:"cancelled"`
}

// MatchStatsDTO is the dashboard summary of a user's requests
type MatchStatsDTO struct {
	Sent     StatusCountsDTO `json:"sent"`
	Received StatusCountsDTO `json:"received"`
}

// CanRequestDTO is the result of a pre-flight permission check
type CanRequestDTO struct {
	CanRequest bool   `json:"can_request"`
	Reason     string `json:"reason,omitempty"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToMatchRequestDTO converts a MatchRequest model to MatchRequestDTO
func ToMatchRequestDTO(req models.MatchRequest) MatchRequestDTO {
	dto := MatchRequestDTO{
		ID:          req.ID,
		ProjectID:   req.ProjectID,
		RequesterID: req.RequesterID,
		Message:     req.Message,
		Status:      req.Status,
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
	}

	// Include project if preloaded
	if req.Project.ID != 0 {
		project := ToProjectDTO(req.Project)
		dto.Project = &project
	}

	// Include requester if preloaded
	if req.Requester.ID != 0 {
		requester := ToUserDTO(req.Requester)
		dto.Requester = &requester
	}

	return dto
}

// ToMatchListResponse converts a slice of requests to MatchListResponse
func ToMatchListResponse(requests []models.MatchRequest, page, pageSize int, totalCount int64) MatchListResponse {
	items := make([]MatchRequestDTO, len(requests))
	for i, req := range requests {
		items[i] = ToMatchRequestDTO(req)
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return MatchListResponse{
		Requests:   items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// ToMatchStatsDTO converts service stats to MatchStatsDTO
func ToMatchStatsDTO(stats services.MatchStats) MatchStatsDTO {
	return MatchStatsDTO{
		Sent:     toStatusCountsDTO(stats.Sent),
		Received: toStatusCountsDTO(stats.Received),
	}
}

func toStatusCountsDTO(counts services.StatusCounts) StatusCountsDTO {
	return StatusCountsDTO{
		Total:     counts.Total,
		Pending:   counts.Pending,
		Accepted:  counts.Accepted,
		Rejected:  counts.Rejected,
		Blocked:   counts.Blocked,
		Cancelled: counts.Cancelled,
	}
}

// ToCanRequestDTO converts a policy decision to CanRequestDTO
func ToCanRequestDTO(decision services.Decision) CanRequestDTO {
	return CanRequestDTO{
		CanRequest: decision.Allowed,
		Reason:     decision.Reason,
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-match-api/internal/dto"
	apierrors "github.com/yukikurage/collab-match-api/internal/errors"
	"github.com/yukikurage/collab-match-api/internal/middleware"
	"github.com/yukikurage/collab-match-api/internal/models"
	"github.com/yukikurage/collab-match-api/internal/services"
	"github.com/yukikurage/collab-match-api/internal/utils"
)

// MatchHandler exposes the participation request workflow.
type MatchHandler struct {
	matchService *services.MatchService
}

func NewMatchHandler(matchService *services.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
	}
}

// CreateRequest opens a participation request for a project
func (h *MatchHandler) CreateRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateMatchRequest struct {
		ProjectID uint64 `json:"project_id" binding:"required"`
		Message   string `json:"message"`
	}

	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	created, err := h.matchService.CreateRequest(c.Request.Context(), services.CreateMatchInput{
		RequesterID: userID,
		ProjectID:   req.ProjectID,
		Message:     req.Message,
	})
	if err != nil {
		respondMatchError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMatchRequestDTO(*created))
}

// ListReceived lists requests for the current user's projects
func (h *MatchHandler) ListReceived(c *gin.Context) {
	h.listRequests(c, h.matchService.GetReceivedRequests)
}

// ListSent lists requests made by the current user
func (h *MatchHandler) ListSent(c *gin.Context) {
	h.listRequests(c, h.matchService.GetSentRequests)
}

// GetStats returns request counts for the current user
func (h *MatchHandler) GetStats(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	stats, err := h.matchService.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMatchStatsDTO(*stats))
}

// CanRequest reports whether the current user may request to join a project
func (h *MatchHandler) CanRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	projectID, ok := middleware.GetIDParam(c, "project_id")
	if !ok {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	decision, err := h.matchService.CanRequestParticipation(c.Request.Context(), userID, projectID)
	if err != nil {
		respondMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCanRequestDTO(decision))
}

// DraftMessage asks the AI service for a request message
func (h *MatchHandler) DraftMessage(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type DraftMessageRequest struct {
		ProjectID uint64 `json:"project_id" binding:"required"`
		Intro     string `json:"intro" binding:"max=2000"`
	}

	var req DraftMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	draft, err := h.matchService.DraftMessage(c.Request.Context(), services.DraftMessageInput{
		RequesterID: userID,
		ProjectID:   req.ProjectID,
		Intro:       req.Intro,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAIServiceNotConfigured):
			apierrors.ServiceUnavailable(c, "AI service is not configured")
		case errors.Is(err, services.ErrAINoDraftGenerated):
			apierrors.RespondWithError(c, http.StatusBadGateway, apierrors.NewAPIError(apierrors.ErrCodeDependencyFailure, err.Error()))
		default:
			respondMatchError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": draft,
	})
}

// GetRequest returns a request to either of its parties
func (h *MatchHandler) GetRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	requestID, ok := middleware.GetIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid request ID")
		return
	}

	req, err := h.matchService.GetForParticipant(c.Request.Context(), userID, requestID)
	if err != nil {
		respondMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMatchRequestDTO(*req))
}

// AcceptRequest accepts a pending request
func (h *MatchHandler) AcceptRequest(c *gin.Context) {
	h.transition(c, h.matchService.AcceptRequest)
}

// RejectRequest rejects a pending request
func (h *MatchHandler) RejectRequest(c *gin.Context) {
	h.transition(c, h.matchService.RejectRequest)
}

// BlockRequest blocks the requester of a pending request
func (h *MatchHandler) BlockRequest(c *gin.Context) {
	h.transition(c, h.matchService.BlockRequest)
}

// CancelRequest withdraws the current user's pending request
func (h *MatchHandler) CancelRequest(c *gin.Context) {
	h.transition(c, h.matchService.CancelRequest)
}

type transitionFunc func(ctx context.Context, actorID, requestID uint64) (*models.MatchRequest, error)

func (h *MatchHandler) transition(c *gin.Context, apply transitionFunc) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	requestID, ok := middleware.GetIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid request ID")
		return
	}

	req, err := apply(c.Request.Context(), userID, requestID)
	if err != nil {
		respondMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMatchRequestDTO(*req))
}

type listFunc func(ctx context.Context, userID uint64, input services.ListMatchesInput) ([]models.MatchRequest, int64, error)

func (h *MatchHandler) listRequests(c *gin.Context, list listFunc) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.ListMatchesInput{}
	if raw := c.Query("status"); raw != "" {
		status := models.MatchStatus(raw)
		if !status.Valid() {
			apierrors.BadRequestWithDetails(c, "Invalid status filter", gin.H{"field": "status"})
			return
		}
		input.Status = &status
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	requests, total, err := list(c.Request.Context(), userID, input)
	if err != nil {
		respondMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMatchListResponse(requests, params.Page, params.Limit, total))
}

func respondMatchError(c *gin.Context, err error) {
	_ = c.Error(err)
	if apierrors.RespondWithDomainError(c, err) {
		return
	}
	apierrors.InternalError(c, "Internal server error")
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/collab-match-api/internal/constants"
	apierrors "github.com/yukikurage/collab-match-api/internal/errors"
	"github.com/yukikurage/collab-match-api/internal/logger"
	"github.com/yukikurage/collab-match-api/internal/models"
	"github.com/yukikurage/collab-match-api/internal/repository"
	"gorm.io/gorm"
)

// MatchService runs the participation request lifecycle.
type MatchService struct {
	store     repository.Store
	policy    MatchPolicy
	notifier  Notifier
	aiService *AIService
	log       *slog.Logger
	now       func() time.Time
}

// NewMatchService creates a new MatchService. notifier and aiService may be nil.
func NewMatchService(store repository.Store, policy MatchPolicy, notifier Notifier, aiService *AIService) *MatchService {
	return &MatchService{
		store:     store,
		policy:    policy,
		notifier:  notifier,
		aiService: aiService,
		log:       logger.WithService("matches"),
		now:       time.Now,
	}
}

// CreateMatchInput represents input for opening a participation request.
type CreateMatchInput struct {
	RequesterID uint64
	ProjectID   uint64
	Message     string
}

// ListMatchesInput represents filters for listing requests.
type ListMatchesInput struct {
	Status   *models.MatchStatus
	Page     int
	PageSize int
}

// CreateRequest validates the message, consults the policy and stores a
// pending request. The owner is notified on a best-effort basis.
func (s *MatchService) CreateRequest(ctx context.Context, input CreateMatchInput) (*models.MatchRequest, error) {
	message, err := validateMatchMessage(input.Message)
	if err != nil {
		return nil, err
	}

	decision, err := s.policy.Evaluate(ctx, s.store, input.RequesterID, input.ProjectID)
	if err != nil {
		return nil, apierrors.DependencyFailure("failed to check request permission", err)
	}
	if !decision.Allowed {
		return nil, apierrors.PermissionDenied(decision.Reason)
	}

	req := &models.MatchRequest{
		ProjectID:   input.ProjectID,
		RequesterID: input.RequesterID,
		Message:     message,
		Status:      models.MatchStatusPending,
	}
	if err := s.store.Matches().Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveRequest) {
			// Lost a race against another create for the same pair.
			return nil, apierrors.PermissionDenied(s.denialReasonAfterConflict(ctx, input))
		}
		return nil, apierrors.DependencyFailure("failed to create request", err)
	}

	created, err := s.store.Matches().FindByID(ctx, req.ID)
	if err != nil {
		s.log.WarnContext(ctx, "failed to reload created request", "request_id", req.ID, "error", err)
		created = req
	}

	s.notify(ctx, created.Project.OwnerID, models.NotificationMatchRequest, created, created.RequesterID, created.Requester.Username)
	return created, nil
}

// AcceptRequest accepts a pending request and adds the requester to the team
// in the same transaction.
func (s *MatchService) AcceptRequest(ctx context.Context, actorID, requestID uint64) (*models.MatchRequest, error) {
	req, err := s.transition(ctx, actorID, requestID, models.MatchStatusAccepted)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, req.RequesterID, models.NotificationMatchAccepted, req, actorID, "")
	return req, nil
}

// RejectRequest declines a pending request.
func (s *MatchService) RejectRequest(ctx context.Context, actorID, requestID uint64) (*models.MatchRequest, error) {
	req, err := s.transition(ctx, actorID, requestID, models.MatchStatusRejected)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, req.RequesterID, models.NotificationMatchRejected, req, actorID, "")
	return req, nil
}

// BlockRequest blocks the requester from the project for good. The requester
// is not told.
func (s *MatchService) BlockRequest(ctx context.Context, actorID, requestID uint64) (*models.MatchRequest, error) {
	req, err := s.transition(ctx, actorID, requestID, models.MatchStatusBlocked)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "requester blocked",
		"request_id", req.ID,
		"project_id", req.ProjectID,
		"requester_id", req.RequesterID,
		"owner_id", actorID,
	)
	return req, nil
}

// CancelRequest withdraws a pending request. Only the requester may cancel.
func (s *MatchService) CancelRequest(ctx context.Context, actorID, requestID uint64) (*models.MatchRequest, error) {
	return s.transition(ctx, actorID, requestID, models.MatchStatusCancelled)
}

// GetReceivedRequests lists requests targeting projects owned by ownerID.
func (s *MatchService) GetReceivedRequests(ctx context.Context, ownerID uint64, input ListMatchesInput) ([]models.MatchRequest, int64, error) {
	return s.list(ctx, repository.MatchFilter{OwnerID: &ownerID}, input)
}

// GetSentRequests lists requests made by requesterID.
func (s *MatchService) GetSentRequests(ctx context.Context, requesterID uint64, input ListMatchesInput) ([]models.MatchRequest, int64, error) {
	return s.list(ctx, repository.MatchFilter{RequesterID: &requesterID}, input)
}

// GetByID returns a request by ID.
func (s *MatchService) GetByID(ctx context.Context, requestID uint64) (*models.MatchRequest, error) {
	req, err := s.store.Matches().FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("match request not found")
		}
		return nil, apierrors.DependencyFailure("failed to load request", err)
	}
	return req, nil
}

// GetForParticipant returns a request only to its requester or the project
// owner. Anyone else gets NotFound so existence is not disclosed.
func (s *MatchService) GetForParticipant(ctx context.Context, actorID, requestID uint64) (*models.MatchRequest, error) {
	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID == actorID {
		return req, nil
	}

	ownerID, err := s.store.Projects().GetOwner(ctx, req.ProjectID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.DependencyFailure("failed to load project owner", err)
	}
	if err != nil || ownerID != actorID {
		return nil, apierrors.NotFoundError("match request not found")
	}
	return req, nil
}

// CanRequestParticipation is an advisory pre-flight check; CreateRequest
// re-validates at write time.
func (s *MatchService) CanRequestParticipation(ctx context.Context, requesterID, projectID uint64) (Decision, error) {
	decision, err := s.policy.Evaluate(ctx, s.store, requesterID, projectID)
	if err != nil {
		return Decision{}, apierrors.DependencyFailure("failed to check request permission", err)
	}
	return decision, nil
}

// StatusCounts aggregates requests per status.
type StatusCounts struct {
	Total     int64
	Pending   int64
	Accepted  int64
	Rejected  int64
	Blocked   int64
	Cancelled int64
}

// MatchStats holds the sent and received aggregates of a user.
type MatchStats struct {
	Sent     StatusCounts
	Received StatusCounts
}

// GetStats aggregates the user's sent and received requests. Both counts are
// read in one transaction.
func (s *MatchService) GetStats(ctx context.Context, userID uint64) (*MatchStats, error) {
	var stats MatchStats
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		sent, err := tx.Matches().CountByStatus(ctx, repository.MatchFilter{RequesterID: &userID})
		if err != nil {
			return err
		}
		received, err := tx.Matches().CountByStatus(ctx, repository.MatchFilter{OwnerID: &userID})
		if err != nil {
			return err
		}
		stats.Sent = toStatusCounts(sent)
		stats.Received = toStatusCounts(received)
		return nil
	})
	if err != nil {
		return nil, apierrors.DependencyFailure("failed to compute stats", err)
	}
	return &stats, nil
}

// DraftMessageInput represents input for AI message drafting.
type DraftMessageInput struct {
	RequesterID uint64
	ProjectID   uint64
	Intro       string
}

// DraftMessage asks the AI service for a request message tailored to the
// project. The result is trimmed to fit the message bounds.
func (s *MatchService) DraftMessage(ctx context.Context, input DraftMessageInput) (string, error) {
	if s.aiService == nil {
		return "", ErrAIServiceNotConfigured
	}

	project, err := s.store.Projects().FindByID(ctx, input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apierrors.NotFoundError(ReasonProjectNotFound)
		}
		return "", apierrors.DependencyFailure("failed to load project", err)
	}
	if project.OwnerID == input.RequesterID {
		return "", apierrors.PermissionDenied(ReasonOwnProject)
	}

	draft, err := s.aiService.DraftRequestMessage(ctx, project, input.Intro)
	if err != nil {
		return "", apierrors.DependencyFailure("failed to draft message", err)
	}

	draft = strings.TrimSpace(draft)
	if utf8.RuneCountInString(draft) > constants.MaxMatchMessageLength {
		draft = string([]rune(draft)[:constants.MaxMatchMessageLength])
	}
	if utf8.RuneCountInString(draft) < constants.MinMatchMessageLength {
		return "", ErrAINoDraftGenerated
	}
	return draft, nil
}

// transition moves a pending request to one of the terminal statuses. The
// status check and the write happen in a single conditional update, so of
// several concurrent calls exactly one wins.
func (s *MatchService) transition(ctx context.Context, actorID, requestID uint64, to models.MatchStatus) (*models.MatchRequest, error) {
	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, actorID, req, to); err != nil {
		return nil, err
	}

	if req.Status != models.MatchStatusPending {
		return nil, invalidTransition(req.Status, to)
	}

	at := s.now()
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Matches().UpdateStatus(ctx, req.ID, models.MatchStatusPending, to, at); err != nil {
			return err
		}
		if to != models.MatchStatusAccepted {
			return nil
		}
		member, err := tx.Projects().IsTeamMember(ctx, req.ProjectID, req.RequesterID)
		if err != nil {
			return fmt.Errorf("failed to check team membership: %w", err)
		}
		if member {
			return nil
		}
		if err := tx.Projects().AddTeamMember(ctx, req.ProjectID, req.RequesterID); err != nil {
			return fmt.Errorf("failed to add team member: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, invalidTransition(s.currentStatus(ctx, req), to)
		}
		return nil, apierrors.DependencyFailure("failed to update request", err)
	}

	req.Status = to
	req.UpdatedAt = at
	req.ActivePair = models.ActivePairFor(to, req.ProjectID, req.RequesterID)
	return req, nil
}

// authorize checks the actor against the current project owner, or the
// requester for cancellations.
func (s *MatchService) authorize(ctx context.Context, actorID uint64, req *models.MatchRequest, to models.MatchStatus) error {
	if to == models.MatchStatusCancelled {
		if req.RequesterID != actorID {
			return apierrors.ForbiddenError("only the requester can cancel this request")
		}
		return nil
	}

	ownerID, err := s.store.Projects().GetOwner(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.NotFoundError(ReasonProjectNotFound)
		}
		return apierrors.DependencyFailure("failed to load project owner", err)
	}
	if ownerID != actorID {
		return apierrors.ForbiddenError("only the project owner can respond to this request")
	}
	return nil
}

// currentStatus reloads the status after a lost conditional update.
func (s *MatchService) currentStatus(ctx context.Context, req *models.MatchRequest) models.MatchStatus {
	latest, err := s.store.Matches().FindByID(ctx, req.ID)
	if err != nil {
		s.log.WarnContext(ctx, "failed to reload request after conflict", "request_id", req.ID, "error", err)
		return req.Status
	}
	return latest.Status
}

func (s *MatchService) list(ctx context.Context, filter repository.MatchFilter, input ListMatchesInput) ([]models.MatchRequest, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, apierrors.Validation("status", fmt.Sprintf("unknown status %q", *input.Status))
	}
	filter.Status = input.Status
	filter.Page = input.Page
	filter.PageSize = input.PageSize

	requests, total, err := s.store.Matches().List(ctx, filter)
	if err != nil {
		return nil, 0, apierrors.DependencyFailure("failed to list requests", err)
	}
	return requests, total, nil
}

// denialReasonAfterConflict re-runs the policy to explain a lost create race.
func (s *MatchService) denialReasonAfterConflict(ctx context.Context, input CreateMatchInput) string {
	decision, err := s.policy.Evaluate(ctx, s.store, input.RequesterID, input.ProjectID)
	if err != nil || decision.Allowed {
		return ReasonRequestPending
	}
	return decision.Reason
}

// notify delivers a notification and swallows any failure.
func (s *MatchService) notify(ctx context.Context, userID uint64, notificationType models.NotificationType, req *models.MatchRequest, counterpartID uint64, counterpartName string) {
	if s.notifier == nil || userID == 0 {
		return
	}

	payload := map[string]string{
		PayloadRequestID:     strconv.FormatUint(req.ID, 10),
		PayloadProjectID:     strconv.FormatUint(req.ProjectID, 10),
		PayloadCounterpartID: strconv.FormatUint(counterpartID, 10),
	}
	if req.Project.Title != "" {
		payload[PayloadProjectTitle] = req.Project.Title
	}
	if counterpartName != "" {
		payload[PayloadCounterpartName] = counterpartName
	}

	if err := s.notifier.Notify(ctx, userID, notificationType, payload); err != nil {
		s.log.WarnContext(ctx, "notification delivery failed",
			"request_id", req.ID,
			"user_id", userID,
			"type", notificationType,
			"error", err,
		)
	}
}

// validateMatchMessage bounds the message as submitted, counted in
// characters. Whitespace-only messages are rejected regardless of length.
func validateMatchMessage(message string) (string, error) {
	length := utf8.RuneCountInString(message)
	if length < constants.MinMatchMessageLength || length > constants.MaxMatchMessageLength {
		return "", apierrors.Validation("message", fmt.Sprintf(
			"message must be between %d and %d characters",
			constants.MinMatchMessageLength, constants.MaxMatchMessageLength,
		))
	}
	if strings.TrimSpace(message) == "" {
		return "", apierrors.Validation("message", "message cannot be blank")
	}
	return message, nil
}

func invalidTransition(current, to models.MatchStatus) *apierrors.Error {
	return apierrors.InvalidTransition(
		fmt.Sprintf("cannot move request from %s to %s", current, to),
		string(current),
	)
}

func toStatusCounts(counts map[models.MatchStatus]int64) StatusCounts {
	result := StatusCounts{
		Pending:   counts[models.MatchStatusPending],
		Accepted:  counts[models.MatchStatusAccepted],
		Rejected:  counts[models.MatchStatusRejected],
		Blocked:   counts[models.MatchStatusBlocked],
		Cancelled: counts[models.MatchStatusCancelled],
	}
	for _, n := range counts {
		result.Total += n
	}
	return result
}

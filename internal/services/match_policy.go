package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/collab-match-api/internal/models"
	"github.com/yukikurage/collab-match-api/internal/repository"
	"gorm.io/gorm"
)

// Reasons reported when a participation request is not allowed.
const (
	ReasonProjectNotFound    = "project not found"
	ReasonOwnProject         = "owner cannot request own project"
	ReasonBlocked            = "blocked"
	ReasonRequestPending     = "request already pending"
	ReasonAlreadyParticipant = "already a participant"
)

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// MatchPolicy decides whether a user may open a participation request.
type MatchPolicy struct{}

// NewMatchPolicy creates a new MatchPolicy.
func NewMatchPolicy() MatchPolicy {
	return MatchPolicy{}
}

// Decide applies the rules in order; the first one that fails wins.
// history holds every earlier request from requesterID for the project.
func (MatchPolicy) Decide(requesterID, ownerID uint64, history []models.MatchRequest) Decision {
	if requesterID == ownerID {
		return deny(ReasonOwnProject)
	}

	seen := make(map[models.MatchStatus]bool, len(history))
	for _, req := range history {
		seen[req.Status] = true
	}

	switch {
	case seen[models.MatchStatusBlocked]:
		return deny(ReasonBlocked)
	case seen[models.MatchStatusPending]:
		return deny(ReasonRequestPending)
	case seen[models.MatchStatusAccepted]:
		return deny(ReasonAlreadyParticipant)
	}
	return allow()
}

// Evaluate loads the project owner and the pair history from store and
// runs Decide over them. A missing project is a denial, not an error.
func (p MatchPolicy) Evaluate(ctx context.Context, store repository.Store, requesterID, projectID uint64) (Decision, error) {
	ownerID, err := store.Projects().GetOwner(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return deny(ReasonProjectNotFound), nil
		}
		return Decision{}, fmt.Errorf("failed to load project owner: %w", err)
	}

	history, err := store.Matches().ListForPair(ctx, projectID, requesterID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load request history: %w", err)
	}

	return p.Decide(requesterID, ownerID, history), nil
}

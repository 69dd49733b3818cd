package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies a domain failure so callers can branch without parsing messages.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindPermissionDenied
	KindNotFound
	KindForbidden
	KindInvalidTransition
	KindDependencyFailure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindDependencyFailure:
		return "dependency_failure"
	default:
		return "unknown"
	}
}

// Error is the error type returned by services.
type Error struct {
	Kind    Kind
	Message string
	// Field names the offending input for KindValidation.
	Field string
	// Reason is the policy reason for KindPermissionDenied.
	Reason string
	// CurrentStatus is the status observed for KindInvalidTransition.
	CurrentStatus string
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a target of the same Kind whose Message is empty or equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func PermissionDenied(reason string) *Error {
	return &Error{Kind: KindPermissionDenied, Reason: reason, Message: reason}
}

func NotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func ForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func InvalidTransition(message, currentStatus string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: message, CurrentStatus: currentStatus}
}

func DependencyFailure(message string, err error) *Error {
	return &Error{Kind: KindDependencyFailure, Message: message, Err: err}
}

// KindOf returns the Kind of err, or 0 when err is not a domain error.
func KindOf(err error) Kind {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return 0
}

// RespondWithDomainError maps a service error onto the HTTP error envelope.
// It reports false when err is not a domain error so the caller can fall back.
func RespondWithDomainError(c *gin.Context, err error) bool {
	var domainErr *Error
	if !stderrors.As(err, &domainErr) {
		return false
	}

	switch domainErr.Kind {
	case KindValidation:
		var details interface{}
		if domainErr.Field != "" {
			details = gin.H{"field": domainErr.Field}
		}
		RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, domainErr.Message, details))
	case KindPermissionDenied:
		RespondWithError(c, http.StatusForbidden, NewAPIErrorWithDetails(ErrCodePermissionDenied, domainErr.Message, gin.H{"reason": domainErr.Reason}))
	case KindNotFound:
		NotFound(c, domainErr.Message)
	case KindForbidden:
		Forbidden(c, domainErr.Message)
	case KindInvalidTransition:
		RespondWithError(c, http.StatusConflict, NewAPIErrorWithDetails(ErrCodeInvalidTransition, domainErr.Message, gin.H{"current_status": domainErr.CurrentStatus}))
	case KindDependencyFailure:
		RespondWithError(c, http.StatusServiceUnavailable, NewAPIError(ErrCodeDependencyFailure, domainErr.Message))
	default:
		InternalError(c, "")
	}
	return true
}

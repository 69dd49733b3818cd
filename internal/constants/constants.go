package constants

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"
	SessionCookieName   = "collab_session"
)

// Pagination bounds
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Account rules
const (
	MinPasswordLength = 8
)

// Participation request message bounds, counted in characters.
const (
	MinMatchMessageLength = 10
	MaxMatchMessageLength = 500
)

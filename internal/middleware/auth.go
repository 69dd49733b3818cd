package middleware

import (
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-match-api/internal/constants"
	apierrors "github.com/yukikurage/collab-match-api/internal/errors"
	"github.com/yukikurage/collab-match-api/internal/utils"
)

// RequireAuth checks if the user is authenticated via a bearer access token
// or, failing that, the session. tokens may be nil to accept sessions only.
func RequireAuth(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if tokens == nil {
				apierrors.Unauthorized(c, "Bearer tokens are not accepted")
				c.Abort()
				return
			}
			claims, err := tokens.ParseAccessToken(raw)
			if err != nil {
				message := "Invalid access token"
				if errors.Is(err, utils.ErrExpiredToken) {
					message = "Access token has expired"
				}
				apierrors.Unauthorized(c, message)
				c.Abort()
				return
			}
			c.Set(constants.ContextKeyUserID, claims.UserID)
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID := session.Get(constants.ContextKeyUserID)

		if userID == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/collab-match-api/internal/errors"
)

const idParamPrefix = "param_id:"

// RequireIDParam parses a numeric path parameter and stores it in the context.
func RequireIDParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(name), 10, 64)
		if err != nil || id == 0 {
			apierrors.BadRequestWithDetails(c, "Invalid ID", gin.H{"field": name})
			c.Abort()
			return
		}

		c.Set(idParamPrefix+name, id)
		c.Next()
	}
}

// GetIDParam retrieves a path parameter parsed by RequireIDParam.
func GetIDParam(c *gin.Context, name string) (uint64, bool) {
	value, exists := c.Get(idParamPrefix + name)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok
}

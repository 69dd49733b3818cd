package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/collab-match-api/internal/constants"
)

func paginationContext(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/matches/sent"+query, nil)
	return c
}

func TestGetPaginationParams_Defaults(t *testing.T) {
	params := GetPaginationParams(paginationContext(""))

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, constants.DefaultPageSize, params.Limit)
	assert.Equal(t, 0, params.Offset)
}

func TestGetPaginationParams_Explicit(t *testing.T) {
	params := GetPaginationParams(paginationContext("?page=3&limit=10"))

	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, 20, params.Offset)
}

func TestGetPaginationParams_OutOfRange(t *testing.T) {
	params := GetPaginationParams(paginationContext("?page=-2&limit=1000"))

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, constants.DefaultPageSize, params.Limit)
}

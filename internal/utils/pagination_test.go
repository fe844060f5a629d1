package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tasknest/tasknest-api/internal/constants"
)

func paramsForQuery(t *testing.T, query string) PaginationParams {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return GetPaginationParams(c)
}

// TestGetPaginationParams_Defaults tests the window with no query values
func TestGetPaginationParams_Defaults(t *testing.T) {
	params := paramsForQuery(t, "")

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, constants.DefaultPageSize, params.Limit)
	assert.Equal(t, 0, params.Offset())
}

// TestGetPaginationParams_ValidWindow tests a well-formed request
func TestGetPaginationParams_ValidWindow(t *testing.T) {
	params := paramsForQuery(t, "page=3&limit=10")

	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, 20, params.Offset())
}

// TestGetPaginationParams_OutOfRangeFallsBack tests malformed and oversized values
func TestGetPaginationParams_OutOfRangeFallsBack(t *testing.T) {
	params := paramsForQuery(t, "page=-4&limit=100000")
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, constants.DefaultPageSize, params.Limit)

	params = paramsForQuery(t, "page=abc&limit=0")
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, constants.DefaultPageSize, params.Limit)
}

package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tasknest/tasknest-api/internal/constants"
)

// PaginationParams is the page window a list request asked for.
type PaginationParams struct {
	Page  int
	Limit int
}

// Offset returns the row offset of the window's first item.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// GetPaginationParams reads page and limit from the query string. Missing,
// malformed or out-of-range values fall back to the defaults rather than
// erroring; list endpoints always have a usable window.
func GetPaginationParams(c *gin.Context) PaginationParams {
	return PaginationParams{
		Page:  queryIntInRange(c, "page", constants.MinPageSize, 0, constants.MinPageSize),
		Limit: queryIntInRange(c, "limit", constants.MinPageSize, constants.MaxPageSize, constants.DefaultPageSize),
	}
}

// queryIntInRange parses a query parameter as an int within [min, max]. A max
// of zero means unbounded above.
func queryIntInRange(c *gin.Context, name string, min, max, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil || value < min {
		return fallback
	}
	if max > 0 && value > max {
		return fallback
	}
	return value
}

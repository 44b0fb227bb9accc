package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gymhub/internal/apperr"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type PageParams struct {
	Page  int
	Limit int
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage reads ?page= and ?limit=. Out-of-range values are rejected
// rather than clamped so clients learn about the bound.
func ParsePage(c *gin.Context) (PageParams, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return PageParams{}, apperr.Validation("page must be a positive integer")
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || limit < 1 || limit > MaxLimit {
		return PageParams{}, apperr.Validation("limit must be between 1 and %d", MaxLimit)
	}
	return PageParams{Page: page, Limit: limit}, nil
}

// ParseIntParam reads a positive integer path parameter.
func ParseIntParam(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// ParseOptionalIntQuery returns nil when the query parameter is absent.
func ParseOptionalIntQuery(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return nil, apperr.Validation("invalid %s", name)
	}
	return &v, nil
}

// ParseOptionalTimeQuery reads an RFC3339 timestamp; nil when absent.
func ParseOptionalTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Validation("%s must be an RFC3339 timestamp", name)
	}
	return &t, nil
}

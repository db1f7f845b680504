package utils

import (
	"math"

	"echonews/internal/apperr"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaginationParams holds validated offset pagination.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResult is returned alongside every paginated list.
type PaginationResult struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPaginationParams validates page >= 1 and 1 <= limit <= 100.
func NewPaginationParams(page, limit int) (PaginationParams, error) {
	if page < 1 {
		return PaginationParams{}, apperr.InvalidArgumentf("page must be >= 1")
	}
	if limit < 1 || limit > MaxPageSize {
		return PaginationParams{}, apperr.InvalidArgumentf("limit must be between 1 and %d", MaxPageSize)
	}
	return PaginationParams{Page: page, Limit: limit, Offset: (page - 1) * limit}, nil
}

func NewPaginationResult(p PaginationParams, total int64) PaginationResult {
	totalPages := int(math.Ceil(float64(total) / float64(p.Limit)))
	return PaginationResult{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}

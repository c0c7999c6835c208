package pagination

import (
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds skip/take pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps page to >= 1 and limit to (0, MaxLimit].
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// TotalPages is ceil(total / limit).
func TotalPages(total int64, limit int) int {
	limit = NormalizeLimit(limit)
	if total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Meta builds the pagination block for a list response.
func (p Params) Meta(total int64) types.Pagination {
	n := p.Normalize()
	return types.Pagination{
		Total:      total,
		Page:       n.Page,
		Limit:      n.Limit,
		TotalPages: TotalPages(total, n.Limit),
	}
}

// NewPage wraps items and totals into the list envelope.
func NewPage[T any](items []T, p Params, total int64) types.PageEnvelope[T] {
	if items == nil {
		items = []T{}
	}
	return types.PageEnvelope[T]{Items: items, Pagination: p.Meta(total)}
}

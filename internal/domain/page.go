package domain

// Page size bounds shared by every paged listing (trips, profiles, contact).
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PaginationParams selects one page of a listing. Page counts from 1.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams reads the optional ?page= and ?limit= values.
// Missing or non-positive values take the defaults; limit is clamped to
// MaxPageLimit.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: DefaultPageLimit}
	if page != nil && *page > 0 {
		p.Page = *page
	}
	if limit != nil && *limit > 0 {
		p.Limit = min(*limit, MaxPageLimit)
	}
	return p
}

// Offset is the number of rows before the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

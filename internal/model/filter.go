package model

// Pagination bounds enforced by ProductFilter.Normalize.
const (
	MinPageSize     = 1
	MaxPageSize     = 100
	DefaultPageSize = 10
)

// ProductFilter describes an optional conjunctive filter set plus pagination
// coordinates for a product listing. Nil optional fields mean "no constraint".
// Filters are normalized once and treated as immutable afterwards; cache keys
// are always derived from the normalized form.
type ProductFilter struct {
	Page     int
	PageSize int
	Search   string
	CategoryID *int
	MinPrice   *float64
	MaxPrice   *float64
	IsActive   *bool
}

// Normalize returns a copy with page coordinates clamped into their valid
// ranges. Out-of-range requests that clamp to the same effective page must
// produce the same cache key, so clamping happens before key construction.
func (f ProductFilter) Normalize() ProductFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < MinPageSize {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset returns the store query offset for the normalized filter.
func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

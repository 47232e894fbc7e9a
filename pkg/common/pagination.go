package common

// MaxPageSize caps PaginationParams.PageSize
const MaxPageSize = 100

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Page     int `json:"page" yaml:"page" validate:"gte=0"`
	PageSize int `json:"page_size" yaml:"page_size" validate:"gte=0"`
}

// DefaultPaginationParams returns default pagination parameters
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{
		Page:     1,
		PageSize: 20,
	}
}

// Normalize fills zero values with defaults and caps the page size
func (p PaginationParams) Normalize() PaginationParams {
	defaults := DefaultPaginationParams()
	if p.Page <= 0 {
		p.Page = defaults.Page
	}
	if p.PageSize <= 0 {
		p.PageSize = defaults.PageSize
	}
	p.PageSize = min(p.PageSize, MaxPageSize)
	return p
}

// CalculateOffset calculates the offset of the first item on the page
func (p PaginationParams) CalculateOffset() int {
	return (p.Page - 1) * p.PageSize
}

// Window returns the bounds of the page within a collection of total items
func (p PaginationParams) Window(total int) (start, end int) {
	start = min(p.CalculateOffset(), total)
	end = min(start+p.PageSize, total)
	return start, end
}

// CalculateTotalPages calculates total number of pages
func CalculateTotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize > 0 {
		pages++
	}
	return pages
}

// PaginationInfo describes where a page sits in the full collection
type PaginationInfo struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// BuildPaginationMeta builds pagination metadata
func BuildPaginationMeta(page, pageSize, total int) *PaginationInfo {
	totalPages := CalculateTotalPages(total, pageSize)

	return &PaginationInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

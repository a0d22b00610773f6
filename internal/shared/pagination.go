package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// PageRequest is the requested listing window, before totals are known.
type PageRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// NewPageRequest clamps the requested window to sane bounds.
func NewPageRequest(page, perPage int) PageRequest {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 200 {
		perPage = 200
	}
	return PageRequest{Page: page, PerPage: perPage}
}

// Offset returns the row offset of the window.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

package models

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PageQuery is a normalized search + pagination request
type PageQuery struct {
	Search  string
	Page    int
	PerPage int
}

// NewPageQuery clamps page and perPage into their allowed ranges
func NewPageQuery(search string, page, perPage int) PageQuery {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return PageQuery{Search: search, Page: page, PerPage: perPage}
}

// Offset returns the number of rows to skip
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// Page is one page of results
type Page[T any] struct {
	Rows       []T `json:"rows"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// NewPage wraps rows with pagination metadata
func NewPage[T any](rows []T, total int, q PageQuery) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	totalPages := 0
	if q.PerPage > 0 {
		totalPages = (total + q.PerPage - 1) / q.PerPage
	}
	return Page[T]{
		Rows:       rows,
		Total:      total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: totalPages,
	}
}

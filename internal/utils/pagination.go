// Package utils provides small helpers shared by the HTTP and service
// layers. They carry no domain logic.
package utils

import "strconv"

// Pagination defaults shared by every paginated endpoint.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage bounds page to >= 1 and pageSize to [1, MaxPageSize].
// A non-positive pageSize becomes DefaultPageSize.
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset returns the row offset of page for the given page size.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// TotalPages returns how many pages of pageSize hold total items.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

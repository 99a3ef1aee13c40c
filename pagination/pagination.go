// Package pagination defines the shared cursor-based list contract used
// by every list endpoint: an opaque cursor, a capped positive limit, and
// a page_info block on every result.
package pagination

import (
	"errors"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is applied when the caller supplies no limit
	DefaultLimit = 50

	// MaxLimit caps the effective page size. Larger requested limits are
	// capped, not rejected.
	MaxLimit = 100
)

// ErrInvalidLimit is returned for a non-numeric or non-positive limit.
// It is distinct from a store-level invalid cursor so clients can tell
// a malformed request from resumability loss.
var ErrInvalidLimit = errors.New("limit must be a positive integer")

// Page is the caller's position in a result set
type Page struct {
	Cursor string
	Limit  int
}

// PageInfo describes the page that was returned
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	TotalCount  int    `json:"total_count"`
	EndCursor   string `json:"end_cursor,omitempty"`
}

// ParsePage parses raw limit and cursor query values. The cursor is
// passed through opaque; only the store judges its validity.
func ParsePage(rawLimit, cursor string) (Page, error) {
	limit := DefaultLimit
	rawLimit = strings.TrimSpace(rawLimit)
	if rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			return Page{}, ErrInvalidLimit
		}
		limit = parsed
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Cursor: cursor, Limit: limit}, nil
}

// Package cursor implements keyset pagination over ID-descending listings.
//
// Stores return up to limit+1 rows whose ID sorts strictly below the
// cursor. The extra row only signals that another page exists.
package cursor

// Default page sizes.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T    `json:"data"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Limit clamps a requested page size to [1, max], substituting def for
// non-positive values.
func Limit(requested, def, maxLimit int) int {
	if def <= 0 {
		def = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if requested <= 0 {
		requested = def
	}
	if requested > maxLimit {
		requested = maxLimit
	}
	return requested
}

// Fetch is the number of rows a store should return for a page of size limit.
func Fetch(limit int) int {
	return limit + 1
}

// Build trims rows fetched with Fetch(limit) to a page. key returns the
// cursor value of an item.
func Build[T any](rows []T, limit int, key func(T) string) Page[T] {
	p := Page[T]{Items: rows}
	if len(rows) > limit {
		p.Items = rows[:limit]
		p.HasMore = true
		p.NextCursor = key(p.Items[len(p.Items)-1])
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	return p
}

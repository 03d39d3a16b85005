package endpoint

import "github.com/xraph/storehook/internal/cursor"

// Input is the creation payload for endpoints.
type Input struct {
	// URL is the https destination.
	URL string `json:"url"`

	// Events are the subscribed event type names. Must be non-empty.
	Events []string `json:"events"`

	// Description is free text shown to administrators.
	Description string `json:"description"`

	// Active defaults to true when nil.
	Active *bool `json:"active,omitempty"`
}

// Update is a partial modification. Nil fields are left unchanged; a
// non-nil empty Events slice is rejected.
type Update struct {
	URL         *string  `json:"url,omitempty"`
	Events      []string `json:"events,omitempty"`
	Description *string  `json:"description,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

// StatusFilter selects endpoints by their active flag.
type StatusFilter string

// Status filters accepted by List.
const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

// ParseStatusFilter maps a query value to a filter. Empty means all.
func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch StatusFilter(s) {
	case "", StatusAll:
		return StatusAll, true
	case StatusActive, StatusInactive:
		return StatusFilter(s), true
	default:
		return "", false
	}
}

// ListOpts configures keyset pagination for endpoint listing.
type ListOpts struct {
	// Cursor is the ID of the last endpoint of the previous page.
	Cursor string

	// Limit is the maximum number of rows to return.
	Limit int

	// Status filters on the active flag.
	Status StatusFilter
}

// Page is one page of endpoints, newest first.
type Page = cursor.Page[*Endpoint]

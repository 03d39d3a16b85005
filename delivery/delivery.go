package delivery

import (
	"time"

	"github.com/xraph/storehook/id"
	"github.com/xraph/storehook/internal/cursor"
)

// Status is the outcome recorded on a delivery log entry.
type Status string

const (
	// StatusSuccess indicates the subscriber answered with a 2xx status.
	StatusSuccess Status = "success"

	// StatusFailed indicates a non-2xx answer, a timeout or a network error.
	StatusFailed Status = "failed"

	// StatusArchived indicates an operator dismissed a failed entry.
	StatusArchived Status = "archived"

	// StatusRetried indicates a failed entry was re-sent as a new entry.
	StatusRetried Status = "retried"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusArchived, StatusRetried:
		return true
	}
	return false
}

// CanTransition reports whether an entry in status s may move to next.
// Only failed entries move, and only to archived or retried.
func (s Status) CanTransition(next Status) bool {
	return s == StatusFailed && (next == StatusArchived || next == StatusRetried)
}

// Log is the immutable record of one dispatch attempt. Only Status is ever
// mutated after creation.
type Log struct {
	// ID is the unique TypeID for this entry. It is also sent to the
	// subscriber as the X-Storehook-Delivery header.
	ID id.ID `json:"id"`

	// EndpointID references the target endpoint. Nil once the endpoint
	// has been deleted.
	EndpointID id.ID `json:"endpoint_id"`

	// EventType is the dispatched event name.
	EventType string `json:"event_type"`

	// Payload is the exact serialized envelope that was sent and signed.
	Payload string `json:"payload"`

	// HTTPStatus is the response status, 0 when no response was received.
	HTTPStatus int `json:"http_status"`

	// ResponseBody is the response body capped at 1KB.
	ResponseBody string `json:"response_body,omitempty"`

	// Error describes the failure, empty on success.
	Error string `json:"error,omitempty"`

	// DurationMs is the wall-clock duration of the attempt.
	DurationMs int `json:"duration_ms"`

	// Status is the current log status.
	Status Status `json:"status"`

	// CreatedAt is when the attempt was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// ListOpts configures filtering and keyset pagination for log listing.
type ListOpts struct {
	// Cursor is the ID of the last entry of the previous page.
	Cursor string

	// Limit is the maximum number of rows to return.
	Limit int

	// EndpointID restricts results to one endpoint when non-nil.
	EndpointID id.ID

	// Status restricts results to one status when non-empty.
	Status Status

	// EventType restricts results to one event type when non-empty.
	EventType string
}

// Page is one page of log entries, newest first.
type Page = cursor.Page[*Log]

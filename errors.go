package storehook

import "errors"

// Sentinel errors returned by Storehook operations.
var (
	// ErrNoStore is returned when a Storehook is created without a store.
	ErrNoStore = errors.New("storehook: store is required")

	// ErrEndpointNotFound is returned when an endpoint cannot be found.
	ErrEndpointNotFound = errors.New("storehook: endpoint not found")

	// ErrLogNotFound is returned when a delivery log entry cannot be found.
	ErrLogNotFound = errors.New("storehook: delivery log not found")

	// ErrDuplicateURL is returned when an endpoint URL is already registered.
	ErrDuplicateURL = errors.New("storehook: endpoint url already registered")

	// ErrUnknownEventType is returned when an event type is not on the allow-list.
	ErrUnknownEventType = errors.New("storehook: unknown event type")

	// ErrPayloadValidationFailed is returned when event data fails JSON Schema validation.
	ErrPayloadValidationFailed = errors.New("storehook: payload validation failed")

	// ErrInvalidTransition is returned when a log status change is not allowed.
	ErrInvalidTransition = errors.New("storehook: invalid status transition")

	// ErrRateLimited is returned when test-sends to an endpoint exceed the limit.
	ErrRateLimited = errors.New("storehook: rate limited")

	// ErrInvalidCursor is returned when a pagination cursor is not a valid ID.
	ErrInvalidCursor = errors.New("storehook: invalid cursor")

	// ErrCheckerDisabled is returned when no disposable-email checker is configured.
	ErrCheckerDisabled = errors.New("storehook: disposable email check is not configured")

	// ErrStoreClosed is returned when a store operation is attempted after the store is closed.
	ErrStoreClosed = errors.New("storehook: store is closed")

	// ErrMigrationFailed is returned when a database migration fails.
	ErrMigrationFailed = errors.New("storehook: migration failed")
)

package delivery

import (
	"context"
	"time"

	"github.com/xraph/storehook/id"
)

// LogWriter is the slice of Store the dispatcher needs.
type LogWriter interface {
	// CreateLog persists a new log entry.
	CreateLog(ctx context.Context, l *Log) error
}

// Store defines the persistence contract for delivery log entries.
type Store interface {
	LogWriter

	// GetLog returns an entry by ID.
	GetLog(ctx context.Context, logID id.ID) (*Log, error)

	// ListLogs returns at most opts.Limit entries ordered by ID descending,
	// starting strictly below opts.Cursor when set.
	ListLogs(ctx context.Context, opts ListOpts) ([]*Log, error)

	// UpdateLogStatus sets the status of an entry. Transition rules are
	// enforced by callers.
	UpdateLogStatus(ctx context.Context, logID id.ID, status Status) error

	// PurgeLogs deletes entries created before the given time and returns
	// how many were removed.
	PurgeLogs(ctx context.Context, before time.Time) (int64, error)
}

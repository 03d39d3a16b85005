package storehook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/event"
	"github.com/xraph/storehook/id"
	"github.com/xraph/storehook/internal/cursor"
)

// Test sends a mock payload for eventType to one endpoint, regardless of
// its active flag or subscriptions. An empty eventType sends test.event.
func (h *Storehook) Test(ctx context.Context, endpointID id.ID, eventType string) (delivery.Result, error) {
	if eventType == "" {
		eventType = event.TestEventType
	}

	ep, err := h.store.GetEndpoint(ctx, endpointID)
	if err != nil {
		return delivery.Result{}, err
	}

	if !h.testLimiter.Allow(ep.ID.String(), h.config.TestRateLimit) {
		if h.metrics != nil {
			h.metrics.RecordRateLimited(ctx)
		}
		return delivery.Result{}, ErrRateLimited
	}

	env := event.New(eventType, h.catalog.Example(eventType), time.Now())
	res := h.dispatcher.Dispatch(ctx, ep, env, nil)

	h.logger.InfoContext(ctx, "test-send dispatched",
		"endpoint_id", ep.ID, "event_type", eventType, "log_id", res.LogID, "success", res.Success)

	return res, nil
}

// Retry re-sends the exact payload of a stored entry to its endpoint as a
// new entry. When the request went out, the original is marked retried
// whatever the new outcome.
func (h *Storehook) Retry(ctx context.Context, logID id.ID) (delivery.Result, error) {
	entry, err := h.store.GetLog(ctx, logID)
	if err != nil {
		return delivery.Result{}, err
	}
	if entry.EndpointID.IsNil() {
		return delivery.Result{}, ErrEndpointNotFound
	}

	ep, err := h.store.GetEndpoint(ctx, entry.EndpointID)
	if err != nil {
		return delivery.Result{}, err
	}

	extra := http.Header{}
	extra.Set(delivery.HeaderRetry, "true")
	res := h.dispatcher.DispatchPayload(ctx, ep, entry.EventType, []byte(entry.Payload), extra)

	if res.Attempted && entry.Status.CanTransition(delivery.StatusRetried) {
		if err := h.store.UpdateLogStatus(context.WithoutCancel(ctx), entry.ID, delivery.StatusRetried); err != nil {
			h.logger.ErrorContext(ctx, "mark retried failed", "log_id", entry.ID, "error", err)
		}
	}

	h.logger.InfoContext(ctx, "delivery retried",
		"log_id", entry.ID, "new_log_id", res.LogID, "success", res.Success)

	return res, nil
}

// Archive moves a failed entry to archived. Archiving an archived entry is
// a no-op; any other status yields ErrInvalidTransition.
func (h *Storehook) Archive(ctx context.Context, logID id.ID) (*delivery.Log, error) {
	entry, err := h.store.GetLog(ctx, logID)
	if err != nil {
		return nil, err
	}

	switch {
	case entry.Status == delivery.StatusArchived:
		return entry, nil
	case !entry.Status.CanTransition(delivery.StatusArchived):
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, entry.Status, delivery.StatusArchived)
	}

	if err := h.store.UpdateLogStatus(ctx, entry.ID, delivery.StatusArchived); err != nil {
		return nil, err
	}
	entry.Status = delivery.StatusArchived
	return entry, nil
}

// GetLog returns one delivery log entry.
func (h *Storehook) GetLog(ctx context.Context, logID id.ID) (*delivery.Log, error) {
	return h.store.GetLog(ctx, logID)
}

// ListLogs returns one page of delivery log entries, newest first.
func (h *Storehook) ListLogs(ctx context.Context, opts delivery.ListOpts) (*delivery.Page, error) {
	if opts.Cursor != "" {
		if _, err := id.ParseLogID(opts.Cursor); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCursor, opts.Cursor)
		}
	}

	limit := cursor.Limit(opts.Limit, h.config.DefaultPageSize, h.config.MaxPageSize)
	opts.Limit = cursor.Fetch(limit)

	rows, err := h.store.ListLogs(ctx, opts)
	if err != nil {
		return nil, err
	}

	page := cursor.Build(rows, limit, func(l *delivery.Log) string { return l.ID.String() })
	return &page, nil
}

// PurgeLogs deletes log entries older than the given age.
func (h *Storehook) PurgeLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	before := time.Now().UTC().Add(-olderThan)
	n, err := h.store.PurgeLogs(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("storehook: purge logs: %w", err)
	}
	h.logger.InfoContext(ctx, "delivery logs purged", "before", before, "count", n)
	return n, nil
}

// CheckEmail reports whether email uses a disposable-mail domain.
func (h *Storehook) CheckEmail(ctx context.Context, email string) (bool, error) {
	if h.disposable == nil {
		return false, ErrCheckerDisabled
	}
	return h.disposable.IsDisposable(ctx, email)
}

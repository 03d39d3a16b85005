// Package memory provides an in-memory Store implementation for tests and
// single-process deployments.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/id"
	hookstore "github.com/xraph/storehook/store"
)

// compile-time interface check.
var _ hookstore.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store. Values are copied
// on the way in and out so callers never alias stored state.
type Store struct {
	mu sync.RWMutex

	endpoints map[string]*endpoint.Endpoint // keyed by ID string
	urls      map[string]string             // URL -> endpoint ID string
	logs      map[string]*delivery.Log      // keyed by ID string

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		endpoints: make(map[string]*endpoint.Endpoint),
		urls:      make(map[string]string),
		logs:      make(map[string]*delivery.Log),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports ErrStoreClosed after Close.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storehook.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// endpoint.Store
// ──────────────────────────────────────────────────

// CreateEndpoint persists a new endpoint.
func (s *Store) CreateEndpoint(_ context.Context, ep *endpoint.Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.urls[ep.URL]; taken {
		return storehook.ErrDuplicateURL
	}
	s.endpoints[ep.ID.String()] = copyEndpoint(ep)
	s.urls[ep.URL] = ep.ID.String()
	return nil
}

// GetEndpoint returns a copy of the endpoint by ID.
func (s *Store) GetEndpoint(_ context.Context, epID id.ID) (*endpoint.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ep, ok := s.endpoints[epID.String()]
	if !ok {
		return nil, storehook.ErrEndpointNotFound
	}
	return copyEndpoint(ep), nil
}

// UpdateEndpoint replaces an existing endpoint.
func (s *Store) UpdateEndpoint(_ context.Context, ep *endpoint.Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ep.ID.String()
	existing, ok := s.endpoints[key]
	if !ok {
		return storehook.ErrEndpointNotFound
	}
	if owner, taken := s.urls[ep.URL]; taken && owner != key {
		return storehook.ErrDuplicateURL
	}

	delete(s.urls, existing.URL)
	ep.UpdatedAt = time.Now().UTC()
	s.endpoints[key] = copyEndpoint(ep)
	s.urls[ep.URL] = key
	return nil
}

// DeleteEndpoint removes an endpoint and detaches its log entries.
func (s *Store) DeleteEndpoint(_ context.Context, epID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := epID.String()
	ep, ok := s.endpoints[key]
	if !ok {
		return storehook.ErrEndpointNotFound
	}
	delete(s.endpoints, key)
	delete(s.urls, ep.URL)

	for _, l := range s.logs {
		if l.EndpointID.String() == key {
			l.EndpointID = id.Nil
		}
	}
	return nil
}

// ListEndpoints returns endpoints ordered by ID descending.
func (s *Store) ListEndpoints(_ context.Context, opts endpoint.ListOpts) ([]*endpoint.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*endpoint.Endpoint, 0, len(s.endpoints))
	for key, ep := range s.endpoints {
		if opts.Cursor != "" && key >= opts.Cursor {
			continue
		}
		switch opts.Status {
		case endpoint.StatusActive:
			if !ep.Active {
				continue
			}
		case endpoint.StatusInactive:
			if ep.Active {
				continue
			}
		}
		result = append(result, copyEndpoint(ep))
	}

	sortByIDDesc(result, func(ep *endpoint.Endpoint) string { return ep.ID.String() })
	return truncate(result, opts.Limit), nil
}

// Resolve returns active endpoints subscribed to eventType.
func (s *Store) Resolve(_ context.Context, eventType string) ([]*endpoint.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*endpoint.Endpoint
	for _, ep := range s.endpoints {
		if ep.Subscribes(eventType) {
			result = append(result, copyEndpoint(ep))
		}
	}
	sortByIDDesc(result, func(ep *endpoint.Endpoint) string { return ep.ID.String() })
	return result, nil
}

// ──────────────────────────────────────────────────
// delivery.Store
// ──────────────────────────────────────────────────

// CreateLog persists a log entry.
func (s *Store) CreateLog(_ context.Context, l *delivery.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *l
	s.logs[l.ID.String()] = &cp
	return nil
}

// GetLog returns a copy of the entry by ID.
func (s *Store) GetLog(_ context.Context, logID id.ID) (*delivery.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.logs[logID.String()]
	if !ok {
		return nil, storehook.ErrLogNotFound
	}
	cp := *l
	return &cp, nil
}

// ListLogs returns entries ordered by ID descending.
func (s *Store) ListLogs(_ context.Context, opts delivery.ListOpts) ([]*delivery.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*delivery.Log, 0, len(s.logs))
	for key, l := range s.logs {
		if opts.Cursor != "" && key >= opts.Cursor {
			continue
		}
		if !opts.EndpointID.IsNil() && l.EndpointID.String() != opts.EndpointID.String() {
			continue
		}
		if opts.Status != "" && l.Status != opts.Status {
			continue
		}
		if opts.EventType != "" && l.EventType != opts.EventType {
			continue
		}
		cp := *l
		result = append(result, &cp)
	}

	sortByIDDesc(result, func(l *delivery.Log) string { return l.ID.String() })
	return truncate(result, opts.Limit), nil
}

// UpdateLogStatus sets the status of an entry.
func (s *Store) UpdateLogStatus(_ context.Context, logID id.ID, status delivery.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[logID.String()]
	if !ok {
		return storehook.ErrLogNotFound
	}
	l.Status = status
	return nil
}

// PurgeLogs deletes entries created before the threshold.
func (s *Store) PurgeLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for k, l := range s.logs {
		if l.CreatedAt.Before(before) {
			delete(s.logs, k)
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyEndpoint(ep *endpoint.Endpoint) *endpoint.Endpoint {
	cp := *ep
	cp.Events = slices.Clone(ep.Events)
	return &cp
}

func sortByIDDesc[T any](items []*T, key func(*T) string) {
	sort.Slice(items, func(i, j int) bool {
		return strings.Compare(key(items[i]), key(items[j])) > 0
	})
}

func truncate[T any](items []*T, limit int) []*T {
	if limit > 0 && limit < len(items) {
		return items[:limit]
	}
	return items
}

package endpoint

import (
	"context"

	"github.com/xraph/storehook/id"
)

// Store defines the persistence contract for webhook endpoints.
type Store interface {
	// CreateEndpoint persists a new endpoint. A URL already registered
	// yields storehook.ErrDuplicateURL.
	CreateEndpoint(ctx context.Context, ep *Endpoint) error

	// GetEndpoint returns an endpoint by ID.
	GetEndpoint(ctx context.Context, epID id.ID) (*Endpoint, error)

	// UpdateEndpoint replaces an existing endpoint. Moving to a URL owned
	// by another endpoint yields storehook.ErrDuplicateURL.
	UpdateEndpoint(ctx context.Context, ep *Endpoint) error

	// DeleteEndpoint removes an endpoint.
	DeleteEndpoint(ctx context.Context, epID id.ID) error

	// ListEndpoints returns at most opts.Limit endpoints ordered by ID
	// descending, starting strictly below opts.Cursor when set.
	ListEndpoints(ctx context.Context, opts ListOpts) ([]*Endpoint, error)

	// Resolve returns all active endpoints subscribed to eventType.
	Resolve(ctx context.Context, eventType string) ([]*Endpoint, error)
}

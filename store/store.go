// Package store defines the composite Store interface for all Storehook
// persistence.
//
// Each subsystem defines its own store interface and the aggregate Store
// composes them, so a backend implements one type and the root package
// hands the relevant slice to each service.
package store

import (
	"context"

	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/endpoint"
)

// Store is the aggregate persistence interface.
type Store interface {
	endpoint.Store
	delivery.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

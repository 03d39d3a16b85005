package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/id"
)

// CreateEndpoint persists a new endpoint.
func (s *Store) CreateEndpoint(ctx context.Context, ep *endpoint.Endpoint) error {
	m := toEndpointModel(ep)

	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return storehook.ErrDuplicateURL
		}

		return fmt.Errorf("storehook/mongo: create endpoint: %w", err)
	}

	return nil
}

// GetEndpoint returns an endpoint by ID.
func (s *Store) GetEndpoint(ctx context.Context, epID id.ID) (*endpoint.Endpoint, error) {
	var m endpointModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": epID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, storehook.ErrEndpointNotFound
		}

		return nil, fmt.Errorf("storehook/mongo: get endpoint: %w", err)
	}

	return fromEndpointModel(&m)
}

// UpdateEndpoint modifies an existing endpoint.
func (s *Store) UpdateEndpoint(ctx context.Context, ep *endpoint.Endpoint) error {
	m := toEndpointModel(ep)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return storehook.ErrDuplicateURL
		}

		return fmt.Errorf("storehook/mongo: update endpoint: %w", err)
	}

	if res.MatchedCount() == 0 {
		return storehook.ErrEndpointNotFound
	}

	return nil
}

// DeleteEndpoint removes an endpoint and detaches its log entries.
func (s *Store) DeleteEndpoint(ctx context.Context, epID id.ID) error {
	res, err := s.mdb.NewDelete((*endpointModel)(nil)).
		Filter(bson.M{"_id": epID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("storehook/mongo: delete endpoint: %w", err)
	}

	if res.DeletedCount() == 0 {
		return storehook.ErrEndpointNotFound
	}

	_, err = s.mdb.Collection(colLogs).UpdateMany(ctx,
		bson.M{"endpoint_id": epID.String()},
		bson.M{"$unset": bson.M{"endpoint_id": ""}},
	)
	if err != nil {
		return fmt.Errorf("storehook/mongo: detach logs: %w", err)
	}

	return nil
}

// ListEndpoints returns endpoints ordered by ID descending.
func (s *Store) ListEndpoints(ctx context.Context, opts endpoint.ListOpts) ([]*endpoint.Endpoint, error) {
	var models []endpointModel

	filter := bson.M{}
	if opts.Cursor != "" {
		filter["_id"] = bson.M{"$lt": opts.Cursor}
	}
	switch opts.Status {
	case endpoint.StatusActive:
		filter["active"] = true
	case endpoint.StatusInactive:
		filter["active"] = false
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("storehook/mongo: list endpoints: %w", err)
	}

	return fromEndpointModels(models)
}

// Resolve finds all active endpoints subscribed to an event type.
func (s *Store) Resolve(ctx context.Context, eventType string) ([]*endpoint.Endpoint, error) {
	var models []endpointModel

	if err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"active": true,
			"events": eventType,
		}).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("storehook/mongo: resolve: %w", err)
	}

	return fromEndpointModels(models)
}

func fromEndpointModels(models []endpointModel) ([]*endpoint.Endpoint, error) {
	result := make([]*endpoint.Endpoint, 0, len(models))

	for i := range models {
		ep, err := fromEndpointModel(&models[i])
		if err != nil {
			return nil, err
		}

		result = append(result, ep)
	}

	return result, nil
}

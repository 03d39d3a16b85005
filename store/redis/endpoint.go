package redis

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/id"
	"github.com/xraph/storehook/internal/entity"
)

// endpointModel is the JSON representation stored in Redis.
type endpointModel struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Secret      string    `json:"secret"`
	Events      []string  `json:"events"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toEndpointModel(ep *endpoint.Endpoint) *endpointModel {
	return &endpointModel{
		ID:          ep.ID.String(),
		URL:         ep.URL,
		Secret:      ep.Secret,
		Events:      ep.Events,
		Description: ep.Description,
		Active:      ep.Active,
		CreatedAt:   ep.CreatedAt,
		UpdatedAt:   ep.UpdatedAt,
	}
}

func fromEndpointModel(m *endpointModel) (*endpoint.Endpoint, error) {
	epID, err := id.ParseEndpointID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint ID %q: %w", m.ID, err)
	}
	return &endpoint.Endpoint{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          epID,
		URL:         m.URL,
		Secret:      m.Secret,
		Events:      m.Events,
		Description: m.Description,
		Active:      m.Active,
	}, nil
}

// CreateEndpoint claims the URL, then stores the endpoint and its indexes.
func (s *Store) CreateEndpoint(ctx context.Context, ep *endpoint.Endpoint) error {
	m := toEndpointModel(ep)

	claimed, err := s.rdb.SetNX(ctx, uniqueEndpointURL+m.URL, m.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("storehook/redis: claim url: %w", err)
	}
	if !claimed {
		return storehook.ErrDuplicateURL
	}

	if err := s.setEntity(ctx, entityKey(prefixEndpoint, m.ID), m); err != nil {
		s.rdb.Del(ctx, uniqueEndpointURL+m.URL)
		return fmt.Errorf("storehook/redis: create endpoint: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, zEndpointAll, goredis.Z{Score: 0, Member: m.ID})
	for _, e := range m.Events {
		pipe.SAdd(ctx, sEventMembers+e, m.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storehook/redis: create endpoint indexes: %w", err)
	}
	return nil
}

func (s *Store) GetEndpoint(ctx context.Context, epID id.ID) (*endpoint.Endpoint, error) {
	m, err := s.getEndpointModel(ctx, epID.String())
	if err != nil {
		return nil, err
	}
	return fromEndpointModel(m)
}

func (s *Store) getEndpointModel(ctx context.Context, epID string) (*endpointModel, error) {
	var m endpointModel
	if err := s.getEntity(ctx, entityKey(prefixEndpoint, epID), &m); err != nil {
		if isRedisNil(err) {
			return nil, storehook.ErrEndpointNotFound
		}
		return nil, fmt.Errorf("storehook/redis: get endpoint: %w", err)
	}
	return &m, nil
}

// UpdateEndpoint replaces an endpoint, moving the URL claim and event
// memberships when they change.
func (s *Store) UpdateEndpoint(ctx context.Context, ep *endpoint.Endpoint) error {
	existing, err := s.getEndpointModel(ctx, ep.ID.String())
	if err != nil {
		return err
	}

	m := toEndpointModel(ep)
	m.UpdatedAt = now()

	if m.URL != existing.URL {
		claimed, err := s.rdb.SetNX(ctx, uniqueEndpointURL+m.URL, m.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("storehook/redis: claim url: %w", err)
		}
		if !claimed {
			return storehook.ErrDuplicateURL
		}
	}

	if err := s.setEntity(ctx, entityKey(prefixEndpoint, m.ID), m); err != nil {
		if m.URL != existing.URL {
			s.rdb.Del(ctx, uniqueEndpointURL+m.URL)
		}
		return fmt.Errorf("storehook/redis: update endpoint: %w", err)
	}

	pipe := s.rdb.Pipeline()
	if m.URL != existing.URL {
		pipe.Del(ctx, uniqueEndpointURL+existing.URL)
	}
	for _, e := range existing.Events {
		if !slices.Contains(m.Events, e) {
			pipe.SRem(ctx, sEventMembers+e, m.ID)
		}
	}
	for _, e := range m.Events {
		pipe.SAdd(ctx, sEventMembers+e, m.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storehook/redis: update endpoint indexes: %w", err)
	}
	return nil
}

// DeleteEndpoint removes an endpoint, its indexes and the endpoint
// reference on its log entries.
func (s *Store) DeleteEndpoint(ctx context.Context, epID id.ID) error {
	m, err := s.getEndpointModel(ctx, epID.String())
	if err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, entityKey(prefixEndpoint, m.ID))
	pipe.Del(ctx, uniqueEndpointURL+m.URL)
	pipe.ZRem(ctx, zEndpointAll, m.ID)
	for _, e := range m.Events {
		pipe.SRem(ctx, sEventMembers+e, m.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storehook/redis: delete endpoint: %w", err)
	}

	if err := s.detachLogs(ctx, m.ID); err != nil {
		return fmt.Errorf("storehook/redis: detach logs: %w", err)
	}
	return nil
}

func (s *Store) ListEndpoints(ctx context.Context, opts endpoint.ListOpts) ([]*endpoint.Endpoint, error) {
	var result []*endpoint.Endpoint

	err := s.lexBelow(ctx, zEndpointAll, opts.Cursor, func(ids []string) (bool, error) {
		for _, entryID := range ids {
			m, err := s.getEndpointModel(ctx, entryID)
			if err != nil {
				if err == storehook.ErrEndpointNotFound {
					continue
				}
				return false, err
			}
			switch opts.Status {
			case endpoint.StatusActive:
				if !m.Active {
					continue
				}
			case endpoint.StatusInactive:
				if m.Active {
					continue
				}
			}
			ep, err := fromEndpointModel(m)
			if err != nil {
				return false, err
			}
			result = append(result, ep)
			if opts.Limit > 0 && len(result) >= opts.Limit {
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("storehook/redis: list endpoints: %w", err)
	}
	return result, nil
}

func (s *Store) Resolve(ctx context.Context, eventType string) ([]*endpoint.Endpoint, error) {
	ids, err := s.rdb.SMembers(ctx, sEventMembers+eventType).Result()
	if err != nil {
		return nil, fmt.Errorf("storehook/redis: resolve: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	var result []*endpoint.Endpoint
	for _, entryID := range ids {
		m, err := s.getEndpointModel(ctx, entryID)
		if err != nil {
			if err == storehook.ErrEndpointNotFound {
				continue
			}
			return nil, err
		}
		if !m.Active {
			continue
		}
		ep, err := fromEndpointModel(m)
		if err != nil {
			return nil, err
		}
		result = append(result, ep)
	}
	return result, nil
}

// Package endpoint manages subscriber endpoints: registration, partial
// updates, secret rotation and cursor-paginated listing.
package endpoint

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/xraph/storehook/id"
	"github.com/xraph/storehook/internal/cursor"
	"github.com/xraph/storehook/internal/entity"
	"github.com/xraph/storehook/netguard"
	"github.com/xraph/storehook/signature"
)

// EventChecker reports whether an event type is on the allow-list.
// *catalog.Catalog satisfies it.
type EventChecker interface {
	Has(name string) bool
}

// ServiceConfig configures validation and paging for a Service.
type ServiceConfig struct {
	// Events is the allow-list subscriptions are checked against.
	Events EventChecker

	// Resolver resolves endpoint hosts for the private-network check.
	// Defaults to net.DefaultResolver.
	Resolver netguard.Resolver

	// AllowHTTP permits plain http URLs. Development only.
	AllowHTTP bool

	// DefaultPageSize and MaxPageSize bound List.
	DefaultPageSize int
	MaxPageSize     int
}

// Service provides endpoint management operations.
type Service struct {
	store  Store
	config ServiceConfig
	logger *slog.Logger
}

// NewService creates a new endpoint service.
func NewService(store Store, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// Create registers a new webhook endpoint with a freshly generated secret.
func (svc *Service) Create(ctx context.Context, in Input) (*Endpoint, error) {
	u := strings.TrimSpace(in.URL)
	if err := svc.validateURL(ctx, u); err != nil {
		return nil, err
	}

	events, err := svc.validateEvents(in.Events)
	if err != nil {
		return nil, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	ep := &Endpoint{
		Entity:      entity.New(),
		ID:          id.NewEndpointID(),
		URL:         u,
		Secret:      signature.GenerateSecret(),
		Events:      events,
		Description: strings.TrimSpace(in.Description),
		Active:      active,
	}

	if err := svc.store.CreateEndpoint(ctx, ep); err != nil {
		return nil, err
	}

	svc.logger.InfoContext(ctx, "endpoint created",
		"endpoint_id", ep.ID, "events", len(ep.Events))

	return ep, nil
}

// Get returns an endpoint by ID.
func (svc *Service) Get(ctx context.Context, epID id.ID) (*Endpoint, error) {
	return svc.store.GetEndpoint(ctx, epID)
}

// Update applies a partial modification to an existing endpoint.
func (svc *Service) Update(ctx context.Context, epID id.ID, in Update) (*Endpoint, error) {
	ep, err := svc.store.GetEndpoint(ctx, epID)
	if err != nil {
		return nil, err
	}

	if in.URL != nil {
		u := strings.TrimSpace(*in.URL)
		if err := svc.validateURL(ctx, u); err != nil {
			return nil, err
		}
		ep.URL = u
	}
	if in.Events != nil {
		events, err := svc.validateEvents(in.Events)
		if err != nil {
			return nil, err
		}
		ep.Events = events
	}
	if in.Description != nil {
		ep.Description = strings.TrimSpace(*in.Description)
	}
	if in.Active != nil {
		ep.Active = *in.Active
	}
	ep.Touch()

	if err := svc.store.UpdateEndpoint(ctx, ep); err != nil {
		return nil, err
	}

	return ep, nil
}

// Delete removes an endpoint.
func (svc *Service) Delete(ctx context.Context, epID id.ID) error {
	if err := svc.store.DeleteEndpoint(ctx, epID); err != nil {
		return err
	}
	svc.logger.InfoContext(ctx, "endpoint deleted", "endpoint_id", epID)
	return nil
}

// List returns one page of endpoints, newest first.
func (svc *Service) List(ctx context.Context, opts ListOpts) (*Page, error) {
	if opts.Cursor != "" {
		if _, err := id.ParseEndpointID(opts.Cursor); err != nil {
			return nil, &ValidationError{Field: "cursor", Message: "invalid cursor"}
		}
	}
	status, ok := ParseStatusFilter(string(opts.Status))
	if !ok {
		return nil, &ValidationError{Field: "status", Message: "must be one of active, inactive, all"}
	}

	limit := cursor.Limit(opts.Limit, svc.config.DefaultPageSize, svc.config.MaxPageSize)
	rows, err := svc.store.ListEndpoints(ctx, ListOpts{
		Cursor: opts.Cursor,
		Limit:  cursor.Fetch(limit),
		Status: status,
	})
	if err != nil {
		return nil, err
	}

	page := cursor.Build(rows, limit, func(ep *Endpoint) string { return ep.ID.String() })
	return &page, nil
}

// SetActive enables or disables an endpoint.
func (svc *Service) SetActive(ctx context.Context, epID id.ID, active bool) (*Endpoint, error) {
	return svc.Update(ctx, epID, Update{Active: &active})
}

// RotateSecret generates a new signing secret for an endpoint.
func (svc *Service) RotateSecret(ctx context.Context, epID id.ID) (string, error) {
	ep, err := svc.store.GetEndpoint(ctx, epID)
	if err != nil {
		return "", err
	}

	ep.Secret = signature.GenerateSecret()
	ep.Touch()
	if err := svc.store.UpdateEndpoint(ctx, ep); err != nil {
		return "", err
	}

	svc.logger.InfoContext(ctx, "endpoint secret rotated", "endpoint_id", epID)
	return ep.Secret, nil
}

func (svc *Service) validateURL(ctx context.Context, raw string) error {
	if raw == "" {
		return &ValidationError{Field: "url", Message: "required"}
	}
	err := netguard.ValidateURL(ctx, raw, svc.config.Resolver, netguard.Options{AllowHTTP: svc.config.AllowHTTP})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, netguard.ErrInsecureScheme):
		return &ValidationError{Field: "url", Message: "must use https"}
	case errors.Is(err, netguard.ErrBlockedHost):
		return &ValidationError{Field: "url", Message: "must not target private, loopback or link-local addresses"}
	case errors.Is(err, netguard.ErrUnresolvable):
		return &ValidationError{Field: "url", Message: "host cannot be resolved"}
	default:
		return &ValidationError{Field: "url", Message: "invalid URL"}
	}
}

func (svc *Service) validateEvents(events []string) ([]string, error) {
	if len(events) == 0 {
		return nil, &ValidationError{Field: "events", Message: "at least one event type required"}
	}

	out := make([]string, 0, len(events))
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		e = strings.TrimSpace(e)
		if svc.config.Events != nil && !svc.config.Events.Has(e) {
			return nil, &ValidationError{Field: "events", Message: "unknown event type " + `"` + e + `"`}
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out, nil
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "endpoint validation: " + e.Field + ": " + e.Message
}

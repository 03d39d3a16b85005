package endpoint

import (
	"slices"

	"github.com/xraph/storehook/id"
	"github.com/xraph/storehook/internal/entity"
)

// Endpoint is a subscriber URL registered by a store administrator.
type Endpoint struct {
	entity.Entity

	// ID is the unique TypeID for this endpoint.
	ID id.ID `json:"id"`

	// URL is the https destination. Unique across all endpoints.
	URL string `json:"url"`

	// Secret is the HMAC signing secret for this endpoint. Never serialized.
	Secret string `json:"-"`

	// Events are the subscribed event type names.
	Events []string `json:"events"`

	// Description is free text shown to administrators.
	Description string `json:"description"`

	// Active indicates whether the endpoint receives deliveries.
	Active bool `json:"active"`
}

// Subscribes reports whether the endpoint is active and subscribed to eventType.
func (ep *Endpoint) Subscribes(eventType string) bool {
	return ep.Active && slices.Contains(ep.Events, eventType)
}

package api

import "encoding/json"

// ---------------------------------------------------------------------------
// Endpoint requests
// ---------------------------------------------------------------------------

// CreateEndpointForgeRequest binds the body for POST /endpoints.
type CreateEndpointForgeRequest struct {
	URL         string   `description:"HTTPS delivery URL"            json:"url"`
	Events      []string `description:"Subscribed event types"        json:"events"`
	Description string   `description:"Endpoint description"          json:"description,omitempty"`
	Active      *bool    `description:"Receive deliveries (default true)" json:"active,omitempty"`
}

// ListEndpointsForgeRequest binds query parameters for GET /endpoints.
type ListEndpointsForgeRequest struct {
	Cursor string `description:"ID of the last endpoint of the previous page" query:"cursor"`
	Limit  int    `description:"Page size"                                  query:"limit"`
	Status string `description:"active, inactive or all"                    query:"status"`
}

// EndpointPathForgeRequest binds the path for single-endpoint routes.
type EndpointPathForgeRequest struct {
	EndpointID string `description:"Endpoint identifier" path:"endpointId"`
}

// UpdateEndpointForgeRequest binds path + body for PATCH /endpoints/:endpointId.
type UpdateEndpointForgeRequest struct {
	EndpointID  string   `description:"Endpoint identifier"    path:"endpointId"`
	URL         *string  `description:"HTTPS delivery URL"     json:"url,omitempty"`
	Events      []string `description:"Subscribed event types" json:"events,omitempty"`
	Description *string  `description:"Endpoint description"   json:"description,omitempty"`
	Active      *bool    `description:"Receive deliveries"     json:"active,omitempty"`
}

// TestEndpointForgeRequest binds path + body for POST /endpoints/:endpointId/test.
type TestEndpointForgeRequest struct {
	EndpointID string `description:"Endpoint identifier"                path:"endpointId"`
	EventType  string `description:"Event type to mock (default test.event)" json:"event_type,omitempty"`
}

// ---------------------------------------------------------------------------
// Log requests
// ---------------------------------------------------------------------------

// ListLogsForgeRequest binds query parameters for GET /logs.
type ListLogsForgeRequest struct {
	Cursor     string `description:"ID of the last entry of the previous page" query:"cursor"`
	Limit      int    `description:"Page size"                                 query:"limit"`
	EndpointID string `description:"Filter by endpoint"                        query:"endpoint_id"`
	Status     string `description:"success, failed, archived, retried or all" query:"status"`
	EventType  string `description:"Filter by event type"                      query:"event_type"`
}

// LogPathForgeRequest binds the path for single-entry log routes.
type LogPathForgeRequest struct {
	LogID string `description:"Delivery log identifier" path:"logId"`
}

// ---------------------------------------------------------------------------
// Event requests
// ---------------------------------------------------------------------------

// TriggerEventForgeRequest binds the body for POST /events.
type TriggerEventForgeRequest struct {
	EventType string          `description:"Allow-listed event type" json:"event_type"`
	Data      json.RawMessage `description:"Event data"              json:"data"`
}

// ListEventTypesForgeRequest is empty; GET /event-types has no parameters.
type ListEventTypesForgeRequest struct{}

// CheckEmailForgeRequest binds query parameters for GET /email-check.
type CheckEmailForgeRequest struct {
	Email string `description:"Address to check" query:"email"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// SecretForgeResponse is the response for POST /endpoints/:endpointId/rotate-secret.
type SecretForgeResponse struct {
	Secret string `json:"secret"`
}

// EmailCheckForgeResponse is the response for GET /email-check.
type EmailCheckForgeResponse struct {
	Email      string `json:"email"`
	Disposable bool   `json:"disposable"`
}

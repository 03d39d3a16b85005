package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/id"
	"github.com/xraph/storehook/internal/entity"
)

// --- Endpoint models ---

type endpointModel struct {
	grove.BaseModel `grove:"table:storehook_endpoints"`

	ID          string    `grove:"id,pk"       bson:"_id"`
	URL         string    `grove:"url"         bson:"url"`
	Secret      string    `grove:"secret"      bson:"secret"`
	Events      []string  `grove:"events"      bson:"events"`
	Description string    `grove:"description" bson:"description"`
	Active      bool      `grove:"active"      bson:"active"`
	CreatedAt   time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"  bson:"updated_at"`
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

// --- Delivery log models ---

type logModel struct {
	grove.BaseModel `grove:"table:storehook_delivery_logs"`

	ID           string    `grove:"id,pk"         bson:"_id"`
	EndpointID   string    `grove:"endpoint_id"   bson:"endpoint_id,omitempty"`
	EventType    string    `grove:"event_type"    bson:"event_type"`
	Payload      string    `grove:"payload"       bson:"payload"`
	HTTPStatus   int       `grove:"http_status"   bson:"http_status"`
	ResponseBody string    `grove:"response_body" bson:"response_body"`
	Error        string    `grove:"error"         bson:"error"`
	DurationMs   int       `grove:"duration_ms"   bson:"duration_ms"`
	Status       string    `grove:"status"        bson:"status"`
	CreatedAt    time.Time `grove:"created_at"    bson:"created_at"`
}

func toLogModel(l *delivery.Log) *logModel {
	m := &logModel{
		ID:           l.ID.String(),
		EventType:    l.EventType,
		Payload:      l.Payload,
		HTTPStatus:   l.HTTPStatus,
		ResponseBody: l.ResponseBody,
		Error:        l.Error,
		DurationMs:   l.DurationMs,
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt,
	}
	if !l.EndpointID.IsNil() {
		m.EndpointID = l.EndpointID.String()
	}
	return m
}

func fromLogModel(m *logModel) (*delivery.Log, error) {
	logID, err := id.ParseLogID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse log ID %q: %w", m.ID, err)
	}

	l := &delivery.Log{
		ID:           logID,
		EventType:    m.EventType,
		Payload:      m.Payload,
		HTTPStatus:   m.HTTPStatus,
		ResponseBody: m.ResponseBody,
		Error:        m.Error,
		DurationMs:   m.DurationMs,
		Status:       delivery.Status(m.Status),
		CreatedAt:    m.CreatedAt,
	}
	if m.EndpointID != "" {
		if l.EndpointID, err = id.ParseEndpointID(m.EndpointID); err != nil {
			return nil, fmt.Errorf("parse endpoint ID %q: %w", m.EndpointID, err)
		}
	}
	return l, nil
}

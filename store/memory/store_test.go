package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/id"
	"github.com/xraph/storehook/internal/entity"
)

func ctx() context.Context { return context.Background() }

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func TestLifecycle(t *testing.T) {
	s := New()

	if err := s.Migrate(ctx()); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx()); !errors.Is(err, storehook.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// endpoint.Store
// ──────────────────────────────────────────────────

func newEndpoint(url string, events ...string) *endpoint.Endpoint {
	return &endpoint.Endpoint{
		Entity: entity.New(),
		ID:     id.NewEndpointID(),
		URL:    url,
		Secret: "whsec_test",
		Events: events,
		Active: true,
	}
}

func TestEndpointCRUD(t *testing.T) {
	s := New()
	ep := newEndpoint("https://hooks.example.com/a", "purchase.completed")

	if err := s.CreateEndpoint(ctx(), ep); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetEndpoint(ctx(), ep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.URL != ep.URL || got.Secret != ep.Secret {
		t.Fatalf("unexpected endpoint: %+v", got)
	}

	got.Description = "changed"
	got.Events = append(got.Events, "lead.captured")
	if err := s.UpdateEndpoint(ctx(), got); err != nil {
		t.Fatal(err)
	}

	again, _ := s.GetEndpoint(ctx(), ep.ID)
	if again.Description != "changed" || len(again.Events) != 2 {
		t.Fatalf("update not persisted: %+v", again)
	}

	if err := s.DeleteEndpoint(ctx(), ep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetEndpoint(ctx(), ep.ID); !errors.Is(err, storehook.ErrEndpointNotFound) {
		t.Fatalf("expected ErrEndpointNotFound, got %v", err)
	}
	if err := s.DeleteEndpoint(ctx(), ep.ID); !errors.Is(err, storehook.ErrEndpointNotFound) {
		t.Fatalf("expected ErrEndpointNotFound on second delete, got %v", err)
	}
}

func TestEndpointGetReturnsCopy(t *testing.T) {
	s := New()
	ep := newEndpoint("https://hooks.example.com/a", "purchase.completed")
	_ = s.CreateEndpoint(ctx(), ep)

	got, _ := s.GetEndpoint(ctx(), ep.ID)
	got.URL = "https://mutated.example.com"
	got.Events[0] = "mutated"

	again, _ := s.GetEndpoint(ctx(), ep.ID)
	if again.URL != ep.URL || again.Events[0] != "purchase.completed" {
		t.Fatal("stored endpoint was mutated through a returned value")
	}
}

func TestEndpointDuplicateURL(t *testing.T) {
	s := New()
	a := newEndpoint("https://hooks.example.com/a", "purchase.completed")
	b := newEndpoint("https://hooks.example.com/b", "purchase.completed")
	_ = s.CreateEndpoint(ctx(), a)
	_ = s.CreateEndpoint(ctx(), b)

	dup := newEndpoint("https://hooks.example.com/a", "lead.captured")
	if err := s.CreateEndpoint(ctx(), dup); !errors.Is(err, storehook.ErrDuplicateURL) {
		t.Fatalf("expected ErrDuplicateURL on create, got %v", err)
	}

	b.URL = a.URL
	if err := s.UpdateEndpoint(ctx(), b); !errors.Is(err, storehook.ErrDuplicateURL) {
		t.Fatalf("expected ErrDuplicateURL on update, got %v", err)
	}

	// Keeping its own URL is not a conflict, and a released URL is reusable.
	a.Description = "same url"
	if err := s.UpdateEndpoint(ctx(), a); err != nil {
		t.Fatal(err)
	}
	a.URL = "https://hooks.example.com/a2"
	if err := s.UpdateEndpoint(ctx(), a); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateEndpoint(ctx(), dup); err != nil {
		t.Fatalf("released URL should be reusable: %v", err)
	}
}

func TestEndpointResolve(t *testing.T) {
	s := New()

	sub := newEndpoint("https://a.example.com", "lead.captured", "purchase.completed")
	other := newEndpoint("https://b.example.com", "product.created")
	off := newEndpoint("https://c.example.com", "lead.captured")
	off.Active = false

	_ = s.CreateEndpoint(ctx(), sub)
	_ = s.CreateEndpoint(ctx(), other)
	_ = s.CreateEndpoint(ctx(), off)

	got, err := s.Resolve(ctx(), "lead.captured")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID.String() != sub.ID.String() {
		t.Fatalf("expected only the active subscriber, got %d", len(got))
	}
}

func TestEndpointListCursorAndStatus(t *testing.T) {
	s := New()

	var ids []string
	for i := range 5 {
		ep := newEndpoint("https://example.com/"+string(rune('a'+i)), "lead.captured")
		ep.Active = i%2 == 0
		_ = s.CreateEndpoint(ctx(), ep)
		ids = append(ids, ep.ID.String())
		time.Sleep(2 * time.Millisecond)
	}

	page, err := s.ListEndpoints(ctx(), endpoint.ListOpts{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].ID.String() != ids[4] || page[1].ID.String() != ids[3] {
		t.Fatal("expected newest first")
	}

	rest, _ := s.ListEndpoints(ctx(), endpoint.ListOpts{Cursor: page[1].ID.String(), Limit: 10})
	if len(rest) != 3 || rest[0].ID.String() != ids[2] {
		t.Fatalf("cursor should continue strictly below, got %d", len(rest))
	}

	active, _ := s.ListEndpoints(ctx(), endpoint.ListOpts{Status: endpoint.StatusActive})
	if len(active) != 3 {
		t.Fatalf("expected 3 active, got %d", len(active))
	}
	inactive, _ := s.ListEndpoints(ctx(), endpoint.ListOpts{Status: endpoint.StatusInactive})
	if len(inactive) != 2 {
		t.Fatalf("expected 2 inactive, got %d", len(inactive))
	}
}

// ──────────────────────────────────────────────────
// delivery.Store
// ──────────────────────────────────────────────────

func newLog(epID id.ID, eventType string, status delivery.Status) *delivery.Log {
	return &delivery.Log{
		ID:         id.NewLogID(),
		EndpointID: epID,
		EventType:  eventType,
		Payload:    `{"event":"` + eventType + `","timestamp":"2024-05-01T10:00:00.000Z","data":{}}`,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestLogCRUD(t *testing.T) {
	s := New()
	l := newLog(id.NewEndpointID(), "purchase.completed", delivery.StatusFailed)

	if err := s.CreateLog(ctx(), l); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetLog(ctx(), l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Payload != l.Payload {
		t.Fatal("payload changed in storage")
	}

	if err := s.UpdateLogStatus(ctx(), l.ID, delivery.StatusArchived); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetLog(ctx(), l.ID)
	if got.Status != delivery.StatusArchived {
		t.Fatalf("expected archived, got %s", got.Status)
	}

	missing := id.NewLogID()
	if _, err := s.GetLog(ctx(), missing); !errors.Is(err, storehook.ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound, got %v", err)
	}
	if err := s.UpdateLogStatus(ctx(), missing, delivery.StatusArchived); !errors.Is(err, storehook.ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound, got %v", err)
	}
}

func TestLogListFilters(t *testing.T) {
	s := New()
	epA := id.NewEndpointID()
	epB := id.NewEndpointID()

	_ = s.CreateLog(ctx(), newLog(epA, "purchase.completed", delivery.StatusSuccess))
	_ = s.CreateLog(ctx(), newLog(epA, "lead.captured", delivery.StatusFailed))
	_ = s.CreateLog(ctx(), newLog(epB, "lead.captured", delivery.StatusFailed))

	byEndpoint, _ := s.ListLogs(ctx(), delivery.ListOpts{EndpointID: epA})
	if len(byEndpoint) != 2 {
		t.Fatalf("expected 2 for endpoint A, got %d", len(byEndpoint))
	}

	failed, _ := s.ListLogs(ctx(), delivery.ListOpts{Status: delivery.StatusFailed})
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed, got %d", len(failed))
	}

	leads, _ := s.ListLogs(ctx(), delivery.ListOpts{EventType: "lead.captured", EndpointID: epB})
	if len(leads) != 1 {
		t.Fatalf("expected 1 lead for endpoint B, got %d", len(leads))
	}
}

func TestDeleteEndpointDetachesLogs(t *testing.T) {
	s := New()
	ep := newEndpoint("https://hooks.example.com/a", "lead.captured")
	_ = s.CreateEndpoint(ctx(), ep)

	l := newLog(ep.ID, "lead.captured", delivery.StatusSuccess)
	_ = s.CreateLog(ctx(), l)

	if err := s.DeleteEndpoint(ctx(), ep.ID); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetLog(ctx(), l.ID)
	if err != nil {
		t.Fatal("log entry should survive endpoint deletion")
	}
	if !got.EndpointID.IsNil() {
		t.Fatal("endpoint reference should be cleared")
	}
}

func TestPurgeLogs(t *testing.T) {
	s := New()

	old := newLog(id.NewEndpointID(), "lead.captured", delivery.StatusSuccess)
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := newLog(id.NewEndpointID(), "lead.captured", delivery.StatusSuccess)

	_ = s.CreateLog(ctx(), old)
	_ = s.CreateLog(ctx(), fresh)

	n, err := s.PurgeLogs(ctx(), time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	if _, err := s.GetLog(ctx(), fresh.ID); err != nil {
		t.Fatal("fresh entry should remain")
	}
}

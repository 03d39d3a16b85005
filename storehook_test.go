package storehook_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/disposable"
	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/event"
	"github.com/xraph/storehook/id"
	"github.com/xraph/storehook/internal/entity"
	"github.com/xraph/storehook/signature"
	"github.com/xraph/storehook/store/memory"
)

func ctx() context.Context { return context.Background() }

func setup(t *testing.T, opts ...storehook.Option) (*storehook.Storehook, *memory.Store) {
	t.Helper()
	s := memory.New()
	h, err := storehook.New(append([]storehook.Option{storehook.WithStore(s)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = h.Stop(ctx()) })
	return h, s
}

// addEndpoint stores an endpoint directly, bypassing URL vetting so tests
// can target local httptest servers.
func addEndpoint(t *testing.T, s *memory.Store, url string, events ...string) *endpoint.Endpoint {
	t.Helper()
	ep := &endpoint.Endpoint{
		Entity: entity.New(),
		ID:     id.NewEndpointID(),
		URL:    url,
		Secret: signature.GenerateSecret(),
		Events: events,
		Active: true,
	}
	if err := s.CreateEndpoint(ctx(), ep); err != nil {
		t.Fatal(err)
	}
	return ep
}

// receiver records every request it gets.
type receiver struct {
	mu      sync.Mutex
	bodies  [][]byte
	headers []http.Header
	status  int
}

func newReceiver(t *testing.T, status int) (*receiver, *httptest.Server) {
	t.Helper()
	rc := &receiver{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rc.mu.Lock()
		rc.bodies = append(rc.bodies, b)
		rc.headers = append(rc.headers, r.Header.Clone())
		status := rc.status
		rc.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return rc, srv
}

func (rc *receiver) count() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.bodies)
}

func validPurchase() map[string]any {
	return map[string]any{
		"order_id":   "ord_1",
		"product_id": "prod_1",
		"amount":     4900,
		"currency":   "usd",
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := storehook.New(); !errors.Is(err, storehook.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}

func TestTriggerSyncFanout(t *testing.T) {
	h, s := setup(t)

	ok, okSrv := newReceiver(t, http.StatusOK)
	_, badSrv := newReceiver(t, http.StatusInternalServerError)

	addEndpoint(t, s, okSrv.URL+"/a", "lead.captured")
	addEndpoint(t, s, badSrv.URL, "lead.captured")
	addEndpoint(t, s, okSrv.URL+"/b", "lead.captured", "purchase.completed")
	addEndpoint(t, s, okSrv.URL+"/c", "purchase.completed")

	results, err := h.TriggerSync(ctx(), "lead.captured", map[string]any{"email": "lead@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	var failed int
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly one failure, got %d", failed)
	}
	if ok.count() != 2 {
		t.Fatalf("expected 2 deliveries to healthy receiver, got %d", ok.count())
	}

	logs, _ := s.ListLogs(ctx(), delivery.ListOpts{})
	if len(logs) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(logs))
	}
}

func TestTriggerSyncUnknownEventType(t *testing.T) {
	h, _ := setup(t)

	_, err := h.TriggerSync(ctx(), "invoice.created", nil)
	if !errors.Is(err, storehook.ErrUnknownEventType) {
		t.Fatalf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestTriggerSyncSchemaValidation(t *testing.T) {
	h, s := setup(t)
	rc, srv := newReceiver(t, http.StatusOK)
	addEndpoint(t, s, srv.URL, "purchase.completed")

	_, err := h.TriggerSync(ctx(), "purchase.completed", map[string]any{"order_id": 42})
	if !errors.Is(err, storehook.ErrPayloadValidationFailed) {
		t.Fatalf("expected ErrPayloadValidationFailed, got %v", err)
	}
	if rc.count() != 0 {
		t.Fatal("invalid payload must not be dispatched")
	}

	if _, err := h.TriggerSync(ctx(), "purchase.completed", validPurchase()); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	if rc.count() != 1 {
		t.Fatal("valid payload should be dispatched")
	}
}

func TestTriggerAsyncDrainedByStop(t *testing.T) {
	h, s := setup(t)
	rc, srv := newReceiver(t, http.StatusOK)
	addEndpoint(t, s, srv.URL, "coupon.redeemed")

	cctx, cancel := context.WithCancel(ctx())
	h.Trigger(cctx, "coupon.redeemed", map[string]any{"code": "SPRING"})
	cancel() // caller cancellation must not abort the fan-out

	stopCtx, stopCancel := context.WithTimeout(ctx(), 5*time.Second)
	defer stopCancel()
	if err := h.Stop(stopCtx); err != nil {
		t.Fatal(err)
	}

	if rc.count() != 1 {
		t.Fatalf("expected 1 delivery, got %d", rc.count())
	}

	// Triggers after Stop are dropped.
	h.Trigger(ctx(), "coupon.redeemed", nil)
	time.Sleep(20 * time.Millisecond)
	if rc.count() != 1 {
		t.Fatal("trigger after stop should be dropped")
	}
}

func TestTriggerNeverPanicsOnBadInput(t *testing.T) {
	h, _ := setup(t)

	h.Trigger(ctx(), "no.such.event", nil)
	h.Trigger(ctx(), "purchase.completed", map[string]any{"bad": make(chan int)})

	if err := h.Stop(ctx()); err != nil {
		t.Fatal(err)
	}
}

func TestTestSend(t *testing.T) {
	h, s := setup(t)
	rc, srv := newReceiver(t, http.StatusOK)
	ep := addEndpoint(t, s, srv.URL, "purchase.completed")
	ep.Active = false
	_ = s.UpdateEndpoint(ctx(), ep)

	res, err := h.Test(ctx(), ep.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	env, err := event.Decode(rc.bodies[0])
	if err != nil {
		t.Fatal(err)
	}
	if env.Event != event.TestEventType {
		t.Fatalf("expected test.event, got %q", env.Event)
	}

	if _, err := h.Test(ctx(), ep.ID, "purchase.completed"); err != nil {
		t.Fatal(err)
	}
	env, _ = event.Decode(rc.bodies[1])
	var data map[string]any
	_ = json.Unmarshal(env.Data.(json.RawMessage), &data)
	if data["order_id"] != "ord_test_123" {
		t.Fatalf("expected catalog example payload, got %v", data)
	}

	if _, err := h.Test(ctx(), id.NewEndpointID(), ""); !errors.Is(err, storehook.ErrEndpointNotFound) {
		t.Fatalf("expected ErrEndpointNotFound, got %v", err)
	}
}

func TestTestSendRateLimited(t *testing.T) {
	h, s := setup(t, storehook.WithTestRateLimit(2, time.Hour))
	_, srv := newReceiver(t, http.StatusOK)
	ep := addEndpoint(t, s, srv.URL, "lead.captured")

	for range 2 {
		if _, err := h.Test(ctx(), ep.ID, ""); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := h.Test(ctx(), ep.ID, ""); !errors.Is(err, storehook.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRetryResendsIdenticalPayload(t *testing.T) {
	h, s := setup(t)
	rc, srv := newReceiver(t, http.StatusServiceUnavailable)
	addEndpoint(t, s, srv.URL, "purchase.completed")

	results, err := h.TriggerSync(ctx(), "purchase.completed", validPurchase())
	if err != nil {
		t.Fatal(err)
	}
	original, _ := h.GetLog(ctx(), results[0].LogID)
	if original.Status != delivery.StatusFailed {
		t.Fatalf("expected failed, got %s", original.Status)
	}

	rc.mu.Lock()
	rc.status = http.StatusOK
	rc.mu.Unlock()

	res, err := h.Retry(ctx(), original.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("expected retry success, got %+v", res)
	}
	if res.LogID.String() == original.ID.String() {
		t.Fatal("retry should write a new entry")
	}

	retried, _ := h.GetLog(ctx(), res.LogID)
	if retried.Payload != original.Payload {
		t.Fatal("retry payload must be byte-identical")
	}
	if string(rc.bodies[1]) != original.Payload {
		t.Fatal("retry body must be the stored payload")
	}
	if rc.headers[1].Get(delivery.HeaderRetry) != "true" {
		t.Fatal("missing retry header")
	}

	after, _ := h.GetLog(ctx(), original.ID)
	if after.Status != delivery.StatusRetried {
		t.Fatalf("original should be retried, got %s", after.Status)
	}
}

func TestRetryThatFailsStillMarksRetried(t *testing.T) {
	h, s := setup(t)
	_, srv := newReceiver(t, http.StatusBadGateway)
	addEndpoint(t, s, srv.URL, "lead.captured")

	results, _ := h.TriggerSync(ctx(), "lead.captured", map[string]any{"email": "a@example.com"})

	res, err := h.Retry(ctx(), results[0].LogID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("expected failure")
	}

	original, _ := h.GetLog(ctx(), results[0].LogID)
	if original.Status != delivery.StatusRetried {
		t.Fatalf("expected retried, got %s", original.Status)
	}
}

func TestRetryMissing(t *testing.T) {
	h, s := setup(t)

	if _, err := h.Retry(ctx(), id.NewLogID()); !errors.Is(err, storehook.ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound, got %v", err)
	}

	_, srv := newReceiver(t, http.StatusInternalServerError)
	ep := addEndpoint(t, s, srv.URL, "lead.captured")
	results, _ := h.TriggerSync(ctx(), "lead.captured", map[string]any{"email": "a@example.com"})
	_ = s.DeleteEndpoint(ctx(), ep.ID)

	if _, err := h.Retry(ctx(), results[0].LogID); !errors.Is(err, storehook.ErrEndpointNotFound) {
		t.Fatalf("expected ErrEndpointNotFound, got %v", err)
	}
}

func TestArchive(t *testing.T) {
	h, s := setup(t)
	_, failSrv := newReceiver(t, http.StatusInternalServerError)
	_, okSrv := newReceiver(t, http.StatusOK)
	addEndpoint(t, s, failSrv.URL, "lead.captured")
	addEndpoint(t, s, okSrv.URL, "product.created")

	failed, _ := h.TriggerSync(ctx(), "lead.captured", map[string]any{"email": "a@example.com"})
	succeeded, _ := h.TriggerSync(ctx(), "product.created", nil)

	entry, err := h.Archive(ctx(), failed[0].LogID)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Status != delivery.StatusArchived {
		t.Fatalf("expected archived, got %s", entry.Status)
	}

	// Re-archiving is a no-op.
	if _, err := h.Archive(ctx(), failed[0].LogID); err != nil {
		t.Fatalf("re-archive should succeed, got %v", err)
	}

	if _, err := h.Archive(ctx(), succeeded[0].LogID); !errors.Is(err, storehook.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := h.Archive(ctx(), id.NewLogID()); !errors.Is(err, storehook.ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound, got %v", err)
	}
}

func TestListLogsPagination(t *testing.T) {
	h, s := setup(t)
	_, srv := newReceiver(t, http.StatusOK)
	addEndpoint(t, s, srv.URL, "lead.captured")

	for range 3 {
		if _, err := h.TriggerSync(ctx(), "lead.captured", map[string]any{"email": "a@example.com"}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	page, err := h.ListLogs(ctx(), delivery.ListOpts{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 2 || !page.HasMore {
		t.Fatalf("unexpected first page: %+v", page)
	}

	next, err := h.ListLogs(ctx(), delivery.ListOpts{Limit: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatal(err)
	}
	if len(next.Items) != 1 || next.HasMore {
		t.Fatalf("unexpected second page: %+v", next)
	}

	if _, err := h.ListLogs(ctx(), delivery.ListOpts{Cursor: "nope"}); !errors.Is(err, storehook.ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestPurgeLogs(t *testing.T) {
	h, s := setup(t)

	old := &delivery.Log{
		ID:        id.NewLogID(),
		EventType: "lead.captured",
		Payload:   "{}",
		Status:    delivery.StatusSuccess,
		CreatedAt: time.Now().Add(-90 * 24 * time.Hour),
	}
	_ = s.CreateLog(ctx(), old)

	n, err := h.PurgeLogs(ctx(), 30*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
}

func TestCheckEmail(t *testing.T) {
	h, _ := setup(t)
	if _, err := h.CheckEmail(ctx(), "a@example.com"); !errors.Is(err, storehook.ErrCheckerDisabled) {
		t.Fatalf("expected ErrCheckerDisabled, got %v", err)
	}

	checker := disposable.NewChecker(disposable.FetcherFunc(func(context.Context) ([]string, error) {
		return []string{"mailinator.com"}, nil
	}), time.Hour, nil)
	h, _ = setup(t, storehook.WithDisposableChecker(checker))

	got, err := h.CheckEmail(ctx(), "x@mailinator.com")
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Fatal("expected disposable")
	}
}

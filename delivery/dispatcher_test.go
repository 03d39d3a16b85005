package delivery_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/event"
	"github.com/xraph/storehook/id"
	"github.com/xraph/storehook/internal/entity"
	"github.com/xraph/storehook/signature"
)

// logRecorder is an in-memory delivery.LogWriter.
type logRecorder struct {
	mu   sync.Mutex
	logs []*delivery.Log
	ctxs []context.Context
}

func (r *logRecorder) CreateLog(ctx context.Context, l *delivery.Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, l)
	r.ctxs = append(r.ctxs, ctx)
	return nil
}

func (r *logRecorder) all() []*delivery.Log {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*delivery.Log(nil), r.logs...)
}

func newTestEndpoint(url string) *endpoint.Endpoint {
	return &endpoint.Endpoint{
		Entity: entity.New(),
		ID:     id.NewEndpointID(),
		URL:    url,
		Secret: "whsec_test_secret_1234567890abcdef1234567890abcdef",
		Events: []string{"purchase.completed", "lead.captured"},
		Active: true,
	}
}

func newTestEnvelope() event.Envelope {
	return event.New("purchase.completed", map[string]any{"order_id": "ord_1", "amount": 4900}, time.Now())
}

func TestDispatchHappyPath(t *testing.T) {
	var receivedHeaders http.Header
	var receivedBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rec := &logRecorder{}
	d := delivery.NewDispatcher(rec, delivery.DispatcherConfig{}, nil)
	ep := newTestEndpoint(srv.URL)
	env := newTestEnvelope()

	result := d.Dispatch(context.Background(), ep, env, nil)

	if !result.Success || result.HTTPStatus != 200 {
		t.Fatalf("expected success 200, got %+v", result)
	}
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if !result.Attempted {
		t.Fatal("expected Attempted")
	}

	// Standard headers.
	if receivedHeaders.Get("Content-Type") != "application/json" {
		t.Fatal("missing Content-Type")
	}
	if receivedHeaders.Get("User-Agent") != "Storehook/1.0" {
		t.Fatal("missing User-Agent")
	}
	if receivedHeaders.Get(delivery.HeaderEvent) != "purchase.completed" {
		t.Fatal("missing event header")
	}
	if receivedHeaders.Get(delivery.HeaderTimestamp) != env.Timestamp {
		t.Fatalf("timestamp header: got %q, want %q", receivedHeaders.Get(delivery.HeaderTimestamp), env.Timestamp)
	}
	if receivedHeaders.Get(delivery.HeaderDelivery) != result.LogID.String() {
		t.Fatal("delivery header should carry the log ID")
	}
	if receivedHeaders.Get(delivery.HeaderRetry) != "" {
		t.Fatal("retry header should be absent")
	}

	// Exactly one entry, carrying the bytes that were sent.
	logs := rec.all()
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}
	if logs[0].Payload != string(receivedBody) {
		t.Fatal("stored payload differs from sent body")
	}
	if logs[0].Status != delivery.StatusSuccess {
		t.Fatalf("expected success status, got %s", logs[0].Status)
	}
	if logs[0].ResponseBody != `{"ok":true}` {
		t.Fatalf("unexpected response body: %s", logs[0].ResponseBody)
	}
	if logs[0].EndpointID.String() != ep.ID.String() {
		t.Fatal("log should reference the endpoint")
	}
}

func TestDispatchSignatureVerifies(t *testing.T) {
	var receivedSig string
	var receivedBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedSig = r.Header.Get(delivery.HeaderSignature)
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := delivery.NewDispatcher(&logRecorder{}, delivery.DispatcherConfig{}, nil)
	ep := newTestEndpoint(srv.URL)

	d.Dispatch(context.Background(), ep, newTestEnvelope(), nil)

	if !signature.Verify(receivedBody, ep.Secret, receivedSig) {
		t.Fatal("signature verification failed")
	}

	env, err := event.Decode(receivedBody)
	if err != nil {
		t.Fatal(err)
	}
	if env.Event != "purchase.completed" {
		t.Fatalf("envelope event: got %q", env.Event)
	}
}

func TestDispatchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	rec := &logRecorder{}
	d := delivery.NewDispatcher(rec, delivery.DispatcherConfig{}, nil)

	result := d.Dispatch(context.Background(), newTestEndpoint(srv.URL), newTestEnvelope(), nil)

	if result.Success {
		t.Fatal("500 must not count as success")
	}
	if result.HTTPStatus != 500 || result.Error != "HTTP 500" {
		t.Fatalf("unexpected result: %+v", result)
	}

	logs := rec.all()
	if len(logs) != 1 || logs[0].Status != delivery.StatusFailed {
		t.Fatalf("expected one failed entry, got %+v", logs)
	}
	if logs[0].ResponseBody != "internal error" {
		t.Fatalf("unexpected response: %s", logs[0].ResponseBody)
	}
}

func TestDispatchRedirectIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	d := delivery.NewDispatcher(&logRecorder{}, delivery.DispatcherConfig{}, nil)
	result := d.Dispatch(context.Background(), newTestEndpoint(srv.URL), newTestEnvelope(), nil)

	if result.Success || result.Error != "HTTP 302" {
		t.Fatalf("expected HTTP 302 failure, got %+v", result)
	}
}

func TestDispatchResponseBodyCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	rec := &logRecorder{}
	d := delivery.NewDispatcher(rec, delivery.DispatcherConfig{}, nil)
	d.Dispatch(context.Background(), newTestEndpoint(srv.URL), newTestEnvelope(), nil)

	if got := len(rec.all()[0].ResponseBody); got != 1024 {
		t.Fatalf("expected 1024 bytes stored, got %d", got)
	}
}

func TestDispatchResponseBodyStoredAsValidText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("a" + strings.Repeat("é", 600)))
	}))
	defer srv.Close()

	rec := &logRecorder{}
	d := delivery.NewDispatcher(rec, delivery.DispatcherConfig{}, nil)
	d.Dispatch(context.Background(), newTestEndpoint(srv.URL), newTestEnvelope(), nil)

	body := rec.all()[0].ResponseBody
	if !utf8.ValidString(body) {
		t.Fatalf("stored body is not valid UTF-8 (len=%d)", len(body))
	}
	if len(body) != 1023 {
		t.Fatalf("expected the split rune to be dropped leaving 1023 bytes, got %d", len(body))
	}
}

func TestDispatchResponseBodyStripsNUL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\x00done\xff"))
	}))
	defer srv.Close()

	rec := &logRecorder{}
	d := delivery.NewDispatcher(rec, delivery.DispatcherConfig{}, nil)
	d.Dispatch(context.Background(), newTestEndpoint(srv.URL), newTestEnvelope(), nil)

	body := rec.all()[0].ResponseBody
	if strings.ContainsRune(body, 0) || !utf8.ValidString(body) {
		t.Fatalf("unexpected stored body %q", body)
	}
	if !strings.HasPrefix(body, "okdone") {
		t.Fatalf("expected text around the NUL to survive, got %q", body)
	}
}

func TestDispatchBodyStallAfterHeadersTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	rec := &logRecorder{}
	d := delivery.NewDispatcher(rec, delivery.DispatcherConfig{Timeout: 50 * time.Millisecond}, nil)

	result := d.Dispatch(context.Background(), newTestEndpoint(srv.URL), newTestEnvelope(), nil)

	if result.Success {
		t.Fatal("stalled body must not count as success")
	}
	if result.HTTPStatus != 0 {
		t.Fatalf("expected status 0 on timeout, got %d", result.HTTPStatus)
	}
	if result.Error != "Request timed out (50ms)" {
		t.Fatalf("unexpected error: %q", result.Error)
	}

	logs := rec.all()
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}
	if logs[0].HTTPStatus != 0 || logs[0].Status != delivery.StatusFailed {
		t.Fatalf("expected failed entry with status 0, got %d/%s", logs[0].HTTPStatus, logs[0].Status)
	}
}

func TestDispatchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	rec := &logRecorder{}
	d := delivery.NewDispatcher(rec, delivery.DispatcherConfig{Timeout: 50 * time.Millisecond}, nil)

	result := d.Dispatch(context.Background(), newTestEndpoint(srv.URL), newTestEnvelope(), nil)

	if result.Success {
		t.Fatal("timeout must not count as success")
	}
	if result.HTTPStatus != 0 {
		t.Fatalf("expected status 0 on timeout, got %d", result.HTTPStatus)
	}
	if result.Error != "Request timed out (50ms)" {
		t.Fatalf("unexpected error: %q", result.Error)
	}
	if result.DurationMs < 50 {
		t.Fatalf("expected duration >= 50ms, got %d", result.DurationMs)
	}

	logs := rec.all()
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}
	if err := rec.ctxs[0].Err(); err != nil {
		t.Fatalf("log write context should be detached from the request deadline, got %v", err)
	}
}

func TestDispatchConnectionRefused(t *testing.T) {
	rec := &logRecorder{}
	d := delivery.NewDispatcher(rec, delivery.DispatcherConfig{}, nil)

	result := d.Dispatch(context.Background(), newTestEndpoint("http://127.0.0.1:1"), newTestEnvelope(), nil) // port 1 should refuse connections

	if result.HTTPStatus != 0 {
		t.Fatalf("expected status 0 on connection refused, got %d", result.HTTPStatus)
	}
	if result.Error == "" {
		t.Fatal("expected error on connection refused")
	}
	if len(rec.all()) != 1 {
		t.Fatal("expected exactly one log entry")
	}
}

func TestDispatchBadURLStillLogs(t *testing.T) {
	rec := &logRecorder{}
	d := delivery.NewDispatcher(rec, delivery.DispatcherConfig{}, nil)

	result := d.Dispatch(context.Background(), newTestEndpoint("://bad"), newTestEnvelope(), nil)

	if result.Attempted {
		t.Fatal("no request should have been sent")
	}
	if result.Error == "" {
		t.Fatal("expected error")
	}
	logs := rec.all()
	if len(logs) != 1 || logs[0].Status != delivery.StatusFailed {
		t.Fatalf("expected one failed entry, got %+v", logs)
	}
}

func TestDispatchPayloadResendsBytes(t *testing.T) {
	var receivedHeaders http.Header
	var receivedBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := &logRecorder{}
	d := delivery.NewDispatcher(rec, delivery.DispatcherConfig{}, nil)

	stored := `{"event":"purchase.completed","timestamp":"2024-05-01T10:00:00.000Z","data":{"amount":4900,"order_id":"ord_1"}}`
	extra := http.Header{}
	extra.Set(delivery.HeaderRetry, "true")

	result := d.DispatchPayload(context.Background(), newTestEndpoint(srv.URL), "purchase.completed", []byte(stored), extra)

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if string(receivedBody) != stored {
		t.Fatalf("body changed on resend:\n got %s\nwant %s", receivedBody, stored)
	}
	if receivedHeaders.Get(delivery.HeaderRetry) != "true" {
		t.Fatal("missing retry header")
	}
	if receivedHeaders.Get(delivery.HeaderTimestamp) != "2024-05-01T10:00:00.000Z" {
		t.Fatalf("timestamp header should come from the stored envelope, got %q", receivedHeaders.Get(delivery.HeaderTimestamp))
	}
	if rec.all()[0].Payload != stored {
		t.Fatal("new entry should store the identical payload")
	}
}

func TestDispatchPrivateNetworkGuard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := delivery.NewDispatcher(&logRecorder{}, delivery.DispatcherConfig{GuardPrivateNetworks: true}, nil)
	result := d.Dispatch(context.Background(), newTestEndpoint(srv.URL), newTestEnvelope(), nil)

	if result.Success {
		t.Fatal("dial to loopback should be refused by the guard")
	}
	if result.HTTPStatus != 0 {
		t.Fatalf("expected status 0, got %d", result.HTTPStatus)
	}
}

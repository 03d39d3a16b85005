package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/event"
	"github.com/xraph/storehook/id"
	"github.com/xraph/storehook/netguard"
	"github.com/xraph/storehook/observability"
	"github.com/xraph/storehook/signature"
)

const maxResponseBody = 1024 // 1KB cap on response body storage

// Outbound header names.
const (
	HeaderEvent     = "X-Storehook-Event"
	HeaderSignature = "X-Storehook-Signature"
	HeaderTimestamp = "X-Storehook-Timestamp"
	HeaderDelivery  = "X-Storehook-Delivery"
	HeaderRetry     = "X-Storehook-Retry"

	userAgent = "Storehook/1.0"
)

// DefaultTimeout bounds a single dispatch.
const DefaultTimeout = 5 * time.Second

// Result holds the outcome of a single dispatch.
type Result struct {
	// LogID is the ID of the log entry written for this attempt.
	LogID id.ID `json:"log_id"`

	Success    bool   `json:"success"`
	HTTPStatus int    `json:"http_status"`
	Error      string `json:"error,omitempty"`
	DurationMs int    `json:"duration_ms"`

	// Attempted reports whether an HTTP request actually left the process.
	Attempted bool `json:"attempted"`
}

// DispatcherConfig holds dispatcher configuration.
type DispatcherConfig struct {
	// Timeout is the hard per-request deadline. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Client overrides the HTTP client. When nil a client is built that
	// does not follow redirects.
	Client *http.Client

	// GuardPrivateNetworks refuses connections to private, loopback and
	// link-local addresses at dial time. Ignored when Client is set.
	GuardPrivateNetworks bool

	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// Dispatcher signs and POSTs envelopes to endpoints and records exactly one
// log entry per call.
type Dispatcher struct {
	store  LogWriter
	client *http.Client
	config DispatcherConfig
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher that records attempts in store.
func NewDispatcher(store LogWriter, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = newClient(cfg.GuardPrivateNetworks)
	}
	return &Dispatcher{
		store:  store,
		client: client,
		config: cfg,
		logger: logger,
	}
}

func newClient(guard bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if guard {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   netguard.DialControl,
		}
		transport.DialContext = dialer.DialContext
		transport.Proxy = nil
	}
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Dispatch serializes env once and delivers it to ep.
func (d *Dispatcher) Dispatch(ctx context.Context, ep *endpoint.Endpoint, env event.Envelope, extra http.Header) Result {
	body, err := env.Marshal()
	if err != nil {
		return d.record(ctx, ep, env.Event, nil, Result{
			LogID: id.NewLogID(),
			Error: err.Error(),
		})
	}
	return d.send(ctx, ep, env.Event, body, env.Timestamp, extra)
}

// DispatchPayload delivers already serialized envelope bytes unchanged.
// The event type and timestamp headers are taken from the payload itself.
func (d *Dispatcher) DispatchPayload(ctx context.Context, ep *endpoint.Endpoint, eventType string, payload []byte, extra http.Header) Result {
	ts := ""
	if env, err := event.Decode(payload); err == nil {
		ts = env.Timestamp
		if eventType == "" {
			eventType = env.Event
		}
	}
	return d.send(ctx, ep, eventType, payload, ts, extra)
}

// send performs one POST and records its outcome.
func (d *Dispatcher) send(ctx context.Context, ep *endpoint.Endpoint, eventType string, body []byte, timestamp string, extra http.Header) Result {
	res := Result{LogID: id.NewLogID()}

	var span trace.Span
	if d.config.Tracer != nil {
		ctx, span = d.config.Tracer.StartDispatchSpan(ctx, res.LogID.String(), eventType, ep.ID.String())
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		res.Error = fmt.Sprintf("create request: %v", err)
		d.endSpan(span, res)
		return d.record(ctx, ep, eventType, body, res)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(HeaderEvent, eventType)
	req.Header.Set(HeaderSignature, signature.Sign(body, ep.Secret))
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderDelivery, res.LogID.String())
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	res.Attempted = true
	resp, err := d.client.Do(req) //nolint:gosec // URL is an administrator-registered destination, validated at registration.
	if err != nil {
		res.DurationMs = elapsedMs(start)
		res.Error = d.describe(reqCtx, err)
		d.endSpan(span, res)
		return d.record(ctx, ep, eventType, body, res)
	}
	defer resp.Body.Close()

	res.HTTPStatus = resp.StatusCode
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	res.DurationMs = elapsedMs(start)

	switch {
	case readErr != nil:
		res.Error = d.describe(reqCtx, fmt.Errorf("read response: %w", readErr))
		if timedOut(reqCtx, readErr) {
			res.HTTPStatus = 0
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		res.Error = "HTTP " + strconv.Itoa(resp.StatusCode)
	default:
		res.Success = true
	}

	d.endSpan(span, res)
	return d.recordWithBody(ctx, ep, eventType, body, sanitizeBody(respBody), res)
}

// describe renders a transport error, mapping deadline expiry to the
// timeout message.
func (d *Dispatcher) describe(reqCtx context.Context, err error) string {
	if timedOut(reqCtx, err) {
		return "Request timed out (" + d.config.Timeout.String() + ")"
	}
	return err.Error()
}

func timedOut(reqCtx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded)
}

// sanitizeBody returns the capped body as valid UTF-8 without NUL bytes,
// dropping a rune split by the cap.
func sanitizeBody(b []byte) string {
	if len(b) == maxResponseBody {
		for cut := len(b) - 1; cut >= 0 && cut >= len(b)-utf8.UTFMax; cut-- {
			if utf8.RuneStart(b[cut]) {
				if !utf8.FullRune(b[cut:]) {
					b = b[:cut]
				}
				break
			}
		}
	}
	s := strings.ToValidUTF8(string(b), "\uFFFD")
	return strings.ReplaceAll(s, "\x00", "")
}

func (d *Dispatcher) record(ctx context.Context, ep *endpoint.Endpoint, eventType string, body []byte, res Result) Result {
	return d.recordWithBody(ctx, ep, eventType, body, "", res)
}

// recordWithBody writes the log entry on a context detached from the
// request deadline so timed-out attempts are still persisted.
func (d *Dispatcher) recordWithBody(ctx context.Context, ep *endpoint.Endpoint, eventType string, body []byte, respBody string, res Result) Result {
	status := StatusFailed
	if res.Success {
		status = StatusSuccess
	}

	entry := &Log{
		ID:           res.LogID,
		EndpointID:   ep.ID,
		EventType:    eventType,
		Payload:      string(body),
		HTTPStatus:   res.HTTPStatus,
		ResponseBody: respBody,
		Error:        res.Error,
		DurationMs:   res.DurationMs,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}

	writeCtx := context.WithoutCancel(ctx)
	if err := d.store.CreateLog(writeCtx, entry); err != nil {
		d.logger.ErrorContext(writeCtx, "write delivery log failed",
			"log_id", res.LogID, "endpoint_id", ep.ID, "error", err)
	}

	if d.config.Metrics != nil {
		d.config.Metrics.RecordDispatch(writeCtx, eventType, string(status), res.DurationMs)
	}

	if res.Success {
		d.logger.DebugContext(writeCtx, "dispatched",
			"log_id", res.LogID, "endpoint_id", ep.ID, "event_type", eventType,
			"status", res.HTTPStatus, "duration_ms", res.DurationMs)
	} else {
		d.logger.WarnContext(writeCtx, "dispatch failed",
			"log_id", res.LogID, "endpoint_id", ep.ID, "event_type", eventType,
			"status", res.HTTPStatus, "error", res.Error)
	}

	return res
}

func (d *Dispatcher) endSpan(span trace.Span, res Result) {
	if span != nil {
		d.config.Tracer.EndDispatchSpan(span, res.HTTPStatus, res.DurationMs, res.Error)
	}
}

func elapsedMs(start time.Time) int {
	return int(time.Since(start).Milliseconds())
}

package storehook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/xraph/storehook/catalog"
	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/disposable"
	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/netguard"
	"github.com/xraph/storehook/observability"
	"github.com/xraph/storehook/ratelimit"
	"github.com/xraph/storehook/store"
)

// Storehook is the root webhook delivery subsystem.
type Storehook struct {
	config     Config
	store      store.Store
	catalog    *catalog.Catalog
	resolver   netguard.Resolver
	httpClient *http.Client
	disposable *disposable.Checker
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	logger     *slog.Logger

	endpointSvc *endpoint.Service
	dispatcher  *delivery.Dispatcher
	fanout      *delivery.Fanout
	testLimiter *ratelimit.Limiter

	mu       sync.Mutex
	stopped  bool
	inflight sync.WaitGroup
}

// New creates a new Storehook with the given options.
func New(opts ...Option) (*Storehook, error) {
	h := &Storehook{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	if h.store == nil {
		return nil, ErrNoStore
	}
	h.wireServices()
	return h, nil
}

// wireServices initializes the internal services after options have been applied.
func (h *Storehook) wireServices() {
	if h.catalog == nil {
		h.catalog = catalog.New()
	}

	h.endpointSvc = endpoint.NewService(h.store, endpoint.ServiceConfig{
		Events:          h.catalog,
		Resolver:        h.resolver,
		AllowHTTP:       h.config.AllowHTTP,
		DefaultPageSize: h.config.DefaultPageSize,
		MaxPageSize:     h.config.MaxPageSize,
	}, h.logger)

	h.dispatcher = delivery.NewDispatcher(h.store, delivery.DispatcherConfig{
		Timeout:              h.config.RequestTimeout,
		Client:               h.httpClient,
		GuardPrivateNetworks: h.config.GuardPrivateNetworks,
		Metrics:              h.metrics,
		Tracer:               h.tracer,
	}, h.logger)

	h.fanout = delivery.NewFanout(h.store, h.dispatcher, h.config.Concurrency, h.logger)

	h.testLimiter = ratelimit.New(h.config.TestRateWindow)
}

// Trigger fans eventType out to every active subscriber in the background.
// It never blocks on delivery and never reports errors: unknown event types
// and invalid payloads are logged and dropped.
func (h *Storehook) Trigger(ctx context.Context, eventType string, data any) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		h.logger.WarnContext(ctx, "trigger after stop dropped", "event_type", eventType)
		return
	}
	h.inflight.Add(1)
	h.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	go func() {
		defer h.inflight.Done()
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(bg, "trigger panicked", "event_type", eventType, "panic", rec)
			}
		}()

		if _, err := h.TriggerSync(bg, eventType, data); err != nil {
			h.logger.WarnContext(bg, "trigger dropped", "event_type", eventType, "error", err)
		}
	}()
}

// TriggerSync validates the event and fans it out, returning once every
// dispatch has settled.
func (h *Storehook) TriggerSync(ctx context.Context, eventType string, data any) ([]delivery.Result, error) {
	if !h.catalog.Has(eventType) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}
	if err := h.catalog.Validate(eventType, data); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPayloadValidationFailed, err.Error())
	}

	if h.metrics != nil {
		h.metrics.RecordTrigger(ctx, eventType)
	}

	results := h.fanout.Run(ctx, eventType, data)

	h.logger.DebugContext(ctx, "event triggered",
		"event_type", eventType,
		"endpoints", len(results),
	)

	return results, nil
}

// Stop rejects new triggers and waits for in-flight ones to finish or for
// ctx to be done.
func (h *Storehook) Stop(ctx context.Context) error {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("storehook: stop: %w", ctx.Err())
	}
}

// Endpoints returns the endpoint management service.
func (h *Storehook) Endpoints() *endpoint.Service {
	return h.endpointSvc
}

// Catalog returns the event type catalog.
func (h *Storehook) Catalog() *catalog.Catalog {
	return h.catalog
}

// Store returns the underlying store.
func (h *Storehook) Store() store.Store {
	return h.store
}

// Dispatcher returns the dispatcher.
func (h *Storehook) Dispatcher() *delivery.Dispatcher {
	return h.dispatcher
}

// Config returns the effective configuration.
func (h *Storehook) Config() Config {
	return h.config
}

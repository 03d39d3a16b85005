package storehook

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xraph/storehook/catalog"
	"github.com/xraph/storehook/disposable"
	"github.com/xraph/storehook/netguard"
	"github.com/xraph/storehook/observability"
	"github.com/xraph/storehook/store"
)

// Option configures a Storehook instance.
type Option func(*Storehook) error

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig(cfg Config) Option {
	return func(h *Storehook) error {
		h.config = cfg
		return nil
	}
}

// WithStore sets the persistence backend.
func WithStore(s store.Store) Option {
	return func(h *Storehook) error {
		h.store = s
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Storehook) error {
		h.logger = logger
		return nil
	}
}

// WithCatalog replaces the built-in event catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(h *Storehook) error {
		h.catalog = c
		return nil
	}
}

// WithConcurrency bounds parallel dispatches within one fan-out.
func WithConcurrency(n int) Option {
	return func(h *Storehook) error {
		h.config.Concurrency = n
		return nil
	}
}

// WithRequestTimeout sets the hard deadline per dispatch.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Storehook) error {
		h.config.RequestTimeout = d
		return nil
	}
}

// WithResolver sets the DNS resolver used to vet endpoint URLs.
func WithResolver(r netguard.Resolver) Option {
	return func(h *Storehook) error {
		h.resolver = r
		return nil
	}
}

// WithTestRateLimit allows n test-sends per endpoint per window.
func WithTestRateLimit(n int, window time.Duration) Option {
	return func(h *Storehook) error {
		h.config.TestRateLimit = n
		h.config.TestRateWindow = window
		return nil
	}
}

// WithDisposableChecker enables the disposable-email check.
func WithDisposableChecker(c *disposable.Checker) Option {
	return func(h *Storehook) error {
		h.disposable = c
		return nil
	}
}

// WithMetrics records dispatch and trigger metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Storehook) error {
		h.metrics = m
		return nil
	}
}

// WithTracer records a span per dispatch.
func WithTracer(t *observability.Tracer) Option {
	return func(h *Storehook) error {
		h.tracer = t
		return nil
	}
}

// WithHTTPClient overrides the client used for outbound dispatches.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Storehook) error {
		h.httpClient = c
		return nil
	}
}

// WithPrivateNetworkGuard refuses outbound connections to private
// addresses at dial time.
func WithPrivateNetworkGuard(enabled bool) Option {
	return func(h *Storehook) error {
		h.config.GuardPrivateNetworks = enabled
		return nil
	}
}

// WithAllowHTTP accepts plain http endpoint URLs. Development only.
func WithAllowHTTP(enabled bool) Option {
	return func(h *Storehook) error {
		h.config.AllowHTTP = enabled
		return nil
	}
}

package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xraph/forge"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/api"
	"github.com/xraph/storehook/auth"
	"github.com/xraph/storehook/store"
)

// ErrNotStarted is returned when the extension is used before Start.
var ErrNotStarted = errors.New("storehook/extension: not started")

// Extension mounts one Storehook instance into a host application.
type Extension struct {
	config Config
	store  store.Store
	opts   []storehook.Option
	authn  auth.Authenticator
	logger *slog.Logger

	hook *storehook.Storehook
}

// New creates an extension. Nothing is connected until Start.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.config.BasePath == "" {
		e.config.BasePath = "/webhooks"
	}
	e.config.BasePath = "/" + strings.Trim(e.config.BasePath, "/")
	return e
}

// Start builds the Storehook instance and runs migrations unless disabled.
func (e *Extension) Start(ctx context.Context) error {
	if e.hook != nil {
		return nil
	}

	opts := e.config.ToOptions()
	opts = append(opts,
		storehook.WithStore(e.store),
		storehook.WithLogger(e.logger),
	)
	opts = append(opts, e.opts...)

	hook, err := storehook.New(opts...)
	if err != nil {
		return fmt.Errorf("storehook/extension: %w", err)
	}

	if !e.config.DisableMigrate {
		if err := hook.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("storehook/extension: migrate: %w", err)
		}
	}

	e.hook = hook
	e.logger.InfoContext(ctx, "storehook started", "base_path", e.config.BasePath)
	return nil
}

// Stop drains in-flight triggers, bounded by the configured shutdown
// timeout, then closes the store.
func (e *Extension) Stop(ctx context.Context) error {
	if e.hook == nil {
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, e.hook.Config().ShutdownTimeout)
	defer cancel()

	stopErr := e.hook.Stop(stopCtx)
	closeErr := e.hook.Store().Close()
	e.hook = nil

	return errors.Join(stopErr, closeErr)
}

// Health pings the store.
func (e *Extension) Health(ctx context.Context) error {
	if e.hook == nil {
		return ErrNotStarted
	}
	return e.hook.Store().Ping(ctx)
}

// Hook returns the Storehook instance, or nil before Start.
func (e *Extension) Hook() *storehook.Storehook { return e.hook }

// BasePath returns the normalized URL prefix.
func (e *Extension) BasePath() string { return e.config.BasePath }

// Handler returns the stdlib admin API with BasePath stripped, for
// mounting at BasePath+"/". It returns nil before Start or when routes are
// disabled.
func (e *Extension) Handler() http.Handler {
	if e.hook == nil || e.config.DisableRoutes {
		return nil
	}
	return http.StripPrefix(e.config.BasePath, api.NewHandler(e.hook, e.authn, e.logger))
}

// RegisterRoutes mounts the Forge admin API under BasePath.
func (e *Extension) RegisterRoutes(router forge.Router, log forge.Logger) error {
	if e.hook == nil {
		return ErrNotStarted
	}
	if e.config.DisableRoutes {
		return nil
	}
	api.NewForgeAPI(e.hook, log).RegisterRoutes(router.Group(e.config.BasePath))
	return nil
}

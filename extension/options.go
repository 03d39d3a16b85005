package extension

import (
	"log/slog"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/auth"
	"github.com/xraph/storehook/store"
)

// ExtOption configures the extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPrefix sets the URL prefix for the admin API.
func WithPrefix(prefix string) ExtOption {
	return func(e *Extension) {
		e.config.BasePath = prefix
	}
}

// WithConfig sets the extension configuration directly.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithLogger sets the logger shared by the extension, the Storehook
// instance and the admin API.
func WithLogger(logger *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithAuthenticator guards the stdlib admin API. Without one the API is
// served unauthenticated.
func WithAuthenticator(a auth.Authenticator) ExtOption {
	return func(e *Extension) {
		e.authn = a
	}
}

// WithStorehookOption appends a raw storehook.Option. These apply after
// the options derived from Config.
func WithStorehookOption(opt storehook.Option) ExtOption {
	return func(e *Extension) {
		e.opts = append(e.opts, opt)
	}
}

// WithDisableRoutes disables the admin API.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrations disables store migrations in Start.
func WithDisableMigrations() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}

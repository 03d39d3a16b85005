package extension

import (
	"github.com/xraph/storehook"
)

// Config holds configuration for the extension.
type Config struct {
	// Config embeds the core storehook configuration.
	storehook.Config `json:",inline" yaml:",inline" mapstructure:",squash"`

	// BasePath is the URL prefix for the admin API (default: "/webhooks").
	BasePath string `json:"base_path" yaml:"base_path" mapstructure:"base_path"`

	// DisableRoutes makes Handler return nil and RegisterRoutes a no-op.
	DisableRoutes bool `json:"disable_routes" yaml:"disable_routes" mapstructure:"disable_routes"`

	// DisableMigrate skips store migrations in Start.
	DisableMigrate bool `json:"disable_migrate" yaml:"disable_migrate" mapstructure:"disable_migrate"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Config:   storehook.DefaultConfig(),
		BasePath: "/webhooks",
	}
}

// ToOptions converts the embedded Config into storehook options. Zero
// values keep the library defaults.
func (c Config) ToOptions() []storehook.Option {
	base := storehook.DefaultConfig()
	cfg := c.Config

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = base.Concurrency
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = base.RequestTimeout
	}
	if cfg.TestRateWindow <= 0 {
		cfg.TestRateWindow = base.TestRateWindow
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = base.DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = base.MaxPageSize
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = base.ShutdownTimeout
	}

	return []storehook.Option{storehook.WithConfig(cfg)}
}

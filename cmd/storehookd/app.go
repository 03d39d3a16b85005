package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/disposable"
	"github.com/xraph/storehook/extension"
	"github.com/xraph/storehook/observability"
	"github.com/xraph/storehook/store"
	"github.com/xraph/storehook/store/memory"
	"github.com/xraph/storehook/store/redis"
)

const meterName = "github.com/xraph/storehook/cmd/storehookd"

func newLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func openStore(cfg StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "redis":
		s, err := redis.NewFromURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// newExtension wires the configured store, observability and optional
// disposable-email checker into an extension.
func newExtension(cfg *Config, logger *slog.Logger) (*extension.Extension, error) {
	s, err := openStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	metrics, err := observability.NewMetrics(otel.Meter(meterName))
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	opts := []extension.ExtOption{
		extension.WithConfig(cfg.Webhooks),
		extension.WithStore(s),
		extension.WithLogger(logger),
		extension.WithAuthenticator(cfg.Tokens()),
		extension.WithStorehookOption(storehook.WithMetrics(metrics)),
		extension.WithStorehookOption(storehook.WithTracer(observability.NewTracer())),
	}

	if cfg.Disposable.ListURL != "" {
		checker := disposable.NewChecker(
			disposable.HTTPFetcher{URL: cfg.Disposable.ListURL},
			cfg.Disposable.CacheTTL,
			logger,
		)
		opts = append(opts, extension.WithStorehookOption(storehook.WithDisposableChecker(checker)))
	}

	return extension.New(opts...), nil
}

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/xraph/storehook/auth"
	"github.com/xraph/storehook/extension"
)

// envPrefix namespaces environment overrides, e.g. STOREHOOK_SERVER_ADDR.
const envPrefix = "STOREHOOK"

// Config is the daemon configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Store      StoreConfig      `mapstructure:"store"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Disposable DisposableConfig `mapstructure:"disposable"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Webhooks   extension.Config `mapstructure:"webhooks"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" validate:"gte=0"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type StoreConfig struct {
	Backend  string `mapstructure:"backend" validate:"oneof=memory redis"`
	RedisURL string `mapstructure:"redis_url" validate:"required_if=Backend redis"`
}

// AuthConfig lists bearer tokens for the admin API. AdminTokens grant
// admin access; ReadOnlyTokens authenticate but are refused with 403.
type AuthConfig struct {
	AdminTokens    []string `mapstructure:"admin_tokens" validate:"required,min=1,dive,min=16"`
	ReadOnlyTokens []string `mapstructure:"readonly_tokens" validate:"dive,min=16"`
}

type DisposableConfig struct {
	ListURL  string        `mapstructure:"list_url" validate:"omitempty,url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

type RetentionConfig struct {
	MaxAge time.Duration `mapstructure:"max_age" validate:"gt=0"`
}

// setDefaults registers every key so environment overrides reach
// Unmarshal even when no config file sets them.
func setDefaults(v *viper.Viper) {
	hook := extension.DefaultConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", 60*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis_url", "")

	v.SetDefault("auth.admin_tokens", []string{})
	v.SetDefault("auth.readonly_tokens", []string{})

	v.SetDefault("disposable.list_url", "")
	v.SetDefault("disposable.cache_ttl", 24*time.Hour)

	v.SetDefault("retention.max_age", 30*24*time.Hour)

	v.SetDefault("webhooks.base_path", hook.BasePath)
	v.SetDefault("webhooks.disable_routes", false)
	v.SetDefault("webhooks.disable_migrate", false)
	v.SetDefault("webhooks.concurrency", hook.Concurrency)
	v.SetDefault("webhooks.request_timeout", hook.RequestTimeout)
	v.SetDefault("webhooks.test_rate_limit", hook.TestRateLimit)
	v.SetDefault("webhooks.test_rate_window", hook.TestRateWindow)
	v.SetDefault("webhooks.default_page_size", hook.DefaultPageSize)
	v.SetDefault("webhooks.max_page_size", hook.MaxPageSize)
	v.SetDefault("webhooks.allow_http", false)
	v.SetDefault("webhooks.guard_private_networks", true)
	v.SetDefault("webhooks.shutdown_timeout", hook.ShutdownTimeout)
}

// LoadConfig reads an optional YAML file and overlays STOREHOOK_*
// environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags and cross-field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Webhooks.MaxPageSize < c.Webhooks.DefaultPageSize {
		return errors.New("invalid config: webhooks.max_page_size is below webhooks.default_page_size")
	}
	return nil
}

// Tokens builds the admin API authenticator.
func (c *Config) Tokens() auth.StaticTokens {
	tokens := make(auth.StaticTokens, len(c.Auth.AdminTokens)+len(c.Auth.ReadOnlyTokens))
	for i, tok := range c.Auth.ReadOnlyTokens {
		tokens[tok] = auth.Principal{Subject: fmt.Sprintf("readonly-%d", i), Admin: false}
	}
	for i, tok := range c.Auth.AdminTokens {
		tokens[tok] = auth.Principal{Subject: fmt.Sprintf("admin-%d", i), Admin: true}
	}
	return tokens
}

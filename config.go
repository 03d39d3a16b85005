package storehook

import "time"

// Config holds the configuration for a Storehook instance.
type Config struct {
	// Concurrency bounds parallel dispatches within one fan-out.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// RequestTimeout is the hard deadline per dispatch.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`

	// TestRateLimit is the number of test-sends allowed per endpoint per
	// TestRateWindow. Zero disables the limit.
	TestRateLimit int `json:"test_rate_limit" yaml:"test_rate_limit" mapstructure:"test_rate_limit"`

	// TestRateWindow is the refill window for TestRateLimit.
	TestRateWindow time.Duration `json:"test_rate_window" yaml:"test_rate_window" mapstructure:"test_rate_window"`

	// DefaultPageSize and MaxPageSize bound list operations.
	DefaultPageSize int `json:"default_page_size" yaml:"default_page_size" mapstructure:"default_page_size"`
	MaxPageSize     int `json:"max_page_size" yaml:"max_page_size" mapstructure:"max_page_size"`

	// AllowHTTP accepts plain http endpoint URLs. Development only.
	AllowHTTP bool `json:"allow_http" yaml:"allow_http" mapstructure:"allow_http"`

	// GuardPrivateNetworks refuses outbound connections to private
	// addresses at dial time.
	GuardPrivateNetworks bool `json:"guard_private_networks" yaml:"guard_private_networks" mapstructure:"guard_private_networks"`

	// ShutdownTimeout is the maximum time Stop waits for in-flight triggers.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:     16,
		RequestTimeout:  5 * time.Second,
		TestRateLimit:   10,
		TestRateWindow:  time.Minute,
		DefaultPageSize: 50,
		MaxPageSize:     100,
		ShutdownTimeout: 30 * time.Second,
	}
}

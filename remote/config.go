package remote

import (
	"fmt"
	"log/slog"
	"time"
)

// Defaults for the remote client.
const (
	DefaultModel         = "davinci"
	DefaultMaxRetries    = 3
	DefaultTimeout       = time.Minute
	DefaultRetryInterval = 500 * time.Millisecond
	DefaultMaxInterval   = 10 * time.Second
)

// Config holds remote backend configuration.
type Config struct {
	// APIKey authenticates against the completion API.
	// Required.
	APIKey string `json:"api_key" yaml:"api_key" toml:"api_key"`

	// BaseURL overrides the API endpoint, e.g. for a proxy.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`

	// Model is used when a request does not name one.
	// Default: "davinci"
	Model string `json:"model" yaml:"model" toml:"model"`

	// MaxRetries is the total number of attempts per request.
	// Default: 3
	MaxRetries int `json:"max_retries" yaml:"max_retries" toml:"max_retries"`

	// Timeout bounds each attempt.
	// Default: 1 minute.
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`

	// RetryInterval is the first backoff interval; later intervals grow
	// exponentially up to MaxInterval.
	RetryInterval time.Duration `json:"retry_interval" yaml:"retry_interval" toml:"retry_interval"`

	// MaxInterval caps a single backoff interval.
	MaxInterval time.Duration `json:"max_interval" yaml:"max_interval" toml:"max_interval"`

	// Logger receives retry notices. Nil discards them.
	Logger *slog.Logger `json:"-" yaml:"-" toml:"-"`
}

// DefaultConfig returns a Config with sensible defaults. APIKey must still be set.
func DefaultConfig() Config {
	return Config{
		Model:         DefaultModel,
		MaxRetries:    DefaultMaxRetries,
		Timeout:       DefaultTimeout,
		RetryInterval: DefaultRetryInterval,
		MaxInterval:   DefaultMaxInterval,
	}
}

// WithDefaults returns a copy of the config with defaults applied for unset fields.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = d.RetryInterval
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = d.MaxInterval
	}
	return c
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}
	if c.RetryInterval < 0 || c.MaxInterval < 0 {
		return fmt.Errorf("retry intervals must be >= 0")
	}
	return nil
}

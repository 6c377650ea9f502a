package provider

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"
)

// Config is what a Factory receives. The dialogkit config package builds it
// from the run configuration, so backends never read files or the
// environment themselves.
type Config struct {
	Provider string `json:"provider" yaml:"provider" toml:"provider"` // "local" or "remote"
	Model    string `json:"model" yaml:"model" toml:"model"`

	// Remote only.
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`

	// Timeout bounds one Generate call and MaxRetries the attempts for
	// transient failures. Zero means the backend default.
	Timeout    time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	MaxRetries int           `json:"max_retries" yaml:"max_retries" toml:"max_retries"`

	// Options carries backend-specific settings. The local backend reads
	// "backend" (runtime), "sidecar_path", "python_path", "host", "device",
	// "work_dir" and "startup_timeout"; the remote backend reads
	// "retry_interval" and "max_interval".
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`

	// Logger receives backend diagnostics such as retries and sidecar
	// restarts. Nil discards them.
	Logger *slog.Logger `json:"-" yaml:"-" toml:"-"`
}

// DefaultConfig returns the shared timeout and retry defaults.
func DefaultConfig() Config {
	return Config{Timeout: 5 * time.Minute, MaxRetries: 3}
}

// Validate rejects a missing provider and negative limits.
func (c Config) Validate() error {
	switch {
	case c.Provider == "":
		return errors.New("provider is required")
	case c.MaxRetries < 0:
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	case c.Timeout < 0:
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}
	return nil
}

// WithOption returns a copy of c with key set. c.Options is not modified.
func (c Config) WithOption(key string, value any) Config {
	opts := maps.Clone(c.Options)
	if opts == nil {
		opts = make(map[string]any, 1)
	}
	opts[key] = value
	c.Options = opts
	return c
}

// GetStringOption returns the non-empty string stored under key, or def.
func (c Config) GetStringOption(key, def string) string {
	if v, ok := c.Options[key].(string); ok && v != "" {
		return v
	}
	return def
}

// GetDurationOption parses the string stored under key, such as "30s". It
// returns def when the option is missing or does not parse.
func (c Config) GetDurationOption(key string, def time.Duration) time.Duration {
	s, ok := c.Options[key].(string)
	if !ok {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

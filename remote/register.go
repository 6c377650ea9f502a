package remote

import (
	"github.com/randalmurphal/dialogkit/provider"
)

func init() {
	provider.Register("remote", newFromProviderConfig)
}

// newFromProviderConfig creates a remote Client from a provider.Config.
func newFromProviderConfig(cfg provider.Config) (provider.Backend, error) {
	return NewClient(Config{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		Model:         cfg.Model,
		MaxRetries:    cfg.MaxRetries,
		Timeout:       cfg.Timeout,
		RetryInterval: cfg.GetDurationOption("retry_interval", 0),
		MaxInterval:   cfg.GetDurationOption("max_interval", 0),
		Logger:        cfg.Logger,
	})
}

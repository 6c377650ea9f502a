package local

import (
	"github.com/randalmurphal/dialogkit/provider"
)

func init() {
	provider.Register("local", fromProviderConfig)
}

// fromProviderConfig reads the sidecar settings from cfg.Options:
// "backend" (runtime), "sidecar_path", "python_path", "host", "device",
// "work_dir" and "startup_timeout". cfg.Timeout bounds each request.
func fromProviderConfig(cfg provider.Config) (provider.Backend, error) {
	if cfg.Provider == "" {
		cfg.Provider = "local"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return NewClientWithConfig(Config{
		Runtime:        Runtime(cfg.GetStringOption("backend", "")),
		SidecarPath:    cfg.GetStringOption("sidecar_path", ""),
		PythonPath:     cfg.GetStringOption("python_path", ""),
		Model:          cfg.Model,
		Device:         cfg.GetStringOption("device", ""),
		Host:           cfg.GetStringOption("host", ""),
		WorkDir:        cfg.GetStringOption("work_dir", ""),
		StartupTimeout: cfg.GetDurationOption("startup_timeout", 0),
		RequestTimeout: cfg.Timeout,
	}, WithLogger(cfg.Logger)), nil
}

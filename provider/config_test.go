package provider

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.MaxRetries)
	}
	if cfg.Timeout != 5*time.Minute {
		t.Errorf("expected Timeout=5m, got %v", cfg.Timeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid config", cfg: Config{Provider: "remote"}},
		{name: "missing provider", cfg: Config{}, wantErr: true},
		{name: "negative retries", cfg: Config{Provider: "remote", MaxRetries: -1}, wantErr: true},
		{name: "negative timeout", cfg: Config{Provider: "local", Timeout: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Options(t *testing.T) {
	base := Config{Provider: "local"}
	cfg := base.WithOption("sidecar_path", "/opt/sidecar.py").
		WithOption("startup_timeout", "45s")

	if base.Options != nil {
		t.Error("WithOption must not modify the original config")
	}
	if got := cfg.GetStringOption("sidecar_path", ""); got != "/opt/sidecar.py" {
		t.Errorf("GetStringOption = %q", got)
	}
	if got := cfg.GetStringOption("missing", "fallback"); got != "fallback" {
		t.Errorf("GetStringOption default = %q", got)
	}
	if got := cfg.GetDurationOption("startup_timeout", 0); got != 45*time.Second {
		t.Errorf("GetDurationOption = %v", got)
	}
	if got := cfg.GetDurationOption("sidecar_path", time.Second); got != time.Second {
		t.Errorf("GetDurationOption on bad value = %v", got)
	}
}

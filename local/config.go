package local

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"
)

// Runtime selects how the sidecar runs the model.
type Runtime string

const (
	// RuntimeTransformers loads the model in-process with HuggingFace
	// transformers.
	RuntimeTransformers Runtime = "transformers"

	// RuntimeVLLM forwards generation to a vLLM server at Host.
	RuntimeVLLM Runtime = "vllm"
)

// Config describes the sidecar process and the model it serves.
type Config struct {
	Runtime     Runtime
	SidecarPath string // Python script implementing load/generate/shutdown
	PythonPath  string
	Model       string // e.g. "distilgpt2", "EleutherAI/gpt-j-6B"
	Device      string // "cpu" or "cuda"; empty lets the sidecar decide
	Host        string // vLLM server address
	WorkDir     string
	Env         map[string]string

	// StartupTimeout bounds model loading. Large checkpoints on CPU take
	// minutes.
	StartupTimeout time.Duration

	// RequestTimeout bounds one generate call. Zero means no limit beyond
	// the caller's context.
	RequestTimeout time.Duration
}

// DefaultConfig returns the transformers runtime with python3. SidecarPath
// and Model must still be set.
func DefaultConfig() Config {
	return Config{
		Runtime:        RuntimeTransformers,
		PythonPath:     "python3",
		StartupTimeout: 2 * time.Minute,
		RequestTimeout: 5 * time.Minute,
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Runtime == "" {
		c.Runtime = d.Runtime
	}
	if c.PythonPath == "" {
		c.PythonPath = d.PythonPath
	}
	if c.StartupTimeout == 0 {
		c.StartupTimeout = d.StartupTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.Runtime == RuntimeVLLM && c.Host == "" {
		c.Host = "localhost:8000"
	}
	return c
}

// Validate reports the first missing or invalid field.
func (c Config) Validate() error {
	switch c.Runtime {
	case RuntimeTransformers, RuntimeVLLM:
	case "":
		return errors.New("runtime is required")
	default:
		return fmt.Errorf("unknown runtime %q (want %s or %s)", c.Runtime, RuntimeTransformers, RuntimeVLLM)
	}
	switch {
	case c.SidecarPath == "":
		return errors.New("sidecar_path is required")
	case c.Model == "":
		return errors.New("model is required")
	case c.StartupTimeout < 0:
		return errors.New("startup_timeout must be >= 0")
	case c.RequestTimeout < 0:
		return errors.New("request_timeout must be >= 0")
	}
	return nil
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the model the sidecar loads.
func WithModel(model string) Option {
	return func(c *Client) { c.cfg.Model = model }
}

// WithSidecar sets the interpreter and script used to spawn the sidecar. An
// empty python keeps the current interpreter.
func WithSidecar(python, script string) Option {
	return func(c *Client) {
		if python != "" {
			c.cfg.PythonPath = python
		}
		c.cfg.SidecarPath = script
	}
}

// WithRuntime selects the sidecar runtime and, for vLLM, the server address.
func WithRuntime(rt Runtime, host string) Option {
	return func(c *Client) {
		c.cfg.Runtime = rt
		c.cfg.Host = host
	}
}

// WithDevice sets the device the model is loaded on.
func WithDevice(device string) Option {
	return func(c *Client) { c.cfg.Device = device }
}

// WithTimeouts sets the startup and per-request timeouts. Zero keeps the
// current value.
func WithTimeouts(startup, request time.Duration) Option {
	return func(c *Client) {
		if startup != 0 {
			c.cfg.StartupTimeout = startup
		}
		if request != 0 {
			c.cfg.RequestTimeout = request
		}
	}
}

// WithEnv adds environment variables to the sidecar process.
func WithEnv(env map[string]string) Option {
	return func(c *Client) {
		if c.cfg.Env == nil {
			c.cfg.Env = make(map[string]string, len(env))
		}
		maps.Copy(c.cfg.Env, env)
	}
}

// WithLogger sets the logger for sidecar lifecycle and stderr output. Nil
// keeps the current one.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

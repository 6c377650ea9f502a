package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/dialogkit/model"
	"github.com/randalmurphal/dialogkit/provider"
)

// ErrorPolicy decides what a run does when the backend is unavailable.
type ErrorPolicy string

// Error policies.
const (
	// OnErrorSkip logs the element and continues with the next one.
	OnErrorSkip ErrorPolicy = "skip"

	// OnErrorAbort stops the run and returns the error.
	OnErrorAbort ErrorPolicy = "abort"
)

// Config holds the settings of a prompting run.
type Config struct {
	// Model is the model family: gpt, gpt-2, gpt-j, ada or davinci.
	Model string `json:"model" yaml:"model" toml:"model" jsonschema:"enum=gpt,enum=gpt-2,enum=gpt-j,enum=ada,enum=davinci"`

	// SubType selects the remote generation profile. Ignored for local models.
	SubType string `json:"sub_type,omitempty" yaml:"sub_type,omitempty" toml:"sub_type,omitempty" jsonschema:"enum=completion,enum=conversation"`

	// TemplatePath is the prompt template file.
	TemplatePath string `json:"template_path" yaml:"template_path" toml:"template_path"`

	// SourcePath is the dialogue source JSON file.
	SourcePath string `json:"source_path" yaml:"source_path" toml:"source_path"`

	// ExamplesPath is the example bank JSON file. Required when the template
	// has example slots.
	ExamplesPath string `json:"examples_path,omitempty" yaml:"examples_path,omitempty" toml:"examples_path,omitempty"`

	// OutputDir receives responses<suffix>.jsonl and seeker_only<suffix>.jsonl.
	OutputDir string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`

	// StartIndex is the number of prompts to skip before generating.
	StartIndex int `json:"start_index" yaml:"start_index" toml:"start_index" jsonschema:"minimum=0"`

	// SampleNumber limits how many prompts are generated. 0 runs to exhaustion.
	SampleNumber int `json:"sample_number" yaml:"sample_number" toml:"sample_number" jsonschema:"minimum=0"`

	// ResponseSuffix is appended to output file names.
	ResponseSuffix string `json:"response_suffix,omitempty" yaml:"response_suffix,omitempty" toml:"response_suffix,omitempty"`

	// Flattened selects flattened-dialogue mode.
	Flattened bool `json:"flattened" yaml:"flattened" toml:"flattened"`

	// RecordSkipped also writes seeker turns passed over by StartIndex.
	RecordSkipped bool `json:"record_skipped" yaml:"record_skipped" toml:"record_skipped"`

	// OnError is the policy for an unavailable backend.
	OnError ErrorPolicy `json:"on_error" yaml:"on_error" toml:"on_error" jsonschema:"enum=skip,enum=abort"`

	// LogDir receives the dated log file. Empty logs to stderr only.
	LogDir string `json:"log_dir,omitempty" yaml:"log_dir,omitempty" toml:"log_dir,omitempty"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" toml:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`

	// Seed makes example selection reproducible. 0 picks a random seed.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty" toml:"seed,omitempty"`

	// Local configures the sidecar backend.
	Local LocalConfig `json:"local" yaml:"local" toml:"local"`

	// Remote configures the completion API backend.
	Remote RemoteConfig `json:"remote" yaml:"remote" toml:"remote"`
}

// LocalConfig configures the sidecar backend.
type LocalConfig struct {
	SidecarPath    string   `json:"sidecar_path,omitempty" yaml:"sidecar_path,omitempty" toml:"sidecar_path,omitempty"`
	PythonPath     string   `json:"python_path,omitempty" yaml:"python_path,omitempty" toml:"python_path,omitempty"`
	Backend        string   `json:"backend,omitempty" yaml:"backend,omitempty" toml:"backend,omitempty" jsonschema:"enum=transformers,enum=vllm"`
	Host           string   `json:"host,omitempty" yaml:"host,omitempty" toml:"host,omitempty"`
	Device         string   `json:"device,omitempty" yaml:"device,omitempty" toml:"device,omitempty"`
	StartupTimeout Duration `json:"startup_timeout,omitempty" yaml:"startup_timeout,omitempty" toml:"startup_timeout,omitempty"`
	RequestTimeout Duration `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty" toml:"request_timeout,omitempty"`
}

// RemoteConfig configures the completion API backend.
type RemoteConfig struct {
	APIKey        string   `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	BaseURL       string   `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	Model         string   `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	MaxRetries    int      `json:"max_retries,omitempty" yaml:"max_retries,omitempty" toml:"max_retries,omitempty" jsonschema:"minimum=0"`
	Timeout       Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	RetryInterval Duration `json:"retry_interval,omitempty" yaml:"retry_interval,omitempty" toml:"retry_interval,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
// TemplatePath and SourcePath must still be set.
func DefaultConfig() Config {
	return Config{
		Model:     string(model.FamilyGPT2),
		OutputDir: "data",
		OnError:   OnErrorSkip,
		LogLevel:  "info",
		Remote: RemoteConfig{
			MaxRetries: 3,
			Timeout:    Duration(time.Minute),
		},
	}
}

// WithDefaults returns a copy of the config with defaults applied for unset fields.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.OnError == "" {
		c.OnError = d.OnError
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Remote.MaxRetries == 0 {
		c.Remote.MaxRetries = d.Remote.MaxRetries
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = d.Remote.Timeout
	}
	return c
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.Kind(); err != nil {
		return err
	}
	if c.TemplatePath == "" {
		return fmt.Errorf("template_path is required")
	}
	if c.SourcePath == "" {
		return fmt.Errorf("source_path is required")
	}
	if c.StartIndex < 0 {
		return fmt.Errorf("start_index must be >= 0, got %d", c.StartIndex)
	}
	if c.SampleNumber < 0 {
		return fmt.Errorf("sample_number must be >= 0, got %d", c.SampleNumber)
	}
	switch c.OnError {
	case OnErrorSkip, OnErrorAbort:
	default:
		return fmt.Errorf("on_error must be %q or %q, got %q", OnErrorSkip, OnErrorAbort, c.OnError)
	}
	if c.Remote.MaxRetries < 0 {
		return fmt.Errorf("remote.max_retries must be >= 0, got %d", c.Remote.MaxRetries)
	}
	return nil
}

// Kind resolves the configured model family and sub-type.
func (c *Config) Kind() (model.Kind, error) {
	return model.Resolve(c.Model, c.SubType)
}

// ResponsesPath returns the path of the response log.
func (c *Config) ResponsesPath() string {
	return filepath.Join(c.OutputDir, "responses"+c.ResponseSuffix+".jsonl")
}

// SeekerPath returns the path of the seeker-utterance log.
func (c *Config) SeekerPath() string {
	return filepath.Join(c.OutputDir, "seeker_only"+c.ResponseSuffix+".jsonl")
}

// ProviderConfig builds the backend configuration for kind.
func (c *Config) ProviderConfig(kind model.Kind) provider.Config {
	pc := provider.DefaultConfig()
	pc.Provider = model.ProviderName(kind)
	pc.Model = kind.Generation().Model

	switch kind.(type) {
	case model.Remote:
		if c.Remote.Model != "" {
			pc.Model = c.Remote.Model
		}
		pc.APIKey = c.Remote.APIKey
		pc.BaseURL = c.Remote.BaseURL
		pc.MaxRetries = c.Remote.MaxRetries
		pc.Timeout = c.Remote.Timeout.Std()
		if c.Remote.RetryInterval > 0 {
			pc = pc.WithOption("retry_interval", c.Remote.RetryInterval.String())
		}
	default:
		pc.Timeout = 0
		if c.Local.RequestTimeout > 0 {
			pc.Timeout = c.Local.RequestTimeout.Std()
		}
		for key, value := range map[string]string{
			"sidecar_path": c.Local.SidecarPath,
			"python_path":  c.Local.PythonPath,
			"backend":      c.Local.Backend,
			"host":         c.Local.Host,
			"device":       c.Local.Device,
		} {
			if value != "" {
				pc = pc.WithOption(key, value)
			}
		}
		if c.Local.StartupTimeout > 0 {
			pc = pc.WithOption("startup_timeout", c.Local.StartupTimeout.String())
		}
	}
	return pc
}

// LoadFromEnv populates config fields from environment variables.
// Environment variables use the DIALOGKIT_ prefix and take precedence over
// existing values. Unparsable numbers and booleans are ignored.
//
// Supported variables:
//   - DIALOGKIT_MODEL, DIALOGKIT_SUB_TYPE
//   - DIALOGKIT_TEMPLATE_PATH, DIALOGKIT_SOURCE_PATH, DIALOGKIT_EXAMPLES_PATH
//   - DIALOGKIT_OUTPUT_DIR, DIALOGKIT_RESPONSE_SUFFIX
//   - DIALOGKIT_START_INDEX, DIALOGKIT_SAMPLE_NUMBER, DIALOGKIT_SEED
//   - DIALOGKIT_FLATTENED, DIALOGKIT_RECORD_SKIPPED, DIALOGKIT_ON_ERROR
//   - DIALOGKIT_LOG_DIR, DIALOGKIT_LOG_LEVEL
//   - DIALOGKIT_SIDECAR_PATH, DIALOGKIT_PYTHON_PATH, DIALOGKIT_DEVICE
//   - DIALOGKIT_API_KEY (falls back to OPENAI_API_KEY), DIALOGKIT_BASE_URL,
//     DIALOGKIT_MAX_RETRIES
func (c *Config) LoadFromEnv() {
	setString(&c.Model, "DIALOGKIT_MODEL")
	setString(&c.SubType, "DIALOGKIT_SUB_TYPE")
	setString(&c.TemplatePath, "DIALOGKIT_TEMPLATE_PATH")
	setString(&c.SourcePath, "DIALOGKIT_SOURCE_PATH")
	setString(&c.ExamplesPath, "DIALOGKIT_EXAMPLES_PATH")
	setString(&c.OutputDir, "DIALOGKIT_OUTPUT_DIR")
	setString(&c.ResponseSuffix, "DIALOGKIT_RESPONSE_SUFFIX")
	setInt(&c.StartIndex, "DIALOGKIT_START_INDEX")
	setInt(&c.SampleNumber, "DIALOGKIT_SAMPLE_NUMBER")
	setBool(&c.Flattened, "DIALOGKIT_FLATTENED")
	setBool(&c.RecordSkipped, "DIALOGKIT_RECORD_SKIPPED")
	if v := os.Getenv("DIALOGKIT_ON_ERROR"); v != "" {
		c.OnError = ErrorPolicy(strings.ToLower(v))
	}
	setString(&c.LogDir, "DIALOGKIT_LOG_DIR")
	setString(&c.LogLevel, "DIALOGKIT_LOG_LEVEL")
	if v := os.Getenv("DIALOGKIT_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = n
		}
	}

	setString(&c.Local.SidecarPath, "DIALOGKIT_SIDECAR_PATH")
	setString(&c.Local.PythonPath, "DIALOGKIT_PYTHON_PATH")
	setString(&c.Local.Device, "DIALOGKIT_DEVICE")

	setString(&c.Remote.APIKey, "DIALOGKIT_API_KEY")
	if c.Remote.APIKey == "" {
		c.Remote.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	setString(&c.Remote.BaseURL, "DIALOGKIT_BASE_URL")
	setInt(&c.Remote.MaxRetries, "DIALOGKIT_MAX_RETRIES")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

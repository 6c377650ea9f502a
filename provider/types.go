package provider

import "time"

// Request configures a single generation call.
type Request struct {
	// Prompt is the full prompt text.
	Prompt string `json:"prompt"`

	// Model overrides the backend's configured model.
	Model string `json:"model,omitempty"`

	// MaxTokens limits the continuation length. For the local backend this
	// is the number of new tokens.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls sampling randomness.
	Temperature float64 `json:"temperature,omitempty"`

	// TopP is the nucleus sampling cutoff. Zero leaves the backend default.
	TopP float64 `json:"top_p,omitempty"`

	// FrequencyPenalty and PresencePenalty are passed to remote models only.
	FrequencyPenalty float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64 `json:"presence_penalty,omitempty"`

	// Stop lists sequences that end generation.
	Stop []string `json:"stop,omitempty"`
}

// Response is the output of a generation call.
type Response struct {
	// Text is the raw continuation. Local backends echo the prompt as its prefix.
	Text string `json:"text"`

	// Model is the model that produced the text.
	Model string `json:"model"`

	// FinishReason indicates why the model stopped generating.
	// Common values: "stop", "length".
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage tracks token consumption for this request.
	Usage TokenUsage `json:"usage"`

	// Duration is the time taken for the call, retries included.
	Duration time.Duration `json:"duration"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

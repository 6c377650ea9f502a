package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/randalmurphal/dialogkit/provider"
)

// errNoChoices is returned when the API answers without any completion.
var errNoChoices = errors.New("completion returned no choices")

type completer interface {
	New(ctx context.Context, params openai.CompletionNewParams, opts ...option.RequestOption) (*openai.Completion, error)
}

// Client implements provider.Backend for the hosted completion API.
type Client struct {
	cfg         Config
	completions completer
	logger      *slog.Logger
}

// NewClient creates a client for the completion API.
// Returns provider.ErrCredentialsNotFound when no API key is configured.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, provider.NewError("remote", "init", fmt.Errorf("%w: %w", provider.ErrInvalidRequest, err), false)
	}
	if cfg.APIKey == "" {
		return nil, provider.NewError("remote", "init", provider.ErrCredentialsNotFound, false)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		// Retries are driven by Generate.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)
	return newClient(cfg, &client.Completions), nil
}

func newClient(cfg Config, completions completer) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{cfg: cfg.WithDefaults(), completions: completions, logger: logger}
}

// Generate implements provider.Backend. The continuation is choices[0].text
// exactly as returned.
func (c *Client) Generate(ctx context.Context, req provider.Request) (*provider.Response, error) {
	params := c.buildParams(req)
	start := time.Now()

	attempt := 0
	completion, err := backoff.Retry(ctx, func() (*openai.Completion, error) {
		attempt++
		resp, err := c.completions.New(ctx, params)
		if err != nil {
			if !isRetryable(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, backoff.Permanent(errNoChoices)
		}
		return resp, nil
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(max(c.cfg.MaxRetries, 1))),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("completion attempt failed",
				slog.Int("attempt", attempt),
				slog.Duration("retry_in", next),
				slog.Any("error", err))
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, provider.NewError("remote", "generate", ctxErr, false)
		}
		return nil, provider.NewError("remote", "generate", fmt.Errorf("%w after %d attempt(s): %w", provider.ErrUnavailable, attempt, err), false)
	}

	choice := completion.Choices[0]
	return &provider.Response{
		Text:         choice.Text,
		Model:        completion.Model,
		FinishReason: string(choice.FinishReason),
		Duration:     time.Since(start),
		Usage: provider.TokenUsage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:  int(completion.Usage.TotalTokens),
		},
	}, nil
}

// Provider implements provider.Backend.
func (c *Client) Provider() string {
	return "remote"
}

// Close implements provider.Backend. The HTTP client holds no resources.
func (c *Client) Close() error {
	return nil
}

func (c *Client) buildParams(req provider.Request) openai.CompletionNewParams {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	params := openai.CompletionNewParams{
		Model:  openai.CompletionNewParamsModel(model),
		Prompt: openai.CompletionNewParamsPromptUnion{OfString: openai.String(req.Prompt)},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	params.Temperature = openai.Float(req.Temperature)
	if req.TopP > 0 {
		params.TopP = openai.Float(req.TopP)
	}
	if req.FrequencyPenalty != 0 {
		params.FrequencyPenalty = openai.Float(req.FrequencyPenalty)
	}
	if req.PresencePenalty != 0 {
		params.PresencePenalty = openai.Float(req.PresencePenalty)
	}
	if len(req.Stop) > 0 {
		params.Stop = openai.CompletionNewParamsStopUnion{OfStringArray: req.Stop}
	}
	return params
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval
	b.MaxInterval = c.cfg.MaxInterval
	return b
}

// isRetryable reports whether a completion error is transient.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusBadRequest:
			return false
		}
		return true
	}
	// Network failures and unclassified errors are treated as transient.
	return true
}

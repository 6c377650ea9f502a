package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/randalmurphal/dialogkit/provider"
)

// caller issues one RPC. *Conn satisfies it.
type caller interface {
	Call(method string, params, result any) error
}

// Client implements provider.Backend for a model hosted by a Python sidecar.
// The sidecar is spawned on the first Generate and respawned if it dies.
// Lifecycle events are discarded unless WithLogger is given.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	proc *process
	rpc  caller // fixed connection, bypasses spawning
}

// NewClient creates a client from DefaultConfig and opts.
func NewClient(opts ...Option) *Client {
	c := &Client{cfg: DefaultConfig(), logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientWithConfig creates a client from cfg with defaults applied.
func NewClientWithConfig(cfg Config, opts ...Option) *Client {
	c := &Client{cfg: cfg.WithDefaults(), logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate samples a continuation of req.Prompt. The returned text starts
// with the prompt.
func (c *Client) Generate(ctx context.Context, req provider.Request) (*provider.Response, error) {
	rpc, err := c.connect(ctx)
	if err != nil {
		return nil, provider.NewError("local", "generate", err, false)
	}

	params := GenerateParams{
		Prompt:       req.Prompt,
		Model:        req.Model,
		MaxNewTokens: req.MaxTokens,
		Temperature:  req.Temperature,
		TopP:         req.TopP,
		Stop:         req.Stop,
	}
	if params.Model == "" {
		params.Model = c.cfg.Model
	}

	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	var res GenerateResult
	if err := call(ctx, rpc, methodGenerate, params, &res); err != nil {
		return nil, classify(err)
	}

	return &provider.Response{
		Text:         res.Text,
		Model:        res.Model,
		FinishReason: res.FinishReason,
		Duration:     time.Since(start),
		Usage: provider.TokenUsage{
			InputTokens:  res.Usage.InputTokens,
			OutputTokens: res.Usage.OutputTokens,
			TotalTokens:  res.Usage.InputTokens + res.Usage.OutputTokens,
		},
	}, nil
}

// Provider returns "local".
func (c *Client) Provider() string {
	return "local"
}

// Close stops the sidecar if one is running.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proc == nil {
		return nil
	}
	err := c.proc.stop()
	c.proc = nil
	return err
}

func (c *Client) connect(ctx context.Context) (caller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rpc != nil {
		return c.rpc, nil
	}
	if c.proc != nil {
		if c.proc.alive() {
			return c.proc.conn, nil
		}
		c.logger.Warn("sidecar exited, respawning", slog.Any("error", c.proc.waitErr))
		c.proc = nil
	}

	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	proc, err := spawn(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	c.proc = proc
	return proc.conn, nil
}

// call runs rpc.Call on its own goroutine so ctx bounds the wait. An
// abandoned call keeps the connection busy until the sidecar answers it.
func call(ctx context.Context, rpc caller, method string, params, result any) error {
	done := make(chan error, 1)
	go func() { done <- rpc.Call(method, params, result) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// classify maps a failed generate call to a *provider.Error. Sequence
// overflow and decode failures wrap provider.ErrGenerationOverflow; timeouts
// and connection failures are retryable.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return provider.NewError("local", "generate", err, true)
	}
	if errors.Is(err, context.Canceled) {
		return provider.NewError("local", "generate", err, false)
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case CodeSequenceOverflow, CodeDecodeError:
			err = fmt.Errorf("%w: %w", provider.ErrGenerationOverflow, err)
		case CodeConnectionError:
			return provider.NewError("local", "generate", fmt.Errorf("%w: %w", provider.ErrUnavailable, err), true)
		}
	}
	return provider.NewError("local", "generate", err, false)
}

package remote

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/dialogkit/provider"
)

type fakeCompletions struct {
	calls    int
	failures int
	err      error
	result   *openai.Completion
	params   openai.CompletionNewParams
}

func (f *fakeCompletions) New(ctx context.Context, params openai.CompletionNewParams, opts ...option.RequestOption) (*openai.Completion, error) {
	f.calls++
	f.params = params
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.result, nil
}

func fastConfig(retries int) Config {
	return Config{
		APIKey:        "sk-test",
		MaxRetries:    retries,
		RetryInterval: time.Millisecond,
		MaxInterval:   2 * time.Millisecond,
	}
}

func completion(text string) *openai.Completion {
	return &openai.Completion{
		Model: "text-davinci-001",
		Choices: []openai.CompletionChoice{
			{Text: text, FinishReason: openai.CompletionChoiceFinishReasonStop},
		},
		Usage: openai.CompletionUsage{PromptTokens: 40, CompletionTokens: 3, TotalTokens: 43},
	}
}

func TestClient_Generate(t *testing.T) {
	fake := &fakeCompletions{result: completion(" feels anxious about work\n")}
	client := newClient(fastConfig(3), fake)

	resp, err := client.Generate(context.Background(), provider.Request{
		Prompt:           "seeker: I feel sad\nIn this conversation, the seeker",
		Model:            "text-davinci-001",
		MaxTokens:        60,
		Temperature:      0.5,
		TopP:             1,
		FrequencyPenalty: 0.5,
		Stop:             []string{"\n", "seeker:"},
	})
	require.NoError(t, err)

	assert.Equal(t, " feels anxious about work\n", resp.Text, "text is returned verbatim")
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 43, resp.Usage.TotalTokens)
	assert.Equal(t, 1, fake.calls)

	assert.Equal(t, openai.CompletionNewParamsModel("text-davinci-001"), fake.params.Model)
	assert.Equal(t, int64(60), fake.params.MaxTokens.Value)
	assert.Equal(t, 0.5, fake.params.FrequencyPenalty.Value)
	assert.Equal(t, []string{"\n", "seeker:"}, fake.params.Stop.OfStringArray)
	assert.Equal(t, "seeker: I feel sad\nIn this conversation, the seeker", fake.params.Prompt.OfString.Value)
}

func TestClient_Generate_DefaultModel(t *testing.T) {
	fake := &fakeCompletions{result: completion("hello")}
	client := newClient(fastConfig(1), fake)

	_, err := client.Generate(context.Background(), provider.Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, openai.CompletionNewParamsModel(DefaultModel), fake.params.Model)
}

func TestClient_Generate_RetryThenSuccess(t *testing.T) {
	fake := &fakeCompletions{
		failures: 2,
		err:      errors.New("connection reset by peer"),
		result:   completion("feels better"),
	}
	client := newClient(fastConfig(3), fake)

	resp, err := client.Generate(context.Background(), provider.Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "feels better", resp.Text)
	assert.Equal(t, 3, fake.calls)
}

func TestClient_Generate_RetryExhausted(t *testing.T) {
	fake := &fakeCompletions{
		failures: 10,
		err:      errors.New("503 service unavailable"),
	}
	client := newClient(fastConfig(3), fake)

	_, err := client.Generate(context.Background(), provider.Request{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrUnavailable)
	assert.Equal(t, 3, fake.calls)

	var provErr *provider.Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "remote", provErr.Provider)
	assert.Equal(t, "generate", provErr.Op)
}

func TestClient_Generate_NoChoices(t *testing.T) {
	fake := &fakeCompletions{result: &openai.Completion{}}
	client := newClient(fastConfig(3), fake)

	_, err := client.Generate(context.Background(), provider.Request{Prompt: "p"})
	assert.ErrorIs(t, err, provider.ErrUnavailable)
	assert.Equal(t, 1, fake.calls, "empty choices are not retried")
}

func TestClient_Generate_Canceled(t *testing.T) {
	fake := &fakeCompletions{failures: 10, err: context.Canceled}
	client := newClient(fastConfig(3), fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, provider.Request{Prompt: "p"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, provider.ErrUnavailable)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network error", errors.New("dial tcp: connection refused"), true},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"unauthorized", &openai.Error{StatusCode: 401}, false},
		{"bad request", &openai.Error{StatusCode: 400}, false},
		{"rate limited", &openai.Error{StatusCode: 429}, true},
		{"server error", &openai.Error{StatusCode: 500}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, provider.ErrCredentialsNotFound)

	_, err = NewClient(Config{APIKey: "sk-test", MaxRetries: -1})
	assert.ErrorIs(t, err, provider.ErrInvalidRequest)

	client, err := NewClient(Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/v1"})
	require.NoError(t, err)
	assert.Equal(t, "remote", client.Provider())
	assert.Equal(t, DefaultModel, client.cfg.Model)
	assert.Equal(t, DefaultMaxRetries, client.cfg.MaxRetries)
	assert.NoError(t, client.Close())
}

func TestFactory(t *testing.T) {
	assert.True(t, provider.IsRegistered("remote"))

	backend, err := provider.New("remote", provider.Config{
		Model:      "ada",
		APIKey:     "sk-test",
		MaxRetries: 5,
		Options:    map[string]any{"retry_interval": "50ms"},
	})
	require.NoError(t, err)

	client, ok := backend.(*Client)
	require.True(t, ok)
	assert.Equal(t, "ada", client.cfg.Model)
	assert.Equal(t, 5, client.cfg.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, client.cfg.RetryInterval)
}

func TestClient_Generate_RetriesLogged(t *testing.T) {
	var logs bytes.Buffer
	cfg := fastConfig(3)
	cfg.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fake := &fakeCompletions{
		failures: 1,
		err:      errors.New("connection reset by peer"),
		result:   completion("ok"),
	}

	_, err := newClient(cfg, fake).Generate(context.Background(), provider.Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "completion attempt failed")
	assert.Contains(t, logs.String(), "connection reset by peer")
}

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/dialogkit/jsonl"
	"github.com/randalmurphal/dialogkit/model"
	"github.com/randalmurphal/dialogkit/parser"
	"github.com/randalmurphal/dialogkit/prompt"
	"github.com/randalmurphal/dialogkit/provider"
	"github.com/randalmurphal/dialogkit/template"
	"github.com/randalmurphal/dialogkit/tokens"
	"github.com/randalmurphal/dialogkit/truncate"
)

// Placeholder is recorded when local generation overflows.
const Placeholder = "<padding> <padding> <padding> <padding> <padding>"

// previewLen bounds prompt and reply text in log records.
const previewLen = 120

// ErrNoBackend is returned by New when the context carries no backend.
var ErrNoBackend = errors.New("dispatch: backend is required")

// PipelineContext carries the collaborators shared by a pipeline run.
type PipelineContext struct {
	// Logger receives per-element records. Nil discards them.
	Logger *slog.Logger

	// Backend generates continuations.
	Backend provider.Backend

	// Counter measures prompts. Nil selects a BPE counter for the model's
	// encoding.
	Counter tokens.Counter
}

// Result describes one dispatched prompt.
type Result struct {
	// Index is the prompt's position in the sequence.
	Index int

	// Prompt is the text actually sent, after any re-windowing.
	Prompt string

	// Reply is the normalized text that was recorded.
	Reply string

	// Trimmed reports whether the dialogue was re-windowed.
	Trimmed bool

	// Overflow reports whether Reply is the overflow placeholder.
	Overflow bool

	// Duration is the backend call time.
	Duration time.Duration
}

// Dispatcher budgets, generates and records replies for one model and template.
// It is not safe for concurrent use.
type Dispatcher struct {
	logger     *slog.Logger
	backend    provider.Backend
	counter    tokens.Counter
	kind       model.Kind
	tmpl       *template.Template
	budget     tokens.Budget
	windower   *truncate.Windower
	normalizer *parser.Normalizer
	out        prompt.Appender
	usage      *model.UsageTracker
	single     bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWindower replaces the default windower.
func WithWindower(w *truncate.Windower) Option {
	return func(d *Dispatcher) { d.windower = w }
}

// WithUsage records the token usage reported by the backend.
func WithUsage(u *model.UsageTracker) Option {
	return func(d *Dispatcher) { d.usage = u }
}

// WithSingleUtterance makes the default windower keep only the last two
// dialogue lines. Ignored when WithWindower is also given.
func WithSingleUtterance() Option {
	return func(d *Dispatcher) { d.single = true }
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *parser.Normalizer) Option {
	return func(d *Dispatcher) { d.normalizer = n }
}

// WithOutput records every reply as a jsonl.Response.
func WithOutput(out prompt.Appender) Option {
	return func(d *Dispatcher) { d.out = out }
}

// New creates a dispatcher. tmpl must already have its example slots filled;
// its token length fixes the budget for the whole run.
func New(pc PipelineContext, kind model.Kind, tmpl *template.Template, opts ...Option) (*Dispatcher, error) {
	if pc.Backend == nil {
		return nil, ErrNoBackend
	}

	d := &Dispatcher{
		logger:  pc.Logger,
		backend: pc.Backend,
		counter: pc.Counter,
		kind:    kind,
		tmpl:    tmpl,
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	if d.counter == nil {
		bpe, err := tokens.NewBPECounter(kind.Encoding())
		if err != nil {
			d.logger.Warn("falling back to estimated token counts",
				slog.String("encoding", string(kind.Encoding())),
				slog.Any("error", err))
			d.counter = tokens.NewEstimatingCounter()
		} else {
			d.counter = bpe
		}
	}

	for _, opt := range opts {
		opt(d)
	}
	if d.windower == nil {
		var wopts []truncate.WindowerOption
		if d.single {
			wopts = append(wopts, truncate.WithSingleUtterance())
		}
		d.windower = truncate.NewWindower(d.counter, wopts...)
	}
	if d.normalizer == nil {
		d.normalizer = parser.NewNormalizer()
	}

	d.budget = kind.Limits().Budget(d.counter.Count(tmpl.Text()))
	if d.budget.Allowed() <= 0 {
		return nil, fmt.Errorf("dispatch: template of %d tokens leaves no room for dialogue in %s (context %d, reserved %d)",
			d.budget.Template, kind, d.budget.MaxInput, d.budget.Reserved)
	}
	return d, nil
}

// Budget returns the token budget derived from the model and template.
func (d *Dispatcher) Budget() tokens.Budget {
	return d.budget
}

// Fit returns the prompt text to send. When the rendered prompt carries more
// dialogue than the budget allows, or the windower is in single-utterance
// mode, the dialogue is re-windowed and the template rendered again.
func (d *Dispatcher) Fit(p prompt.Prompt) (string, bool) {
	if !d.windower.Single() && !d.budget.Exceeds(d.counter.Count(p.Text)) {
		return p.Text, false
	}

	if p.Dialog == "" {
		// Only the rendered text is known; isolate the span between the
		// template's markers.
		return d.tmpl.Render(d.windower.TrimPrompt(p.Text, d.budget.Allowed())), true
	}
	return d.tmpl.Render(d.windower.Trim(p.Dialog, d.budget.Allowed())), true
}

// Dispatch generates, normalizes and records the reply for p.
//
// Local generation overflow yields Placeholder. Any other backend failure is
// returned unrecorded.
func (d *Dispatcher) Dispatch(ctx context.Context, p prompt.Prompt) (Result, error) {
	text, trimmed := d.Fit(p)
	res := Result{Index: p.Index, Prompt: text, Trimmed: trimmed}

	if trimmed {
		d.logger.Debug("prompt re-windowed",
			slog.Int("index", p.Index),
			slog.Int("allowed", d.budget.Allowed()),
			slog.Int("tokens", d.counter.Count(text)))
	}

	gen := d.kind.Generation()
	resp, err := d.backend.Generate(ctx, provider.Request{
		Prompt:           text,
		Model:            gen.Model,
		MaxTokens:        gen.MaxTokens,
		Temperature:      gen.Temperature,
		TopP:             gen.TopP,
		FrequencyPenalty: gen.FrequencyPenalty,
		PresencePenalty:  gen.PresencePenalty,
		Stop:             gen.Stop,
	})
	switch {
	case err == nil:
		res.Reply = d.normalizer.Normalize(resp.Text, text, d.kind)
		res.Duration = resp.Duration
		if d.usage != nil {
			name := resp.Model
			if name == "" {
				name = gen.Model
			}
			d.usage.Record(name, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}
	case provider.IsOverflow(err):
		d.logger.Warn("generation overflow, recording placeholder",
			slog.Int("index", p.Index),
			slog.Any("error", err))
		res.Reply = Placeholder
		res.Overflow = true
	default:
		return res, err
	}

	if d.out != nil {
		if err := d.out.Append(jsonl.Response{Response: res.Reply}); err != nil {
			return res, fmt.Errorf("record response %d: %w", p.Index, err)
		}
	}

	d.logger.Info("generated",
		slog.Int("index", p.Index),
		slog.String("model", d.kind.String()),
		slog.String("prompt", truncate.Preview(text, previewLen)),
		slog.String("response", res.Reply),
		slog.Bool("trimmed", trimmed),
		slog.Duration("duration", res.Duration))

	return res, nil
}

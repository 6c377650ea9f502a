package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/randalmurphal/dialogkit/config"
	"github.com/randalmurphal/dialogkit/dialogue"
	"github.com/randalmurphal/dialogkit/dispatch"
	"github.com/randalmurphal/dialogkit/jsonl"
	"github.com/randalmurphal/dialogkit/model"
	"github.com/randalmurphal/dialogkit/prompt"
	"github.com/randalmurphal/dialogkit/provider"
	"github.com/randalmurphal/dialogkit/template"
	"github.com/randalmurphal/dialogkit/truncate"
)

// previewLen bounds prompt previews in skip records.
const previewLen = 120

// ErrFlattenedSource is returned when a flattened source is loaded without
// flattened mode.
var ErrFlattenedSource = errors.New("source is flattened; enable flattened mode")

// ErrNoExamples is returned when the template has example slots but no
// example bank is configured.
var ErrNoExamples = errors.New("template has example slots but examples_path is empty")

// Stats summarizes a run.
type Stats struct {
	Skipped    int `json:"skipped"`
	Generated  int `json:"generated"`
	Overflowed int `json:"overflowed"`
	Failed     int `json:"failed"`
}

// Dispatched returns the number of elements sent to the backend.
func (s Stats) Dispatched() int {
	return s.Generated + s.Overflowed + s.Failed
}

// ElementError reports the element at which a run was aborted. Restarting
// with start_index set to Index resumes the run.
type ElementError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *ElementError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *ElementError) Unwrap() error {
	return e.Err
}

// Runner owns the state of one prompting run. It is not safe for concurrent use.
type Runner struct {
	cfg    config.Config
	logger *slog.Logger

	backend     provider.Backend
	ownsBackend bool
	responses   *jsonl.Writer
	seekers     *jsonl.Writer
	assembler   *prompt.Assembler
	dispatcher  *dispatch.Dispatcher
	usage       *model.UsageTracker
}

// Open prepares a run from cfg. When pc carries no backend one is created
// from the registry and closed by Close.
//
// Output logs are truncated for a fresh run and appended to when StartIndex
// is positive, so a resumed run keeps earlier records.
func Open(cfg config.Config, pc dispatch.PipelineContext) (_ *Runner, err error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if pc.Logger == nil {
		pc.Logger = slog.New(slog.DiscardHandler)
	}

	kind, err := cfg.Kind()
	if err != nil {
		return nil, err
	}

	r := &Runner{cfg: cfg, logger: pc.Logger, usage: model.NewUsageTracker()}
	defer func() {
		if err != nil {
			r.Close()
		}
	}()

	tmpl, err := LoadTemplate(cfg, pc.Logger)
	if err != nil {
		return nil, err
	}
	src, err := LoadSource(cfg, pc.Logger)
	if err != nil {
		return nil, err
	}

	if pc.Backend == nil {
		if pc.Backend, err = NewBackend(cfg, kind, pc.Logger); err != nil {
			return nil, err
		}
		r.ownsBackend = true
	}
	r.backend = pc.Backend

	open := jsonl.Create
	if cfg.StartIndex > 0 {
		open = jsonl.OpenAppend
	}
	if r.responses, err = open(cfg.ResponsesPath()); err != nil {
		return nil, err
	}
	if r.seekers, err = open(cfg.SeekerPath()); err != nil {
		return nil, err
	}

	r.assembler = prompt.NewAssembler(tmpl, src,
		prompt.WithSeekerLog(r.seekers),
		prompt.WithRecordSkipped(cfg.RecordSkipped))

	r.dispatcher, err = dispatch.New(pc, kind, tmpl, dispatch.WithOutput(r.responses), dispatch.WithUsage(r.usage))
	if err != nil {
		return nil, err
	}

	b := r.dispatcher.Budget()
	pc.Logger.Info("run prepared",
		slog.String("model", kind.String()),
		slog.String("backend", r.backend.Provider()),
		slog.String("template", cfg.TemplatePath),
		slog.String("source", cfg.SourcePath),
		slog.String("shape", src.Shape.String()),
		slog.Int("dialogues", src.Len()),
		slog.Int("template_tokens", b.Template),
		slog.Int("allowed", b.Allowed()))
	return r, nil
}

// Budget returns the token budget of the run.
func (r *Runner) Budget() int {
	return r.dispatcher.Budget().Allowed()
}

// Usage returns the token usage reported by the backend so far.
func (r *Runner) Usage() model.Usage {
	return r.usage.Total()
}

// Run walks the prompt sequence. Backend failures follow the configured
// error policy: skip logs the element and moves on, abort returns an
// *ElementError. Write failures and cancellation always stop the run.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	if r.cfg.StartIndex > 0 {
		n, err := r.assembler.Skip(r.cfg.StartIndex)
		stats.Skipped = n
		if errors.Is(err, prompt.ErrEndOfSequence) {
			r.logger.Warn("start index past end of sequence",
				slog.Int("start_index", r.cfg.StartIndex),
				slog.Int("elements", n))
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
	}

	for r.cfg.SampleNumber == 0 || stats.Dispatched() < r.cfg.SampleNumber {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		p, err := r.assembler.Next()
		if errors.Is(err, prompt.ErrEndOfSequence) {
			break
		}
		if err != nil {
			return stats, &ElementError{Index: p.Index, Err: err}
		}

		res, err := r.dispatcher.Dispatch(ctx, p)
		if err != nil {
			if ctx.Err() != nil || !isBackendFailure(err) || r.cfg.OnError == config.OnErrorAbort {
				return stats, &ElementError{Index: p.Index, Err: err}
			}
			r.logger.Warn("backend failed, skipping element",
				slog.Int("index", p.Index),
				slog.String("prompt", truncate.Preview(res.Prompt, previewLen)),
				slog.Any("error", err))
			stats.Failed++
			continue
		}

		if res.Overflow {
			stats.Overflowed++
		} else {
			stats.Generated++
		}
	}

	usage := r.usage.Total()
	r.logger.Info("run complete",
		slog.Int("skipped", stats.Skipped),
		slog.Int("generated", stats.Generated),
		slog.Int("overflowed", stats.Overflowed),
		slog.Int("failed", stats.Failed),
		slog.Int("input_tokens", usage.InputTokens),
		slog.Int("output_tokens", usage.OutputTokens),
		slog.Float64("estimated_cost", r.usage.EstimatedCost()),
		slog.String("responses", r.cfg.ResponsesPath()))
	return stats, nil
}

// Close closes the output logs and, when the runner created it, the backend.
func (r *Runner) Close() error {
	var errs []error
	for _, w := range []*jsonl.Writer{r.responses, r.seekers} {
		if w != nil {
			errs = append(errs, w.Close())
		}
	}
	if r.ownsBackend && r.backend != nil {
		errs = append(errs, r.backend.Close())
		r.ownsBackend = false
	}
	return errors.Join(errs...)
}

func isBackendFailure(err error) bool {
	var perr *provider.Error
	return errors.As(err, &perr)
}

// NewBackend creates the registered backend for kind. Backend diagnostics go
// to logger, tagged with the backend name; nil discards them.
func NewBackend(cfg config.Config, kind model.Kind, logger *slog.Logger) (provider.Backend, error) {
	name := model.ProviderName(kind)
	pc := cfg.ProviderConfig(kind)
	if logger != nil {
		pc.Logger = logger.With(slog.String("backend", name))
	}
	b, err := provider.New(name, pc)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", name, err)
	}
	return b, nil
}

// LoadTemplate loads the configured template and fills its example slots
// from the example bank. A zero Seed draws a random one, which is logged so
// the selection can be reproduced.
func LoadTemplate(cfg config.Config, logger *slog.Logger) (*template.Template, error) {
	tmpl, err := template.Load(cfg.TemplatePath)
	if err != nil {
		return nil, err
	}

	slots := tmpl.ExampleSlots()
	if slots == 0 {
		return tmpl, nil
	}
	if cfg.ExamplesPath == "" {
		return nil, ErrNoExamples
	}

	bank, err := dialogue.LoadExamples(cfg.ExamplesPath)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	picked, err := prompt.PickExamples(bank, slots, prompt.WithRand(rand.New(rand.NewPCG(seed, seed))))
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debug("examples picked",
			slog.Int("slots", slots),
			slog.Int("bank", len(bank)),
			slog.Uint64("seed", seed))
	}
	return tmpl.FillExamples(picked)
}

// LoadSource loads the configured dialogue source. In flattened mode an
// utterance-keyed source is flattened on load; a flattened source outside
// flattened mode is rejected with ErrFlattenedSource. Dialogues that fail
// validation are logged and kept.
func LoadSource(cfg config.Config, logger *slog.Logger) (*dialogue.Source, error) {
	src, err := dialogue.LoadSource(cfg.SourcePath)
	if err != nil {
		return nil, err
	}

	switch {
	case src.Shape == dialogue.ShapeFlattened && !cfg.Flattened:
		return nil, fmt.Errorf("%s: %w", cfg.SourcePath, ErrFlattenedSource)
	case src.Shape == dialogue.ShapeUtterances && cfg.Flattened:
		if logger != nil {
			validate(src.Dialogues, logger)
		}
		return &dialogue.Source{
			Shape:     dialogue.ShapeFlattened,
			Flattened: dialogue.FlattenAll(src.Dialogues),
		}, nil
	}

	if logger != nil {
		validate(src.Dialogues, logger)
	}
	return src, nil
}

func validate(ds []dialogue.Dialogue, logger *slog.Logger) {
	for i, d := range ds {
		if err := d.Validate(); err != nil {
			logger.Warn("dialogue failed validation",
				slog.Int("dialogue", i),
				slog.Any("error", err))
		}
	}
}

// Package dialogkit turns emotional-support dialogues into reasoning prompts
// and records one model reply per seeker turn.
//
// The pipeline is split into subpackages that can be used on their own:
//
//   - tokens: token counting and the prompt budget
//   - truncate: line-level dialogue windowing and preview helpers
//   - template: prompt templates with example slots and a dialogue slot
//   - dialogue: dialogue, utterance and example types, source loading
//   - prompt: the prompt cursor and example selection
//   - model: model families, backend kinds and their limits
//   - provider: the Backend interface, errors and registry
//   - local, remote: the sidecar and completion API backends
//   - parser: reply normalization
//   - dispatch: budgeting, generation and recording of one prompt
//   - pipeline: the run loop and single-turn inference
//   - config, logging, jsonl: run configuration, loggers and record files
//
// # Quick Start
//
// Windowing a dialogue into a budget:
//
//	import "github.com/randalmurphal/dialogkit/truncate"
//	w := truncate.NewWindower(tokens.NewEstimatingCounter())
//	history := w.Trim(dialog, 400)
//
// Running a configured pipeline:
//
//	import _ "github.com/randalmurphal/dialogkit/providers"
//	cfg, _ := config.Load("run.toml")
//	r, _ := pipeline.Open(*cfg, dispatch.PipelineContext{Logger: slog.Default()})
//	defer r.Close()
//	stats, err := r.Run(ctx)
package dialogkit

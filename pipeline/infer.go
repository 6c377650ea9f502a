package pipeline

import (
	"context"

	"github.com/randalmurphal/dialogkit/dispatch"
	"github.com/randalmurphal/dialogkit/model"
	"github.com/randalmurphal/dialogkit/parser"
	"github.com/randalmurphal/dialogkit/prompt"
	"github.com/randalmurphal/dialogkit/template"
)

// InferOptions tunes a single-turn inference.
type InferOptions struct {
	// Single keeps only the last two dialogue lines.
	Single bool

	// Splice prefixes remote replies with "The seeker " so they read as a
	// continuation of the seeker turn.
	Splice bool
}

// Infer renders dialog through tmpl and dispatches it once. Nothing is
// persisted; the reply is returned in the Result.
func Infer(ctx context.Context, pc dispatch.PipelineContext, kind model.Kind, tmpl *template.Template, dialog string, opts InferOptions) (dispatch.Result, error) {
	dopts := []dispatch.Option{
		dispatch.WithNormalizer(parser.NewNormalizer(parser.WithSplice(opts.Splice))),
	}
	if opts.Single {
		dopts = append(dopts, dispatch.WithSingleUtterance())
	}

	d, err := dispatch.New(pc, kind, tmpl, dopts...)
	if err != nil {
		return dispatch.Result{}, err
	}
	return d.Dispatch(ctx, prompt.Prompt{Text: tmpl.Render(dialog), Dialog: dialog})
}

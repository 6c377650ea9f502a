// Package pipeline drives a prompting run end to end.
//
// A Runner loads the template, picks examples, loads the dialogue source and
// opens the output logs described by a config.Config. Run then walks the
// prompt sequence, skipping StartIndex elements and stopping after
// SampleNumber dispatched elements or at the end of the sequence:
//
//	r, err := pipeline.Open(cfg, dispatch.PipelineContext{Logger: logger})
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	stats, err := r.Run(ctx)
//
// Infer renders and dispatches a single dialogue without persisting it.
package pipeline

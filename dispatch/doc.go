// Package dispatch sends assembled prompts to a generation backend.
//
// A Dispatcher owns the token budget for one model and template. For each
// prompt it checks the rendered length against the budget, re-windows the
// dialogue when it is too long, calls the backend with the model's sampling
// parameters, normalizes the reply and appends it to the response log.
//
//	d, err := dispatch.New(dispatch.PipelineContext{
//	    Logger:  logger,
//	    Backend: backend,
//	    Counter: counter,
//	}, kind, tmpl, dispatch.WithOutput(responses))
//
//	res, err := d.Dispatch(ctx, p)
//
// A local generation overflow never surfaces: the reply becomes Placeholder.
// Remote unavailability is returned to the caller, which decides whether to
// skip the element or stop.
package dispatch

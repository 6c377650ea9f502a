// Package model maps model families to the backend they run on and to their
// context budgets.
//
// A Kind is either Local (a model hosted by the generation sidecar) or Remote
// (a model behind the completion API). Callers switch on the concrete type
// instead of comparing model names:
//
//	kind, err := model.Resolve("gpt-j", "")
//	budget := kind.Limits().Budget(templateTokens)
//	switch k := kind.(type) {
//	case model.Local:
//	    ...
//	case model.Remote:
//	    ...
//	}
//
// # Families
//
//	family    backend  context  reserved
//	gpt       local    500      80
//	gpt-2     local    900      80
//	gpt-j     local    1000     80
//	ada       remote   2048     max tokens of the sub-type
//	davinci   remote   2048     max tokens of the sub-type
//
// # Usage
//
// A UsageTracker totals the tokens each backend reports per model name and
// estimates API cost for the remote families:
//
//	tracker := model.NewUsageTracker()
//	tracker.Record(resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
//	cost := tracker.EstimatedCost()
package model

// Package tokens provides token counting and prompt budgets.
//
// # Counter
//
// The Counter interface reports how many tokens a piece of text occupies.
// BPECounter uses a real byte-pair-encoding vocabulary, which is what the
// budget checks need since tokenization is not additive across lines:
//
//	counter, err := tokens.NewBPECounter(tokens.EncodingR50k)
//	n := counter.Count("seeker: I feel sad\n")
//
// EstimatingCounter is a ~4 characters per token heuristic for when no
// vocabulary can be loaded.
//
// # Budget
//
// Budget derives how much dialogue history fits in a model's context once the
// template and the response reservation are accounted for:
//
//	b := tokens.NewBudget(1000, 80, 50)
//	b.Allowed()            // 869
//	b.Exceeds(promptLen)   // true if the dialogue part is too long
package tokens

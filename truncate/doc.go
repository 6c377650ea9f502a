// Package truncate fits dialogue text into token budgets.
//
// # Windower
//
// A Windower keeps the longest trailing run of whole dialogue lines that fits
// a token budget. Lines are removed from the front, one at a time, and the
// joined remainder is recounted after every removal:
//
//	w := truncate.NewWindower(counter)
//	trimmed := w.Trim(dialog, budget.Allowed())
//
// Trim takes the dialogue literally. For a full rendered prompt, TrimPrompt
// first isolates the span between the "Conversation:" header and the
// "In this conversation," instruction. Both markers can be overridden with
// WithMarkers.
//
// Single-utterance mode keeps only the last two lines:
//
//	w := truncate.NewWindower(counter, truncate.WithSingleUtterance())
//
// Preview flattens a prompt into a one-line tail for log output.
package truncate

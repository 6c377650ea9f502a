// Package parser cleans raw generation output.
//
// A Normalizer reduces a backend continuation to the reasoning fragment that
// is persisted:
//
//	n := parser.NewNormalizer(parser.WithSplice(false))
//	reply := n.Normalize(resp.Text, prompt, kind)
//
// Local backends echo the prompt, so Local strips it and keeps the first line
// of the continuation, stopping early at a speaker tag such as "supporter:".
// Remote backends return only the continuation; Remote trims what the stop
// sequence left behind and can prefix "The seeker " for splicing the reply
// back into a seeker turn.
//
// Normalizing already-normalized text returns it unchanged.
package parser

// Package local generates text with a causal language model hosted by a
// Python sidecar process.
//
// The sidecar speaks newline-delimited JSON-RPC 2.0 on stdin and stdout and
// implements three methods:
//
//	load      {"runtime": "transformers", "model": "distilgpt2", "device": "cpu"} -> {"ready": true}
//	generate  {"prompt": "...", "max_new_tokens": 80, "temperature": 0.7}       -> {"text": "<prompt><continuation>"}
//	shutdown  {}                                                                 -> {}
//
// The generated text starts with the prompt, as transformers pipelines return
// it. Anything the sidecar prints that is not a reply (progress bars, library
// warnings) is ignored, and stderr is forwarded to the logger at debug level.
//
// The sidecar is spawned on the first Generate call and respawned on the next
// call after it dies. When a sequence grows past the model's maximum length
// the sidecar replies with CodeSequenceOverflow, which the client reports as
// provider.ErrGenerationOverflow so callers can substitute a placeholder.
//
// The package registers itself as the "local" provider:
//
//	import _ "github.com/randalmurphal/dialogkit/local"
//
//	backend, err := provider.New("local", provider.Config{
//	    Model:   "distilgpt2",
//	    Options: map[string]any{"sidecar_path": "sidecar.py"},
//	})
package local

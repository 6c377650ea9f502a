// Package provider defines the interface shared by text-generation backends.
//
// Two backends exist: "local", a model hosted by a sidecar process, and
// "remote", a hosted completion API. Both take a raw prompt and return a raw
// continuation; the dispatcher decides how to budget the prompt and how to
// clean the result.
//
// # Usage
//
// Create a backend using the registry:
//
//	backend, err := provider.New("remote", provider.Config{
//	    Model:  "davinci",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	resp, err := backend.Generate(ctx, provider.Request{
//	    Prompt:      prompt,
//	    MaxTokens:   100,
//	    Temperature: 0.7,
//	    Stop:        []string{"\n"},
//	})
//
// Backends register themselves from init(). Import
// github.com/randalmurphal/dialogkit/providers to register all of them.
package provider

import "context"

// Backend generates a continuation for a prompt.
type Backend interface {
	// Generate sends a prompt and returns the raw continuation.
	// The context controls cancellation and timeouts.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Provider returns the backend name ("local", "remote").
	Provider() string

	// Close releases any resources held by the backend.
	// For the local backend this stops the sidecar process.
	Close() error
}

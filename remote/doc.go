// Package remote generates text with a hosted completion API.
//
// The client speaks the OpenAI legacy Completions endpoint through
// github.com/openai/openai-go and returns choices[0].text verbatim.
// Transient failures are retried with exponential backoff; when retries run
// out, or the failure is not transient, the error wraps
// provider.ErrUnavailable.
//
// # Usage
//
//	import _ "github.com/randalmurphal/dialogkit/remote"
//
//	backend, err := provider.New("remote", provider.Config{
//	    Model:  "text-davinci-001",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
package remote

package provider

import "errors"

var (
	// ErrUnknownProvider is returned by New for names nothing registered.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnavailable means the generation service could not be reached or
	// returned no completion.
	ErrUnavailable = errors.New("generation service unavailable")

	// ErrGenerationOverflow means the local model failed mid-generation,
	// usually because prompt plus continuation passed its maximum length.
	ErrGenerationOverflow = errors.New("generation overflow")

	// ErrInvalidRequest marks requests or settings the backend rejected.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCredentialsNotFound means no API key was configured.
	ErrCredentialsNotFound = errors.New("credentials not found")
)

// Error is a failed backend operation. Retryable marks failures that may
// succeed if the same request is sent again.
type Error struct {
	Provider  string // "local", "remote"
	Op        string // "generate", "init"
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Provider == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Provider + " " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as a failed op of the named backend.
func NewError(provider, op string, err error, retryable bool) *Error {
	return &Error{Provider: provider, Op: op, Err: err, Retryable: retryable}
}

// IsRetryable reports whether err is transient. A *Error decides for itself;
// otherwise only ErrUnavailable counts.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return errors.Is(err, ErrUnavailable)
}

// IsOverflow reports whether err is a local generation overflow.
func IsOverflow(err error) bool {
	return errors.Is(err, ErrGenerationOverflow)
}

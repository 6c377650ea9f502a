package prompt

import (
	"fmt"
	"math/rand/v2"

	"github.com/randalmurphal/dialogkit/dialogue"
)

// DefaultMaxAttempts bounds the number of draws PickExamples makes.
const DefaultMaxAttempts = 1000

// InsufficientDiversityError is returned when the example bank cannot supply
// enough examples with distinct (emotion type, problem type) pairs.
type InsufficientDiversityError struct {
	Wanted   int
	Accepted int
	Attempts int
	BankSize int
}

// Error implements the error interface.
func (e *InsufficientDiversityError) Error() string {
	return fmt.Sprintf("insufficient example diversity: accepted %d of %d after %d draws from %d examples",
		e.Accepted, e.Wanted, e.Attempts, e.BankSize)
}

type pickConfig struct {
	rand        *rand.Rand
	maxAttempts int
}

// PickOption configures PickExamples.
type PickOption func(*pickConfig)

// WithRand sets the random source. Use a seeded source for reproducible runs.
func WithRand(r *rand.Rand) PickOption {
	return func(c *pickConfig) {
		c.rand = r
	}
}

// WithMaxAttempts sets the draw cap. Values <= 0 use DefaultMaxAttempts.
func WithMaxAttempts(n int) PickOption {
	return func(c *pickConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// PickExamples draws k examples from bank at random.
//
// The first draw is always accepted. Later draws are rejected only when an
// accepted example already has both the same emotion type and the same
// problem type. Examples are returned in acceptance order.
func PickExamples(bank []dialogue.Example, k int, opts ...PickOption) ([]dialogue.Example, error) {
	if k <= 0 {
		return nil, nil
	}

	cfg := pickConfig{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rand == nil {
		cfg.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if len(bank) == 0 {
		return nil, &InsufficientDiversityError{Wanted: k}
	}

	accepted := make([]dialogue.Example, 0, k)
	attempts := 0
	for len(accepted) < k {
		if attempts >= cfg.maxAttempts {
			return nil, &InsufficientDiversityError{
				Wanted:   k,
				Accepted: len(accepted),
				Attempts: attempts,
				BankSize: len(bank),
			}
		}
		attempts++

		candidate := bank[cfg.rand.IntN(len(bank))]
		if redundant(accepted, candidate) {
			continue
		}
		accepted = append(accepted, candidate)
	}
	return accepted, nil
}

func redundant(accepted []dialogue.Example, candidate dialogue.Example) bool {
	for _, ex := range accepted {
		if ex.EmotionType == candidate.EmotionType && ex.ProblemType == candidate.ProblemType {
			return true
		}
	}
	return false
}

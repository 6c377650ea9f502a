package dialogue

import (
	"errors"
	"fmt"
	"strings"
)

// Speaker is a dialogue participant role.
type Speaker string

// Speaker roles.
const (
	Seeker    Speaker = "seeker"
	Supporter Speaker = "supporter"
)

// Valid reports whether s is a known role.
func (s Speaker) Valid() bool {
	return s == Seeker || s == Supporter
}

// Utterance is a single dialogue turn.
type Utterance struct {
	Speaker Speaker `json:"speaker"`
	Content string  `json:"content"`
}

// Line renders the utterance as a "speaker: content\n" history line.
func (u Utterance) Line() string {
	return string(u.Speaker) + ": " + u.Content + "\n"
}

// Dialogue is an utterance-keyed support conversation.
type Dialogue struct {
	EmotionType  string      `json:"emotion_type"`
	ProblemType  string      `json:"problem_type"`
	Situation    string      `json:"situation,omitempty"`
	Conversation []Utterance `json:"conversation"`
}

// Flat is a dialogue whose conversation is already rendered as
// newline-delimited "speaker: content" lines.
type Flat struct {
	EmotionType  string `json:"emotion_type"`
	ProblemType  string `json:"problem_type"`
	Situation    string `json:"situation,omitempty"`
	Conversation string `json:"conversation"`
}

// Example is an annotated instance used to fill the example slots of a
// template. Its conversation is always in flattened form.
type Example struct {
	EmotionType  string `json:"emotion_type"`
	ProblemType  string `json:"problem_type"`
	Conversation string `json:"conversation"`
	Feel         string `json:"feel"`
	Reason       string `json:"reason"`
	Suggestion   string `json:"suggestion"`
}

// Errors returned by Validate.
var (
	ErrUnknownSpeaker = errors.New("unknown speaker")
	ErrNotAlternating = errors.New("speakers do not alternate")
	ErrMissingSpeaker = errors.New("dialogue needs at least one turn per speaker")
)

// Validate checks that speakers alternate after an optional leading supporter
// turn and that both roles are present.
func (d Dialogue) Validate() error {
	var seekers, supporters int
	for i, u := range d.Conversation {
		if !u.Speaker.Valid() {
			return fmt.Errorf("utterance %d: %w: %q", i, ErrUnknownSpeaker, u.Speaker)
		}
		if i > 0 && d.Conversation[i-1].Speaker == u.Speaker {
			return fmt.Errorf("utterance %d: %w", i, ErrNotAlternating)
		}
		if u.Speaker == Seeker {
			seekers++
		} else {
			supporters++
		}
	}
	if seekers == 0 || supporters == 0 {
		return ErrMissingSpeaker
	}
	return nil
}

// SeekerTurns returns the number of seeker utterances.
func (d Dialogue) SeekerTurns() int {
	n := 0
	for _, u := range d.Conversation {
		if u.Speaker == Seeker {
			n++
		}
	}
	return n
}

// Flatten renders a dialogue's conversation into flattened form.
func Flatten(d Dialogue) Flat {
	var sb strings.Builder
	for _, u := range d.Conversation {
		sb.WriteString(u.Line())
	}
	return Flat{
		EmotionType:  d.EmotionType,
		ProblemType:  d.ProblemType,
		Situation:    d.Situation,
		Conversation: sb.String(),
	}
}

// FlattenAll flattens every dialogue in order.
func FlattenAll(ds []Dialogue) []Flat {
	out := make([]Flat, len(ds))
	for i, d := range ds {
		out[i] = Flatten(d)
	}
	return out
}

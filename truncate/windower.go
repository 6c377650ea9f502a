package truncate

import (
	"strings"

	"github.com/randalmurphal/dialogkit/tokens"
)

// Default markers delimiting the conversation span of a rendered prompt.
const (
	DefaultHeaderMarker      = "Conversation:"
	DefaultInstructionMarker = "In this conversation,"
)

// Windower fits a newline-delimited dialogue into a token budget by keeping
// the longest trailing run of whole lines.
//
// Windower has no state beyond its configuration and is safe to reuse.
type Windower struct {
	counter     tokens.Counter
	single      bool
	header      string
	instruction string
}

// WindowerOption configures a Windower.
type WindowerOption func(*Windower)

// WithSingleUtterance keeps only the last two lines regardless of budget.
func WithSingleUtterance() WindowerOption {
	return func(w *Windower) {
		w.single = true
	}
}

// WithMarkers overrides the header and instruction markers TrimPrompt uses
// to isolate the conversation span. An empty header disables isolation.
func WithMarkers(header, instruction string) WindowerOption {
	return func(w *Windower) {
		w.header = header
		w.instruction = instruction
	}
}

// NewWindower creates a windower that measures candidates with counter.
// A nil counter falls back to the estimating counter.
func NewWindower(counter tokens.Counter, opts ...WindowerOption) *Windower {
	if counter == nil {
		counter = tokens.NewEstimatingCounter()
	}
	w := &Windower{
		counter:     counter,
		header:      DefaultHeaderMarker,
		instruction: DefaultInstructionMarker,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Single reports whether the windower runs in single-utterance mode.
func (w *Windower) Single() bool {
	return w.single
}

// Trim returns the trailing lines of dialog that fit within budget tokens.
// dialog is taken as-is: marker text inside an utterance is ordinary text.
//
// Lines are dropped from the front and the joined remainder is recounted
// after every drop, since token counts are not additive across lines. At
// least one line is always kept even if it alone exceeds the budget. The
// result always ends with exactly one newline.
func (w *Windower) Trim(dialog string, budget int) string {
	return w.window(strings.Split(strings.TrimRight(dialog, "\n"), "\n"), budget)
}

// TrimPrompt windows the dialogue inside a rendered prompt. The span after
// the last header marker and before the instruction marker is isolated and
// its first line dropped before trimming as in Trim. Without a header marker
// the whole prompt is trimmed.
func (w *Windower) TrimPrompt(prompt string, budget int) string {
	return w.window(w.span(prompt), budget)
}

func (w *Windower) window(lines []string, budget int) string {
	if w.single {
		if len(lines) > 2 {
			lines = lines[len(lines)-2:]
		}
		return join(lines)
	}

	for len(lines) > 1 && w.counter.Count(join(lines)) > budget {
		lines = lines[1:]
	}
	return join(lines)
}

// span splits a rendered prompt into candidate lines, isolating the
// conversation span first when the header marker is present.
func (w *Windower) span(text string) []string {
	text = strings.TrimRight(text, "\n")
	if w.header == "" || !strings.Contains(text, w.header) {
		return strings.Split(text, "\n")
	}

	span := text[strings.LastIndex(text, w.header)+len(w.header):]
	partial := false
	if w.instruction != "" {
		if i := strings.Index(span, w.instruction); i >= 0 {
			span = span[:i]
			partial = true
		}
	}
	span = strings.TrimPrefix(span, "\n")

	lines := strings.Split(span, "\n")
	// Whatever precedes the instruction marker on its own line is incomplete.
	if partial && len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	// First line of the span is a header.
	if len(lines) >= 2 {
		lines = lines[1:]
	}
	return lines
}

func join(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

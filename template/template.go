package template

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/randalmurphal/dialogkit/dialogue"
)

// DynamicSlot is the placeholder replaced by the dialogue history on every
// rendered prompt.
const DynamicSlot = "<conversation>"

// Example slot name prefixes. Slot i is written as "<conversation_i>" and so on.
const (
	ConversationSlot = "conversation"
	FeelSlot         = "feel"
	ReasonSlot       = "reason"
	SuggestionSlot   = "suggestion"
)

// DefaultExampleCount is the number of example slots in the stock templates.
const DefaultExampleCount = 3

// Template is a prompt template with indexed example slots and a single
// dynamic slot.
//
// Example slots are filled once with FillExamples; Render then resolves only
// the dynamic slot. Templates are immutable.
type Template struct {
	path string
	head string
	tail string
}

// Parse validates text and returns a Template.
func Parse(text string) (*Template, error) {
	return parse("", text)
}

// Load reads and parses a template file.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return parse(path, string(data))
}

func parse(path, text string) (*Template, error) {
	if text == "" {
		return nil, ErrEmpty
	}
	if n := strings.Count(text, DynamicSlot); n != 1 {
		return nil, &MalformedError{Path: path, Slot: DynamicSlot, Count: n}
	}
	head, tail, _ := strings.Cut(text, DynamicSlot)
	return &Template{path: path, head: head, tail: tail}, nil
}

// Slot returns the placeholder for example slot name at index i.
func Slot(name string, i int) string {
	return "<" + name + "_" + strconv.Itoa(i) + ">"
}

// ExampleSlots returns how many consecutive example indices, starting at 0,
// the template references.
func (t *Template) ExampleSlots() int {
	text := t.head + t.tail
	n := 0
	for {
		found := false
		for _, name := range []string{ConversationSlot, FeelSlot, ReasonSlot, SuggestionSlot} {
			if strings.Contains(text, Slot(name, n)) {
				found = true
				break
			}
		}
		if !found {
			return n
		}
		n++
	}
}

// FillExamples returns a copy of the template with example slots 0..n-1
// replaced by the given examples. Extra examples are ignored.
func (t *Template) FillExamples(examples []dialogue.Example) (*Template, error) {
	slots := t.ExampleSlots()
	if len(examples) < slots {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrExamples, slots, len(examples))
	}

	pairs := make([]string, 0, slots*8)
	for i := range slots {
		ex := examples[i]
		pairs = append(pairs,
			Slot(ConversationSlot, i), ex.Conversation,
			Slot(FeelSlot, i), ex.Feel,
			Slot(ReasonSlot, i), ex.Reason,
			Slot(SuggestionSlot, i), ex.Suggestion,
		)
	}
	r := strings.NewReplacer(pairs...)

	return &Template{
		path: t.path,
		head: r.Replace(t.head),
		tail: r.Replace(t.tail),
	}, nil
}

// Render substitutes dialog into the dynamic slot.
func (t *Template) Render(dialog string) string {
	return t.head + dialog + t.tail
}

// Text returns the template with the dynamic slot unresolved.
func (t *Template) Text() string {
	return t.head + DynamicSlot + t.tail
}

// Path returns the file the template was loaded from, if any.
func (t *Template) Path() string {
	return t.path
}

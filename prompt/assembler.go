package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/dialogkit/dialogue"
	"github.com/randalmurphal/dialogkit/jsonl"
	"github.com/randalmurphal/dialogkit/template"
)

// ErrEndOfSequence is returned by Next and Skip once every prompt has been
// produced. It signals normal termination.
var ErrEndOfSequence = errors.New("end of prompt sequence")

// DefaultPreamble is removed from flattened dialogues before rendering.
const DefaultPreamble = "In this conversation,"

// Prompt is one element of the prompt sequence.
type Prompt struct {
	// Index is the zero-based position in the sequence.
	Index int

	// Text is the rendered prompt. Empty for skipped elements.
	Text string

	// Dialog is the content placed in the dynamic slot.
	Dialog string

	// Seeker is the seeker turn that triggered the prompt. Empty in
	// flattened mode.
	Seeker string
}

// Appender receives side-channel records.
type Appender interface {
	Append(v any) error
}

// Assembler walks a dialogue source and produces one prompt per seeker turn
// (or one per dialogue in flattened mode).
//
// An Assembler is a single-pass cursor. It is not restartable and must not be
// advanced from more than one goroutine.
type Assembler struct {
	tmpl          *template.Template
	source        *dialogue.Source
	preamble      string
	seekerLog     Appender
	recordSkipped bool

	dialogueIndex  int
	utteranceIndex int
	history        strings.Builder
	index          int
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithSeekerLog records every consumed seeker turn as a jsonl.Utterance.
func WithSeekerLog(log Appender) Option {
	return func(a *Assembler) {
		a.seekerLog = log
	}
}

// WithRecordSkipped also records seeker turns passed over by Skip.
func WithRecordSkipped(record bool) Option {
	return func(a *Assembler) {
		a.recordSkipped = record
	}
}

// WithPreamble sets the substring stripped from flattened dialogues.
func WithPreamble(preamble string) Option {
	return func(a *Assembler) {
		a.preamble = preamble
	}
}

// NewAssembler creates an assembler over src. tmpl should already have its
// example slots filled.
func NewAssembler(tmpl *template.Template, src *dialogue.Source, opts ...Option) *Assembler {
	a := &Assembler{
		tmpl:     tmpl,
		source:   src,
		preamble: DefaultPreamble,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Position returns the index of the next element.
func (a *Assembler) Position() int {
	return a.index
}

// Next advances the cursor and returns the rendered prompt.
func (a *Assembler) Next() (Prompt, error) {
	p, err := a.advance()
	if err != nil {
		return Prompt{}, err
	}
	p.Text = a.tmpl.Render(p.Dialog)

	if err := a.record(p); err != nil {
		return p, err
	}
	return p, nil
}

// Skip fast-forwards over n elements without rendering them. It returns the
// number skipped, which is less than n only together with ErrEndOfSequence.
func (a *Assembler) Skip(n int) (int, error) {
	for i := range n {
		p, err := a.advance()
		if err != nil {
			return i, err
		}
		if a.recordSkipped {
			if err := a.record(p); err != nil {
				return i + 1, err
			}
		}
	}
	return n, nil
}

func (a *Assembler) record(p Prompt) error {
	if a.seekerLog == nil || a.source.Shape == dialogue.ShapeFlattened {
		return nil
	}
	if err := a.seekerLog.Append(jsonl.Utterance{Utterance: p.Seeker}); err != nil {
		return fmt.Errorf("record seeker turn %d: %w", p.Index, err)
	}
	return nil
}

func (a *Assembler) advance() (Prompt, error) {
	if a.source == nil {
		return Prompt{}, ErrEndOfSequence
	}
	if a.source.Shape == dialogue.ShapeFlattened {
		return a.advanceFlattened()
	}
	return a.advanceUtterances()
}

func (a *Assembler) advanceUtterances() (Prompt, error) {
	dialogues := a.source.Dialogues
	for a.dialogueIndex < len(dialogues) {
		conv := dialogues[a.dialogueIndex].Conversation
		for a.utteranceIndex < len(conv) {
			u := conv[a.utteranceIndex]
			a.utteranceIndex++
			a.history.WriteString(u.Line())

			if u.Speaker == dialogue.Seeker {
				p := Prompt{Index: a.index, Dialog: a.history.String(), Seeker: u.Content}
				a.index++
				return p, nil
			}
		}
		a.dialogueIndex++
		a.utteranceIndex = 0
		a.history.Reset()
	}
	return Prompt{}, ErrEndOfSequence
}

func (a *Assembler) advanceFlattened() (Prompt, error) {
	if a.dialogueIndex >= len(a.source.Flattened) {
		return Prompt{}, ErrEndOfSequence
	}
	conv := a.source.Flattened[a.dialogueIndex].Conversation
	a.dialogueIndex++

	if a.preamble != "" {
		conv = strings.ReplaceAll(conv, a.preamble, "")
	}
	p := Prompt{Index: a.index, Dialog: conv}
	a.index++
	return p, nil
}

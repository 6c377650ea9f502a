// Package prompt assembles the sequence of reasoning prompts for a dialogue
// source.
//
// PickExamples chooses the annotated examples that fill a template's example
// slots. An Assembler then walks the dialogues and renders one prompt per
// seeker turn, with the dialogue history so far in the dynamic slot:
//
//	examples, err := prompt.PickExamples(bank, tmpl.ExampleSlots())
//	filled, err := tmpl.FillExamples(examples)
//	a := prompt.NewAssembler(filled, src, prompt.WithSeekerLog(seekerFile))
//	if _, err := a.Skip(startIndex); err != nil { ... }
//	for {
//		p, err := a.Next()
//		if errors.Is(err, prompt.ErrEndOfSequence) {
//			break
//		}
//		...
//	}
//
// Skip only advances the cursor. It does not render prompts and, unless
// WithRecordSkipped is set, does not write to the seeker log.
package prompt

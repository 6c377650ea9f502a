// Package template provides prompt templates with example and dialogue slots.
//
// # Syntax
//
// Templates are plain text with angle-bracket placeholders. Example slots are
// indexed and filled once per run:
//
//	<conversation_0> <feel_0> <reason_0> <suggestion_0>
//	<conversation_1> ...
//
// The dynamic slot holds the dialogue history and is resolved per prompt:
//
//	Conversation:
//	<conversation>
//	In this conversation, the seeker
//
// The dynamic slot must appear exactly once; Parse and Load return a
// *MalformedError otherwise.
//
// # Usage
//
//	tmpl, err := template.Load("prompts/nl_utt_level.txt")
//	filled, err := tmpl.FillExamples(examples)
//	prompt := filled.Render("supporter: Hi\nseeker: I feel sad\n")
package template

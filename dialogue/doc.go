// Package dialogue defines support dialogues, annotated examples and the
// loaders for their JSON source files.
//
// A source file is a JSON array of records. Each record's conversation is
// either an array of {"speaker", "content"} utterances or a single string of
// "speaker: content" lines; LoadSource detects which from the first record.
package dialogue

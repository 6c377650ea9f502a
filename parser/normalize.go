package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/randalmurphal/dialogkit/model"
)

// SeekerPrefix starts a reply that is spliced into a seeker turn.
const SeekerPrefix = "The seeker "

// DefaultDelimiters mark where the model's analysis of the dialogue begins.
var DefaultDelimiters = []string{"In this conversation,", "in this conversation,"}

// Normalizer turns raw backend output into the reasoning fragment that is
// persisted.
type Normalizer struct {
	delimiters []string
	splice     bool

	// speakerRegex matches a speaker tag starting the next utterance.
	speakerRegex *regexp.Regexp
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithDelimiters replaces the analytic delimiters searched in local output.
func WithDelimiters(delimiters ...string) NormalizerOption {
	return func(n *Normalizer) { n.delimiters = delimiters }
}

// WithSplice prefixes remote replies with SeekerPrefix.
func WithSplice(splice bool) NormalizerOption {
	return func(n *Normalizer) { n.splice = splice }
}

// NewNormalizer creates a normalizer with the default delimiters.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		delimiters:   DefaultDelimiters,
		speakerRegex: regexp.MustCompile(`(?i)\b(?:seeker|supporter)\s*:`),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize cleans raw output from a backend of the given kind. prompt is the
// text that was sent; local backends echo it.
func (n *Normalizer) Normalize(raw, prompt string, kind model.Kind) string {
	if _, ok := kind.(model.Remote); ok {
		return n.Remote(raw)
	}
	return n.Local(raw, prompt)
}

// Local strips the echoed prompt and any text up to the last delimiter, then
// keeps the continuation up to the first newline or speaker tag.
// Text with neither an echo nor a delimiter is returned unchanged.
//
// Tokenizer decoding can respace the echo ("don 't" comes back as "don't"),
// so the echo is matched ignoring whitespace. If that fails too, the echo is
// taken to be the first len(prompt) bytes.
func (n *Normalizer) Local(raw, prompt string) string {
	text, found := raw, false
	if prompt != "" {
		if i, ok := echoEnd(raw, prompt); ok {
			text, found = raw[i:], true
		}
	}
	if i, d := n.lastDelimiter(text); i >= 0 {
		text = text[i+len(d):]
		found = true
	}
	if !found {
		return raw
	}
	return n.clip(text)
}

// Remote trims whitespace left behind by the stop sequence. With splicing
// enabled the result starts with SeekerPrefix exactly once.
func (n *Normalizer) Remote(raw string) string {
	text := strings.TrimRight(raw, " \t\r\n")
	if !n.splice {
		return text
	}
	text = strings.TrimLeft(text, " \t\r\n")
	if strings.HasPrefix(text, SeekerPrefix) {
		return text
	}
	return SeekerPrefix + text
}

// Splice appends the first line of a normalized reply to a seeker utterance.
func Splice(utterance, reply string) string {
	reply, _, _ = strings.Cut(reply, "\n")
	reply = strings.TrimPrefix(strings.TrimSpace(reply), SeekerPrefix)
	if reply == "" {
		return utterance
	}
	return utterance + " " + SeekerPrefix + reply
}

// echoEnd returns the offset in raw just past its echo of prompt.
func echoEnd(raw, prompt string) (int, bool) {
	if strings.HasPrefix(raw, prompt) {
		return len(prompt), true
	}
	i, j := 0, 0
	for {
		for j < len(prompt) && isSpace(prompt[j]) {
			j++
		}
		if j == len(prompt) {
			return i, true
		}
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i == len(raw) || raw[i] != prompt[j] {
			break
		}
		i++
		j++
	}
	if len(raw) < len(prompt) {
		return 0, false
	}
	i = len(prompt)
	for i < len(raw) && !utf8.RuneStart(raw[i]) {
		i++
	}
	return i, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func (n *Normalizer) lastDelimiter(text string) (int, string) {
	best, delim := -1, ""
	for _, d := range n.delimiters {
		if d == "" {
			continue
		}
		if i := strings.LastIndex(text, d); i > best {
			best, delim = i, d
		}
	}
	return best, delim
}

func (n *Normalizer) clip(text string) string {
	text = strings.TrimLeft(text, " \t\r\n")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if loc := n.speakerRegex.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return strings.TrimSpace(text)
}

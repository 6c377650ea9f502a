package truncate

import (
	"strings"
	"testing"

	"github.com/randalmurphal/dialogkit/tokens"
)

// MockCounter counts one token per TokensPerChar characters.
type MockCounter struct {
	TokensPerChar int
}

func (m *MockCounter) Count(text string) int {
	return len([]rune(text)) * m.TokensPerChar
}

func TestWindower_Trim(t *testing.T) {
	w := NewWindower(&MockCounter{TokensPerChar: 1})

	tests := []struct {
		name     string
		text     string
		budget   int
		expected string
	}{
		{
			name:     "fits unchanged",
			text:     "a\nb\n",
			budget:   10,
			expected: "a\nb\n",
		},
		{
			name:     "drops lines from the front",
			text:     "aaaa\nbbbb\ncccc",
			budget:   10,
			expected: "bbbb\ncccc\n",
		},
		{
			name:     "drops until one line fits",
			text:     "aaaa\nbbbb\ncccc\n",
			budget:   5,
			expected: "cccc\n",
		},
		{
			name:     "keeps last line even over budget",
			text:     "aaaa\nbbbbbbbbbb",
			budget:   2,
			expected: "bbbbbbbbbb\n",
		},
		{
			name:     "empty input still returns a line",
			text:     "",
			budget:   0,
			expected: "\n",
		},
		{
			name:     "trailing newlines normalized",
			text:     "a\nb\n\n\n",
			budget:   100,
			expected: "a\nb\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Trim(tt.text, tt.budget); got != tt.expected {
				t.Errorf("Trim(%q, %d) = %q, expected %q", tt.text, tt.budget, got, tt.expected)
			}
		})
	}
}

func TestWindower_Trim_CountsJoinedText(t *testing.T) {
	// Records every candidate so we can check what was measured.
	c := &newlineCounter{}
	w := NewWindower(c)

	got := w.Trim("ab\ncd\nef", 5)
	if got != "cd\nef\n" {
		t.Errorf("Trim = %q, expected %q", got, "cd\nef\n")
	}
	for _, seen := range c.seen {
		if !strings.HasSuffix(seen, "\n") {
			t.Errorf("counter saw %q, expected a joined candidate ending in newline", seen)
		}
	}
}

type newlineCounter struct {
	seen []string
}

func (n *newlineCounter) Count(text string) int {
	n.seen = append(n.seen, text)
	return len(strings.ReplaceAll(text, "\n", ""))
}

func TestWindower_SingleUtterance(t *testing.T) {
	w := NewWindower(&MockCounter{TokensPerChar: 1}, WithSingleUtterance())
	if !w.Single() {
		t.Fatal("expected single-utterance mode")
	}

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "keeps last two", text: "a\nb\nc\n", expected: "b\nc\n"},
		{name: "two lines unchanged", text: "a\nb", expected: "a\nb\n"},
		{name: "one line", text: "a", expected: "a\n"},
		{name: "ignores budget", text: strings.Repeat("x", 50) + "\n" + strings.Repeat("y", 50), expected: strings.Repeat("x", 50) + "\n" + strings.Repeat("y", 50) + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Trim(tt.text, 1); got != tt.expected {
				t.Errorf("Trim(%q) = %q, expected %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestWindower_Markers(t *testing.T) {
	w := NewWindower(&MockCounter{TokensPerChar: 1})

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "isolates span and drops header line",
			text:     "Example dialogue\nConversation:\nheader\nseeker: hi\nsupporter: yo\nIn this conversation, the seeker",
			expected: "seeker: hi\nsupporter: yo\n",
		},
		{
			name:     "uses last header",
			text:     "Conversation:\nold\nIn this conversation, x\nConversation:\nh\nnew\nIn this conversation,",
			expected: "new\n",
		},
		{
			name:     "discards partial line before instruction",
			text:     "Conversation:\nh\nseeker: a\nseeker: b In this conversation,",
			expected: "seeker: a\n",
		},
		{
			name:     "single span line is kept",
			text:     "Conversation:\nonly\nIn this conversation,",
			expected: "only\n",
		},
		{
			name:     "no instruction marker",
			text:     "Conversation:\nh\nseeker: a\nseeker: b\n",
			expected: "seeker: a\nseeker: b\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.TrimPrompt(tt.text, 100); got != tt.expected {
				t.Errorf("TrimPrompt(%q) = %q, expected %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestWindower_Trim_MarkerInDialogue(t *testing.T) {
	w := NewWindower(&MockCounter{TokensPerChar: 1})
	dialog := "seeker: hi\nsupporter: Conversation: is hard\nseeker: In this conversation, I cry\n"

	if got := w.Trim(dialog, 100); got != dialog {
		t.Errorf("Trim(%q) = %q, expected dialogue unchanged", dialog, got)
	}
	if got := w.Trim(dialog, 40); got != "seeker: In this conversation, I cry\n" {
		t.Errorf("Trim(%q, 40) = %q", dialog, got)
	}
}

func TestWindower_WithMarkers(t *testing.T) {
	text := "conversation:\nh\nseeker: a\nin this conversation, the seeker"

	w := NewWindower(&MockCounter{TokensPerChar: 1}, WithMarkers("conversation:", "in this conversation,"))
	if got := w.TrimPrompt(text, 100); got != "seeker: a\n" {
		t.Errorf("TrimPrompt = %q, expected %q", got, "seeker: a\n")
	}

	plain := NewWindower(&MockCounter{TokensPerChar: 1}, WithMarkers("", ""))
	if got := plain.TrimPrompt("Conversation:\na\n", 100); got != "Conversation:\na\n" {
		t.Errorf("TrimPrompt without markers = %q", got)
	}
}

func TestWindower_Properties(t *testing.T) {
	counter, err := tokens.NewBPECounter(tokens.EncodingR50k)
	if err != nil {
		t.Fatalf("NewBPECounter: %v", err)
	}
	w := NewWindower(counter)

	dialog := "supporter: Hello, what brings you here today?\n" +
		"seeker: I have been feeling really low since I lost my job.\n" +
		"supporter: That sounds very hard. How long ago did it happen?\n" +
		"seeker: About two months ago and I cannot find anything new.\n" +
		"supporter: Have you been able to talk to anyone about it?\n"
	full := counter.Count(dialog)

	for budget := 0; budget <= full+5; budget++ {
		once := w.Trim(dialog, budget)

		if strings.TrimSpace(once) == "" {
			t.Fatalf("budget %d: empty result", budget)
		}
		if !strings.HasSuffix(once, "\n") || strings.HasSuffix(once, "\n\n") {
			t.Errorf("budget %d: result %q must end with exactly one newline", budget, once)
		}
		if budget < full && counter.Count(once) > full {
			t.Errorf("budget %d: result grew from %d to %d tokens", budget, full, counter.Count(once))
		}
		if counter.Count(once) <= budget {
			if twice := w.Trim(once, budget); twice != once {
				t.Errorf("budget %d: not idempotent: %q then %q", budget, once, twice)
			}
		}
	}
}

func TestNewWindower_NilCounter(t *testing.T) {
	w := NewWindower(nil)
	if w.counter == nil {
		t.Fatal("expected fallback counter")
	}
}

func BenchmarkWindower_Trim(b *testing.B) {
	w := NewWindower(tokens.NewEstimatingCounter())
	text := strings.Repeat("seeker: I keep thinking about work all night\n", 200)

	b.ResetTimer()
	for range b.N {
		w.Trim(text, 500)
	}
}

package tokens

import (
	"strings"
	"testing"
)

func TestEstimatingCounter_Count(t *testing.T) {
	c := NewEstimatingCounter()

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty", text: "", expected: 0},
		{name: "under half a token", text: "a", expected: 0},
		{name: "one speaker tag", text: "seeker: ", expected: 2},
		{name: "dialogue line", text: "seeker: I feel sad\n", expected: 5}, // 19/4 rounds to 5
		{name: "multibyte runes count once", text: "héllo wörld", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Count(tt.text); got != tt.expected {
				t.Errorf("Count(%q) = %d, expected %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestBPECounter_Count(t *testing.T) {
	c, err := NewBPECounter(EncodingR50k)
	if err != nil {
		t.Fatalf("NewBPECounter: %v", err)
	}

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty", text: "", expected: 0},
		{name: "two words", text: "hello world", expected: 2},
		{name: "single newline", text: "\n", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Count(tt.text); got != tt.expected {
				t.Errorf("Count(%q) = %d, expected %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestBPECounter_SameEncoding(t *testing.T) {
	a, err := NewBPECounter(EncodingR50k)
	if err != nil {
		t.Fatalf("NewBPECounter: %v", err)
	}
	b, err := NewBPECounter(EncodingR50k)
	if err != nil {
		t.Fatalf("NewBPECounter: %v", err)
	}
	if a.Count("hello world") != b.Count("hello world") {
		t.Error("expected counters for the same encoding to agree")
	}
	if a.Encoding() != string(EncodingR50k) {
		t.Errorf("Encoding() = %q, expected %q", a.Encoding(), EncodingR50k)
	}
}

func TestBPECounter_P50k(t *testing.T) {
	c, err := NewBPECounter(EncodingP50k)
	if err != nil {
		t.Fatalf("NewBPECounter: %v", err)
	}
	if c.Encoding() != string(EncodingP50k) {
		t.Errorf("Encoding() = %q, expected %q", c.Encoding(), EncodingP50k)
	}
	if got := c.Count("hello world"); got != 2 {
		t.Errorf("Count = %d, expected 2", got)
	}
}

func TestCounter_Interface(t *testing.T) {
	var _ Counter = (*EstimatingCounter)(nil)
	var _ Counter = (*BPECounter)(nil)
}

func BenchmarkBPECounter_Count(b *testing.B) {
	c, err := NewBPECounter(EncodingR50k)
	if err != nil {
		b.Fatal(err)
	}
	text := strings.Repeat("supporter: How are you feeling today?\n", 40)

	b.ResetTimer()
	for range b.N {
		c.Count(text)
	}
}

package tokens

import "testing"

func TestBudget_Allowed(t *testing.T) {
	tests := []struct {
		name     string
		budget   Budget
		expected int
	}{
		{name: "gpt-j window", budget: NewBudget(1000, 80, 50), expected: 869},
		{name: "gpt-2 window", budget: NewBudget(900, 80, 120), expected: 699},
		{name: "template larger than window", budget: NewBudget(100, 80, 50), expected: -31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.budget.Allowed(); got != tt.expected {
				t.Errorf("Allowed() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestBudget_Exceeds(t *testing.T) {
	b := NewBudget(1000, 80, 50)

	tests := []struct {
		name         string
		promptTokens int
		exceeds      bool
		remaining    int
	}{
		{name: "short prompt", promptTokens: 300, exceeds: false, remaining: 618},
		{name: "exactly at budget", promptTokens: 918, exceeds: false, remaining: 0},
		{name: "one token over", promptTokens: 919, exceeds: true, remaining: 0},
		{name: "far over", promptTokens: 1200, exceeds: true, remaining: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Exceeds(tt.promptTokens); got != tt.exceeds {
				t.Errorf("Exceeds(%d) = %v, expected %v", tt.promptTokens, got, tt.exceeds)
			}
			if got := b.Remaining(tt.promptTokens); got != tt.remaining {
				t.Errorf("Remaining(%d) = %d, expected %d", tt.promptTokens, got, tt.remaining)
			}
		})
	}
}

func TestBudget_DialogLength(t *testing.T) {
	b := NewBudget(1000, 80, 50)
	if got := b.DialogLength(50); got != 1 {
		t.Errorf("DialogLength(50) = %d, expected 1", got)
	}
}

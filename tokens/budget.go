package tokens

// Budget is the token budget a prompt must satisfy against a model's context
// window. It is derived per model family and template, never stored.
type Budget struct {
	// MaxInput is the model's usable context size in tokens.
	MaxInput int

	// Reserved is the number of tokens held back for the generated response.
	Reserved int

	// Template is the token length of the template with its example slots
	// filled and the dynamic slot still unresolved.
	Template int
}

// NewBudget creates a budget for a model context size, a response
// reservation and a template length.
func NewBudget(maxInput, reserved, template int) Budget {
	return Budget{
		MaxInput: maxInput,
		Reserved: reserved,
		Template: template,
	}
}

// Allowed returns the number of tokens the dialogue history may occupy.
func (b Budget) Allowed() int {
	return b.MaxInput - b.Reserved - b.Template - 1
}

// DialogLength returns the dialogue length implied by a rendered prompt of
// promptTokens tokens.
func (b Budget) DialogLength(promptTokens int) int {
	return promptTokens - b.Template + 1
}

// Exceeds reports whether a rendered prompt of promptTokens tokens carries
// more dialogue than the budget allows.
func (b Budget) Exceeds(promptTokens int) bool {
	return b.DialogLength(promptTokens) > b.Allowed()
}

// Remaining returns how many dialogue tokens are still free for a prompt of
// promptTokens tokens. Never negative.
func (b Budget) Remaining(promptTokens int) int {
	remaining := b.Allowed() - b.DialogLength(promptTokens)
	if remaining < 0 {
		return 0
	}
	return remaining
}

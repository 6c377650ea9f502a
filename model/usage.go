package model

import "sync"

// Usage is the token consumption of one or more generation requests.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	Requests     int `json:"requests"`
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

func (u Usage) plus(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		Requests:     u.Requests + o.Requests,
	}
}

// dollarsPerMillion is the legacy completions price, charged alike for
// prompt and completion tokens. Local families cost nothing.
var dollarsPerMillion = map[Family]float64{
	FamilyDavinci: 20,
	FamilyAda:     0.4,
}

// UsageTracker sums usage per model name over a run. It is safe for
// concurrent use.
type UsageTracker struct {
	mu       sync.Mutex
	perModel map[string]Usage
}

// NewUsageTracker returns an empty tracker.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{perModel: map[string]Usage{}}
}

// Record counts one request against model.
func (t *UsageTracker) Record(model string, input, output int) {
	t.mu.Lock()
	t.perModel[model] = t.perModel[model].plus(Usage{InputTokens: input, OutputTokens: output, Requests: 1})
	t.mu.Unlock()
}

// Usage returns what model has consumed so far.
func (t *UsageTracker) Usage(model string) Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.perModel[model]
}

// Total sums usage over every model.
func (t *UsageTracker) Total() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total Usage
	for _, u := range t.perModel {
		total = total.plus(u)
	}
	return total
}

// EstimatedCost prices the recorded usage in dollars. Models are priced by
// family; unknown and local models are free.
func (t *UsageTracker) EstimatedCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var dollars float64
	for name, u := range t.perModel {
		dollars += float64(u.TotalTokens()) / 1e6 * dollarsPerMillion[NormalizeFamily(name)]
	}
	return dollars
}

package model

import (
	"errors"
	"testing"

	"github.com/randalmurphal/dialogkit/tokens"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		family   string
		subType  string
		want     Kind
		provider string
		wantErr  error
	}{
		{family: "gpt", want: Local{Family: FamilyGPT}, provider: ProviderLocal},
		{family: "gpt-2", want: Local{Family: FamilyGPT2}, provider: ProviderLocal},
		{family: "distilgpt2", want: Local{Family: FamilyGPT2}, provider: ProviderLocal},
		{family: "EleutherAI/gpt-j-6B", want: Local{Family: FamilyGPTJ}, provider: ProviderLocal},
		{family: "davinci", want: Remote{Family: FamilyDavinci, SubType: SubTypeCompletion}, provider: ProviderRemote},
		{family: "davinci", subType: "conversation", want: Remote{Family: FamilyDavinci, SubType: SubTypeConversation}, provider: ProviderRemote},
		{family: "ada", subType: "Completion", want: Remote{Family: FamilyAda, SubType: SubTypeCompletion}, provider: ProviderRemote},
		{family: "davinci", subType: "classification", wantErr: ErrUnknownSubType},
		{family: "llama", wantErr: ErrUnknownFamily},
	}

	for _, tt := range tests {
		t.Run(tt.family+"/"+tt.subType, func(t *testing.T) {
			got, err := Resolve(tt.family, tt.subType)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %#v, want %#v", got, tt.want)
			}
			if p := ProviderName(got); p != tt.provider {
				t.Errorf("ProviderName() = %q, want %q", p, tt.provider)
			}
		})
	}
}

func TestLimits(t *testing.T) {
	tests := []struct {
		kind     Kind
		context  int
		reserved int
	}{
		{Local{Family: FamilyGPT}, 500, 80},
		{Local{Family: FamilyGPT2}, 900, 80},
		{Local{Family: FamilyGPTJ}, 1000, 80},
		{Remote{Family: FamilyDavinci, SubType: SubTypeCompletion}, 2048, 100},
		{Remote{Family: FamilyDavinci, SubType: SubTypeConversation}, 2048, 60},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			l := tt.kind.Limits()
			if l.ContextSize != tt.context {
				t.Errorf("ContextSize = %d, want %d", l.ContextSize, tt.context)
			}
			if l.ReservedResponse != tt.reserved {
				t.Errorf("ReservedResponse = %d, want %d", l.ReservedResponse, tt.reserved)
			}
		})
	}
}

func TestLimits_Budget(t *testing.T) {
	b := Local{Family: FamilyGPTJ}.Limits().Budget(50)
	if b.Allowed() != 869 {
		t.Errorf("Allowed() = %d, want 869", b.Allowed())
	}

	b = Local{Family: FamilyGPT}.Limits().Budget(50)
	if b.Allowed() != 369 {
		t.Errorf("Allowed() = %d, want 369", b.Allowed())
	}
}

func TestGeneration(t *testing.T) {
	local := Local{Family: FamilyGPT2}.Generation()
	if local.Model != "distilgpt2" || local.MaxTokens != 80 || local.Temperature != 0.7 {
		t.Errorf("local generation = %+v", local)
	}

	completion := Remote{Family: FamilyDavinci, SubType: SubTypeCompletion}.Generation()
	if completion.Model != "davinci" || completion.MaxTokens != 100 || completion.TopP != 1 {
		t.Errorf("completion generation = %+v", completion)
	}
	if len(completion.Stop) != 1 || completion.Stop[0] != "\n" {
		t.Errorf("completion stop = %q", completion.Stop)
	}

	conversation := Remote{Family: FamilyDavinci, SubType: SubTypeConversation}.Generation()
	if conversation.Model != "text-davinci-001" || conversation.FrequencyPenalty != 0.5 || conversation.Temperature != 0.5 {
		t.Errorf("conversation generation = %+v", conversation)
	}

	override := Remote{Family: FamilyDavinci, SubType: SubTypeConversation, Model: "text-davinci-003"}
	if override.Generation().Model != "text-davinci-003" {
		t.Errorf("override model = %q", override.Generation().Model)
	}
	if override.Encoding() != tokens.EncodingP50k {
		t.Errorf("override encoding = %q, want p50k", override.Encoding())
	}
}

func TestEncodingFor(t *testing.T) {
	tests := map[string]tokens.Encoding{
		"davinci":          tokens.EncodingR50k,
		"text-davinci-001": tokens.EncodingR50k,
		"text-davinci-003": tokens.EncodingP50k,
		"code-davinci-002": tokens.EncodingP50k,
	}
	for name, want := range tests {
		if got := EncodingFor(name); got != want {
			t.Errorf("EncodingFor(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestNormalizeFamily(t *testing.T) {
	tests := map[string]Family{
		"GPT-J":            FamilyGPTJ,
		"openai-gpt":       FamilyGPT,
		"text-ada-001":     FamilyAda,
		"text-davinci-001": FamilyDavinci,
		"mystery":          Family("mystery"),
	}
	for name, want := range tests {
		if got := NormalizeFamily(name); got != want {
			t.Errorf("NormalizeFamily(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestUsageTracker(t *testing.T) {
	tracker := NewUsageTracker()
	tracker.Record("text-davinci-001", 1_000_000, 500_000)
	tracker.Record("text-davinci-001", 0, 500_000)
	tracker.Record("distilgpt2", 900, 80)

	davinci := tracker.Usage("text-davinci-001")
	if davinci.Requests != 2 || davinci.InputTokens != 1_000_000 || davinci.OutputTokens != 1_000_000 {
		t.Errorf("Usage(davinci) = %+v", davinci)
	}

	total := tracker.Total()
	if total.Requests != 3 || total.TotalTokens() != 2_000_980 {
		t.Errorf("Total() = %+v", total)
	}

	// Local models carry no price.
	if cost := tracker.EstimatedCost(); cost != 40.0 {
		t.Errorf("EstimatedCost() = %v, want 40", cost)
	}

	if u := tracker.Usage("unseen"); u != (Usage{}) {
		t.Errorf("Usage(unseen) = %+v, want zero", u)
	}
}

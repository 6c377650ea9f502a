package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/dialogkit/tokens"
)

// Family is a normalized model family name.
type Family string

// Local model families, hosted by the generation sidecar.
const (
	FamilyGPT  Family = "gpt"   // openai-gpt
	FamilyGPT2 Family = "gpt-2" // distilgpt2
	FamilyGPTJ Family = "gpt-j" // EleutherAI/gpt-j-6B
)

// Remote model families, served by the completion API.
const (
	FamilyAda     Family = "ada"
	FamilyDavinci Family = "davinci"
)

// SubType selects the generation profile of a remote model.
type SubType string

// Remote sub-types.
const (
	SubTypeCompletion   SubType = "completion"
	SubTypeConversation SubType = "conversation"
)

// Errors returned by Resolve.
var (
	ErrUnknownFamily  = errors.New("unknown model family")
	ErrUnknownSubType = errors.New("unknown remote sub-type")
)

// Limits describes a model's context window.
type Limits struct {
	// ContextSize is the number of tokens the model accepts.
	ContextSize int

	// ReservedResponse is the number of tokens held back for the reply.
	ReservedResponse int
}

// Budget returns the prompt budget for a template of templateTokens tokens.
func (l Limits) Budget(templateTokens int) tokens.Budget {
	return tokens.NewBudget(l.ContextSize, l.ReservedResponse, templateTokens)
}

// Generation holds the sampling parameters sent with every request.
type Generation struct {
	Model            string
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	Stop             []string
}

// Kind is the backend variant a model runs on: Local or Remote.
type Kind interface {
	// Limits returns the context window and response reservation.
	Limits() Limits

	// Generation returns the default sampling parameters.
	Generation() Generation

	// Encoding returns the tokenizer vocabulary used for budget checks.
	Encoding() tokens.Encoding

	fmt.Stringer
	kind()
}

// Local is a model hosted by the local generation sidecar.
type Local struct {
	Family Family
}

// Remote is a model served by the remote completion API.
type Remote struct {
	Family  Family
	SubType SubType

	// Model overrides the API model name derived from Family and SubType.
	Model string
}

func (Local) kind()  {}
func (Remote) kind() {}

// String returns the family name.
func (l Local) String() string {
	return string(l.Family)
}

// String returns "family/sub-type".
func (r Remote) String() string {
	return string(r.Family) + "/" + string(r.SubType)
}

var localWindows = map[Family]int{
	FamilyGPT:  500,
	FamilyGPT2: 900,
	FamilyGPTJ: 1000,
}

var localModels = map[Family]string{
	FamilyGPT:  "openai-gpt",
	FamilyGPT2: "distilgpt2",
	FamilyGPTJ: "EleutherAI/gpt-j-6B",
}

// Local generation parameters.
const (
	LocalReservedResponse = 80
	LocalMaxNewTokens     = 80
	LocalTemperature      = 0.7
)

// RemoteContextSize is the context window of the remote completion models.
const RemoteContextSize = 2048

// Limits implements Kind.
func (l Local) Limits() Limits {
	return Limits{ContextSize: localWindows[l.Family], ReservedResponse: LocalReservedResponse}
}

// Generation implements Kind.
func (l Local) Generation() Generation {
	return Generation{
		Model:       localModels[l.Family],
		MaxTokens:   LocalMaxNewTokens,
		Temperature: LocalTemperature,
	}
}

// Encoding implements Kind. All local families share the GPT-2 vocabulary
// closely enough for budget checks.
func (l Local) Encoding() tokens.Encoding {
	return tokens.EncodingR50k
}

// Limits implements Kind.
func (r Remote) Limits() Limits {
	return Limits{ContextSize: RemoteContextSize, ReservedResponse: r.Generation().MaxTokens}
}

// Generation implements Kind.
func (r Remote) Generation() Generation {
	var g Generation
	switch r.SubType {
	case SubTypeConversation:
		g = Generation{
			Model:            "text-" + string(r.Family) + "-001",
			MaxTokens:        60,
			Temperature:      0.5,
			TopP:             1,
			FrequencyPenalty: 0.5,
			Stop:             []string{"\n", "seeker:", "supporter:"},
		}
	default:
		g = Generation{
			Model:       string(r.Family),
			MaxTokens:   100,
			Temperature: 0.7,
			TopP:        1,
			Stop:        []string{"\n"},
		}
	}
	if r.Model != "" {
		g.Model = r.Model
	}
	return g
}

// Encoding implements Kind.
func (r Remote) Encoding() tokens.Encoding {
	return EncodingFor(r.Generation().Model)
}

// EncodingFor returns the tokenizer vocabulary for an API model name.
func EncodingFor(name string) tokens.Encoding {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "text-davinci-002"),
		strings.HasPrefix(lower, "text-davinci-003"),
		strings.HasPrefix(lower, "code-"):
		return tokens.EncodingP50k
	default:
		return tokens.EncodingR50k
	}
}

// NormalizeFamily converts a model identifier to its family.
// For example, "distilgpt2" becomes "gpt-2", "EleutherAI/gpt-j-6B" becomes
// "gpt-j" and "text-davinci-001" becomes "davinci". Unknown names are
// returned as-is.
func NormalizeFamily(name string) Family {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch Family(lower) {
	case FamilyGPT, FamilyGPT2, FamilyGPTJ, FamilyAda, FamilyDavinci:
		return Family(lower)
	}

	switch {
	case strings.Contains(lower, "gpt-j"), strings.Contains(lower, "gptj"):
		return FamilyGPTJ
	case strings.Contains(lower, "gpt2"), strings.Contains(lower, "gpt-2"):
		return FamilyGPT2
	case lower == "openai-gpt":
		return FamilyGPT
	case strings.Contains(lower, "davinci"):
		return FamilyDavinci
	case strings.Contains(lower, "ada"):
		return FamilyAda
	}
	return Family(name)
}

// Resolve maps a family name and, for remote families, a sub-type to a Kind.
// An empty sub-type selects completion.
func Resolve(family, subType string) (Kind, error) {
	f := NormalizeFamily(family)
	switch f {
	case FamilyGPT, FamilyGPT2, FamilyGPTJ:
		return Local{Family: f}, nil
	case FamilyAda, FamilyDavinci:
		st := SubType(strings.ToLower(subType))
		switch st {
		case "":
			st = SubTypeCompletion
		case SubTypeCompletion, SubTypeConversation:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownSubType, subType)
		}
		return Remote{Family: f, SubType: st}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
}

// Backend names used to register providers.
const (
	ProviderLocal  = "local"
	ProviderRemote = "remote"
)

// ProviderName returns the registered backend name for a kind.
func ProviderName(k Kind) string {
	switch k.(type) {
	case Remote:
		return ProviderRemote
	default:
		return ProviderLocal
	}
}

// Families returns every supported family.
func Families() []Family {
	return []Family{FamilyGPT, FamilyGPT2, FamilyGPTJ, FamilyAda, FamilyDavinci}
}

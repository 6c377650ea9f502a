package dialogue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Shape identifies how a source file stores conversations.
type Shape int

// Source shapes.
const (
	ShapeUnknown Shape = iota
	// ShapeUtterances stores each conversation as an array of utterances.
	ShapeUtterances
	// ShapeFlattened stores each conversation as one string.
	ShapeFlattened
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeUtterances:
		return "utterances"
	case ShapeFlattened:
		return "flattened"
	default:
		return "unknown"
	}
}

// Errors returned when parsing a dialogue source.
var (
	// ErrInvalidSource is returned when the source is not valid JSON.
	ErrInvalidSource = errors.New("dialogue source is not valid JSON")

	// ErrUnknownShape is returned when a source file's conversation field is
	// neither an array nor a string.
	ErrUnknownShape = errors.New("unrecognized dialogue source shape")
)

// Source holds the dialogues read from a source file. Exactly one of
// Dialogues and Flattened is populated, matching Shape.
type Source struct {
	Shape     Shape
	Dialogues []Dialogue
	Flattened []Flat
}

// Len returns the number of dialogues in the source.
func (s *Source) Len() int {
	if s.Shape == ShapeFlattened {
		return len(s.Flattened)
	}
	return len(s.Dialogues)
}

// DetectShape inspects the first record of a JSON array of dialogues.
func DetectShape(data []byte) Shape {
	conv := gjson.GetBytes(data, "0.conversation")
	switch {
	case conv.IsArray():
		return ShapeUtterances
	case conv.Type == gjson.String:
		return ShapeFlattened
	default:
		return ShapeUnknown
	}
}

// ParseSource decodes a JSON array of dialogues in either shape.
func ParseSource(data []byte) (*Source, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidSource
	}
	if gjson.ParseBytes(data).IsArray() && gjson.GetBytes(data, "#").Int() == 0 {
		return &Source{Shape: ShapeUtterances}, nil
	}

	src := &Source{Shape: DetectShape(data)}
	switch src.Shape {
	case ShapeUtterances:
		if err := json.Unmarshal(data, &src.Dialogues); err != nil {
			return nil, fmt.Errorf("parse dialogue source: %w", err)
		}
	case ShapeFlattened:
		if err := json.Unmarshal(data, &src.Flattened); err != nil {
			return nil, fmt.Errorf("parse dialogue source: %w", err)
		}
	default:
		return nil, ErrUnknownShape
	}
	return src, nil
}

// LoadSource reads a dialogue source file.
func LoadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dialogue source: %w", err)
	}
	src, err := ParseSource(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// LoadExamples reads an example bank file.
func LoadExamples(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read example bank: %w", err)
	}

	// Banks may carry utterance-keyed conversations; flatten them on load.
	if DetectShape(data) == ShapeUtterances {
		var records []struct {
			Example
			Conversation []Utterance `json:"conversation"`
		}
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%s: parse example bank: %w", path, err)
		}
		examples := make([]Example, len(records))
		for i, r := range records {
			ex := r.Example
			ex.Conversation = Flatten(Dialogue{Conversation: r.Conversation}).Conversation
			examples[i] = ex
		}
		return examples, nil
	}

	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("%s: parse example bank: %w", path, err)
	}
	return examples, nil
}

// WriteFlattened writes dialogues in flattened form as an indented JSON array.
func WriteFlattened(path string, ds []Dialogue) error {
	data, err := json.MarshalIndent(FlattenAll(ds), "", "    ")
	if err != nil {
		return fmt.Errorf("encode flattened source: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write flattened source: %w", err)
	}
	return nil
}

package dialogue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDialogue() Dialogue {
	return Dialogue{
		EmotionType: "sadness",
		ProblemType: "job crisis",
		Conversation: []Utterance{
			{Speaker: Supporter, Content: "Hi"},
			{Speaker: Seeker, Content: "I feel sad"},
			{Speaker: Supporter, Content: "Why?"},
			{Speaker: Seeker, Content: "Work stress"},
		},
	}
}

func TestDialogue_Validate(t *testing.T) {
	tests := []struct {
		name    string
		conv    []Utterance
		wantErr error
	}{
		{
			name: "leading supporter",
			conv: sampleDialogue().Conversation,
		},
		{
			name: "leading seeker",
			conv: []Utterance{{Seeker, "a"}, {Supporter, "b"}},
		},
		{
			name:    "repeated speaker",
			conv:    []Utterance{{Seeker, "a"}, {Seeker, "b"}, {Supporter, "c"}},
			wantErr: ErrNotAlternating,
		},
		{
			name:    "unknown speaker",
			conv:    []Utterance{{Seeker, "a"}, {"therapist", "b"}},
			wantErr: ErrUnknownSpeaker,
		},
		{
			name:    "seeker only",
			conv:    []Utterance{{Seeker, "a"}},
			wantErr: ErrMissingSpeaker,
		},
		{
			name:    "empty",
			wantErr: ErrMissingSpeaker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Dialogue{Conversation: tt.conv}.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFlatten(t *testing.T) {
	flat := Flatten(sampleDialogue())

	assert.Equal(t, "sadness", flat.EmotionType)
	assert.Equal(t, "job crisis", flat.ProblemType)
	assert.Equal(t, "supporter: Hi\nseeker: I feel sad\nsupporter: Why?\nseeker: Work stress\n", flat.Conversation)
	assert.Equal(t, 2, sampleDialogue().SeekerTurns())
}

func TestDetectShape(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Shape
	}{
		{"utterance array", `[{"conversation":[{"speaker":"seeker","content":"hi"}]}]`, ShapeUtterances},
		{"flattened string", `[{"conversation":"seeker: hi\n"}]`, ShapeFlattened},
		{"missing field", `[{"situation":"x"}]`, ShapeUnknown},
		{"not an array", `{"conversation":[]}`, ShapeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectShape([]byte(tt.data)))
		})
	}
}

func TestParseSource(t *testing.T) {
	t.Run("utterances", func(t *testing.T) {
		src, err := ParseSource([]byte(`[{"emotion_type":"anxiety","problem_type":"exams","conversation":[{"speaker":"supporter","content":"Hi"},{"speaker":"seeker","content":"I am nervous"}]}]`))
		require.NoError(t, err)
		assert.Equal(t, ShapeUtterances, src.Shape)
		require.Len(t, src.Dialogues, 1)
		assert.Equal(t, 1, src.Len())
		assert.Equal(t, Seeker, src.Dialogues[0].Conversation[1].Speaker)
	})

	t.Run("flattened", func(t *testing.T) {
		src, err := ParseSource([]byte(`[{"conversation":"supporter: Hi\nseeker: I am nervous\n"},{"conversation":"seeker: hello\n"}]`))
		require.NoError(t, err)
		assert.Equal(t, ShapeFlattened, src.Shape)
		assert.Equal(t, 2, src.Len())
		assert.Equal(t, "seeker: hello\n", src.Flattened[1].Conversation)
	})

	t.Run("empty array", func(t *testing.T) {
		src, err := ParseSource([]byte(`[]`))
		require.NoError(t, err)
		assert.Equal(t, 0, src.Len())
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseSource([]byte(`[{`))
		assert.ErrorIs(t, err, ErrInvalidSource)
	})

	t.Run("unknown shape", func(t *testing.T) {
		_, err := ParseSource([]byte(`[{"conversation":42}]`))
		assert.ErrorIs(t, err, ErrUnknownShape)
	})
}

func TestLoadExamples(t *testing.T) {
	dir := t.TempDir()

	flat := filepath.Join(dir, "flat.json")
	require.NoError(t, os.WriteFile(flat, []byte(`[{"emotion_type":"anger","problem_type":"breakup","conversation":"seeker: ugh\n","feel":"angry","reason":"breakup","suggestion":"talk"}]`), 0o644))

	examples, err := LoadExamples(flat)
	require.NoError(t, err)
	require.Len(t, examples, 1)
	assert.Equal(t, "seeker: ugh\n", examples[0].Conversation)
	assert.Equal(t, "talk", examples[0].Suggestion)

	keyed := filepath.Join(dir, "keyed.json")
	require.NoError(t, os.WriteFile(keyed, []byte(`[{"emotion_type":"fear","problem_type":"health","conversation":[{"speaker":"seeker","content":"scared"}],"feel":"afraid","reason":"diagnosis","suggestion":"rest"}]`), 0o644))

	examples, err = LoadExamples(keyed)
	require.NoError(t, err)
	require.Len(t, examples, 1)
	assert.Equal(t, "seeker: scared\n", examples[0].Conversation)
	assert.Equal(t, "fear", examples[0].EmotionType)
	assert.Equal(t, "afraid", examples[0].Feel)

	_, err = LoadExamples(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestWriteFlattened(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flat.json")
	require.NoError(t, WriteFlattened(path, []Dialogue{sampleDialogue()}))

	src, err := LoadSource(path)
	require.NoError(t, err)
	assert.Equal(t, ShapeFlattened, src.Shape)
	require.Len(t, src.Flattened, 1)
	assert.Equal(t, Flatten(sampleDialogue()), src.Flattened[0])
}

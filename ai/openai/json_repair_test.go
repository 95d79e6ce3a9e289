package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already valid",
			input: `{"selected": []}`,
			want:  `{"selected": []}`,
		},
		{
			name:  "surrounding chatter",
			input: `Here is the answer: {"selected": []} Hope this helps!`,
			want:  `{"selected": []}`,
		},
		{
			name:  "missing opening quote on key",
			input: `{"selected": [{"id": "1", confidence": 0.5}]}`,
			want:  `{"selected": [{"id": "1", "confidence": 0.5}]}`,
		},
		{
			name:  "trailing commas",
			input: `{"selected": [{"id": "1",},]}`,
			want:  `{"selected": [{"id": "1"}]}`,
		},
		{
			name:  "commas inside strings untouched",
			input: `{"reason": "a, }"}`,
			want:  `{"reason": "a, }"}`,
		},
		{
			name:  "escaped quotes inside strings",
			input: `{"reason": "say \"hi\", then", "id": "1"}`,
			want:  `{"reason": "say \"hi\", then", "id": "1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repairJSON(tt.input)
			assert.Equal(t, tt.want, got)
			assert.True(t, json.Valid([]byte(got)), "repaired output should be valid JSON: %s", got)
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, stripCodeFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripCodeFences(`{"a": 1}`))
}

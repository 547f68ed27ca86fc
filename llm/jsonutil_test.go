package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"a": 1}`,
			want:    `{"a": 1}`,
		},
		{
			name:    "fenced json block",
			content: "Claro:\n```json\n{\"a\": 1}\n```\nListo.",
			want:    `{"a": 1}`,
		},
		{
			name:    "fence without language tag",
			content: "```\n{\"a\": 1}\n```",
			want:    `{"a": 1}`,
		},
		{
			name:    "object with surrounding prose",
			content: `La paleta es {"primary": "#111"} como pediste.`,
			want:    `{"primary": "#111"}`,
		},
		{
			name:    "trailing comma stripped",
			content: `{"a": 1, "b": 2,}`,
			want:    `{"a": 1, "b": 2}`,
		},
		{
			name:    "no object",
			content: "lo siento, no puedo ayudar con eso",
			want:    "",
		},
		{
			name:    "empty input",
			content: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.content)
			assert.Equal(t, tt.want, got)
			if got != "" {
				var v map[string]any
				require.NoError(t, json.Unmarshal([]byte(got), &v), "extracted JSON must parse")
			}
		})
	}
}

package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name     string
		envelope string
		want     string
		wantErr  string
	}{
		{
			name:     "gemini single part",
			envelope: `{"candidates":[{"content":{"parts":[{"text":"hello"}]}}]}`,
			want:     "hello",
		},
		{
			name:     "gemini concatenates parts in order",
			envelope: `{"candidates":[{"content":{"parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`,
			want:     `{"a":1}`,
		},
		{
			name:     "gemini skips non-text parts",
			envelope: `{"candidates":[{"content":{"parts":[{"inlineData":{}},{"text":"ok"}]}}]}`,
			want:     "ok",
		},
		{
			name:     "openai chat completion",
			envelope: `{"choices":[{"message":{"content":"  result  "}}]}`,
			want:     "result",
		},
		{
			name:     "empty candidate list",
			envelope: `{"candidates":[]}`,
			wantErr:  "candidate list is empty",
		},
		{
			name:     "candidate without content",
			envelope: `{"candidates":[{"finishReason":"SAFETY"}]}`,
			wantErr:  "no content",
		},
		{
			name:     "content without parts",
			envelope: `{"candidates":[{"content":{"role":"model"}}]}`,
			wantErr:  "no parts",
		},
		{
			name:     "parts concatenate to nothing",
			envelope: `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`,
			wantErr:  "empty",
		},
		{
			name:     "empty choice list",
			envelope: `{"choices":[]}`,
			wantErr:  "choice list is empty",
		},
		{
			name:     "choice without message content",
			envelope: `{"choices":[{"message":{}}]}`,
			wantErr:  "no message content",
		},
		{
			name:     "unknown envelope",
			envelope: `{"output":"text"}`,
			wantErr:  "neither candidates nor choices",
		},
		{
			name:     "not JSON at all",
			envelope: `<html>502</html>`,
			wantErr:  "not valid JSON",
		},
		{
			name:     "empty body",
			envelope: ``,
			wantErr:  "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(json.RawMessage(tt.envelope))
			if tt.wantErr != "" {
				require.Error(t, err)
				var extractErr *ExtractionError
				require.ErrorAs(t, err, &extractErr)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		want    any
		name    string
		text    string
		wantErr bool
	}{
		{
			name: "direct object",
			text: `{"type":"expense"}`,
			want: map[string]any{"type": "expense"},
		},
		{
			name: "fenced block with json tag",
			text: "Here you go:\n```json\n{\"type\":\"expense\"}\n```\nLet me know if you need more.",
			want: map[string]any{"type": "expense"},
		},
		{
			name: "fenced block without tag",
			text: "```\n{\"confidence\":85}\n```",
			want: map[string]any{"confidence": float64(85)},
		},
		{
			name: "object embedded in prose",
			text: `Sure! The answer is {"type":"income"} as requested.`,
			want: map[string]any{"type": "income"},
		},
		{
			name: "nested object needs greedy span",
			text: `Result: {"a":{"b":1},"c":2} done`,
			want: map[string]any{"a": map[string]any{"b": float64(1)}, "c": float64(2)},
		},
		{
			name: "multiline object via balanced scan",
			text: "prefix {\n\"type\": \"expense\",\n\"confidence\": 90\n} suffix",
			want: map[string]any{"type": "expense", "confidence": float64(90)},
		},
		{
			name: "trailing comma repaired",
			text: `{"type":"expense","confidence":85,}`,
			want: map[string]any{"type": "expense", "confidence": float64(85)},
		},
		{
			name: "single quotes repaired",
			text: `{'type': 'expense'}`,
			want: map[string]any{"type": "expense"},
		},
		{
			name:    "no JSON anywhere",
			text:    "I could not classify this transaction, sorry.",
			wantErr: true,
		},
		{
			name:    "empty text",
			text:    "   ",
			wantErr: true,
		},
		{
			name:    "unclosed brace",
			text:    `{"type":"expense"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				var parseErr *ParseError
				assert.ErrorAs(t, err, &parseErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Already-valid JSON must survive extraction unchanged regardless of which
// strategy picks it up.
func TestExtractJSONIdempotent(t *testing.T) {
	value := map[string]any{
		"type":        "expense",
		"categoryIds": []any{"food"},
		"confidence":  float64(90),
		"description": "午餐 三星 100元",
	}
	encoded, err := json.Marshal(value)
	require.NoError(t, err)

	first, err := ExtractJSON(string(encoded))
	require.NoError(t, err)
	assert.Equal(t, value, first)

	reEncoded, err := json.Marshal(first)
	require.NoError(t, err)
	second, err := ExtractJSON(string(reEncoded))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseEnvelope(t *testing.T) {
	envelope := `{"candidates":[{"content":{"parts":[{"text":"` +
		"```json\\n{\\\"type\\\": \\\"expense\\\"}\\n```" + `"}]}}]}`

	value, err := ParseEnvelope(json.RawMessage(envelope))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "expense"}, value)

	_, err = ParseEnvelope(json.RawMessage(`{"candidates":[]}`))
	require.Error(t, err)
}

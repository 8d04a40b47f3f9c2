package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamURL(t *testing.T) {
	tests := []struct {
		name, base, path, want string
	}{
		{"bare host", "https://api.siliconflow.cn", "", "https://api.siliconflow.cn/v1/chat/completions"},
		{"trailing slash", "https://api.siliconflow.cn/", "/v1/chat/completions", "https://api.siliconflow.cn/v1/chat/completions"},
		{"already complete", "https://api.example.com/v1/chat/completions", "", "https://api.example.com/v1/chat/completions"},
		{"complete with slash", "https://api.example.com/openai/chat/completions/", "", "https://api.example.com/openai/chat/completions/"},
		{"custom path", "https://gateway.example.com/proxy", "chat/completions", "https://gateway.example.com/proxy/chat/completions"},
		{"versioned base", "https://api.example.com/v1", "/v1/chat/completions", "https://api.example.com/v1/v1/chat/completions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UpstreamURL(tt.base, tt.path))
		})
	}
}

func TestExtractContent(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{"choices", `{"choices":[{"message":{"content":"hola"}}]}`, "hola", true},
		{"direct content wins", `{"content":"direct","choices":[{"message":{"content":"nested"}}]}`, "direct", true},
		{"empty direct falls through", `{"content":"","choices":[{"message":{"content":"nested"}}]}`, "nested", true},
		{"empty choices", `{"choices":[]}`, "", false},
		{"no message", `{"choices":[{}]}`, "", false},
		{"empty nested content", `{"choices":[{"message":{"content":""}}]}`, "", false},
		{"non-string content", `{"content":5}`, "", false},
		{"array body", `[1,2]`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data any
			require.NoError(t, json.Unmarshal([]byte(tt.body), &data))
			got, ok := ExtractContent(data)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := ExtractContent("plain text")
	assert.False(t, ok)
	_, ok = ExtractContent(nil)
	assert.False(t, ok)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"nested error", map[string]any{"error": map[string]any{"message": "bad key"}, "message": "flat"}, "bad key"},
		{"flat message", map[string]any{"message": "flat"}, "flat"},
		{"error string ignored", map[string]any{"error": "nope"}, "fallback"},
		{"empty messages", map[string]any{"error": map[string]any{"message": ""}, "message": ""}, "fallback"},
		{"text body", "Bad Gateway", "fallback"},
		{"nil body", nil, "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.body, "fallback"))
		})
	}
}

func TestNewChatCompletionRequestWireFormat(t *testing.T) {
	raw, err := json.Marshal(NewChatCompletionRequest("m", "sys", "user text"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "m",
		"messages": [
			{"role": "system", "content": "sys"},
			{"role": "user", "content": "user text"}
		],
		"stream": false
	}`, string(raw))
}

func TestDefaultPipeline(t *testing.T) {
	assert.Equal(t, 2, DefaultPipeline().Len())
}

// Package relay implements the chat-completion relay: an HTTP endpoint that
// fills in defaults, forwards a single rewrite request to an OpenAI-compatible
// upstream and normalizes the answer, plus the Caller that talks to a relay.
package relay

// Request is the body accepted by the relay endpoint and sent by Caller.
// Every field but Content falls back to the configured default when empty.
type Request struct {
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model,omitempty"`
	Prompt  string `json:"prompt,omitempty"`
	Content string `json:"content" validate:"required"`
}

// Outcome is the normalized relay answer. Code mirrors the HTTP status;
// Content is set on success and Message on failure.
type Outcome struct {
	Code    int    `json:"code" yaml:"code"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// OK reports whether the outcome carries rewritten content.
func (o Outcome) OK() bool {
	return o.Code == 200
}

// ChatMessage is one entry of a chat-completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the payload posted upstream.
type ChatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Chat roles used by the relay.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// NewChatCompletionRequest builds the non-streaming system plus user payload.
func NewChatCompletionRequest(model, prompt, content string) ChatCompletionRequest {
	return ChatCompletionRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: prompt},
			{Role: RoleUser, Content: content},
		},
		Stream: false,
	}
}

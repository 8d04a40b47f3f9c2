package relay

import (
	"net/url"
	"strings"

	"github.com/gaborage/relay-bricks/config"
	relayhttp "github.com/gaborage/relay-bricks/http"
	"github.com/gaborage/relay-bricks/logger"
)

const completionsSuffix = "/chat/completions"

// UpstreamURL returns the endpoint to post to. A base URL whose path already
// ends in /chat/completions is used as is; anything else gets path appended
// (config.DefaultUpstreamPath when path is empty).
func UpstreamURL(baseURL, path string) string {
	if path == "" {
		path = config.DefaultUpstreamPath
	}
	if u, err := url.Parse(baseURL); err == nil && strings.HasSuffix(strings.TrimRight(u.Path, "/"), completionsSuffix) {
		return baseURL
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// DefaultPipeline forwards the inbound request id and the active trace context upstream.
func DefaultPipeline() *relayhttp.Pipeline {
	return relayhttp.NewPipeline().
		UseRequest("request-id", relayhttp.RequestIDInterceptor()).
		UseRequest("trace-propagation", relayhttp.TracePropagationInterceptor())
}

// NewUpstreamClient builds the client the relay uses for chat-completion calls.
// A nil pipeline uses DefaultPipeline.
func NewUpstreamClient(cfg config.UpstreamConfig, log logger.Logger, pipeline *relayhttp.Pipeline) relayhttp.Client {
	if pipeline == nil {
		pipeline = DefaultPipeline()
	}
	b := relayhttp.NewBuilder(log).
		WithRetries(cfg.Retries, cfg.RetryDelay).
		WithPipeline(pipeline)
	if cfg.Timeout > 0 {
		b.WithTimeout(cfg.Timeout)
	}
	return b.Build()
}

// ExtractContent pulls the rewritten text out of a parsed response body.
// A non-empty top-level "content" string wins over choices[0].message.content.
func ExtractContent(data any) (string, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return "", false
	}
	if content, ok := m["content"].(string); ok && content != "" {
		return content, true
	}

	choices, ok := m["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return "", false
	}
	content, ok := message["content"].(string)
	if !ok || content == "" {
		return "", false
	}
	return content, true
}

// ErrorMessage picks error.message, then message, from a parsed error body,
// returning fallback when neither is a non-empty string.
func ErrorMessage(body any, fallback string) string {
	m, ok := body.(map[string]any)
	if !ok {
		return fallback
	}
	if e, ok := m["error"].(map[string]any); ok {
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	}
	if msg, ok := m["message"].(string); ok && msg != "" {
		return msg
	}
	return fallback
}

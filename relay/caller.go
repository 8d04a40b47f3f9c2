package relay

import (
	"context"
	"fmt"
	"net/http"

	relayhttp "github.com/gaborage/relay-bricks/http"
)

// Messages returned by Caller.Act.
const (
	MsgRelayNotConfigured    = "relay URL is not configured"
	MsgEmptyContent          = "content must not be empty"
	MsgRelayUnexpectedFormat = "relay returned an unexpected response format"
)

// Caller sends rewrite requests to a deployed relay.
type Caller struct {
	client   relayhttp.Client
	relayURL string
}

// NewCaller creates a Caller posting to relayURL through client.
func NewCaller(client relayhttp.Client, relayURL string) *Caller {
	return &Caller{client: client, relayURL: relayURL}
}

// Act posts req to the relay and folds every result, including transport
// failures, into an Outcome. Empty optional fields are left for the relay to default.
func (c *Caller) Act(ctx context.Context, req Request) Outcome {
	if c.relayURL == "" {
		return Outcome{Code: http.StatusInternalServerError, Message: MsgRelayNotConfigured}
	}
	if req.Content == "" {
		return Outcome{Code: http.StatusBadRequest, Message: MsgEmptyContent}
	}

	resp, err := c.client.Post(ctx, c.relayURL, req)
	if err != nil {
		if ce, ok := relayhttp.AsClientError(err); ok && ce.Kind == relayhttp.HTTPError {
			fallback := fmt.Sprintf("relay request failed with status %d", ce.Status)
			return Outcome{Code: ce.Status, Message: ErrorMessage(ce.Body, fallback)}
		}
		return Outcome{Code: http.StatusInternalServerError, Message: "failed to reach the relay: " + err.Error()}
	}

	content, ok := ExtractContent(resp.Data)
	if !ok {
		return Outcome{Code: http.StatusInternalServerError, Message: MsgRelayUnexpectedFormat}
	}
	return Outcome{Code: http.StatusOK, Content: content}
}

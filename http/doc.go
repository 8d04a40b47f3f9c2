// Package http provides a small, composable HTTP client used both by relay
// callers and by the relay itself when it talks to the upstream API.
//
// Every request flows through a single funnel (Client.Do):
//   - the descriptor is cloned and headers are merged
//     (client defaults, then call options, then headers set on the Request);
//   - request interceptors registered on the client's Pipeline run in order;
//   - the body is encoded (JSON unless the content type or a *Form says otherwise);
//   - the transport call is raced against the per-request timeout;
//   - non-2xx statuses become *ClientError values of kind HTTPError;
//   - success bodies are parsed (JSON first, raw text fallback) and folded
//     through the response interceptors.
//
// Retries
//   - Controlled via Builder.WithRetries(maxRetries, retryDelay).
//   - The whole attempt above is repeated, whatever the failure kind.
//   - The delay between attempts is fixed: no backoff, no jitter.
//   - A cancelled context stops retrying; the last error is returned unchanged.
//
// Timeouts
//   - A non-positive timeout fails immediately with a timeout error.
//   - Timeouts are reported as kind TimeoutError with the message "Request timed out"
//     and wrap context.DeadlineExceeded.
package http

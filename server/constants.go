package server

import "time"

// Fallback server timeouts, applied when the corresponding config value is zero.
//
// The write timeout has to outlive the relay's upstream timeout, otherwise the
// connection is torn down before a slow completion comes back.
const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 200 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the maximum time to wait for graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// Route defaults used when the path config leaves them empty.
const (
	DefaultHealthRoute = "/health"
	DefaultReadyRoute  = "/ready"
)

// slowRequestThreshold marks successful requests as WARN in the request log.
// Relay calls routinely take seconds, so the bar sits well above the usual 1s.
const slowRequestThreshold = 30 * time.Second

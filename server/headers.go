package server

// HTTP header names that Echo does not already export.
const (
	// HeaderXResponseTime reports request processing duration.
	// Set by the timing middleware on all responses.
	HeaderXResponseTime = "X-Response-Time"

	// HeaderAllow lists the methods accepted by the relay endpoint.
	HeaderAllow = "Allow"
)

// CORS response headers emitted by the relay CORS middleware.
const (
	HeaderAccessControlAllowOrigin   = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods  = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders  = "Access-Control-Allow-Headers"
	HeaderAccessControlMaxAge        = "Access-Control-Max-Age"
	HeaderAccessControlRequestMethod = "Access-Control-Request-Method"
	// HeaderAccessControlRequestHeaders is sent by browsers on a preflight.
	HeaderAccessControlRequestHeaders = "Access-Control-Request-Headers"
)

package constants

import "time"

// ContentTypeHeader is the HTTP Content-Type header name.
const ContentTypeHeader = "Content-Type"

// ContentTypeJSON is the media type of JSON bodies.
const ContentTypeJSON = "application/json"

// RequestIDHeader is the header the local gateway uses to expose the invocation request ID.
const RequestIDHeader = "X-Request-Id"

// ServerReadHeaderTimeout is the HTTP server read header timeout
const ServerReadHeaderTimeout = 15 * time.Second

// ServerIdleTimeout is the HTTP server idle timeout
const ServerIdleTimeout = 60 * time.Second

// ServerShutdownTimeout is the timeout for graceful server shutdown
const ServerShutdownTimeout = 5 * time.Second

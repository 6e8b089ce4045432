package constants

// Server transports.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// GenericToolName is the tool exposed when server.generic_tool is enabled.
const GenericToolName = "http_request"

// Idempotency cache key strategies.
const (
	CacheKeyStrategyAuto          = "auto"
	CacheKeyStrategyCorrelationID = "correlation_id"
	CacheKeyStrategyArgumentsHash = "arguments_hash"
	CacheKeyStrategyRequestHash   = "request_hash"
)

// Tool argument names with reserved meaning.
const (
	ArgCorrelationID  = "correlation_id"
	ArgRequestID      = "request_id"
	ArgResponseFormat = "response_format"
)

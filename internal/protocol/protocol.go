package protocol

// Tool execution statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ToolResponse is the fixed JSON response returned to MCP clients for an
// HTTP exchange.
type ToolResponse struct {
	// Status indicates the execution status.
	Status string `json:"status"`
	// StatusCode is the upstream HTTP status, zero when no response arrived.
	StatusCode int `json:"status_code,omitempty"`
	// Headers holds redacted upstream response headers.
	Headers map[string]string `json:"headers,omitempty"`
	// Body is the decoded upstream body, or its text when not decodable.
	Body any `json:"body,omitempty"`
	// ErrorKind classifies a failed exchange (transport, timeout, decode, ...).
	ErrorKind string `json:"error_kind,omitempty"`
	// Reason is a human-readable message.
	Reason string `json:"reason,omitempty"`
	// CorrelationID links related requests.
	CorrelationID string `json:"correlation_id"`
}

// GenericRequest is the input of the generic http_request tool.
type GenericRequest struct {
	// Method is the HTTP verb, GET when empty.
	Method string `json:"method,omitempty" jsonschema:"HTTP method, GET when empty"`
	// URL is the absolute target URL.
	URL string `json:"url" jsonschema:"absolute http or https URL"`
	// Headers are sent as-is.
	Headers map[string]string `json:"headers,omitempty"`
	// Query is merged into the URL query string.
	Query map[string]string `json:"query,omitempty"`
	// Body is encoded with the codec.
	Body any `json:"body,omitempty"`
	// Codec selects json, yaml or raw.
	Codec string `json:"codec,omitempty" jsonschema:"json, yaml or raw"`
	// Timeout is a Go duration string.
	Timeout string `json:"timeout,omitempty" jsonschema:"Go duration such as 5s"`
	// ExpectSuccess turns non-2xx statuses into errors.
	ExpectSuccess bool `json:"expect_success,omitempty"`
	// CorrelationID is forwarded as X-Correlation-ID.
	CorrelationID string `json:"correlation_id,omitempty"`
}

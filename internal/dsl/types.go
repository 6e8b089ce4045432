package dsl

// Config is the top-level YAML configuration.
type Config struct {
	// Server describes the MCP server settings.
	Server ServerConfig `yaml:"server"`
	// Tools lists all HTTP tool declarations.
	Tools []ToolConfig `yaml:"tools"`
	// Resources lists static resources.
	Resources []ResourceConfig `yaml:"resources"`
}

// ServerConfig defines MCP server settings.
type ServerConfig struct {
	// Name is the MCP server name.
	Name string `yaml:"name"`
	// Version is the MCP server version.
	Version string `yaml:"version"`
	// Transport selects the server transport ("http" or "stdio").
	Transport string `yaml:"transport"`
	// ShutdownTimeout overrides graceful shutdown duration.
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	// Idempotency configures optional response caching.
	Idempotency IdempotencyConfig `yaml:"idempotency_cache"`
	// HTTP configures HTTP transport.
	HTTP HTTPConfig `yaml:"http"`
	// GenericTool exposes the free-form http_request tool.
	GenericTool bool `yaml:"generic_tool"`
	// DefaultHeaders are sent with every upstream request.
	DefaultHeaders map[string]string `yaml:"default_headers"`
	// MaxRedirects bounds followed redirects; negative disables following.
	MaxRedirects *int `yaml:"max_redirects"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// Path is the MCP HTTP endpoint path.
	Path string `yaml:"path"`
	// ReadTimeout limits request read time.
	ReadTimeout string `yaml:"read_timeout"`
	// WriteTimeout limits response write time.
	WriteTimeout string `yaml:"write_timeout"`
	// IdleTimeout controls idle connections.
	IdleTimeout string `yaml:"idle_timeout"`
	// Stateless disables session tracking.
	Stateless bool `yaml:"stateless"`
}

// ToolConfig declares a tool backed by one upstream HTTP request.
type ToolConfig struct {
	// Name is the tool name.
	Name string `yaml:"name"`
	// Title is the human-friendly tool title.
	Title string `yaml:"title"`
	// Description explains the tool for the agent.
	Description string `yaml:"description"`
	// Annotations provides optional tool hints.
	Annotations *ToolAnnotationsConfig `yaml:"annotations,omitempty"`
	// Timeout bounds the upstream exchange.
	Timeout string `yaml:"timeout"`
	// CacheTTL overrides the idempotency cache ttl for this tool.
	CacheTTL string `yaml:"cache_ttl"`
	// InputSchema defines JSON Schema for tool input.
	InputSchema map[string]any `yaml:"input_schema"`
	// OutputSchema defines JSON Schema for tool output.
	OutputSchema map[string]any `yaml:"output_schema"`
	// Request describes the upstream request.
	Request RequestConfig `yaml:"request"`
	// Tags is an optional list of tags.
	Tags []string `yaml:"tags"`
}

// RequestConfig is an upstream request template. String values may use
// [[ ]] templates over the tool arguments.
type RequestConfig struct {
	// Method is the HTTP verb, GET by default.
	Method string `yaml:"method"`
	// URL is the absolute target URL template.
	URL string `yaml:"url"`
	// Headers are header templates.
	Headers map[string]string `yaml:"headers"`
	// Query are query parameter templates.
	Query map[string]string `yaml:"query"`
	// Body is a raw body template.
	Body string `yaml:"body"`
	// BodyArg names the argument encoded as the body with the codec.
	BodyArg string `yaml:"body_arg"`
	// Codec selects json, yaml or raw.
	Codec string `yaml:"codec"`
	// ExpectSuccess turns non-2xx statuses into errors.
	ExpectSuccess bool `yaml:"expect_success"`
}

// ResourceConfig declares a static MCP resource.
type ResourceConfig struct {
	// Name is a human-friendly resource name.
	Name string `yaml:"name"`
	// URI is the resource identifier.
	URI string `yaml:"uri"`
	// Description explains the resource.
	Description string `yaml:"description"`
	// MIMEType sets the content type.
	MIMEType string `yaml:"mime_type"`
	// Text is the static resource content.
	Text string `yaml:"text"`
}

// IdempotencyConfig configures response caching for repeated tool calls.
type IdempotencyConfig struct {
	// Enabled toggles idempotency caching.
	Enabled bool `yaml:"enabled"`
	// TTL controls how long cached responses are kept.
	TTL string `yaml:"ttl"`
	// MaxEntries limits the cache size.
	MaxEntries int `yaml:"max_entries"`
	// KeyStrategy selects cache key strategy (auto, correlation_id, arguments_hash, request_hash).
	KeyStrategy string `yaml:"key_strategy"`
}

// ToolAnnotationsConfig defines tool behavior hints.
type ToolAnnotationsConfig struct {
	ReadOnlyHint    bool   `yaml:"read_only_hint,omitempty"`
	DestructiveHint *bool  `yaml:"destructive_hint,omitempty"`
	IdempotentHint  bool   `yaml:"idempotent_hint,omitempty"`
	OpenWorldHint   *bool  `yaml:"open_world_hint,omitempty"`
	Title           string `yaml:"title,omitempty"`
}

package dsl

import (
	"fmt"
	"strings"

	"github.com/codex-k8s/http-executor/internal/codec"
	"github.com/codex-k8s/http-executor/internal/constants"
	"github.com/codex-k8s/http-executor/internal/request"
	"github.com/codex-k8s/http-executor/internal/timeutil"
)

// Validate applies defaults and verifies required fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Server.Name == "" {
		return fmt.Errorf("server.name is required")
	}
	if cfg.Server.Version == "" {
		return fmt.Errorf("server.version is required")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Server.Transport)) {
	case "":
		cfg.Server.Transport = constants.TransportHTTP
	case constants.TransportHTTP, constants.TransportStdio:
		cfg.Server.Transport = strings.ToLower(strings.TrimSpace(cfg.Server.Transport))
	default:
		return fmt.Errorf("server.transport must be http or stdio")
	}
	if strings.TrimSpace(cfg.Server.HTTP.Listen) == "" {
		cfg.Server.HTTP.Listen = ":8080"
	}
	if cfg.Server.HTTP.Path == "" {
		cfg.Server.HTTP.Path = "/mcp"
	}
	if !strings.HasPrefix(cfg.Server.HTTP.Path, "/") {
		return fmt.Errorf("server.http.path must start with /")
	}
	durations := map[string]string{
		"server.shutdown_timeout":   cfg.Server.ShutdownTimeout,
		"server.http.read_timeout":  cfg.Server.HTTP.ReadTimeout,
		"server.http.write_timeout": cfg.Server.HTTP.WriteTimeout,
		"server.http.idle_timeout":  cfg.Server.HTTP.IdleTimeout,
	}
	for field, value := range durations {
		if _, _, err := timeutil.ParseOptional(value); err != nil {
			return fmt.Errorf("%s is invalid: %w", field, err)
		}
	}
	for key := range cfg.Server.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("server.default_headers contains an empty key")
		}
	}

	if cfg.Server.Idempotency.Enabled {
		if cfg.Server.Idempotency.TTL == "" {
			cfg.Server.Idempotency.TTL = "1h"
		}
		if cfg.Server.Idempotency.MaxEntries == 0 {
			cfg.Server.Idempotency.MaxEntries = 1000
		}
		if cfg.Server.Idempotency.MaxEntries < 0 {
			return fmt.Errorf("server.idempotency_cache.max_entries must be >= 0")
		}
		if _, _, err := timeutil.ParseOptional(cfg.Server.Idempotency.TTL); err != nil {
			return fmt.Errorf("server.idempotency_cache.ttl is invalid: %w", err)
		}
		if cfg.Server.Idempotency.KeyStrategy == "" {
			cfg.Server.Idempotency.KeyStrategy = constants.CacheKeyStrategyAuto
		}
		switch strings.ToLower(strings.TrimSpace(cfg.Server.Idempotency.KeyStrategy)) {
		case constants.CacheKeyStrategyAuto, constants.CacheKeyStrategyCorrelationID, constants.CacheKeyStrategyArgumentsHash, constants.CacheKeyStrategyRequestHash:
		default:
			return fmt.Errorf("server.idempotency_cache.key_strategy must be auto, correlation_id, arguments_hash or request_hash")
		}
	}

	toolNames := map[string]struct{}{}
	if cfg.Server.GenericTool {
		toolNames[constants.GenericToolName] = struct{}{}
	}
	for i := range cfg.Tools {
		if err := validateTool(i, &cfg.Tools[i], toolNames); err != nil {
			return err
		}
	}

	resourceURIs := map[string]struct{}{}
	for i, res := range cfg.Resources {
		if res.URI == "" {
			return fmt.Errorf("resources[%d].uri is required", i)
		}
		if _, exists := resourceURIs[res.URI]; exists {
			return fmt.Errorf("duplicate resource uri: %s", res.URI)
		}
		resourceURIs[res.URI] = struct{}{}
	}

	return nil
}

func validateTool(i int, tool *ToolConfig, names map[string]struct{}) error {
	if tool.Name == "" {
		return fmt.Errorf("tools[%d].name is required", i)
	}
	if _, exists := names[tool.Name]; exists {
		return fmt.Errorf("duplicate tool name: %s", tool.Name)
	}
	names[tool.Name] = struct{}{}

	if _, _, err := timeutil.ParseOptional(tool.Timeout); err != nil {
		return fmt.Errorf("tools[%d].timeout is invalid: %w", i, err)
	}
	if _, _, err := timeutil.ParseOptional(tool.CacheTTL); err != nil {
		return fmt.Errorf("tools[%d].cache_ttl is invalid: %w", i, err)
	}

	req := &tool.Request
	if strings.TrimSpace(req.URL) == "" {
		return fmt.Errorf("tools[%d].request.url is required", i)
	}
	verb := request.Verb(req.Method).Normalize()
	if verb == "" {
		verb = request.GET
	}
	if !verb.Valid() {
		return fmt.Errorf("tools[%d].request.method %q is not a valid HTTP method", i, req.Method)
	}
	req.Method = verb.String()

	if req.Codec == "" {
		req.Codec = codec.NameJSON
	}
	if _, err := codec.ByName(req.Codec); err != nil {
		return fmt.Errorf("tools[%d].request.codec: %w", i, err)
	}
	if req.Body != "" && req.BodyArg != "" {
		return fmt.Errorf("tools[%d].request: body and body_arg are mutually exclusive", i)
	}
	for key := range req.Headers {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("tools[%d].request.headers contains an empty key", i)
		}
	}
	for key := range req.Query {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("tools[%d].request.query contains an empty key", i)
		}
	}
	return nil
}

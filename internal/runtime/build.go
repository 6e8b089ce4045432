package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/http-executor/internal/audit"
	"github.com/codex-k8s/http-executor/internal/constants"
	"github.com/codex-k8s/http-executor/internal/dsl"
	"github.com/codex-k8s/http-executor/internal/idempotency"
	"github.com/codex-k8s/http-executor/internal/protocol"
	"github.com/codex-k8s/http-executor/internal/runtime/executor"
	"github.com/codex-k8s/http-executor/internal/transport"
)

// Builder constructs an MCP server from the DSL config.
type Builder struct {
	// Logger is used for structured logging.
	Logger *slog.Logger
	// Audit records tool and exchange events.
	Audit audit.Logger
	// Cache stores idempotent responses.
	Cache *idempotency.Cache
	// CacheKeyStrategy selects how cache keys are computed.
	CacheKeyStrategy string
	// Doer is the transport shared by all tools; the default transport when nil.
	Doer transport.Doer
	// DefaultTimeout bounds tools that declare no timeout.
	DefaultTimeout time.Duration
	// MaxBodyBytes caps upstream response bodies.
	MaxBodyBytes int64
	// DefaultHeaders are sent with every upstream request.
	DefaultHeaders map[string]string
}

// Build creates an MCP server with tools and resources.
func (b Builder) Build(cfg *dsl.Config) (*mcp.Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if len(cfg.Server.DefaultHeaders) > 0 {
		merged := make(map[string]string, len(b.DefaultHeaders)+len(cfg.Server.DefaultHeaders))
		for key, value := range b.DefaultHeaders {
			merged[key] = value
		}
		for key, value := range cfg.Server.DefaultHeaders {
			merged[key] = value
		}
		b.DefaultHeaders = merged
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)

	for _, res := range cfg.Resources {
		resource := res
		server.AddResource(&mcp.Resource{
			Name:        resource.Name,
			URI:         resource.URI,
			Description: resource.Description,
			MIMEType:    resource.MIMEType,
		}, func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: resource.URI, MIMEType: resource.MIMEType, Text: resource.Text},
				},
			}, nil
		})
	}

	for _, toolCfg := range cfg.Tools {
		tool, err := b.NewTool(toolCfg)
		if err != nil {
			return nil, err
		}
		b.addTool(server, toolCfg, tool)
	}

	if cfg.Server.GenericTool {
		b.addGenericTool(server)
	}

	return server, nil
}

func (b Builder) addTool(server *mcp.Server, cfg dsl.ToolConfig, tool *Tool) {
	inputSchema := any(cfg.InputSchema)
	if len(cfg.InputSchema) == 0 {
		inputSchema = map[string]any{"type": "object"}
	}
	mcpTool := &mcp.Tool{
		Name:        cfg.Name,
		Title:       cfg.Title,
		Description: cfg.Description,
		InputSchema: inputSchema,
		OutputSchema: func() any {
			if len(cfg.OutputSchema) == 0 {
				return nil
			}
			return cfg.OutputSchema
		}(),
		Annotations: buildAnnotations(cfg.Annotations),
	}

	mcp.AddTool(server, mcpTool, func(ctx context.Context, _ *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, protocol.ToolResponse, error) {
		return nil, tool.Call(ctx, input), nil
	})
}

func (b Builder) addGenericTool(server *mcp.Server) {
	mcpTool := &mcp.Tool{
		Name:        constants.GenericToolName,
		Title:       "HTTP request",
		Description: "Send one HTTP request and return the status, headers and decoded body.",
		Annotations: &mcp.ToolAnnotations{OpenWorldHint: boolPtr(true)},
	}
	mcp.AddTool(server, mcpTool, func(ctx context.Context, _ *mcp.CallToolRequest, input protocol.GenericRequest) (*mcp.CallToolResult, protocol.ToolResponse, error) {
		return nil, b.CallGeneric(ctx, input), nil
	})
}

func (b Builder) timeoutOr(value string) time.Duration {
	if parsed, ok := parseTimeout(value); ok {
		return parsed
	}
	if b.DefaultTimeout > 0 {
		return b.DefaultTimeout
	}
	return executor.DefaultTimeout
}

func (b Builder) executorFor(method string) executor.Executor {
	opts := []executor.Option{executor.WithLogger(b.Logger)}
	if b.Doer != nil {
		opts = append(opts, executor.WithDoer(b.Doer))
	}
	if b.MaxBodyBytes > 0 {
		opts = append(opts, executor.WithMaxBodyBytes(b.MaxBodyBytes))
	}
	return executor.New(verbOrGet(method), opts...)
}

func (b Builder) record(ctx context.Context, event audit.Event) {
	if b.Audit != nil {
		b.Audit.Record(ctx, event)
	}
}

func buildAnnotations(cfg *dsl.ToolAnnotationsConfig) *mcp.ToolAnnotations {
	if cfg == nil {
		return nil
	}
	return &mcp.ToolAnnotations{
		ReadOnlyHint:    cfg.ReadOnlyHint,
		DestructiveHint: cfg.DestructiveHint,
		IdempotentHint:  cfg.IdempotentHint,
		OpenWorldHint:   cfg.OpenWorldHint,
		Title:           cfg.Title,
	}
}

func correlationID(args map[string]any) (string, bool) {
	if args != nil {
		if raw, ok := args[constants.ArgCorrelationID].(string); ok && raw != "" {
			return raw, true
		}
		if raw, ok := args[constants.ArgRequestID].(string); ok && raw != "" {
			return raw, true
		}
	}
	return uuid.NewString(), false
}

func responseFormat(args map[string]any) string {
	if args == nil {
		return ""
	}
	raw, ok := args[constants.ArgResponseFormat]
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(fmt.Sprint(raw)))
}

func applyResponseFormat(format string, resp *protocol.ToolResponse) {
	if resp == nil || format != "markdown" {
		return
	}
	message := strings.TrimSpace(resp.Reason)
	if message == "" {
		message = "no details"
	}
	status := resp.Status
	if resp.StatusCode != 0 {
		status = fmt.Sprintf("%s (%d)", resp.Status, resp.StatusCode)
	}
	resp.Reason = fmt.Sprintf("**status**: %s\n\n%s", status, message)
}

func boolPtr(v bool) *bool {
	return &v
}

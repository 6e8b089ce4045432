package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/codex-k8s/http-executor/internal/audit"
	"github.com/codex-k8s/http-executor/internal/codec"
	"github.com/codex-k8s/http-executor/internal/constants"
	"github.com/codex-k8s/http-executor/internal/dsl"
	"github.com/codex-k8s/http-executor/internal/protocol"
	"github.com/codex-k8s/http-executor/internal/render"
	"github.com/codex-k8s/http-executor/internal/request"
	"github.com/codex-k8s/http-executor/internal/runtime/executor"
	"github.com/codex-k8s/http-executor/internal/security"
	"github.com/codex-k8s/http-executor/internal/timeutil"
)

// Tool is one configured upstream request exposed as an MCP tool.
type Tool struct {
	builder  Builder
	name     string
	spec     dsl.RequestConfig
	exec     executor.Executor
	codec    codec.Codec
	timeout  time.Duration
	cacheTTL time.Duration
}

// NewTool prepares a tool from its declaration.
func (b Builder) NewTool(cfg dsl.ToolConfig) (*Tool, error) {
	c, err := codec.ByName(cfg.Request.Codec)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", cfg.Name, err)
	}
	exec := b.executorFor(cfg.Request.Method)
	if !exec.Verb().Valid() {
		return nil, fmt.Errorf("tool %s: invalid method %q", cfg.Name, cfg.Request.Method)
	}
	return &Tool{
		builder:  b,
		name:     cfg.Name,
		spec:     cfg.Request,
		exec:     exec,
		codec:    c,
		timeout:  b.timeoutOr(cfg.Timeout),
		cacheTTL: timeutil.ParseDurationOrDefault(cfg.CacheTTL, 0),
	}, nil
}

// Call renders the request from args, executes it and maps the outcome.
// Failures are reported in the response, never as a Go error.
func (t *Tool) Call(ctx context.Context, args map[string]any) protocol.ToolResponse {
	b := t.builder
	corrID, providedID := correlationID(args)
	format := responseFormat(args)

	if b.Logger != nil {
		b.Logger.Info("tool call", "tool", t.name, "correlation_id", corrID, "args", security.RedactArguments(args))
	}
	b.record(ctx, audit.Event{Type: audit.TypeToolCall, Tool: t.name, CorrelationID: corrID})

	req, err := t.render(args, corrID)
	if err != nil {
		resp := internalError(corrID, err)
		b.record(ctx, audit.Event{Type: audit.TypeExchangeKO, Tool: t.name, CorrelationID: corrID, Method: t.exec.Verb().String(), ErrorKind: resp.ErrorKind, Reason: resp.Reason})
		applyResponseFormat(format, &resp)
		return resp
	}

	cacheKey := ""
	if b.Cache != nil {
		key, err := exchangeKey{tool: t.name, verb: t.exec.Verb()}.build(b.CacheKeyStrategy, corrID, providedID, args, req)
		if err != nil {
			if b.Logger != nil {
				b.Logger.Warn("cache key build failed", "tool", t.name, "error", err)
			}
		} else {
			cacheKey = key
		}
	}
	if cacheKey != "" {
		if cached, ok := b.Cache.Get(cacheKey); ok {
			cached.CorrelationID = corrID
			if b.Logger != nil {
				b.Logger.Info("tool cache hit", "tool", t.name, "correlation_id", corrID)
			}
			b.record(ctx, audit.Event{Type: audit.TypeCacheHit, Tool: t.name, CorrelationID: corrID, StatusCode: cached.StatusCode})
			applyResponseFormat(format, &cached)
			return cached
		}
	}

	opts := []executor.CallOption{executor.WithTimeout(t.timeout)}
	if t.spec.ExpectSuccess {
		opts = append(opts, executor.ExpectSuccess())
	}
	result, execErr := t.exec.Execute(ctx, req, t.codec, opts...)
	resp := b.finish(ctx, t.name, t.exec.Verb(), req, corrID, result, execErr)

	// Only 2xx exchanges are replayed.
	if execErr == nil && result.IsSuccess() && cacheKey != "" {
		b.Cache.SetWithTTL(cacheKey, resp, t.cacheTTL)
		if b.Logger != nil {
			b.Logger.Info("tool response cached", "tool", t.name, "correlation_id", corrID)
		}
		b.record(ctx, audit.Event{Type: audit.TypeCacheStore, Tool: t.name, CorrelationID: corrID, StatusCode: resp.StatusCode})
	}
	applyResponseFormat(format, &resp)
	return resp
}

func (t *Tool) render(args map[string]any, corrID string) (request.Request, error) {
	data := render.TemplateData{Args: args, ToolName: t.name, CorrelationID: corrID}

	target, err := render.RenderTemplate(t.spec.URL, data)
	if err != nil {
		return request.Request{}, fmt.Errorf("url: %w", err)
	}
	headers, err := render.RenderMap(t.spec.Headers, data)
	if err != nil {
		return request.Request{}, fmt.Errorf("headers: %w", err)
	}
	query, err := render.RenderMap(t.spec.Query, data)
	if err != nil {
		return request.Request{}, fmt.Errorf("query: %w", err)
	}

	builder := t.builder.newRequest(target, headers, query, corrID)
	switch {
	case t.spec.BodyArg != "":
		if value, ok := args[t.spec.BodyArg]; ok {
			builder.Body(value)
		}
	case t.spec.Body != "":
		body, err := render.RenderTemplate(t.spec.Body, data)
		if err != nil {
			return request.Request{}, fmt.Errorf("body: %w", err)
		}
		builder.Body(body)
	}
	return builder.Build()
}

// CallGeneric executes a free-form request from the http_request tool.
func (b Builder) CallGeneric(ctx context.Context, in protocol.GenericRequest) protocol.ToolResponse {
	name := constants.GenericToolName
	corrID := in.CorrelationID
	if corrID == "" {
		corrID, _ = correlationID(nil)
	}
	if b.Logger != nil {
		b.Logger.Info("tool call", "tool", name, "correlation_id", corrID, "method", in.Method, "url", security.RedactURL(in.URL))
	}
	b.record(ctx, audit.Event{Type: audit.TypeToolCall, Tool: name, CorrelationID: corrID})

	c, err := codec.ByName(in.Codec)
	if err != nil {
		return internalError(corrID, err)
	}
	timeout := b.timeoutOr("")
	if in.Timeout != "" {
		parsed, ok := parseTimeout(in.Timeout)
		if !ok {
			return internalError(corrID, fmt.Errorf("invalid timeout %q", in.Timeout))
		}
		timeout = parsed
	}

	req, err := b.newRequest(in.URL, in.Headers, in.Query, corrID).Body(in.Body).Build()
	if err != nil {
		return internalError(corrID, err)
	}
	exec := b.executorFor(in.Method)
	opts := []executor.CallOption{executor.WithTimeout(timeout)}
	if in.ExpectSuccess {
		opts = append(opts, executor.ExpectSuccess())
	}
	result, execErr := exec.Execute(ctx, req, c, opts...)
	return b.finish(ctx, name, exec.Verb(), req, corrID, result, execErr)
}

func (b Builder) newRequest(target string, headers, query map[string]string, corrID string) *request.Builder {
	builder := request.NewBuilder().URL(target).CorrelationID(corrID)
	for key, value := range b.DefaultHeaders {
		builder.Header(key, value)
	}
	for key, value := range headers {
		builder.Header(key, value)
	}
	for key, value := range query {
		builder.Query(key, value)
	}
	return builder
}

// finish maps an exchange outcome to a tool response and records it.
func (b Builder) finish(ctx context.Context, tool string, verb request.Verb, req request.Request, corrID string, result *executor.Response, err error) protocol.ToolResponse {
	target := security.RedactURL(req.URL())
	if err != nil {
		resp := failureResponse(corrID, err)
		if b.Logger != nil {
			b.Logger.Warn("tool exchange failed", "tool", tool, "correlation_id", corrID, "error_kind", resp.ErrorKind)
		}
		b.record(ctx, audit.Event{
			Type:          audit.TypeExchangeKO,
			Tool:          tool,
			CorrelationID: corrID,
			Method:        verb.String(),
			URL:           target,
			StatusCode:    resp.StatusCode,
			ErrorKind:     resp.ErrorKind,
			Reason:        resp.Reason,
		})
		return resp
	}

	resp := successResponse(corrID, result)
	b.record(ctx, audit.Event{
		Type:          audit.TypeExchangeOK,
		Tool:          tool,
		CorrelationID: corrID,
		Method:        verb.String(),
		URL:           target,
		StatusCode:    resp.StatusCode,
	})
	return resp
}

func successResponse(corrID string, result *executor.Response) protocol.ToolResponse {
	return protocol.ToolResponse{
		Status:        protocol.StatusSuccess,
		StatusCode:    result.StatusCode,
		Headers:       security.RedactHeaders(result.Header),
		Body:          responseBody(result),
		CorrelationID: corrID,
	}
}

func failureResponse(corrID string, err error) protocol.ToolResponse {
	resp := protocol.ToolResponse{
		Status:        protocol.StatusError,
		ErrorKind:     executor.KindOf(err).String(),
		Reason:        err.Error(),
		CorrelationID: corrID,
	}
	failure, ok := executor.AsFailure(err)
	if !ok {
		return resp
	}
	if failure.Err != nil {
		resp.Reason = failure.Err.Error()
	}
	if failure.Response != nil {
		resp.StatusCode = failure.Response.StatusCode
		resp.Headers = security.RedactHeaders(failure.Response.Header)
		if len(failure.Body) > 0 {
			resp.Body = string(failure.Body)
		}
	}
	return resp
}

func internalError(corrID string, err error) protocol.ToolResponse {
	return protocol.ToolResponse{
		Status:        protocol.StatusError,
		ErrorKind:     executor.KindInternal.String(),
		Reason:        err.Error(),
		CorrelationID: corrID,
	}
}

func responseBody(result *executor.Response) any {
	if result.Decoded {
		return result.Value
	}
	if len(result.Body) == 0 {
		return nil
	}
	return result.Text()
}

func verbOrGet(method string) request.Verb {
	verb := request.Verb(method).Normalize()
	if verb == "" {
		return request.GET
	}
	return verb
}

func parseTimeout(value string) (time.Duration, bool) {
	parsed, ok, err := timeutil.ParseOptional(value)
	if err != nil || !ok {
		return 0, false
	}
	return parsed, true
}

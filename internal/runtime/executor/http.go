package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/codex-k8s/http-executor/internal/codec"
	"github.com/codex-k8s/http-executor/internal/request"
	"github.com/codex-k8s/http-executor/internal/security"
	"github.com/codex-k8s/http-executor/internal/transport"
)

const (
	tracerName          = "github.com/codex-k8s/http-executor/internal/runtime/executor"
	correlationIDHeader = "X-Correlation-ID"
)

var _ Executor = (*HTTP)(nil)

// HTTP executes exchanges over a transport.Doer. Its fields are fixed at
// construction.
type HTTP struct {
	verb         request.Verb
	doer         transport.Doer
	logger       *slog.Logger
	tracer       trace.Tracer
	maxBodyBytes int64
}

// New returns an executor bound to verb. An invalid verb is accepted here and
// reported as a KindInternal failure by every Execute call.
func New(verb request.Verb, opts ...Option) *HTTP {
	h := &HTTP{
		verb:         verb.Normalize(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.doer == nil {
		h.doer = transport.Default()
	}
	return h
}

// Verb returns the bound verb.
func (h *HTTP) Verb() request.Verb {
	return h.verb
}

// Execute sends req with the bound verb and returns the response.
func (h *HTTP) Execute(ctx context.Context, req request.Request, c codec.Codec, opts ...CallOption) (*Response, error) {
	call := newCallConfig(opts)

	if !h.verb.Valid() {
		return nil, h.fail(KindInternal, req.URL(), fmt.Errorf("%w: %q", ErrInvalidVerb, h.verb), nil)
	}
	if c == nil {
		return nil, h.fail(KindInternal, req.URL(), ErrMissingCodec, nil)
	}
	if call.timeout < 0 {
		return nil, h.fail(KindInternal, req.URL(), fmt.Errorf("%w: %s", ErrNegativeTimeout, call.timeout), nil)
	}
	target, err := req.Target()
	if err != nil {
		return nil, h.fail(KindInternal, req.URL(), err, nil)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, call.timeout)
	defer cancel()

	correlationID := req.CorrelationID()
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	ctx, span := h.startSpan(ctx, target, correlationID)
	defer span.End()

	start := time.Now()
	resp, err := h.exchange(ctx, req, target, c, correlationID, call)
	elapsed := time.Since(start)

	if err != nil {
		failure, _ := AsFailure(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, failure.Kind.String())
		if failure.Response != nil {
			span.SetAttributes(attribute.Int("http.response.status_code", failure.Response.StatusCode))
		}
		if h.logger != nil {
			h.logger.Warn("http exchange failed",
				"verb", h.verb.String(),
				"url", security.RedactURL(target),
				"kind", failure.Kind.String(),
				"correlation_id", correlationID,
				"elapsed", elapsed,
				"error", failure.Err,
			)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if h.logger != nil {
		h.logger.Debug("http exchange",
			"verb", h.verb.String(),
			"url", security.RedactURL(target),
			"status", resp.StatusCode,
			"decoded", resp.Decoded,
			"correlation_id", correlationID,
			"elapsed", elapsed,
		)
	}
	return resp, nil
}

func (h *HTTP) exchange(ctx context.Context, req request.Request, target string, c codec.Codec, correlationID string, call callConfig) (*Response, error) {
	body, err := encodeBody(req.Body(), c)
	if err != nil {
		return nil, h.fail(KindInternal, target, fmt.Errorf("encode request body: %w", err), nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, h.fail(classify(ctx, err), target, err, nil)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, h.verb.String(), target, reader)
	if err != nil {
		return nil, h.fail(KindInternal, target, fmt.Errorf("build request: %w", err), nil)
	}
	for key, values := range req.Header() {
		httpReq.Header[key] = values
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", c.ContentType())
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", c.ContentType())
	}
	if httpReq.Header.Get(correlationIDHeader) == "" {
		httpReq.Header.Set(correlationIDHeader, correlationID)
	}

	res, err := h.doer.Do(httpReq)
	if err != nil {
		return nil, h.fail(classify(ctx, err), target, err, nil)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, h.maxBodyBytes+1))
	if err != nil {
		return nil, &Failure{Kind: classify(ctx, err), Verb: h.verb, URL: target, Err: fmt.Errorf("read response body: %w", err), Body: data}
	}

	resp := &Response{
		StatusCode:  res.StatusCode,
		Status:      res.Status,
		Header:      res.Header,
		ContentType: res.Header.Get("Content-Type"),
		Body:        data,
	}
	if int64(len(data)) > h.maxBodyBytes {
		resp.Body = data[:h.maxBodyBytes]
		return nil, h.fail(KindTransport, target, fmt.Errorf("%w: limit %d bytes", ErrResponseTooLarge, h.maxBodyBytes), resp)
	}

	if c.Matches(resp.ContentType) && len(bytes.TrimSpace(data)) > 0 {
		var value any
		if err := c.Unmarshal(data, &value); err != nil {
			return nil, h.fail(KindDecode, target, fmt.Errorf("decode %s body: %w", c.Name(), err), resp)
		}
		resp.Value = value
		resp.Decoded = true
	}

	if call.expectSuccess && !resp.IsSuccess() {
		return nil, h.fail(KindStatus, target, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status), resp)
	}
	return resp, nil
}

func (h *HTTP) fail(kind Kind, target string, err error, resp *Response) *Failure {
	failure := &Failure{Kind: kind, Verb: h.verb, URL: target, Err: err, Response: resp}
	if resp != nil {
		failure.Body = resp.Body
	}
	return failure
}

func (h *HTTP) startSpan(ctx context.Context, target, correlationID string) (context.Context, trace.Span) {
	tracer := h.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return tracer.Start(ctx, "http "+h.verb.String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", h.verb.String()),
			attribute.String("url.full", security.RedactURL(target)),
			attribute.String("correlation_id", correlationID),
		),
	)
}

func encodeBody(body any, c codec.Codec) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case string:
		return []byte(typed), nil
	case json.RawMessage:
		return typed, nil
	default:
		return c.Marshal(body)
	}
}

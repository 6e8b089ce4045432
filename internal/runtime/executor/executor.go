// Package executor performs single HTTP exchanges with a verb bound at
// construction time.
package executor

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/codex-k8s/http-executor/internal/codec"
	"github.com/codex-k8s/http-executor/internal/request"
	"github.com/codex-k8s/http-executor/internal/transport"
)

// DefaultTimeout bounds an exchange when the caller passes no WithTimeout.
const DefaultTimeout = 10 * time.Second

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes int64 = 10 << 20

// Executor performs one HTTP exchange per call using its bound verb.
// Implementations hold no per-call state and are safe for concurrent use.
type Executor interface {
	// Verb returns the bound HTTP method.
	Verb() request.Verb
	// Execute sends req, waits at most the call timeout and returns the
	// response or a *Failure.
	Execute(ctx context.Context, req request.Request, c codec.Codec, opts ...CallOption) (*Response, error)
}

// Pre-bound executors using the shared default transport.
var (
	Get    = ForVerb(request.GET)
	Post   = ForVerb(request.POST)
	Put    = ForVerb(request.PUT)
	Delete = ForVerb(request.DELETE)
)

// ForVerb returns an executor bound to verb using the shared default
// transport. Callers must not rely on the identity of the returned value.
func ForVerb(verb request.Verb) Executor {
	return New(verb)
}

// Response is the result of a completed exchange.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Status is the status line text, e.g. "200 OK".
	Status string
	// Header holds the response headers.
	Header http.Header
	// ContentType is the response Content-Type header value.
	ContentType string
	// Body is the raw response body.
	Body []byte
	// Value is the decoded body when Decoded is true.
	Value any
	// Decoded reports whether Body was decoded with the call codec.
	Decoded bool
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the raw body into v with c.
func (r *Response) Decode(c codec.Codec, v any) error {
	if r == nil || c == nil {
		return ErrMissingCodec
	}
	return c.Unmarshal(r.Body, v)
}

// Text returns the raw body as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// Option configures an executor at construction.
type Option func(*HTTP)

// WithDoer sets the transport used for exchanges.
func WithDoer(doer transport.Doer) Option {
	return func(h *HTTP) {
		h.doer = doer
	}
}

// WithLogger enables structured exchange logging.
func WithLogger(logger *slog.Logger) Option {
	return func(h *HTTP) {
		h.logger = logger
	}
}

// WithMaxBodyBytes caps the response body size; larger bodies fail.
// Limits are clamped to math.MaxInt64-1 so one extra byte can still be
// read to detect an oversized body.
func WithMaxBodyBytes(limit int64) Option {
	return func(h *HTTP) {
		if limit > 0 {
			h.maxBodyBytes = min(limit, math.MaxInt64-1)
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(h *HTTP) {
		h.tracer = tracer
	}
}

// CallOption tunes a single Execute call.
type CallOption func(*callConfig)

type callConfig struct {
	timeout       time.Duration
	expectSuccess bool
}

// WithTimeout bounds the whole exchange. Zero means an already expired
// deadline; negative values are rejected.
func WithTimeout(timeout time.Duration) CallOption {
	return func(c *callConfig) {
		c.timeout = timeout
	}
}

// ExpectSuccess turns non-2xx responses into KindStatus failures.
func ExpectSuccess() CallOption {
	return func(c *callConfig) {
		c.expectSuccess = true
	}
}

func newCallConfig(opts []CallOption) callConfig {
	cfg := callConfig{timeout: DefaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

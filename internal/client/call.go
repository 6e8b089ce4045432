package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codex-k8s/http-executor/internal/codec"
	"github.com/codex-k8s/http-executor/internal/request"
	"github.com/codex-k8s/http-executor/internal/runtime/executor"
)

var (
	errNilCall      = errors.New("nil call")
	errBodyConflict = errors.New("body already set to a non key-value value")
)

// Call is a single request being assembled. It is not safe for concurrent
// mutation, but Do may be invoked repeatedly once assembly is done.
type Call struct {
	client        *Client
	verb          request.Verb
	codec         codec.Codec
	builder       *request.Builder
	fields        map[string]any
	timeout       time.Duration
	expectSuccess bool
	errs          []error
}

func newCall(c *Client, verb request.Verb, target string) *Call {
	builder := request.NewBuilder().URL(target)
	for key, values := range c.header {
		for _, value := range values {
			builder.AddHeader(key, value)
		}
	}
	return &Call{
		client:  c,
		verb:    verb.Normalize(),
		codec:   c.codec,
		builder: builder,
		timeout: c.timeout,
	}
}

// Header sets a header for this call, overriding client defaults.
func (c *Call) Header(key, value string) *Call {
	c.builder.Header(key, value)
	return c
}

// AddHeader appends a header value for this call.
func (c *Call) AddHeader(key, value string) *Call {
	c.builder.AddHeader(key, value)
	return c
}

// Query adds a query parameter.
func (c *Call) Query(key, value string) *Call {
	c.builder.Query(key, value)
	return c
}

// QueryStruct adds query parameters from a struct with `url` tags.
func (c *Call) QueryStruct(v any) *Call {
	c.builder.QueryStruct(v)
	return c
}

// Body sets the request body, replacing key-value fields.
func (c *Call) Body(body any) *Call {
	c.fields = nil
	c.builder.Body(body)
	return c
}

// BodyKeyValue adds one field to a map body.
func (c *Call) BodyKeyValue(key string, value any) *Call {
	if c.fields == nil {
		if current, err := c.builder.Build(); err == nil && current.HasBody() {
			c.errs = append(c.errs, errBodyConflict)
			return c
		}
		c.fields = map[string]any{}
	}
	c.fields[key] = value
	return c
}

// CorrelationID sets the X-Correlation-ID value.
func (c *Call) CorrelationID(id string) *Call {
	c.builder.CorrelationID(id)
	return c
}

// Codec overrides the client codec for this call.
func (c *Call) Codec(cd codec.Codec) *Call {
	if cd != nil {
		c.codec = cd
	}
	return c
}

// Timeout overrides the client timeout for this call.
func (c *Call) Timeout(timeout time.Duration) *Call {
	c.timeout = timeout
	return c
}

// ExpectSuccess makes non-2xx statuses fail with executor.KindStatus.
func (c *Call) ExpectSuccess() *Call {
	c.expectSuccess = true
	return c
}

// Request returns the immutable descriptor assembled so far.
func (c *Call) Request() (request.Request, error) {
	if len(c.errs) > 0 {
		return request.Request{}, fmt.Errorf("%w: %w", request.ErrInvalidRequest, errors.Join(c.errs...))
	}
	builder := c.builder
	if c.fields != nil {
		fields := make(map[string]any, len(c.fields))
		for key, value := range c.fields {
			fields[key] = value
		}
		current, err := builder.Build()
		if err != nil {
			return request.Request{}, err
		}
		builder = request.From(current).Body(fields)
	}
	req, err := builder.Build()
	if err != nil {
		return request.Request{}, err
	}
	if !req.HasBody() {
		req, err = request.From(req).DelHeader("Content-Type").Build()
	}
	return req, err
}

// Do executes the call.
func (c *Call) Do(ctx context.Context) (*executor.Response, error) {
	req, err := c.Request()
	if err != nil {
		return nil, &executor.Failure{Kind: executor.KindInternal, Verb: c.verb, URL: req.URL(), Err: err}
	}
	opts := []executor.CallOption{executor.WithTimeout(c.timeout)}
	if c.expectSuccess {
		opts = append(opts, executor.ExpectSuccess())
	}
	return c.client.executor(c.verb).Execute(ctx, req, c.codec, opts...)
}

// Async runs the call on its own goroutine and invokes exactly one of the
// callbacks. The returned channel is closed after the callback returns.
func (c *Call) Async(ctx context.Context, onSuccess func(*executor.Response), onFailure func(error)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := c.Do(ctx)
		if err != nil {
			if onFailure != nil {
				onFailure(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(resp)
		}
	}()
	return done
}

// DoAs executes call and decodes the body into T with the call codec.
// A body that does not fit T is reported as executor.KindDecode.
func DoAs[T any](ctx context.Context, call *Call) (T, error) {
	var out T
	if call == nil {
		return out, &executor.Failure{Kind: executor.KindInternal, Err: errNilCall}
	}
	resp, err := call.Do(ctx)
	if err != nil {
		return out, err
	}
	if err := resp.Decode(call.codec, &out); err != nil {
		return out, &executor.Failure{
			Kind:     executor.KindDecode,
			Verb:     call.verb,
			URL:      call.urlForError(),
			Err:      fmt.Errorf("decode into %T: %w", out, err),
			Response: resp,
			Body:     resp.Body,
		}
	}
	return out, nil
}

func (c *Call) urlForError() string {
	req, err := c.Request()
	if err != nil {
		return ""
	}
	target, err := req.Target()
	if err != nil {
		return req.URL()
	}
	return target
}

// Package client is a fluent front end over the verb-bound executors.
//
// A Client is immutable: methods that change defaults return a copy, so one
// Client can be shared by any number of goroutines.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codex-k8s/http-executor/internal/codec"
	"github.com/codex-k8s/http-executor/internal/request"
	"github.com/codex-k8s/http-executor/internal/runtime/executor"
	"github.com/codex-k8s/http-executor/internal/transport"
)

const userAgent = "http-executor"

// Client issues calls with shared defaults.
type Client struct {
	codec   codec.Codec
	timeout time.Duration
	doer    transport.Doer
	logger  *slog.Logger
	header  http.Header
	maxBody int64
}

// Option configures a Client.
type Option func(*Client)

// WithCodec sets the default codec. Nil is ignored.
func WithCodec(c codec.Codec) Option {
	return func(cl *Client) {
		if c != nil {
			cl.codec = c
		}
	}
}

// WithTimeout sets the default per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = timeout
	}
}

// WithDoer sets the transport shared by all calls.
func WithDoer(doer transport.Doer) Option {
	return func(cl *Client) {
		if doer != nil {
			cl.doer = doer
		}
	}
}

// WithLogger enables exchange logging.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// WithMaxBodyBytes caps response bodies read by the client.
func WithMaxBodyBytes(limit int64) Option {
	return func(cl *Client) {
		cl.maxBody = limit
	}
}

// WithDefaultHeader adds a header sent with every call.
func WithDefaultHeader(key, value string) Option {
	return func(cl *Client) {
		if strings.TrimSpace(key) != "" {
			cl.header.Set(key, value)
		}
	}
}

// New returns a client. Without options it speaks JSON over the shared
// default transport with executor.DefaultTimeout.
func New(opts ...Option) *Client {
	cl := &Client{
		codec:   codec.JSON,
		timeout: executor.DefaultTimeout,
		doer:    transport.Default(),
		header:  http.Header{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cl)
		}
	}
	if cl.header.Get("Accept") == "" {
		cl.header.Set("Accept", cl.codec.ContentType())
	}
	if cl.header.Get("Content-Type") == "" {
		cl.header.Set("Content-Type", cl.codec.ContentType())
	}
	if cl.header.Get("User-Agent") == "" {
		cl.header.Set("User-Agent", userAgent)
	}
	return cl
}

// WithDefaultHeader returns a copy of c that also sends key: value.
func (c *Client) WithDefaultHeader(key, value string) *Client {
	clone := *c
	clone.header = c.header.Clone()
	if strings.TrimSpace(key) != "" {
		clone.header.Set(key, value)
	}
	return &clone
}

// WithoutDefaultHeader returns a copy of c that no longer sends key.
func (c *Client) WithoutDefaultHeader(key string) *Client {
	clone := *c
	clone.header = c.header.Clone()
	clone.header.Del(key)
	return &clone
}

// DefaultHeaders returns a copy of the default headers.
func (c *Client) DefaultHeaders() http.Header {
	return c.header.Clone()
}

// Codec returns the default codec.
func (c *Client) Codec() codec.Codec {
	return c.codec
}

func (c *Client) Get(target string) *Call    { return c.Verb(request.GET, target) }
func (c *Client) Post(target string) *Call   { return c.Verb(request.POST, target) }
func (c *Client) Put(target string) *Call    { return c.Verb(request.PUT, target) }
func (c *Client) Delete(target string) *Call { return c.Verb(request.DELETE, target) }

// Verb starts a call with an arbitrary method.
func (c *Client) Verb(verb request.Verb, target string) *Call {
	return newCall(c, verb, target)
}

// Download fetches target and returns the raw body. Non-2xx statuses fail.
func (c *Client) Download(ctx context.Context, target string) ([]byte, error) {
	resp, err := c.Get(target).
		Codec(codec.Raw).
		Header("Accept", "*/*").
		ExpectSuccess().
		Do(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Result pairs a call outcome with its position in DoAll.
type Result struct {
	Response *executor.Response
	Err      error
}

// DoAll runs calls concurrently, at most limit at a time (unbounded when
// limit <= 0), and returns results in input order. A failed call does not
// cancel the others.
func (c *Client) DoAll(ctx context.Context, limit int, calls ...*Call) []Result {
	results := make([]Result, len(calls))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, call := range calls {
		g.Go(func() error {
			if call == nil {
				results[i] = Result{Err: fmt.Errorf("call %d: %w", i, errNilCall)}
				return nil
			}
			resp, err := call.Do(ctx)
			results[i] = Result{Response: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Client) executor(verb request.Verb) executor.Executor {
	opts := []executor.Option{executor.WithDoer(c.doer), executor.WithLogger(c.logger)}
	if c.maxBody > 0 {
		opts = append(opts, executor.WithMaxBodyBytes(c.maxBody))
	}
	return executor.New(verb, opts...)
}

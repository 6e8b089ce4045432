// Package transport provides the HTTP round-trip collaborators used by executors.
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// Doer performs HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrTooManyRedirects is returned when a response chain exceeds Config.MaxRedirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// Config tunes the underlying http.Transport.
type Config struct {
	// DialTimeout bounds TCP connection setup.
	DialTimeout time.Duration
	// KeepAlive is the TCP keep-alive period.
	KeepAlive time.Duration
	// TLSHandshakeTimeout bounds the TLS handshake.
	TLSHandshakeTimeout time.Duration
	// IdleConnTimeout closes idle pooled connections.
	IdleConnTimeout time.Duration
	// MaxIdleConns caps idle connections across hosts.
	MaxIdleConns int
	// MaxRedirects caps followed redirects; negative disables following.
	MaxRedirects int
}

// DefaultConfig returns the settings used by Default.
func DefaultConfig() Config {
	return Config{
		DialTimeout:         4 * time.Second,
		KeepAlive:           15 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     30 * time.Second,
		MaxIdleConns:        100,
		MaxRedirects:        10,
	}
}

// New builds an http.Client from cfg. The client has no overall timeout:
// callers bound each exchange through the request context.
func New(cfg Config) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.DialTimeout,
				KeepAlive: cfg.KeepAlive,
			}).DialContext,
			TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          cfg.MaxIdleConns,
			IdleConnTimeout:       cfg.IdleConnTimeout,
		},
		CheckRedirect: checkRedirect(cfg.MaxRedirects),
	}
}

func checkRedirect(limit int) func(*http.Request, []*http.Request) error {
	return func(_ *http.Request, via []*http.Request) error {
		if limit < 0 {
			return http.ErrUseLastResponse
		}
		if len(via) > limit {
			return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, limit)
		}
		return nil
	}
}

var (
	defaultOnce   sync.Once
	defaultClient *http.Client
)

// Default returns the process-wide client shared by executors that were not
// given their own Doer.
func Default() *http.Client {
	defaultOnce.Do(func() {
		defaultClient = New(DefaultConfig())
	})
	return defaultClient
}

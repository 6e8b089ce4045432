package request

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
)

// ErrInvalidRequest marks a request descriptor that cannot be sent.
var ErrInvalidRequest = errors.New("invalid request")

// Request is an immutable description of an outgoing HTTP request.
// The verb is not part of the descriptor: it belongs to the executor.
type Request struct {
	url           string
	header        http.Header
	query         url.Values
	body          any
	correlationID string
}

// URL returns the target URL without the extra query parameters.
func (r Request) URL() string {
	return r.url
}

// Header returns a copy of the request headers.
func (r Request) Header() http.Header {
	return normalizeHeader(r.header).Clone()
}

// Query returns a copy of the extra query parameters.
func (r Request) Query() url.Values {
	return cloneValues(r.query)
}

// Body returns the request body value, nil when absent.
func (r Request) Body() any {
	return r.body
}

// HasBody reports whether a body is set.
func (r Request) HasBody() bool {
	return r.body != nil
}

// CorrelationID returns the correlation identifier, if any.
func (r Request) CorrelationID() string {
	return r.correlationID
}

// Validate checks the request has an absolute http(s) URL.
func (r Request) Validate() error {
	if strings.TrimSpace(r.url) == "" {
		return fmt.Errorf("%w: missing url", ErrInvalidRequest)
	}
	parsed, err := url.Parse(r.url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: unsupported url scheme %q", ErrInvalidRequest, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: url must be absolute", ErrInvalidRequest)
	}
	return nil
}

// Target returns the URL with the extra query parameters merged in.
func (r Request) Target() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	parsed, _ := url.Parse(r.url)
	if len(r.query) == 0 {
		return parsed.String(), nil
	}
	values := parsed.Query()
	for key, items := range r.query {
		for _, item := range items {
			values.Add(key, item)
		}
	}
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}

// Equal reports whether both descriptors describe the same request.
func (r Request) Equal(other Request) bool {
	if r.url != other.url || r.correlationID != other.correlationID {
		return false
	}
	if !reflect.DeepEqual(normalizeHeader(r.header), normalizeHeader(other.header)) {
		return false
	}
	if !reflect.DeepEqual(cloneValues(r.query), cloneValues(other.query)) {
		return false
	}
	return reflect.DeepEqual(r.body, other.body)
}

func (r Request) String() string {
	return fmt.Sprintf("Request{url=%s, headers=%d, query=%d, body=%t}", r.url, len(r.header), len(r.query), r.HasBody())
}

func cloneValues(values url.Values) url.Values {
	out := url.Values{}
	for key, items := range values {
		out[key] = append([]string(nil), items...)
	}
	return out
}

func normalizeHeader(header http.Header) http.Header {
	if header == nil {
		return http.Header{}
	}
	return header
}

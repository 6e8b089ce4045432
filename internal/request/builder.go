package request

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	goquery "github.com/google/go-querystring/query"
)

// Builder assembles a Request. It is not safe for concurrent use.
type Builder struct {
	url           string
	header        http.Header
	query         url.Values
	body          any
	correlationID string
	errs          []error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{header: http.Header{}, query: url.Values{}}
}

// From returns a builder seeded with a copy of req.
func From(req Request) *Builder {
	return &Builder{
		url:           req.url,
		header:        req.Header(),
		query:         req.Query(),
		body:          req.body,
		correlationID: req.correlationID,
	}
}

// URL sets the target URL.
func (b *Builder) URL(target string) *Builder {
	b.url = strings.TrimSpace(target)
	return b
}

// Header sets a single header. An empty key is recorded as an error.
func (b *Builder) Header(key, value string) *Builder {
	if strings.TrimSpace(key) == "" {
		b.errs = append(b.errs, errors.New("header key is empty"))
		return b
	}
	b.header.Set(key, value)
	return b
}

// AddHeader appends a value to a header, keeping existing values.
func (b *Builder) AddHeader(key, value string) *Builder {
	if strings.TrimSpace(key) == "" {
		b.errs = append(b.errs, errors.New("header key is empty"))
		return b
	}
	b.header.Add(key, value)
	return b
}

// DelHeader removes every value of a header.
func (b *Builder) DelHeader(key string) *Builder {
	b.header.Del(key)
	return b
}

// Headers replaces all headers with the given map.
func (b *Builder) Headers(headers map[string]string) *Builder {
	b.header = http.Header{}
	for key, value := range headers {
		b.Header(key, value)
	}
	return b
}

// Query adds a query parameter.
func (b *Builder) Query(key, value string) *Builder {
	if strings.TrimSpace(key) == "" {
		b.errs = append(b.errs, errors.New("query key is empty"))
		return b
	}
	b.query.Add(key, value)
	return b
}

// QueryStruct adds the query parameters encoded from a struct tagged with `url:"..."`.
func (b *Builder) QueryStruct(v any) *Builder {
	values, err := goquery.Values(v)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("encode query: %w", err))
		return b
	}
	for key, items := range values {
		for _, item := range items {
			b.query.Add(key, item)
		}
	}
	return b
}

// Body sets the request body. Nil clears it.
func (b *Builder) Body(body any) *Builder {
	b.body = body
	return b
}

// CorrelationID sets the identifier sent as X-Correlation-ID.
func (b *Builder) CorrelationID(id string) *Builder {
	b.correlationID = strings.TrimSpace(id)
	return b
}

// Build returns the immutable request or the recorded builder errors.
func (b *Builder) Build() (Request, error) {
	if len(b.errs) > 0 {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(b.errs...))
	}
	return Request{
		url:           b.url,
		header:        b.header.Clone(),
		query:         cloneValues(b.query),
		body:          b.body,
		correlationID: b.correlationID,
	}, nil
}

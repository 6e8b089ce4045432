// Package codec provides the serialization capabilities used to encode
// request bodies and decode response bodies.
package codec

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

// Codec encodes and decodes message bodies for a family of media types.
type Codec interface {
	// Name is the short registry name (json, yaml, raw).
	Name() string
	// ContentType is sent as Content-Type and Accept by default.
	ContentType() string
	// Matches reports whether a response Content-Type is handled by this codec.
	Matches(contentType string) bool
	// Marshal encodes v.
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// Registered codec names.
const (
	NameJSON = "json"
	NameYAML = "yaml"
	NameRaw  = "raw"
)

// ErrUnknownCodec is returned by ByName for unregistered names.
var ErrUnknownCodec = errors.New("unknown codec")

// Shared stateless codec instances.
var (
	JSON Codec = jsonCodec{}
	YAML Codec = yamlCodec{}
	Raw  Codec = rawCodec{}
)

// ByName returns a registered codec.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameJSON:
		return JSON, nil
	case NameYAML:
		return YAML, nil
	case NameRaw:
		return Raw, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, name)
	}
}

// MediaType extracts the lower-cased media type from a Content-Type value.
func MediaType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		base, _, _ := strings.Cut(contentType, ";")
		return strings.ToLower(strings.TrimSpace(base))
	}
	return parsed
}

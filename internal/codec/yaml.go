package codec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlCodec struct{}

func (yamlCodec) Name() string { return NameYAML }

func (yamlCodec) ContentType() string { return "application/yaml" }

func (yamlCodec) Matches(contentType string) bool {
	switch media := MediaType(contentType); media {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	default:
		return strings.HasSuffix(media, "+yaml")
	}
}

func (yamlCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// Unmarshal decodes YAML. Generic targets are normalized so the result can be
// re-encoded as JSON.
func (yamlCodec) Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return err
	}
	target, ok := v.(*any)
	if !ok || target == nil {
		return nil
	}
	normalized, err := Normalize(*target)
	if err != nil {
		return err
	}
	*target = normalized
	return nil
}

// Normalize converts YAML generic values (map[any]any) into JSON-compatible
// values with string keys.
func Normalize(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			normalized, err := Normalize(val)
			if err != nil {
				return nil, err
			}
			out[key] = normalized
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			keyStr, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("map key must be string, got %T", key)
			}
			normalized, err := Normalize(val)
			if err != nil {
				return nil, err
			}
			out[keyStr] = normalized
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			normalized, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = normalized
		}
		return out, nil
	default:
		return value, nil
	}
}

package codec

import (
	"encoding/json"
	"fmt"
)

// rawCodec passes bytes through untouched and never claims a response.
type rawCodec struct{}

func (rawCodec) Name() string { return NameRaw }

func (rawCodec) ContentType() string { return "application/octet-stream" }

func (rawCodec) Matches(string) bool { return false }

func (rawCodec) Marshal(v any) ([]byte, error) {
	switch typed := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case string:
		return []byte(typed), nil
	case json.RawMessage:
		return typed, nil
	default:
		return nil, fmt.Errorf("raw codec cannot marshal %T", v)
	}
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	switch target := v.(type) {
	case *[]byte:
		*target = append([]byte(nil), data...)
		return nil
	case *string:
		*target = string(data)
		return nil
	case *any:
		*target = append([]byte(nil), data...)
		return nil
	default:
		return fmt.Errorf("raw codec cannot unmarshal into %T", v)
	}
}

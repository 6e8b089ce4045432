package codec

import (
	"encoding/json"
	"strings"
)

type jsonCodec struct{}

func (jsonCodec) Name() string { return NameJSON }

func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Matches(contentType string) bool {
	media := MediaType(contentType)
	return media == "application/json" || strings.HasSuffix(media, "+json")
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.New(slog.NewJSONHandler(&buf, nil)))

	logger.Record(context.Background(), Event{
		Type:          TypeExchangeKO,
		Tool:          "get_user",
		CorrelationID: "corr-1",
		Method:        "GET",
		URL:           "https://example.com/users/1",
		ErrorKind:     "timeout",
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "audit", entry["msg"])
	assert.Equal(t, TypeExchangeKO, entry["type"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "timeout", entry["error_kind"])
	assert.NotContains(t, entry, "status_code")
	assert.NotContains(t, entry, "reason")
}

func TestRecordNilSafe(t *testing.T) {
	var logger *StdLogger
	assert.NotPanics(t, func() {
		logger.Record(context.Background(), Event{Type: TypeToolCall})
		New(nil).Record(context.Background(), Event{Type: TypeToolCall})
	})
}

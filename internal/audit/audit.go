package audit

import (
	"context"
	"log/slog"
)

// Event types recorded by the tool runtime.
const (
	TypeToolCall   = "tool_call"
	TypeExchangeOK = "exchange_ok"
	TypeExchangeKO = "exchange_error"
	TypeCacheHit   = "cache_hit"
	TypeCacheStore = "cache_store"
)

// Event represents an audit entry for one tool call or HTTP exchange.
type Event struct {
	// Type describes the event kind.
	Type string
	// Tool is the tool name.
	Tool string
	// CorrelationID links related events.
	CorrelationID string
	// Method is the HTTP verb of the exchange.
	Method string
	// URL is the redacted exchange target.
	URL string
	// StatusCode is the upstream status, zero when none arrived.
	StatusCode int
	// ErrorKind classifies a failed exchange.
	ErrorKind string
	// Reason provides additional context.
	Reason string
}

// Logger records audit events.
type Logger interface {
	// Record stores an audit event.
	Record(ctx context.Context, event Event)
}

// StdLogger writes audit events to slog.
type StdLogger struct {
	logger *slog.Logger
}

// New returns a StdLogger.
func New(logger *slog.Logger) *StdLogger {
	return &StdLogger{logger: logger}
}

// Record logs an audit event.
func (l *StdLogger) Record(ctx context.Context, event Event) {
	if l == nil || l.logger == nil {
		return
	}
	attrs := []any{
		"type", event.Type,
		"tool", event.Tool,
		"correlation_id", event.CorrelationID,
	}
	if event.Method != "" {
		attrs = append(attrs, "method", event.Method, "url", event.URL)
	}
	if event.StatusCode != 0 {
		attrs = append(attrs, "status_code", event.StatusCode)
	}
	if event.ErrorKind != "" {
		attrs = append(attrs, "error_kind", event.ErrorKind)
	}
	if event.Reason != "" {
		attrs = append(attrs, "reason", event.Reason)
	}
	l.logger.InfoContext(ctx, "audit", attrs...)
}

package audit

import (
	"context"
	"log/slog"

	"trustscore/pkg/requestcontext"
)

// Emitter is the interface for audit event emission.
// Satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger provides structured audit logging with optional event emission.
// Use this in services to standardize audit logging patterns.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

// NewLogger creates an audit logger.
// textLogger is used for structured logging; emitter is optional for event persistence.
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{
		textLogger: textLogger,
		emitter:    emitter,
	}
}

// Log logs an audit event to text and optionally emits to the audit store.
// Automatically enriches with request_id and actor from context.
//
// Usage:
//
//	logger.Log(ctx, audit.EventCredentialRevoked, "credential_id", id, "reason", reason)
func (l *Logger) Log(ctx context.Context, event AuditEvent, attributes ...any) {
	if l == nil {
		return
	}
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	actor := requestcontext.Actor(ctx).Subject

	l.logToText(ctx, event, attributes)
	l.emitToAudit(ctx, event, requestID, actor, attributes)
}

func (l *Logger) logToText(ctx context.Context, event AuditEvent, attributes []any) {
	if l.textLogger == nil {
		return
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	l.textLogger.InfoContext(ctx, string(event), args...)
}

func (l *Logger) emitToAudit(ctx context.Context, event AuditEvent, requestID, actor string, attributes []any) {
	if l.emitter == nil {
		return
	}
	err := l.emitter.Emit(ctx, Event{
		Category:       event.Category(),
		Action:         string(event),
		CredentialID:   extractString(attributes, "credential_id"),
		CredentialType: extractString(attributes, "credential_type"),
		Subject:        extractString(attributes, "subject"),
		Issuer:         extractString(attributes, "issuer"),
		Decision:       extractString(attributes, "decision"),
		Reason:         extractString(attributes, "reason"),
		Actor:          actor,
		RequestID:      requestID,
	})
	if err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"event", string(event),
		)
	}
}

// extractString finds key in a slog-style key/value list. Values implementing
// fmt.Stringer are rendered with String.
func extractString(attributes []any, key string) string {
	for i := 0; i+1 < len(attributes); i += 2 {
		k, ok := attributes[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := attributes[i+1].(type) {
		case string:
			return v
		case interface{ String() string }:
			return v.String()
		}
	}
	return ""
}

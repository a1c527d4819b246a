// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Services read values set by middleware without importing net/http:
//
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//	actor := requestcontext.Actor(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	actorKey       struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyActor       = actorKey{}
)

// ActorRole identifies the kind of authenticated caller.
type ActorRole string

const (
	RoleAdmin  ActorRole = "admin"
	RoleIssuer ActorRole = "issuer"
	RoleLedger ActorRole = "ledger"
)

// ActorInfo describes the authenticated caller of a request. Subject is the
// issuer DID for issuer tokens and a free-form operator name otherwise.
type ActorInfo struct {
	Role    ActorRole
	Subject string
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - Consumers that need consistent time within a batch operation
//   - CLI commands
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// Actor retrieves the authenticated caller. The zero value means anonymous.
func Actor(ctx context.Context) ActorInfo {
	if actor, ok := ctx.Value(ContextKeyActor).(ActorInfo); ok {
		return actor
	}
	return ActorInfo{}
}

// WithActor injects the authenticated caller into the context.
func WithActor(ctx context.Context, actor ActorInfo) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

// Package tracer provides a small tracing abstraction over OpenTelemetry.
//
// Services depend on the Tracer interface rather than on OpenTelemetry APIs.
//
// Implementations:
//   - NoopTracer: for tests
//   - OTelTracer: OpenTelemetry adapter using the global provider
package tracer

import (
	"context"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes.
	//
	// Example:
	//   ctx, span := tracer.Start(ctx, tracer.SpanScoreCompute,
	//       tracer.String(tracer.AttrSubject, tracer.HashSubject(subject)),
	//   )
	//   defer span.End(nil)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashSubject returns a short Keccak-256 fingerprint of a subject identity so
// traces can be correlated without carrying the DID itself.
func HashSubject(subject string) string {
	if subject == "" {
		return ""
	}
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(subject))
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// Span names.
const (
	SpanScoreCompute    = "scoring.compute"
	SpanIssuanceRequest = "issuance.request"
	SpanIssuanceSubmit  = "issuance.submit"
	SpanIssuanceSign    = "issuance.sign"
)

// Attribute keys.
const (
	AttrSubject         = "subject_hash"
	AttrCredentialType  = "credential.type"
	AttrCredentialCount = "credential.count"
	AttrScore           = "score"
	AttrSkipped         = "credential.skipped"
)

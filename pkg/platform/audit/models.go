package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID             string        `json:"id,omitempty"`
	Category       EventCategory `json:"category"`
	Timestamp      time.Time     `json:"timestamp"`
	Action         string        `json:"action"`
	CredentialID   string        `json:"credential_id,omitempty"`
	CredentialType string        `json:"credential_type,omitempty"`
	Subject        string        `json:"subject,omitempty"`
	Issuer         string        `json:"issuer,omitempty"`
	Actor          string        `json:"actor,omitempty"`
	Decision       string        `json:"decision,omitempty"`
	Reason         string        `json:"reason,omitempty"`
	RequestID      string        `json:"request_id,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is implemented by stores that can answer queries.
type Reader interface {
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// AuditEvent names an auditable action.
type AuditEvent string

const (
	EventCredentialTracked  AuditEvent = "credential_tracked"
	EventCredentialRevoked  AuditEvent = "credential_revoked"
	EventCredentialRejected AuditEvent = "credential_rejected"
	EventIssuerRegistered   AuditEvent = "issuer_registered"
	EventIssuerActivated    AuditEvent = "issuer_activated"
	EventIssuerDeactivated  AuditEvent = "issuer_deactivated"
	EventIssuerAuthorized   AuditEvent = "issuer_authorized"
	EventLedgerEventSkipped AuditEvent = "ledger_event_skipped"
	EventIssuanceRequested  AuditEvent = "issuance_requested"
)

// EventCategory routes events to retention classes.
type EventCategory string

const (
	CategoryCompliance EventCategory = "compliance"
	CategorySecurity   EventCategory = "security"
	CategoryOperations EventCategory = "operations"
)

// Category returns the retention class for e. Unknown events fall back to
// operations so a new action can never silently land in no category.
func (e AuditEvent) Category() EventCategory {
	switch e {
	case EventCredentialTracked, EventCredentialRevoked:
		return CategoryCompliance
	case EventCredentialRejected, EventIssuerRegistered, EventIssuerActivated,
		EventIssuerDeactivated, EventIssuerAuthorized:
		return CategorySecurity
	default:
		return CategoryOperations
	}
}

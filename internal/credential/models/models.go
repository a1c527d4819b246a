package models

import (
	"time"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/codec"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
)

// Audit event actions
const (
	AuditActionCredentialTracked  = "credential_tracked"
	AuditActionCredentialRevoked  = "credential_revoked"
	AuditActionCredentialRejected = "credential_rejected"
)

// MaxRevocationReasonLength bounds the free-text reason stored on revocation.
const MaxRevocationReasonLength = 256

// Status is derived from stored fields and the current time; it is never written.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// Credential is an issued attestation about a subject.
//
// # Lifecycle Invariant
//
// Expiry is a predicate of (now, ExpiresAt) and is never stored. Revocation is
// the only stored transition and is one-way: once RevokedAt is set it is never
// cleared. Records are never deleted.
type Credential struct {
	ID               domain.CredentialID
	Type             catalog.Type
	Issuer           domain.IssuerID
	Subject          domain.SubjectID
	IssuedAt         time.Time
	ExpiresAt        time.Time
	Weight           int
	Signature        []byte
	RevokedAt        *time.Time
	RevocationReason string
}

// NewCredential creates a Credential with domain invariant checks. Timestamps
// are truncated to whole seconds, the resolution they are signed at.
func NewCredential(
	credID domain.CredentialID,
	credType catalog.Type,
	issuer domain.IssuerID,
	subject domain.SubjectID,
	issuedAt, expiresAt time.Time,
	weight int,
) (*Credential, error) {
	if credID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "credential ID required")
	}
	if issuer.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "issuer required")
	}
	if subject.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "subject required")
	}
	if weight <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "weight must be positive")
	}
	issuedAt = issuedAt.UTC().Truncate(time.Second)
	expiresAt = expiresAt.UTC().Truncate(time.Second)
	if expiresAt.Before(issuedAt) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "expiry must not precede issuance")
	}
	return &Credential{
		ID:        credID,
		Type:      credType,
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Weight:    weight,
	}, nil
}

// StatusAt reports the credential's status at now. Revocation takes precedence
// over expiry.
func (c Credential) StatusAt(now time.Time) Status {
	if c.RevokedAt != nil {
		return StatusRevoked
	}
	if now.After(c.ExpiresAt) {
		return StatusExpired
	}
	return StatusActive
}

// IsValidAt returns true when the credential is neither revoked nor expired.
func (c Credential) IsValidAt(now time.Time) bool {
	return c.StatusAt(now) == StatusActive
}

// IsRevoked reports whether the credential has been revoked.
func (c Credential) IsRevoked() bool {
	return c.RevokedAt != nil
}

// Fields returns the signable attributes.
func (c Credential) Fields() codec.Fields {
	return codec.Fields{
		Type:      c.Type,
		Issuer:    c.Issuer,
		Subject:   c.Subject,
		IssuedAt:  c.IssuedAt.Unix(),
		ExpiresAt: c.ExpiresAt.Unix(),
	}
}

// Clone returns a deep copy safe to hand out of a store.
func (c Credential) Clone() *Credential {
	out := c
	if c.Signature != nil {
		out.Signature = append([]byte(nil), c.Signature...)
	}
	if c.RevokedAt != nil {
		t := *c.RevokedAt
		out.RevokedAt = &t
	}
	return &out
}

// SameAs reports whether two records describe the same signed credential,
// ignoring revocation state. Used to recognise replays of a tracked credential.
func (c Credential) SameAs(o Credential) bool {
	return c.ID == o.ID &&
		c.Type == o.Type &&
		c.Issuer == o.Issuer &&
		c.Subject == o.Subject &&
		c.IssuedAt.Equal(o.IssuedAt) &&
		c.ExpiresAt.Equal(o.ExpiresAt) &&
		c.Weight == o.Weight
}

// Stats aggregates credential counts by derived status.
type Stats struct {
	Total            int `json:"total"`
	Active           int `json:"active"`
	Expired          int `json:"expired"`
	Revoked          int `json:"revoked"`
	DistinctSubjects int `json:"distinct_subjects"`
}

// Count adds c to the tally using its status at now.
func (s *Stats) Count(c Credential, now time.Time) {
	s.Total++
	switch c.StatusAt(now) {
	case StatusActive:
		s.Active++
	case StatusExpired:
		s.Expired++
	case StatusRevoked:
		s.Revoked++
	}
}

// Package models holds issuance drafts: credentials that have been requested
// and encoded but not yet signed and tracked.
package models

import (
	"time"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/codec"
	credmodels "trustscore/internal/credential/models"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
)

// ErrDraftNotFound is returned for unknown or expired drafts.
var ErrDraftNotFound = dErrors.New(dErrors.CodeNotFound, "issuance request not found or expired")

// Request asks an issuer to attest type about subject.
type Request struct {
	Issuer  domain.IssuerID
	Subject domain.SubjectID
	Type    catalog.Type
}

// Draft is a pending credential awaiting its issuer's signature.
//
// A draft never mutates the credential store. It is discarded when its
// signature is accepted or when PendingUntil passes.
type Draft struct {
	Credential   *credmodels.Credential
	Payload      []byte
	Digest       codec.Digest
	RequestedAt  time.Time
	PendingUntil time.Time
}

// ID returns the credential id the draft reserves.
func (d *Draft) ID() domain.CredentialID {
	return d.Credential.ID
}

// IsPendingAt reports whether the draft can still be submitted at now.
func (d *Draft) IsPendingAt(now time.Time) bool {
	return now.Before(d.PendingUntil)
}

func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	out := *d
	out.Credential = d.Credential.Clone()
	out.Payload = append([]byte(nil), d.Payload...)
	return &out
}

package models

import (
	"slices"
	"strings"
	"time"

	"trustscore/internal/credential/catalog"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
)

const (
	MaxDisplayNameLength = 128
	MinTrustScore        = 0
	MaxTrustScore        = 100
)

// Record is an issuer's registration and the credential types it may sign.
// TrustScore is persisted for future policy use and never enters score math.
type Record struct {
	Address     domain.IssuerID
	DisplayName string
	TrustScore  int
	Active      bool
	Types       []catalog.Type
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewRecord builds an active issuer record. Types are deduplicated and sorted.
func NewRecord(address domain.IssuerID, displayName string, trustScore int, types []catalog.Type, now time.Time) (*Record, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || len(displayName) > MaxDisplayNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "display name must be 1-128 characters")
	}
	if trustScore < MinTrustScore || trustScore > MaxTrustScore {
		return nil, dErrors.New(dErrors.CodeValidation, "trust score must be between 0 and 100")
	}
	return &Record{
		Address:     address,
		DisplayName: displayName,
		TrustScore:  trustScore,
		Active:      true,
		Types:       normalizeTypes(types),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Authorizes reports whether the record permits signing credentials of t.
// Inactive issuers authorize nothing.
func (r *Record) Authorizes(t catalog.Type) bool {
	return r.Active && slices.Contains(r.Types, t)
}

// Authorize adds types to the record's authorization set.
func (r *Record) Authorize(types []catalog.Type, now time.Time) {
	r.Types = normalizeTypes(append(slices.Clone(r.Types), types...))
	r.UpdatedAt = now
}

func (r *Record) Deactivate(now time.Time) error {
	if !r.Active {
		return dErrors.New(dErrors.CodeConflict, "issuer is already inactive")
	}
	r.Active = false
	r.UpdatedAt = now
	return nil
}

func (r *Record) Activate(now time.Time) error {
	if r.Active {
		return dErrors.New(dErrors.CodeConflict, "issuer is already active")
	}
	r.Active = true
	r.UpdatedAt = now
	return nil
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Types = slices.Clone(r.Types)
	return &c
}

func normalizeTypes(types []catalog.Type) []catalog.Type {
	out := slices.Clone(types)
	slices.Sort(out)
	return slices.Compact(out)
}

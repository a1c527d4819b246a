// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "trustscore/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a SubjectID where an IssuerID is expected.
type (
	// CredentialID is a prefixed opaque handle ("vc_<uuid>") assigned at issuance.
	CredentialID string
	// SubjectID is the DID a credential is about.
	SubjectID string
	// IssuerID is the did:key identity of a credential signer.
	IssuerID string
)

const (
	credentialIDPrefix = "vc_"
	didKeyPrefix       = "did:key:"

	// MaxDIDLength bounds subject and issuer identities.
	MaxDIDLength = 256
)

// NewCredentialID generates a fresh credential handle.
func NewCredentialID() CredentialID {
	return CredentialID(credentialIDPrefix + uuid.NewString())
}

// Parse functions - use at trust boundaries (handlers, API inputs, ledger events).

func ParseCredentialID(s string) (CredentialID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential ID cannot be empty")
	}
	raw, ok := strings.CutPrefix(s, credentialIDPrefix)
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential ID must start with "+credentialIDPrefix)
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid credential ID format")
	}
	return CredentialID(s), nil
}

// ParseSubjectID accepts any well-formed DID of the form did:<method>:<id>.
// Malformed subjects are encoding errors: they can never be signed over.
func ParseSubjectID(s string) (SubjectID, error) {
	if err := validateDID(s); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeEncoding, "invalid subject: "+err.Error())
	}
	return SubjectID(s), nil
}

// ParseIssuerID checks the did:key shape. Key material is decoded by the
// signature package, which owns the multicodec details.
func ParseIssuerID(s string) (IssuerID, error) {
	if err := validateDID(s); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeEncoding, "invalid issuer: "+err.Error())
	}
	if !strings.HasPrefix(s, didKeyPrefix+"z") {
		return "", dErrors.New(dErrors.CodeEncoding, "invalid issuer: must be a base58btc did:key")
	}
	return IssuerID(s), nil
}

func (id CredentialID) String() string { return string(id) }
func (id SubjectID) String() string    { return string(id) }
func (id IssuerID) String() string     { return string(id) }

func (id CredentialID) IsNil() bool { return id == "" }
func (id SubjectID) IsNil() bool    { return id == "" }
func (id IssuerID) IsNil() bool     { return id == "" }

func validateDID(s string) error {
	if s == "" {
		return errEmptyDID
	}
	if len(s) > MaxDIDLength {
		return errDIDTooLong
	}
	rest, ok := strings.CutPrefix(s, "did:")
	if !ok {
		return errDIDScheme
	}
	method, ident, ok := strings.Cut(rest, ":")
	if !ok || method == "" || ident == "" {
		return errDIDShape
	}
	for _, r := range method {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return errDIDMethod
		}
	}
	for _, r := range ident {
		if !isIdentRune(r) {
			return errDIDIdent
		}
	}
	return nil
}

func isIdentRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == ':', r == '%', r == '-':
		return true
	}
	return false
}

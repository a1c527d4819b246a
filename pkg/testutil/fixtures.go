package testutil

import (
	"context"
	"testing"
	"time"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/codec"
	"trustscore/internal/credential/models"
	"trustscore/internal/credential/signature"
	"trustscore/pkg/domain"
)

// TestSubjects provides stable subject identities for tests.
var TestSubjects = struct {
	Alice domain.SubjectID
	Bob   domain.SubjectID
}{
	Alice: "did:web:alice.example",
	Bob:   "did:web:bob.example",
}

// FixedNow is a deterministic reference time for tests.
var FixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// NewIssuer generates a fresh issuer key.
func NewIssuer(t testing.TB) *signature.LocalSigner {
	t.Helper()
	signer, err := signature.GenerateLocalSigner()
	if err != nil {
		t.Fatalf("generate issuer: %v", err)
	}
	return signer
}

// CredentialBuilder provides a fluent interface for building test credentials.
type CredentialBuilder struct {
	cred    models.Credential
	catalog *catalog.Catalog
}

// NewCredential starts a builder for a credential of credType issued at FixedNow.
// Weight and expiry default to the catalog entry.
func NewCredential(credType catalog.Type) *CredentialBuilder {
	b := &CredentialBuilder{catalog: catalog.Default()}
	b.cred = models.Credential{
		ID:       domain.NewCredentialID(),
		Type:     credType,
		Subject:  TestSubjects.Alice,
		IssuedAt: FixedNow,
	}
	return b
}

func (b *CredentialBuilder) WithCatalog(c *catalog.Catalog) *CredentialBuilder {
	b.catalog = c
	return b
}

func (b *CredentialBuilder) WithID(id domain.CredentialID) *CredentialBuilder {
	b.cred.ID = id
	return b
}

func (b *CredentialBuilder) ForSubject(subject domain.SubjectID) *CredentialBuilder {
	b.cred.Subject = subject
	return b
}

func (b *CredentialBuilder) IssuedBy(issuer domain.IssuerID) *CredentialBuilder {
	b.cred.Issuer = issuer
	return b
}

func (b *CredentialBuilder) IssuedAt(t time.Time) *CredentialBuilder {
	b.cred.IssuedAt = t.UTC().Truncate(time.Second)
	return b
}

func (b *CredentialBuilder) ExpiresAt(t time.Time) *CredentialBuilder {
	b.cred.ExpiresAt = t.UTC().Truncate(time.Second)
	return b
}

func (b *CredentialBuilder) WithWeight(w int) *CredentialBuilder {
	b.cred.Weight = w
	return b
}

func (b *CredentialBuilder) RevokedAt(t time.Time, reason string) *CredentialBuilder {
	r := t.UTC().Truncate(time.Second)
	b.cred.RevokedAt = &r
	b.cred.RevocationReason = reason
	return b
}

// Build fills catalog defaults and returns the credential without a signature.
func (b *CredentialBuilder) Build() *models.Credential {
	c := b.cred
	if entry, ok := b.catalog.Lookup(c.Type); ok {
		if c.Weight == 0 {
			c.Weight = entry.Weight
		}
		if c.ExpiresAt.IsZero() {
			c.ExpiresAt = c.IssuedAt.Add(entry.Validity)
		}
	}
	if c.Issuer == "" {
		c.Issuer = "did:key:z6Mkod5Jr3yd5SC7UDueqK4dAAw5xYJYjksy722tA9Boxc4z"
	}
	return c.Clone()
}

// Signed builds the credential with signer as issuer and returns it with its signature.
func (b *CredentialBuilder) Signed(t testing.TB, signer *signature.LocalSigner) (*models.Credential, []byte) {
	t.Helper()
	b.cred.Issuer = signer.DID()
	c := b.Build()
	_, digest, err := codec.New(b.catalog).Digest(c.Fields())
	if err != nil {
		t.Fatalf("digest credential: %v", err)
	}
	sig, err := signer.Sign(context.Background(), signer.DID(), digest)
	if err != nil {
		t.Fatalf("sign credential: %v", err)
	}
	c.Signature = sig
	return c, sig
}

package signature

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"trustscore/internal/credential/codec"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
)

// Signer produces an issuer signature over a credential digest. Implementations
// may block on I/O; callers pass a context carrying their deadline.
type Signer interface {
	Sign(ctx context.Context, issuer domain.IssuerID, digest codec.Digest) ([]byte, error)
}

// LocalSigner holds a single issuer's private key in process.
type LocalSigner struct {
	key ed25519.PrivateKey
	did domain.IssuerID
}

// NewLocalSigner wraps an ed25519 private key.
func NewLocalSigner(key ed25519.PrivateKey) (*LocalSigner, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: %d", len(key))
	}
	did, err := DIDFromPublicKey(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &LocalSigner{key: key, did: did}, nil
}

// GenerateLocalSigner creates a signer with a fresh random key.
func GenerateLocalSigner() (*LocalSigner, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating issuer key: %w", err)
	}
	return NewLocalSigner(key)
}

// DID returns the issuer identity for this key.
func (s *LocalSigner) DID() domain.IssuerID { return s.did }

// PrivateKey exposes the key for export tooling.
func (s *LocalSigner) PrivateKey() ed25519.PrivateKey { return s.key }

func (s *LocalSigner) Sign(ctx context.Context, issuer domain.IssuerID, digest codec.Digest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if issuer != s.did {
		return nil, dErrors.New(dErrors.CodeUnauthorizedIssuer, "signer does not hold the key for "+issuer.String())
	}
	return ed25519.Sign(s.key, Message(digest)), nil
}

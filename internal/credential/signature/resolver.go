package signature

import (
	"context"
	"crypto/ed25519"

	lru "github.com/hashicorp/golang-lru/v2"

	"trustscore/internal/credential/codec"
	"trustscore/pkg/domain"
)

const defaultResolverCacheSize = 1024

// KeyResolver turns issuer identities into verification keys, memoising
// decoded keys in a bounded LRU.
type KeyResolver struct {
	cache *lru.Cache[domain.IssuerID, ed25519.PublicKey]
}

// NewKeyResolver creates a resolver caching up to size keys.
func NewKeyResolver(size int) *KeyResolver {
	if size <= 0 {
		size = defaultResolverCacheSize
	}
	cache, err := lru.New[domain.IssuerID, ed25519.PublicKey](size)
	if err != nil {
		panic(err) // only for non-positive size
	}
	return &KeyResolver{cache: cache}
}

// Resolve returns the public key for issuer.
func (r *KeyResolver) Resolve(issuer domain.IssuerID) (ed25519.PublicKey, error) {
	if pub, ok := r.cache.Get(issuer); ok {
		return pub, nil
	}
	pub, err := PublicKeyFromDID(issuer)
	if err != nil {
		return nil, err
	}
	r.cache.Add(issuer, pub)
	return pub, nil
}

// VerifyIssuer checks sig against the key embedded in issuer's identity.
// Unresolvable issuers fail verification rather than erroring.
func (r *KeyResolver) VerifyIssuer(_ context.Context, digest codec.Digest, sig []byte, issuer domain.IssuerID) bool {
	pub, err := r.Resolve(issuer)
	if err != nil {
		return false
	}
	return Verify(digest, sig, pub)
}

// Len reports the number of cached keys.
func (r *KeyResolver) Len() int {
	return r.cache.Len()
}

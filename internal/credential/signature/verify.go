// Package signature binds credential digests to issuer keys.
//
// Issuers sign Keccak256(Prefix || digest) with ed25519. The prefix keeps a
// credential signature from being replayed as a signature over any other
// protocol's 32-byte message.
package signature

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"trustscore/internal/credential/codec"
)

// Prefix is the domain separator prepended to every digest before signing.
const Prefix = "\x19TrustScore Signed Credential:\n32"

// Message returns the bytes an issuer key actually signs for digest.
func Message(digest codec.Digest) []byte {
	m := make([]byte, 0, len(Prefix)+len(digest))
	m = append(m, Prefix...)
	m = append(m, digest[:]...)
	h := codec.Hash(m)
	return h[:]
}

// Verify reports whether sig is pub's signature over digest. Malformed keys
// or signatures yield false.
func Verify(digest codec.Digest, sig []byte, pub ed25519.PublicKey) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, Message(digest), sig)
}

// Encode renders a signature as 0x-prefixed hex.
func Encode(sig []byte) string {
	return "0x" + hex.EncodeToString(sig)
}

// Decode parses a hex signature. Malformed input yields nil, which Verify rejects.
func Decode(s string) []byte {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != ed25519.SignatureSize {
		return nil
	}
	return b
}

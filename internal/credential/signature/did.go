package signature

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"

	"trustscore/pkg/domain"
)

// ed25519-pub multicodec.
const ed25519PubCode = 0xed

const didKeyPrefix = "did:key:"

var pubTagSize = varint.UvarintSize(ed25519PubCode)

// DIDFromPublicKey renders pub as a did:key identity.
func DIDFromPublicKey(pub ed25519.PublicKey) (domain.IssuerID, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("invalid public key length: %d", len(pub))
	}
	tagged := make([]byte, pubTagSize+len(pub))
	varint.PutUvarint(tagged, ed25519PubCode)
	copy(tagged[pubTagSize:], pub)

	encoded, err := multibase.Encode(multibase.Base58BTC, tagged)
	if err != nil {
		return "", fmt.Errorf("encoding did:key: %w", err)
	}
	return domain.IssuerID(didKeyPrefix + encoded), nil
}

// PublicKeyFromDID recovers the ed25519 key embedded in a did:key identity.
func PublicKeyFromDID(id domain.IssuerID) (ed25519.PublicKey, error) {
	encoded, ok := strings.CutPrefix(string(id), didKeyPrefix)
	if !ok {
		return nil, fmt.Errorf("not a did:key: %q", id)
	}
	enc, b, err := multibase.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding did:key: %w", err)
	}
	if enc != multibase.Base58BTC {
		return nil, fmt.Errorf("unsupported did:key multibase encoding: %c", enc)
	}
	if len(b) != pubTagSize+ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid length: %d wanted: %d", len(b), pubTagSize+ed25519.PublicKeySize)
	}
	code, err := varint.ReadUvarint(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("reading public key codec: %w", err)
	}
	if code != ed25519PubCode {
		return nil, fmt.Errorf("invalid public key codec: 0x%x", code)
	}
	return ed25519.PublicKey(b[pubTagSize:]), nil
}

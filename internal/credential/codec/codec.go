// Package codec produces the canonical, signable encoding of a credential.
//
// Layout (v1), all integers big-endian:
//
//	uint32 len | "trustscore/credential/v1"
//	0x01 | uint32 len | type
//	0x02 | uint32 len | issuer
//	0x03 | uint32 len | subject
//	0x04 | uint64 issuedAt (unix seconds)
//	0x05 | uint64 expiresAt (unix seconds)
//
// The encoding is write-only; nothing decodes it. It exists to be hashed.
package codec

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"

	"trustscore/internal/credential/catalog"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
)

// DomainTag separates credential payloads from any other bytes an issuer key signs.
const DomainTag = "trustscore/credential/v1"

const (
	tagType      byte = 0x01
	tagIssuer    byte = 0x02
	tagSubject   byte = 0x03
	tagIssuedAt  byte = 0x04
	tagExpiresAt byte = 0x05

	maxTypeLength = 64
)

// Fields are the signable attributes of a credential.
type Fields struct {
	Type      catalog.Type
	Issuer    domain.IssuerID
	Subject   domain.SubjectID
	IssuedAt  int64
	ExpiresAt int64
}

// Digest is a 256-bit Keccak hash of an encoded payload.
type Digest [32]byte

func (d Digest) Hex() string { return hex.EncodeToString(d[:]) }

// ParseDigest decodes a hex digest, with or without 0x prefix.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(d) {
		return d, dErrors.New(dErrors.CodeEncoding, "digest must be 32 hex-encoded bytes")
	}
	copy(d[:], raw)
	return d, nil
}

// Codec encodes fields against a catalog.
type Codec struct {
	catalog *catalog.Catalog
}

// New returns a codec that only accepts types registered in cat.
func New(cat *catalog.Catalog) *Codec {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Codec{catalog: cat}
}

// Encode returns the canonical byte encoding of f.
func (c *Codec) Encode(f Fields) ([]byte, error) {
	if err := c.validate(f); err != nil {
		return nil, err
	}
	size := 4 + len(DomainTag) +
		3*(1+4) + len(f.Type) + len(f.Issuer) + len(f.Subject) +
		2*(1+8)
	buf := make([]byte, 0, size)
	buf = appendBytes(buf, []byte(DomainTag))
	buf = appendField(buf, tagType, string(f.Type))
	buf = appendField(buf, tagIssuer, string(f.Issuer))
	buf = appendField(buf, tagSubject, string(f.Subject))
	buf = appendTimestamp(buf, tagIssuedAt, f.IssuedAt)
	buf = appendTimestamp(buf, tagExpiresAt, f.ExpiresAt)
	return buf, nil
}

// Digest encodes f and hashes the result.
func (c *Codec) Digest(f Fields) ([]byte, Digest, error) {
	payload, err := c.Encode(f)
	if err != nil {
		return nil, Digest{}, err
	}
	return payload, Hash(payload), nil
}

// Hash returns the Keccak-256 digest of b.
func Hash(b []byte) Digest {
	var d Digest
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	h.Sum(d[:0])
	return d
}

func (c *Codec) validate(f Fields) error {
	if f.Type == "" || len(f.Type) > maxTypeLength {
		return encodingError("type must be 1-%d bytes", maxTypeLength)
	}
	if !c.catalog.Contains(f.Type) {
		return encodingError("unknown credential type %q", f.Type)
	}
	if f.Issuer == "" || len(f.Issuer) > domain.MaxDIDLength {
		return encodingError("issuer must be 1-%d bytes", domain.MaxDIDLength)
	}
	if f.Subject == "" || len(f.Subject) > domain.MaxDIDLength {
		return encodingError("subject must be 1-%d bytes", domain.MaxDIDLength)
	}
	if f.IssuedAt < 0 || f.ExpiresAt < 0 {
		return encodingError("timestamps must not be negative")
	}
	if f.IssuedAt > f.ExpiresAt {
		return encodingError("issuedAt must not be after expiresAt")
	}
	return nil
}

func encodingError(format string, args ...any) error {
	return dErrors.New(dErrors.CodeEncoding, fmt.Sprintf(format, args...))
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

func appendField(buf []byte, tag byte, v string) []byte {
	buf = append(buf, tag)
	return appendBytes(buf, []byte(v))
}

func appendTimestamp(buf []byte, tag byte, v int64) []byte {
	buf = append(buf, tag)
	return binary.BigEndian.AppendUint64(buf, uint64(v))
}

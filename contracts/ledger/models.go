// Package ledger defines the event envelope published by the ledger mirror
// onto the credentials topic. Producers and this service agree on these
// shapes only.
package ledger

const ContractVersion = "v1.0.0"

// Event kinds.
const (
	KindCredentialTracked = "credential.tracked"
	KindCredentialRevoked = "credential.revoked"
)

// Event is the envelope. Exactly one of Tracked or Revoked is set, matching Kind.
type Event struct {
	Kind    string            `json:"kind"`
	Version string            `json:"version,omitempty"`
	Tracked *CredentialRecord `json:"tracked,omitempty"`
	Revoked *Revocation       `json:"revoked,omitempty"`
}

// CredentialRecord is a credential as recorded on the ledger, with its
// issuer signature hex-encoded with a 0x prefix.
type CredentialRecord struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Issuer    string `json:"issuer"`
	Subject   string `json:"subject"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
	Weight    int    `json:"weight"`
	Signature string `json:"signature"`
}

type Revocation struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

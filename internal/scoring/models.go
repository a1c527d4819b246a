package scoring

import (
	"time"

	"trustscore/internal/credential/catalog"
	"trustscore/pkg/domain"
)

const (
	BaseScore = 500
	MinScore  = 0
	MaxScore  = 1000
)

// Contribution is one selected credential's share of a score.
type Contribution struct {
	CredentialID domain.CredentialID
	Type         catalog.Type
	Family       catalog.Family
	Weight       int
	DecayFactor  float64
	Value        float64
	IssuedAt     time.Time
}

// Result is the score view of one subject at one instant. It is derived and
// never persisted.
type Result struct {
	Score int
	// CredentialCount counts every currently valid credential, including
	// ones that lost their family to a stronger credential.
	CredentialCount int
	// LastUpdated is the latest IssuedAt among selected contributions with a
	// positive value, zero when nothing contributes.
	LastUpdated   time.Time
	Contributions []Contribution
	// Skipped counts records ignored because their type is unknown or their
	// fields are inconsistent.
	Skipped int
}

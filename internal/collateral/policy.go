// Package collateral maps trust scores to the lending facility's collateral
// factor. Everything here is pure and safe to call at any frequency.
package collateral

import (
	"math"

	dErrors "trustscore/pkg/domain-errors"
)

// Tier is one step of the schedule: scores at or above MinScore get Factor.
type Tier struct {
	MinScore int `json:"min_score"`
	Factor   int `json:"factor"`
}

// tiers is ordered highest threshold first. Lower bounds are inclusive.
var tiers = []Tier{
	{MinScore: 900, Factor: 50},
	{MinScore: 800, Factor: 60},
	{MinScore: 700, Factor: 75},
	{MinScore: 500, Factor: 100},
	{MinScore: 0, Factor: 150},
}

// Factor returns the collateral factor for score. Scores below zero fall in
// the lowest tier.
func Factor(score int) int {
	for _, t := range tiers {
		if score >= t.MinScore {
			return t.Factor
		}
	}
	return tiers[len(tiers)-1].Factor
}

// Tiers returns a copy of the schedule, highest threshold first.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// MaxCollateral is the largest collateral BorrowLimit accepts; above it
// collateral * 100 no longer fits an int64.
const MaxCollateral = math.MaxInt64 / 100

// BorrowLimit is how much a subject with score may borrow against collateral,
// floored to an integer: collateral * 100 / factor.
func BorrowLimit(collateral int64, score int) (int64, error) {
	if collateral < 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "collateral must not be negative")
	}
	if collateral > MaxCollateral {
		return 0, dErrors.New(dErrors.CodeValidation, "collateral is too large")
	}
	return collateral * 100 / int64(Factor(score)), nil
}

package scoring

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/models"
)

// Aggregator turns a subject's credential set into a bounded score. It holds
// no state beyond the catalog and performs no I/O.
type Aggregator struct {
	catalog *catalog.Catalog
}

func NewAggregator(c *catalog.Catalog) *Aggregator {
	if c == nil {
		c = catalog.Default()
	}
	return &Aggregator{catalog: c}
}

// Aggregate scores creds at now. Within each catalog family only the
// credential with the highest contribution counts; ties go to the later
// IssuedAt, then to the smaller id. Records with an unknown type or
// inconsistent fields are skipped, never fatal.
func (a *Aggregator) Aggregate(creds []*models.Credential, now time.Time) Result {
	var res Result
	best := make(map[catalog.Family]Contribution)

	for _, c := range creds {
		if c == nil {
			res.Skipped++
			continue
		}
		entry, ok := a.catalog.Lookup(c.Type)
		if !ok || c.ExpiresAt.Before(c.IssuedAt) || entry.Weight <= 0 {
			res.Skipped++
			continue
		}
		if !c.IsValidAt(now) {
			continue
		}
		res.CredentialCount++

		factor := entry.DecayFactor(c.IssuedAt, c.ExpiresAt, now)
		candidate := Contribution{
			CredentialID: c.ID,
			Type:         c.Type,
			Family:       entry.Family,
			Weight:       entry.Weight,
			DecayFactor:  factor,
			Value:        float64(entry.Weight) * factor,
			IssuedAt:     c.IssuedAt,
		}
		if current, seen := best[entry.Family]; !seen || outranks(candidate, current) {
			best[entry.Family] = candidate
		}
	}

	res.Contributions = make([]Contribution, 0, len(best))
	for _, c := range best {
		res.Contributions = append(res.Contributions, c)
	}
	slices.SortFunc(res.Contributions, func(x, y Contribution) int {
		return strings.Compare(string(x.Family), string(y.Family))
	})

	sum := 0.0
	for _, c := range res.Contributions {
		sum += c.Value
		if c.Value > 0 && c.IssuedAt.After(res.LastUpdated) {
			res.LastUpdated = c.IssuedAt
		}
	}
	res.Score = Clamp(BaseScore + sum)
	return res
}

// outranks reports whether a should replace b as its family's representative.
func outranks(a, b Contribution) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	if !a.IssuedAt.Equal(b.IssuedAt) {
		return a.IssuedAt.After(b.IssuedAt)
	}
	return cmp.Less(a.CredentialID, b.CredentialID)
}

// Clamp rounds raw to the nearest integer, halves away from zero, and bounds
// it to [MinScore, MaxScore].
func Clamp(raw float64) int {
	if math.IsNaN(raw) {
		return BaseScore
	}
	rounded := math.Round(raw)
	switch {
	case rounded < MinScore:
		return MinScore
	case rounded > MaxScore:
		return MaxScore
	default:
		return int(rounded)
	}
}

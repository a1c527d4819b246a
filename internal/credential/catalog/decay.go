package catalog

import "time"

// DecayKind selects how a credential's influence fades.
type DecayKind int

const (
	DecayNone DecayKind = iota
	DecayLinear
)

// Decay describes the fade of a credential's contribution. For DecayLinear a
// zero Horizon means the contribution reaches zero at expiresAt; a positive
// Horizon shorter than the validity window reaches zero earlier.
type Decay struct {
	Kind    DecayKind
	Horizon time.Duration
}

func NoDecay() Decay                   { return Decay{Kind: DecayNone} }
func LinearToExpiry() Decay            { return Decay{Kind: DecayLinear} }
func LinearOver(h time.Duration) Decay { return Decay{Kind: DecayLinear, Horizon: h} }

// Factor returns the multiplier in [0, 1] applied to a credential's weight at now.
func (d Decay) Factor(issuedAt, expiresAt, now time.Time) float64 {
	if d.Kind == DecayNone {
		return 1
	}
	if !now.After(issuedAt) {
		return 1
	}
	end := expiresAt
	if d.Horizon > 0 {
		if h := issuedAt.Add(d.Horizon); h.Before(end) {
			end = h
		}
	}
	if !now.Before(end) {
		return 0
	}
	span := end.Sub(issuedAt).Seconds()
	elapsed := now.Sub(issuedAt).Seconds()
	return 1 - elapsed/span
}

// DecayFactor applies the entry's decay to a credential window.
func (e Entry) DecayFactor(issuedAt, expiresAt, now time.Time) float64 {
	return e.Decay.Factor(issuedAt, expiresAt, now)
}

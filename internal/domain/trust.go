package domain

const (
	MinTrust = 0
	MaxTrust = 10
)

// TrustTier - ступень отношений с персонажем, производная от доверия.
type TrustTier string

const (
	TierStranger     TrustTier = "stranger"
	TierAcquaintance TrustTier = "acquaintance"
	TierTrusted      TrustTier = "trusted"
	TierConfidant    TrustTier = "confidant"
)

const (
	AcquaintanceAt = 2
	TrustedAt      = 5
	ConfidantAt    = 8
)

// TierForTrust maps a trust value to its tier.
func TierForTrust(trust int) TrustTier {
	switch {
	case trust >= ConfidantAt:
		return TierConfidant
	case trust >= TrustedAt:
		return TierTrusted
	case trust >= AcquaintanceAt:
		return TierAcquaintance
	default:
		return TierStranger
	}
}

// Rank orders tiers from stranger (0) to confidant (3).
func (t TrustTier) Rank() int {
	switch t {
	case TierAcquaintance:
		return 1
	case TierTrusted:
		return 2
	case TierConfidant:
		return 3
	default:
		return 0
	}
}

// Valid reports whether t is a known tier.
func (t TrustTier) Valid() bool {
	switch t {
	case TierStranger, TierAcquaintance, TierTrusted, TierConfidant:
		return true
	}
	return false
}

// ClampTrust keeps a value inside [MinTrust, MaxTrust].
func ClampTrust(v int) int {
	if v < MinTrust {
		return MinTrust
	}
	if v > MaxTrust {
		return MaxTrust
	}
	return v
}

// TrustScores - доверие по id персонажа.
type TrustScores map[string]int

// Apply adds delta with clamping and returns the change actually applied.
func (ts TrustScores) Apply(characterID string, delta int) int {
	before := ts[characterID]
	after := ClampTrust(before + delta)
	ts[characterID] = after
	return after - before
}

func (ts TrustScores) clone() TrustScores {
	out := make(TrustScores, len(ts))
	for k, v := range ts {
		out[k] = v
	}
	return out
}

package derivative

import (
	"sort"
	"time"

	"pathways-server/internal/domain"
)

const (
	// DecayInterval - полный период отсутствия, за который теряется 1 доверие.
	DecayInterval = 7 * 24 * time.Hour
	// MaxDecay ограничивает потерю доверия за одно затухание.
	MaxDecay = 3
	// ResonanceBonus - доверие за выбор в паттерне основной склонности персонажа.
	ResonanceBonus = 1
)

// TrustDecay lowers trust of characters the player has not talked to for whole
// intervals. Once a character reached acquaintance, decay stops there.
// The interaction clock is advanced by the decayed intervals so the same
// absence is never charged twice.
func TrustDecay(_, next *domain.GameState, in *Input) []domain.Event {
	if in == nil || in.Now.IsZero() {
		return nil
	}
	chars := make([]string, 0, len(next.LastInteraction))
	for c := range next.LastInteraction {
		chars = append(chars, c)
	}
	sort.Strings(chars)

	var events []domain.Event
	for _, c := range chars {
		last := next.LastInteraction[c]
		elapsed := in.Now.Sub(last)
		intervals := int(elapsed / DecayInterval)
		if intervals <= 0 {
			continue
		}
		next.LastInteraction[c] = last.Add(time.Duration(intervals) * DecayInterval)

		trust := next.Trust[c]
		floor := domain.MinTrust
		if trust >= domain.AcquaintanceAt {
			floor = domain.AcquaintanceAt
		}
		loss := min(intervals, MaxDecay, trust-floor)
		if loss <= 0 {
			continue
		}
		applied := next.Trust.Apply(c, -loss)
		recordTrust(in, c, applied)
		events = append(events, domain.Event{
			Type:        domain.EventTrustDecayed,
			CharacterID: c,
			Value:       -applied,
		})
	}
	return events
}

// Resonance rewards a choice made in the speaker's primary affinity.
func Resonance(_, next *domain.GameState, in *Input) []domain.Event {
	p := choicePattern(in)
	if p == "" || in.Library == nil {
		return nil
	}
	char, ok := in.Library.Character(in.Speaker)
	if !ok {
		return nil
	}
	affinity, ok := char.PrimaryAffinity()
	if !ok || affinity != p {
		return nil
	}
	applied := next.Trust.Apply(in.Speaker, ResonanceBonus)
	recordTrust(in, in.Speaker, applied)
	return []domain.Event{{
		Type:        domain.EventResonance,
		CharacterID: in.Speaker,
		Pattern:     p,
		Value:       applied,
	}}
}

// TrustTiers reports tier changes between the previous and the new state.
func TrustTiers(prev, next *domain.GameState, _ *Input) []domain.Event {
	seen := map[string]bool{}
	var chars []string
	for _, ts := range []domain.TrustScores{prev.Trust, next.Trust} {
		for c := range ts {
			if !seen[c] {
				seen[c] = true
				chars = append(chars, c)
			}
		}
	}
	sort.Strings(chars)

	var events []domain.Event
	for _, c := range chars {
		before, after := prev.TierFor(c), next.TierFor(c)
		switch {
		case after.Rank() > before.Rank():
			events = append(events, domain.Event{Type: domain.EventTrustTierUp, CharacterID: c, Tier: after, Value: next.Trust[c]})
		case after.Rank() < before.Rank():
			events = append(events, domain.Event{Type: domain.EventTrustTierDown, CharacterID: c, Tier: after, Value: next.Trust[c]})
		}
	}
	return events
}

package derivative

import "pathways-server/internal/domain"

const (
	// ComboThreshold - длина цепочки, за которую дается бонус (и далее каждые ComboThreshold выборов).
	ComboThreshold = 3
	ComboBonus     = 1

	IdentityTotalAt = 15
	IdentityLead    = 3
)

// IdentityFlag is set when the identity is declared.
func IdentityFlag(p domain.Pattern) string { return "identity_" + string(p) }

// PatternMilestones reports the highest level crossed by each pattern.
func PatternMilestones(prev, next *domain.GameState, in *Input) []domain.Event {
	return milestones(prev.Patterns, next.Patterns, speaker(in))
}

func milestones(before, after domain.PatternScores, characterID string) []domain.Event {
	var events []domain.Event
	for _, p := range domain.AllPatterns() {
		from, to := domain.LevelForScore(before[p]), domain.LevelForScore(after[p])
		if to.Rank() > from.Rank() {
			events = append(events, domain.Event{
				Type:        domain.EventPatternMilestone,
				CharacterID: characterID,
				Pattern:     p,
				Level:       to,
				Value:       after[p],
			})
		}
	}
	return events
}

// ComboChains tracks consecutive choices of one pattern. Every ComboThreshold
// links of the chain award a bonus point. A bonus that crosses a level also
// reports the milestone, since PatternMilestones has already run.
func ComboChains(_, next *domain.GameState, in *Input) []domain.Event {
	if in == nil || in.Choice == nil {
		return nil
	}
	p := in.Choice.Pattern
	if p == "" {
		next.Combo = domain.Combo{}
		return nil
	}
	if next.Combo.Pattern == p {
		next.Combo.Length++
	} else {
		next.Combo = domain.Combo{Pattern: p, Length: 1}
	}
	if next.Combo.Length < ComboThreshold || next.Combo.Length%ComboThreshold != 0 {
		return nil
	}

	before := domain.PatternScores{p: next.Patterns[p]}
	applied := next.Patterns.Add(p, ComboBonus)
	recordPattern(in, p, applied)

	events := []domain.Event{{
		Type:        domain.EventCombo,
		CharacterID: in.Speaker,
		Pattern:     p,
		Value:       next.Combo.Length,
	}}
	return append(events, milestones(before, domain.PatternScores{p: next.Patterns[p]}, in.Speaker)...)
}

// Identity declares the player's identity once: enough total score and a
// clear lead of one pattern over the runner-up.
func Identity(_, next *domain.GameState, in *Input) []domain.Event {
	if next.Identity != "" || next.Patterns.Total() < IdentityTotalAt {
		return nil
	}
	lead, first, second := next.Patterns.Leading()
	if first-second < IdentityLead {
		return nil
	}
	next.Identity = lead
	flag := IdentityFlag(lead)
	if next.Flags.Add(flag) && in != nil && in.Deltas != nil {
		in.Deltas.FlagsSet = append(in.Deltas.FlagsSet, flag)
	}
	return []domain.Event{{
		Type:        domain.EventIdentity,
		CharacterID: speaker(in),
		Pattern:     lead,
		Value:       first,
	}}
}

func speaker(in *Input) string {
	if in == nil {
		return ""
	}
	return in.Speaker
}

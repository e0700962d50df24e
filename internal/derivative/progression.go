package derivative

import (
	"pathways-server/internal/condition"
	"pathways-server/internal/domain"
	"pathways-server/internal/graph"
)

// StoryArcs advances every unfinished arc while its next step holds.
// Several steps may pass in one choice; completion sets the reward flags.
func StoryArcs(_, next *domain.GameState, in *Input) []domain.Event {
	if in == nil || in.Library == nil {
		return nil
	}
	var events []domain.Event
	for _, arc := range in.Library.Arcs() {
		if next.CompletedArcs.Has(arc.ID) || len(arc.Steps) == 0 {
			continue
		}
		progress := next.ArcProgress[arc.ID]
		start := progress
		for progress < len(arc.Steps) && arc.Steps[progress].When != nil && condition.Evaluate(arc.Steps[progress].When, next) {
			progress++
		}
		if progress == start {
			continue
		}
		next.ArcProgress[arc.ID] = progress

		if progress < len(arc.Steps) {
			events = append(events, domain.Event{
				Type:        domain.EventArcAdvanced,
				CharacterID: in.Speaker,
				Ref:         arc.ID,
				Value:       progress,
			})
			continue
		}
		next.CompletedArcs.Add(arc.ID)
		next.ApplyEffects(&domain.Effects{SetFlags: arc.RewardFlags}, in.Speaker, in.Deltas)
		events = append(events, domain.Event{
			Type:        domain.EventArcCompleted,
			CharacterID: in.Speaker,
			Ref:         arc.ID,
			Value:       progress,
		})
	}
	return events
}

// Achievements unlocks each achievement once, as soon as its condition holds.
func Achievements(_, next *domain.GameState, in *Input) []domain.Event {
	if in == nil || in.Library == nil {
		return nil
	}
	var events []domain.Event
	for _, a := range in.Library.Achievements() {
		if a.When == nil || next.Achievements.Has(a.ID) {
			continue
		}
		if !condition.Evaluate(a.When, next) {
			continue
		}
		next.Achievements.Add(a.ID)
		events = append(events, domain.Event{
			Type:        domain.EventAchievementUnlocked,
			CharacterID: in.Speaker,
			Ref:         a.ID,
		})
	}
	return events
}

// Gifts hands out each gift once when trust and condition allow.
func Gifts(_, next *domain.GameState, in *Input) []domain.Event {
	if in == nil || in.Library == nil {
		return nil
	}
	var events []domain.Event
	for _, g := range in.Library.Gifts() {
		if next.Gifts.Has(g.ID) || next.Trust[g.CharacterID] < g.MinTrust {
			continue
		}
		if !condition.Evaluate(g.When, next) {
			continue
		}
		next.Gifts.Add(g.ID)
		events = append(events, domain.Event{
			Type:        domain.EventGiftReceived,
			CharacterID: g.CharacterID,
			Ref:         g.ID,
			Value:       next.Trust[g.CharacterID],
		})
	}
	return events
}

// FirstMeeting fires for characters whose graph was entered for the first time.
func FirstMeeting(prev, next *domain.GameState, in *Input) []domain.Event {
	if in == nil || in.Library == nil {
		return nil
	}
	var events []domain.Event
	for _, id := range in.Library.GraphIDs() {
		if graph.HasMet(next, id) && !graph.HasMet(prev, id) {
			events = append(events, domain.Event{Type: domain.EventFirstMeeting, CharacterID: id})
		}
	}
	return events
}

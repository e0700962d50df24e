package domain

import "sort"

// Deltas - фактически примененные изменения (после ограничений).
type Deltas struct {
	Trust        map[string]int  `json:"trust,omitempty"`
	Patterns     map[Pattern]int `json:"patterns,omitempty"`
	FlagsSet     []string        `json:"flags_set,omitempty"`
	FlagsCleared []string        `json:"flags_cleared,omitempty"`
}

// NewDeltas returns an empty accumulator.
func NewDeltas() *Deltas {
	return &Deltas{Trust: map[string]int{}, Patterns: map[Pattern]int{}}
}

// AddTrust records an applied trust change.
func (d *Deltas) AddTrust(characterID string, applied int) {
	if applied != 0 {
		d.Trust[characterID] += applied
		if d.Trust[characterID] == 0 {
			delete(d.Trust, characterID)
		}
	}
}

// AddPattern records an applied pattern change.
func (d *Deltas) AddPattern(p Pattern, applied int) {
	if applied > 0 {
		d.Patterns[p] += applied
	}
}

// ApplyEffects mutates the state with clamping rules and records what changed.
// speaker resolves the SelfCharacter alias.
func (s *GameState) ApplyEffects(e *Effects, speaker string, d *Deltas) {
	if e.Empty() {
		return
	}
	s.ensureMaps()

	chars := make([]string, 0, len(e.Trust))
	for c := range e.Trust {
		chars = append(chars, c)
	}
	sort.Strings(chars)
	for _, c := range chars {
		target := c
		if target == SelfCharacter {
			target = speaker
		}
		if target == "" {
			continue
		}
		applied := s.Trust.Apply(target, e.Trust[c])
		if d != nil {
			d.AddTrust(target, applied)
		}
	}

	for _, p := range AllPatterns() {
		delta, ok := e.Patterns[p]
		if !ok {
			continue
		}
		applied := s.Patterns.Add(p, delta)
		if d != nil {
			d.AddPattern(p, applied)
		}
	}

	for _, f := range e.ClearFlags {
		if s.Flags.Has(f) {
			s.Flags.Remove(f)
			if d != nil {
				d.FlagsCleared = append(d.FlagsCleared, f)
			}
		}
	}
	for _, f := range e.SetFlags {
		if s.Flags.Add(f) && d != nil {
			d.FlagsSet = append(d.FlagsSet, f)
		}
	}
}

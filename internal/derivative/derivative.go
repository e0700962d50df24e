// Package derivative содержит производные правила, которые срабатывают после
// выбора игрока: затухание доверия, резонанс, ступени, вехи паттернов, комбо,
// идентичность, арки, достижения, подарки и первое знакомство.
//
// Каждое правило - чистая функция над парой (prev, next); менять можно только next.
package derivative

import (
	"time"

	"pathways-server/internal/domain"
	"pathways-server/internal/graph"
)

// Input - контекст одного шага пайплайна.
type Input struct {
	Library *graph.Library
	// Choice is nil when the conversation partner is switched without a choice.
	Choice  *domain.Choice
	Speaker string
	Now     time.Time
	Deltas  *domain.Deltas
}

// Func - одно производное правило.
type Func func(prev, next *domain.GameState, in *Input) []domain.Event

// Step связывает правило с именем (для логов и тестов).
type Step struct {
	Name string
	Run  Func
}

// Phase - точка пайплайна, в которой запускается группа правил.
type Phase int

const (
	// PhaseBeforeChoice runs before authored effects.
	PhaseBeforeChoice Phase = iota
	// PhaseAfterEffects runs after authored effects, before navigation.
	PhaseAfterEffects
	// PhaseAfterNavigation runs once the state is at its new node.
	PhaseAfterNavigation
)

// Coordinator запускает правила в фиксированном порядке приоритета.
type Coordinator struct {
	phases map[Phase][]Step
}

// NewCoordinator returns the coordinator with the standard rule order.
func NewCoordinator() *Coordinator {
	return &Coordinator{phases: map[Phase][]Step{
		PhaseBeforeChoice: {
			{Name: "trust_decay", Run: TrustDecay},
		},
		PhaseAfterEffects: {
			{Name: "resonance", Run: Resonance},
		},
		PhaseAfterNavigation: {
			{Name: "trust_tiers", Run: TrustTiers},
			{Name: "pattern_milestones", Run: PatternMilestones},
			{Name: "combo_chains", Run: ComboChains},
			{Name: "identity", Run: Identity},
			{Name: "story_arcs", Run: StoryArcs},
			{Name: "achievements", Run: Achievements},
			{Name: "gifts", Run: Gifts},
			{Name: "first_meeting", Run: FirstMeeting},
		},
	}}
}

// Run applies every rule of the phase in order and collects the events.
func (c *Coordinator) Run(phase Phase, prev, next *domain.GameState, in *Input) []domain.Event {
	var events []domain.Event
	for _, step := range c.phases[phase] {
		events = append(events, step.Run(prev, next, in)...)
	}
	return events
}

// Steps returns rule names of a phase in execution order.
func (c *Coordinator) Steps(phase Phase) []string {
	names := make([]string, 0, len(c.phases[phase]))
	for _, s := range c.phases[phase] {
		names = append(names, s.Name)
	}
	return names
}

func choicePattern(in *Input) domain.Pattern {
	if in == nil || in.Choice == nil {
		return ""
	}
	return in.Choice.Pattern
}

func recordTrust(in *Input, characterID string, applied int) {
	if in != nil && in.Deltas != nil {
		in.Deltas.AddTrust(characterID, applied)
	}
}

func recordPattern(in *Input, p domain.Pattern, applied int) {
	if in != nil && in.Deltas != nil {
		in.Deltas.AddPattern(p, applied)
	}
}

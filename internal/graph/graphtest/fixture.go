// Package graphtest предоставляет небольшой контент для тестов пайплайна.
package graphtest

import (
	"testing"
	"time"

	"pathways-server/internal/domain"
	"pathways-server/internal/graph"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Epoch - фиксированное время для детерминированных тестов.
var Epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Bundle returns the fixture content.
func Bundle() graph.Bundle {
	return graph.Bundle{
		Revision: "fixture",
		Characters: []domain.Character{
			{
				ID:       "maya",
				Name:     "Maya Chen",
				Role:     "Robotics engineer",
				Affinity: []domain.Pattern{domain.PatternBuilding, domain.PatternAnalytical},
				Voice: []domain.VoiceLine{
					{Trigger: domain.EventTrustTierUp, Text: "{name} grins. You're {tier} now."},
					{Trigger: domain.EventCombo, Pattern: domain.PatternBuilding, Text: "Three builds in a row. {name} is impressed."},
					{Trigger: domain.EventFirstMeeting, Text: "Hi, I'm {name}.", Locales: map[string]string{"es": "Hola, soy {name}."}},
					{Trigger: domain.EventGiftReceived, Text: "{name} hands you something."},
				},
			},
			{
				ID:       "devon",
				Name:     "Devon Okafor",
				Role:     "Systems analyst",
				Affinity: []domain.Pattern{domain.PatternAnalytical},
			},
		},
		Graphs: []domain.DialogueGraph{
			{
				CharacterID: "maya",
				Start:       "intro",
				Hub:         "workshop",
				Nodes: []*domain.Node{
					{
						ID:   "intro",
						Text: "A robot arm twitches on the bench.",
						Choices: []domain.Choice{
							{
								ID: "ask_robot", Text: "What are you building?", Pattern: domain.PatternBuilding,
								Effects: domain.Effects{Trust: map[string]int{domain.SelfCharacter: 1}},
								Next:    "workshop",
							},
							{
								ID: "ask_why", Text: "Why robots?", Pattern: domain.PatternAnalytical,
								Next: "workshop",
								Redirects: []domain.Redirect{
									{If: &domain.Condition{Flags: []string{"knows_devon"}}, Next: "devon:intro"},
								},
								Echo: "Maya pauses. Nobody asks her that.",
							},
							{ID: "leave", Text: "Goodbye.", Next: "goodbye"},
						},
					},
					{
						ID:   "workshop",
						Text: "The workshop hums.",
						Variants: []domain.TextVariant{
							{If: &domain.Condition{TierMin: map[string]domain.TrustTier{"maya": domain.TierTrusted}}, Text: "Maya waves you over to the bench."},
						},
						Choices: []domain.Choice{
							{
								ID: "build_arm", Text: "Help assemble the arm.", Pattern: domain.PatternBuilding,
								Effects: domain.Effects{Trust: map[string]int{domain.SelfCharacter: 1}},
								Next:    "workshop",
							},
							{ID: "debug_code", Text: "Read the firmware.", Pattern: domain.PatternAnalytical, Next: "workshop"},
							{
								ID: "secret", Text: "Ask about the locked cabinet.",
								VisibleIf: &domain.Condition{TrustMin: map[string]int{"maya": 5}},
								Next:      "secret",
							},
							{
								ID: "broken", Text: "Poke the broken console.",
								VisibleIf: &domain.Condition{Flags: []string{"debug_deadend"}},
								Next:      "deadend",
							},
							{ID: "visit_devon", Text: "Visit Devon.", Next: "devon:intro"},
							{ID: "leave", Text: "Goodbye.", Next: "goodbye"},
						},
					},
					{
						ID:      "secret",
						Text:    "Inside the cabinet: her first prototype.",
						OnEnter: &domain.Effects{SetFlags: []string{"maya_secret"}},
						Choices: []domain.Choice{{ID: "back", Text: "Back to work.", Next: "workshop"}},
					},
					{ID: "deadend", Text: "The console is dark."},
					{ID: "goodbye", Text: "See you around.", Ending: true},
				},
			},
			{
				CharacterID: "devon",
				Start:       "intro",
				Nodes: []*domain.Node{
					{
						ID:   "intro",
						Text: "Devon stares at a wall of graphs.",
						Choices: []domain.Choice{
							{ID: "listen", Text: "Wait quietly.", Pattern: domain.PatternPatience, Next: "intro"},
							{ID: "trap", Text: "Touch the red switch.", Next: "stuck"},
							{ID: "back_to_maya", Text: "Go back to Maya.", Next: "maya:workshop"},
						},
					},
					{ID: "stuck", Text: "Everything goes quiet."},
				},
			},
		},
		Achievements: []domain.Achievement{
			{ID: "builder_apprentice", Title: "Builder apprentice", When: &domain.Condition{PatternMin: map[domain.Pattern]int{domain.PatternBuilding: 3}}},
			{ID: "met_both", Title: "Networker", When: &domain.Condition{Visited: []string{"maya:intro", "devon:intro"}}},
		},
		Arcs: []domain.StoryArc{
			{
				ID:    "maya_trust",
				Title: "Maya's prototype",
				Steps: []domain.ArcStep{
					{ID: "see_workshop", When: &domain.Condition{Visited: []string{"maya:workshop"}}},
					{ID: "earn_trust", When: &domain.Condition{TrustMin: map[string]int{"maya": 5}}},
					{ID: "see_secret", When: &domain.Condition{Flags: []string{"maya_secret"}}},
				},
				RewardFlags: []string{"maya_arc_done"},
			},
		},
		Gifts: []domain.Gift{
			{ID: "maya_toolkit", CharacterID: "maya", Item: "Multitool", MinTrust: 6},
		},
	}
}

// Library builds the fixture library.
func Library(t testing.TB) *graph.Library {
	t.Helper()
	lib, err := graph.NewLibrary(Bundle())
	require.NoError(t, err)
	return lib
}

// NewState returns a fresh state positioned at maya:intro.
func NewState(t testing.TB, lib *graph.Library) *domain.GameState {
	t.Helper()
	st := domain.NewGameState(uuid.New(), Epoch)
	require.NoError(t, graph.Start(lib, st, "maya", domain.NewDeltas()))
	return st
}

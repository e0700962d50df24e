package resolver_test

import (
	"context"
	"testing"
	"time"

	"pathways-server/internal/domain"
	"pathways-server/internal/graph"
	"pathways-server/internal/graph/graphtest"
	"pathways-server/internal/models"
	"pathways-server/internal/resolver"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choose(id string, minutes int) resolver.ChoiceInput {
	return resolver.ChoiceInput{ChoiceID: id, Now: graphtest.Epoch.Add(time.Duration(minutes) * time.Minute)}
}

func TestResolveFirstChoice(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)
	before := st.Clone()

	out, err := resolver.New().Resolve(context.Background(), lib, st, choose("ask_robot", 1))
	require.NoError(t, err)

	if diff := cmp.Diff(before, st); diff != "" {
		t.Fatalf("input state mutated (-before +after):\n%s", diff)
	}

	next := out.State
	assert.Equal(t, "maya:workshop", next.CurrentKey())
	assert.Equal(t, 2, next.Trust["maya"], "authored +1 and resonance +1")
	assert.Equal(t, 1, next.Patterns[domain.PatternBuilding])
	assert.Equal(t, int64(1), next.Version)
	assert.NotEqual(t, domain.InitialStateHash, next.StateHash)
	assert.Equal(t, 1, next.ArcProgress["maya_trust"])
	require.Len(t, next.History, 1)
	assert.Equal(t, domain.HistoryEntry{
		CharacterID: "maya", NodeID: "intro", ChoiceID: "ask_robot",
		Pattern: domain.PatternBuilding, At: graphtest.Epoch.Add(time.Minute),
	}, next.History[0])
	assert.Equal(t, graphtest.Epoch.Add(time.Minute), next.LastInteraction["maya"])

	types := make([]domain.EventType, 0, len(out.Events))
	for _, e := range out.Events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []domain.EventType{domain.EventResonance, domain.EventTrustTierUp, domain.EventArcAdvanced}, types)

	require.NotNil(t, out.Echo)
	assert.Equal(t, domain.EventTrustTierUp, out.Echo.Trigger)
	assert.Equal(t, "Maya Chen grins. You're acquaintance now.", out.Echo.Text)

	assert.Equal(t, map[string]int{"maya": 2}, out.Deltas.Trust)
	assert.Equal(t, map[domain.Pattern]int{domain.PatternBuilding: 1}, out.Deltas.Patterns)

	require.NotNil(t, out.Presented)
	assert.Equal(t, "workshop", out.Presented.NodeID)
	assert.Same(t, st, out.Previous)
}

func TestResolveSequenceAwardsComboAndGift(t *testing.T) {
	lib := graphtest.Library(t)
	r := resolver.New()
	st := graphtest.NewState(t, lib)

	out, err := r.Resolve(context.Background(), lib, st, choose("ask_robot", 1))
	require.NoError(t, err)
	out, err = r.Resolve(context.Background(), lib, out.State, choose("build_arm", 2))
	require.NoError(t, err)
	require.NotNil(t, out.Echo)
	assert.Equal(t, domain.EventResonance, out.Echo.Trigger)
	assert.Equal(t, 4, out.State.Trust["maya"])

	out, err = r.Resolve(context.Background(), lib, out.State, choose("build_arm", 3))
	require.NoError(t, err)

	next := out.State
	assert.Equal(t, int64(3), next.Version)
	assert.Equal(t, 6, next.Trust["maya"])
	assert.Equal(t, 4, next.Patterns[domain.PatternBuilding], "three choices and a combo bonus")
	assert.True(t, next.Gifts.Has("maya_toolkit"))
	assert.True(t, next.Achievements.Has("builder_apprentice"))
	assert.Equal(t, 2, next.ArcProgress["maya_trust"])

	var combo, gift bool
	for _, e := range out.Events {
		combo = combo || e.Type == domain.EventCombo
		gift = gift || e.Type == domain.EventGiftReceived
	}
	assert.True(t, combo)
	assert.True(t, gift)

	require.NotNil(t, out.Echo)
	assert.Equal(t, domain.EventGiftReceived, out.Echo.Trigger)
	assert.Equal(t, "Maya Chen hands you something.", out.Echo.Text)

	// Тайник теперь виден и открывает арку.
	out, err = r.Resolve(context.Background(), lib, next, choose("secret", 4))
	require.NoError(t, err)
	assert.True(t, out.State.CompletedArcs.Has("maya_trust"))
	assert.True(t, out.State.Flags.Has("maya_arc_done"))
	assert.Equal(t, domain.EventArcCompleted, out.Echo.Trigger)
}

func TestResolveGuards(t *testing.T) {
	lib := graphtest.Library(t)
	r := resolver.New()

	t.Run("unknown choice", func(t *testing.T) {
		st := graphtest.NewState(t, lib)
		_, err := r.Resolve(context.Background(), lib, st, choose("fly", 1))
		assert.ErrorIs(t, err, models.ErrInvalidChoice)
	})

	t.Run("hidden choice", func(t *testing.T) {
		st := graphtest.NewState(t, lib)
		st.NodeID = "workshop"
		_, err := r.Resolve(context.Background(), lib, st, choose("secret", 1))
		assert.ErrorIs(t, err, models.ErrChoiceUnavailable)
	})

	t.Run("ended game", func(t *testing.T) {
		st := graphtest.NewState(t, lib)
		st.Ended = true
		_, err := r.Resolve(context.Background(), lib, st, choose("ask_robot", 1))
		assert.ErrorIs(t, err, models.ErrGameEnded)
	})

	t.Run("unknown node", func(t *testing.T) {
		st := graphtest.NewState(t, lib)
		st.NodeID = "vanished"
		_, err := r.Resolve(context.Background(), lib, st, choose("ask_robot", 1))
		assert.ErrorIs(t, err, models.ErrUnknownNode)
	})

	t.Run("cancelled context", func(t *testing.T) {
		st := graphtest.NewState(t, lib)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.Resolve(ctx, lib, st, choose("ask_robot", 1))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestResolveDeadEnd(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)
	st.CharacterID = "devon"
	st.NodeID = "intro"
	before := st.Clone()

	_, err := resolver.New().Resolve(context.Background(), lib, st, choose("trap", 1))

	assert.ErrorIs(t, err, models.ErrDeadEnd)
	assert.Empty(t, cmp.Diff(before, st))
}

func TestResolveEnding(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)

	out, err := resolver.New().Resolve(context.Background(), lib, st, choose("leave", 1))
	require.NoError(t, err)

	assert.True(t, out.State.Ended)
	assert.True(t, out.Presented.Ending)
	assert.Empty(t, out.Presented.Choices)

	_, err = resolver.New().Resolve(context.Background(), lib, out.State, choose("ask_robot", 2))
	assert.ErrorIs(t, err, models.ErrGameEnded)
}

func TestResolveRedirect(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)
	st.Flags.Add("knows_devon")

	out, err := resolver.New().Resolve(context.Background(), lib, st, choose("ask_why", 1))
	require.NoError(t, err)

	assert.Equal(t, "devon:intro", out.State.CurrentKey())
	// Достижение важнее авторского отклика и первого знакомства.
	require.NotNil(t, out.Echo)
	assert.Equal(t, domain.EventAchievementUnlocked, out.Echo.Trigger)
	assert.True(t, out.State.Achievements.Has("met_both"))
}

func TestResolveIsDeterministic(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)
	r := resolver.New()

	a, err := r.Resolve(context.Background(), lib, st, choose("ask_why", 1))
	require.NoError(t, err)
	b, err := r.Resolve(context.Background(), lib, st, choose("ask_why", 1))
	require.NoError(t, err)

	if diff := cmp.Diff(a.State, b.State); diff != "" {
		t.Fatalf("non-deterministic resolve (-a +b):\n%s", diff)
	}
	assert.Equal(t, a.Echo, b.Echo)
	assert.Equal(t, domain.EventChoiceEcho, a.Echo.Trigger)
}

func TestResolveStayKeepsOnEnterApplied(t *testing.T) {
	b := graphtest.Bundle()
	b.Graphs[0].Nodes = append(b.Graphs[0].Nodes, &domain.Node{
		ID:      "porch",
		Text:    "Maya sits on the porch steps.",
		OnEnter: &domain.Effects{Trust: map[string]int{domain.SelfCharacter: 1}},
		Choices: []domain.Choice{
			{ID: "wait", Text: "Wait with her."},
			{ID: "leave", Text: "Goodbye.", Next: "goodbye"},
		},
	})
	lib, err := graph.NewLibrary(b)
	require.NoError(t, err)

	st := graphtest.NewState(t, lib)
	require.NoError(t, graph.Enter(lib, st, "maya", "porch", domain.NewDeltas()))
	require.Equal(t, 1, st.Trust["maya"])

	r := resolver.New()
	for i := 1; i <= 4; i++ {
		out, err := r.Resolve(context.Background(), lib, st, choose("wait", i))
		require.NoError(t, err)
		assert.Equal(t, "maya:porch", out.State.CurrentKey())
		assert.Equal(t, 1, out.State.Trust["maya"], "stay %d", i)
		assert.Empty(t, out.Deltas.Trust, "stay %d", i)
		assert.Equal(t, "porch", out.Presented.NodeID)
		st = out.State
	}
}

func TestResolveBoundsHistory(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)
	for i := 0; i < domain.MaxHistory; i++ {
		st.History = append(st.History, domain.HistoryEntry{ChoiceID: "old"})
	}

	out, err := resolver.New().Resolve(context.Background(), lib, st, choose("ask_robot", 1))
	require.NoError(t, err)

	require.Len(t, out.State.History, domain.MaxHistory)
	assert.Equal(t, "ask_robot", out.State.History[domain.MaxHistory-1].ChoiceID)
	assert.Len(t, st.History, domain.MaxHistory)
}

func TestTalkSwitchesPartner(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)

	out, err := resolver.New().Talk(context.Background(), lib, st, "devon", graphtest.Epoch, "")
	require.NoError(t, err)

	assert.Equal(t, "devon:intro", out.State.CurrentKey())
	assert.Equal(t, int64(1), out.State.Version)
	assert.Empty(t, out.State.History)

	var met bool
	for _, e := range out.Events {
		if e.Type == domain.EventFirstMeeting && e.CharacterID == "devon" {
			met = true
		}
	}
	assert.True(t, met)

	_, err = resolver.New().Talk(context.Background(), lib, st, "ghost", graphtest.Epoch, "")
	assert.ErrorIs(t, err, models.ErrUnknownCharacter)
}

func TestStateHashChainsAndIgnoresTransientFlags(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)

	h1, err := resolver.StateHash("prev", st)
	require.NoError(t, err)
	h2, err := resolver.StateHash("other", st)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	st.Flags.Add("_ui_only")
	h3, err := resolver.StateHash("prev", st)
	require.NoError(t, err)
	assert.Equal(t, h1, h3)

	st.Flags.Add("real")
	h4, err := resolver.StateHash("prev", st)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h4)
}

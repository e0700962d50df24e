package graph_test

import (
	"testing"

	"pathways-server/internal/domain"
	"pathways-server/internal/graph"
	"pathways-server/internal/graph/graphtest"
	"pathways-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLibraryRejectsDuplicates(t *testing.T) {
	b := graphtest.Bundle()
	b.Characters = append(b.Characters, domain.Character{ID: "maya"})
	_, err := graph.NewLibrary(b)
	assert.ErrorContains(t, err, "duplicate character id")

	b = graphtest.Bundle()
	b.Graphs[1].Nodes = append(b.Graphs[1].Nodes, &domain.Node{ID: "intro"})
	_, err = graph.NewLibrary(b)
	assert.ErrorContains(t, err, "duplicate node id")
}

func TestLibraryLookups(t *testing.T) {
	lib := graphtest.Library(t)

	assert.Equal(t, "fixture", lib.Revision())
	assert.Equal(t, []string{"devon", "maya"}, lib.GraphIDs())

	chars := lib.Characters()
	require.Len(t, chars, 2)
	assert.Equal(t, "maya", chars[0].ID)

	n, ok := lib.Node("maya", "secret")
	require.True(t, ok)
	assert.NotNil(t, n.OnEnter)

	_, ok = lib.Node("maya", "nowhere")
	assert.False(t, ok)
	_, ok = lib.Node("ghost", "intro")
	assert.False(t, ok)
}

func TestStartFirstMeetingThenHub(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)

	assert.Equal(t, "maya:intro", st.CurrentKey())
	assert.True(t, st.Visited.Has("maya:intro"))

	require.NoError(t, graph.Start(lib, st, "devon", domain.NewDeltas()))
	assert.Equal(t, "devon:intro", st.CurrentKey())

	// Мая уже знакома: возвращаемся в хаб, а не к началу.
	require.NoError(t, graph.Start(lib, st, "maya", domain.NewDeltas()))
	assert.Equal(t, "maya:workshop", st.CurrentKey())
}

func TestStartUnknownCharacter(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)

	err := graph.Start(lib, st, "ghost", domain.NewDeltas())
	assert.ErrorIs(t, err, models.ErrUnknownCharacter)

	st.Ended = true
	assert.ErrorIs(t, graph.Start(lib, st, "devon", domain.NewDeltas()), models.ErrGameEnded)
}

func TestPresentHidesInvisibleChoicesAndPicksVariant(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)
	require.NoError(t, graph.Enter(lib, st, "maya", "workshop", domain.NewDeltas()))

	p, err := graph.Present(lib, st)
	require.NoError(t, err)
	assert.Equal(t, "Maya Chen", p.Speaker)
	assert.Equal(t, "The workshop hums.", p.Text)
	ids := make([]string, 0, len(p.Choices))
	for _, c := range p.Choices {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"build_arm", "debug_code", "visit_devon", "leave"}, ids)

	st.Trust["maya"] = 5
	p, err = graph.Present(lib, st)
	require.NoError(t, err)
	assert.Equal(t, "Maya waves you over to the bench.", p.Text)
	assert.Len(t, p.Choices, 5)
}

func TestPresentUnknownNode(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)
	st.NodeID = "gone"

	_, err := graph.Present(lib, st)
	assert.ErrorIs(t, err, models.ErrUnknownNode)
}

func TestResolveTarget(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)
	node, _ := lib.Node("maya", "intro")
	askWhy, _ := node.Choice("ask_why")

	assert.Equal(t, graph.Target{CharacterID: "maya", NodeID: "workshop"}, graph.ResolveTarget(askWhy, st))

	st.Flags.Add("knows_devon")
	assert.Equal(t, graph.Target{CharacterID: "devon", NodeID: "intro"}, graph.ResolveTarget(askWhy, st))

	stay := &domain.Choice{ID: "wait"}
	assert.Equal(t, graph.Target{CharacterID: "maya", NodeID: "intro", Stay: true}, graph.ResolveTarget(stay, st))

	// Явный переход на текущий узел - это вход, а не stay.
	again := &domain.Choice{ID: "again", Next: "intro"}
	assert.Equal(t, graph.Target{CharacterID: "maya", NodeID: "intro"}, graph.ResolveTarget(again, st))
}

// porchLibrary adds maya:porch with an on-enter trust bump and two stay choices.
func porchLibrary(t *testing.T) *graph.Library {
	t.Helper()
	b := graphtest.Bundle()
	b.Graphs[0].Nodes = append(b.Graphs[0].Nodes, &domain.Node{
		ID:      "porch",
		Text:    "Maya sits on the porch steps.",
		OnEnter: &domain.Effects{Trust: map[string]int{domain.SelfCharacter: 1}},
		Choices: []domain.Choice{
			{
				ID: "ring", Text: "Ring the bell.",
				VisibleIf: &domain.Condition{NotFlags: []string{"rang"}},
				Effects:   domain.Effects{SetFlags: []string{"rang"}},
			},
		},
	})
	lib, err := graph.NewLibrary(b)
	require.NoError(t, err)
	return lib
}

func TestStayDoesNotReapplyOnEnter(t *testing.T) {
	lib := porchLibrary(t)
	st := graphtest.NewState(t, lib)
	require.NoError(t, graph.Enter(lib, st, "maya", "porch", domain.NewDeltas()))
	require.Equal(t, 1, st.Trust["maya"])

	d := domain.NewDeltas()
	require.NoError(t, graph.Go(lib, st, graph.Target{CharacterID: "maya", NodeID: "porch", Stay: true}, d))
	assert.Equal(t, "maya:porch", st.CurrentKey())
	assert.Equal(t, 1, st.Trust["maya"])
	assert.Empty(t, d.Trust)
}

func TestStayWithoutVisibleChoicesFallsBackToHub(t *testing.T) {
	lib := porchLibrary(t)
	st := graphtest.NewState(t, lib)
	require.NoError(t, graph.Enter(lib, st, "maya", "porch", domain.NewDeltas()))
	st.Flags.Add("rang")

	require.NoError(t, graph.Stay(lib, st, domain.NewDeltas()))
	assert.Equal(t, "maya:workshop", st.CurrentKey())
}

func TestStayWithoutHubIsDeadEnd(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)
	st.CharacterID, st.NodeID = "devon", "stuck"

	err := graph.Stay(lib, st, domain.NewDeltas())
	assert.ErrorIs(t, err, models.ErrDeadEnd)
}

func TestEnterAppliesOnEnterEffects(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)
	d := domain.NewDeltas()

	require.NoError(t, graph.Enter(lib, st, "maya", "secret", d))
	assert.True(t, st.Flags.Has("maya_secret"))
	assert.Equal(t, []string{"maya_secret"}, d.FlagsSet)
}

func TestEnterDeadEndFallsBackToHub(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)

	require.NoError(t, graph.Enter(lib, st, "maya", "deadend", domain.NewDeltas()))
	assert.Equal(t, "maya:workshop", st.CurrentKey())
	assert.True(t, st.Visited.Has("maya:deadend"))
}

func TestEnterDeadEndWithoutHub(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)

	err := graph.Enter(lib, st, "devon", "stuck", domain.NewDeltas())
	assert.ErrorIs(t, err, models.ErrDeadEnd)
}

func TestEnterEndingNode(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)

	require.NoError(t, graph.Enter(lib, st, "maya", "goodbye", domain.NewDeltas()))
	assert.True(t, st.Ended)
}

func TestHasMet(t *testing.T) {
	lib := graphtest.Library(t)
	st := graphtest.NewState(t, lib)

	assert.True(t, graph.HasMet(st, "maya"))
	assert.False(t, graph.HasMet(st, "devon"))
	assert.False(t, graph.HasMet(st, "may"))
}

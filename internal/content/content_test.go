package content_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"pathways-server/internal/content"
	"pathways-server/internal/domain"
	"pathways-server/internal/models"
	"pathways-server/internal/resolver"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const miniCharacters = `
characters:
  - id: ada
    name: Ada
    affinity: [analytical]
`

const miniGraph = `
character: ada
start: intro
hub: lab
nodes:
  - id: intro
    text: Hello.
    choices:
      - id: go
        text: Go to the lab.
        pattern: analytical
        next: lab
  - id: lab
    text: The lab.
    choices:
      - id: stay
        text: Stay.
        next: lab
`

func miniPack(graph string) fstest.MapFS {
	return fstest.MapFS{
		"characters.yaml": {Data: []byte(miniCharacters)},
		"graphs/ada.yaml": {Data: []byte(graph)},
	}
}

func issueText(issues []content.Issue) string {
	var sb strings.Builder
	for _, i := range issues {
		sb.WriteString(i.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestDefaultPackIsValid(t *testing.T) {
	lib, issues, err := content.Load(content.DefaultFS())
	require.NoError(t, err, issueText(issues))
	assert.Empty(t, content.Errors(issues))

	assert.Equal(t, []string{"devon", "maya", "samuel"}, lib.GraphIDs())
	assert.Len(t, lib.Characters(), 3)
	assert.Len(t, lib.Revision(), 12)
	assert.NotEmpty(t, lib.Achievements())
	assert.NotEmpty(t, lib.Arcs())
	assert.NotEmpty(t, lib.Gifts())
}

func TestDefaultPackPlaythrough(t *testing.T) {
	lib, _, err := content.Load(content.DefaultFS())
	require.NoError(t, err)

	r := resolver.New()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	st := domain.NewGameState(uuid.New(), now)
	out, err := r.Talk(context.Background(), lib, st, "samuel", now, "")
	require.NoError(t, err)
	assert.Equal(t, "samuel:intro", out.State.CurrentKey())

	for i, choice := range []string{"sit", "ask_clock", "stay_quiet", "go_workshop", "ask_build", "solder"} {
		out, err = r.Resolve(context.Background(), lib, out.State, resolver.ChoiceInput{
			ChoiceID: choice,
			Now:      now.Add(time.Duration(i+1) * time.Minute),
		})
		require.NoError(t, err, "choice %s", choice)
	}

	st = out.State
	assert.Equal(t, "maya:workshop", st.CurrentKey())
	assert.True(t, st.Flags.Has("noticed_clock"))
	assert.Equal(t, 1, st.ArcProgress["samuel_past"])
	assert.True(t, st.Achievements.Has("first_steps"))
	assert.Equal(t, 2, st.Patterns[domain.PatternPatience])
	assert.Equal(t, int64(7), st.Version)
}

func TestLoadMinimalPack(t *testing.T) {
	lib, issues, err := content.Load(miniPack(miniGraph))
	require.NoError(t, err)
	assert.Empty(t, issues)

	_, ok := lib.Node("ada", "lab")
	assert.True(t, ok)
}

func TestLoadRejectsUnknownTargetWithSuggestion(t *testing.T) {
	broken := strings.Replace(miniGraph, "next: lab\n  - id: lab", "next: lbb\n  - id: lab", 1)

	_, issues, err := content.Load(miniPack(broken))

	require.ErrorIs(t, err, models.ErrInvalidContent)
	assert.Contains(t, issueText(issues), `target "lbb": unknown node (did you mean "lab"?)`)
}

func TestValidateUnknownPattern(t *testing.T) {
	broken := strings.Replace(miniGraph, "pattern: analytical", "pattern: analytic", 1)

	_, issues, err := content.Load(miniPack(broken))

	require.ErrorIs(t, err, models.ErrInvalidContent)
	assert.Contains(t, issueText(issues), `unknown pattern "analytic" (did you mean "analytical"?)`)
}

func TestValidatePatternCase(t *testing.T) {
	broken := strings.Replace(miniGraph, "pattern: analytical", "pattern: Analytical", 1)

	_, issues, err := content.Load(miniPack(broken))

	require.ErrorIs(t, err, models.ErrInvalidContent)
	assert.Contains(t, issueText(issues), `pattern "Analytical" must be written as "analytical"`)
}

func TestValidateUnknownCharacterInTarget(t *testing.T) {
	broken := strings.Replace(miniGraph, "next: lab\n  - id: lab", "next: bob:intro\n  - id: lab", 1)

	_, issues, err := content.Load(miniPack(broken))

	require.ErrorIs(t, err, models.ErrInvalidContent)
	assert.Contains(t, issueText(issues), `unknown character "bob"`)
}

func TestValidateWarnsAboutUnreachableNode(t *testing.T) {
	withOrphan := miniGraph + `
  - id: attic
    text: Dusty.
    choices:
      - id: down
        text: Go down.
        next: lab
`
	lib, issues, err := content.Load(miniPack(withOrphan))
	require.NoError(t, err)
	require.NotNil(t, lib)

	require.Len(t, issues, 1)
	assert.Equal(t, content.SeverityWarning, issues[0].Severity)
	assert.Equal(t, "ada:attic", issues[0].Where)
}

func TestValidateDetectsBadConditions(t *testing.T) {
	pack := miniPack(miniGraph)
	pack["achievements.yaml"] = &fstest.MapFile{Data: []byte(`
achievements:
  - id: fan
    title: Fan
    when:
      tier_min: {ada: trustd}
  - id: fan
    title: Duplicate
  - id: ghost
    title: Ghost
    when:
      trust_min: {adaa: 3}
`)}

	_, issues, err := content.Load(pack)

	require.ErrorIs(t, err, models.ErrInvalidContent)
	text := issueText(issues)
	assert.Contains(t, text, `unknown tier "trustd" (did you mean "trusted"?)`)
	assert.Contains(t, text, "duplicate achievement id")
	assert.Contains(t, text, "missing condition")
	assert.Contains(t, text, `unknown character "adaa" (did you mean "ada"?)`)
}

func TestParseInvalidYAML(t *testing.T) {
	pack := miniPack("character: [unclosed")

	_, err := content.Parse(pack)

	assert.ErrorIs(t, err, models.ErrInvalidContent)
}

func TestParseMissingCharacters(t *testing.T) {
	_, err := content.Parse(fstest.MapFS{"graphs/ada.yaml": {Data: []byte(miniGraph)}})
	assert.Error(t, err)
}

func TestStoreSwap(t *testing.T) {
	a, _, err := content.Load(miniPack(miniGraph))
	require.NoError(t, err)
	b, _, err := content.Load(content.DefaultFS())
	require.NoError(t, err)

	s := content.NewStore(a)
	assert.Same(t, a, s.Library())
	assert.Same(t, a, s.Swap(b))
	assert.Same(t, b, s.Library())
}

func writePack(t *testing.T, dir, graph string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "graphs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "characters.yaml"), []byte(miniCharacters), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graphs", "ada.yaml"), []byte(graph), 0o644))
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, miniGraph)
	lib, _, err := content.Load(content.Source(dir))
	require.NoError(t, err)
	store := content.NewStore(lib)

	w, err := content.NewWatcher(dir, store, zap.NewNop())
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	updated := strings.Replace(miniGraph, "text: The lab.", "text: The bright lab.", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graphs", "ada.yaml"), []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		n, ok := store.Library().Node("ada", "lab")
		return ok && n.Text == "The bright lab."
	}, 5*time.Second, 20*time.Millisecond)
	assert.NotEqual(t, lib.Revision(), store.Library().Revision())
}

func TestWatcherKeepsPreviousLibraryOnInvalidContent(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, miniGraph)
	lib, _, err := content.Load(content.Source(dir))
	require.NoError(t, err)
	store := content.NewStore(lib)

	w, err := content.NewWatcher(dir, store, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	writePack(t, dir, strings.Replace(miniGraph, "next: lab", "next: nowhere", 1))

	assert.ErrorIs(t, w.Reload(), models.ErrInvalidContent)
	assert.Same(t, lib, store.Library())
}

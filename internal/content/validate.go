package content

import (
	"fmt"
	"sort"

	"pathways-server/internal/domain"
	"pathways-server/internal/graph"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/language"
)

// Severity - уровень проблемы в контенте.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue - одна найденная проблема.
type Issue struct {
	Severity Severity `json:"severity"`
	Where    string   `json:"where"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Where, i.Message)
}

// Errors filters error-level issues.
func Errors(issues []Issue) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}

type validator struct {
	lib    *graph.Library
	issues []Issue
}

func (v *validator) errorf(where, format string, args ...interface{}) {
	v.issues = append(v.issues, Issue{Severity: SeverityError, Where: where, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) warnf(where, format string, args ...interface{}) {
	v.issues = append(v.issues, Issue{Severity: SeverityWarning, Where: where, Message: fmt.Sprintf(format, args...)})
}

// Validate checks cross references of an indexed library.
func Validate(lib *graph.Library) []Issue {
	v := &validator{lib: lib}
	v.characters()
	v.graphs()
	v.achievements()
	v.arcs()
	v.gifts()
	return v.issues
}

func (v *validator) characters() {
	known := map[domain.EventType]bool{}
	for _, t := range domain.KnownEventTypes() {
		known[t] = true
	}
	for _, c := range v.lib.Characters() {
		where := "character " + c.ID
		if c.Name == "" {
			v.warnf(where, "has no name")
		}
		for _, p := range c.Affinity {
			v.pattern(where, p)
		}
		if _, ok := v.lib.Graph(c.ID); !ok {
			v.warnf(where, "has no dialogue graph")
		}
		for i, line := range c.Voice {
			lw := fmt.Sprintf("%s voice #%d", where, i)
			if !known[line.Trigger] {
				v.errorf(lw, "unknown trigger %q", line.Trigger)
			}
			if line.Pattern != "" {
				v.pattern(lw, line.Pattern)
			}
			if line.Text == "" {
				v.errorf(lw, "empty text")
			}
			for tag := range line.Locales {
				if _, err := language.Parse(tag); err != nil {
					v.warnf(lw, "bad locale %q: %v", tag, err)
				}
			}
		}
	}
}

func (v *validator) graphs() {
	for _, id := range v.lib.GraphIDs() {
		g, _ := v.lib.Graph(id)
		where := "graph " + id
		if _, ok := v.lib.Character(id); !ok {
			v.errorf(where, "unknown character%s", v.suggestCharacter(id))
		}
		if _, ok := v.lib.Node(id, g.Start); !ok {
			v.errorf(where, "start node %q not found%s", g.Start, v.suggestNode(id, g.Start))
		}
		if g.Hub != "" {
			if _, ok := v.lib.Node(id, g.Hub); !ok {
				v.errorf(where, "hub node %q not found%s", g.Hub, v.suggestNode(id, g.Hub))
			}
		}
		for _, n := range g.Nodes {
			v.node(id, g, n)
		}
	}
	v.reachability()
}

func (v *validator) node(charID string, g *domain.DialogueGraph, n *domain.Node) {
	where := domain.NodeKey(charID, n.ID)
	if n.Text == "" && len(n.Variants) == 0 {
		v.warnf(where, "empty text")
	}
	for i, tv := range n.Variants {
		v.condition(fmt.Sprintf("%s variant #%d", where, i), tv.If)
	}
	v.effects(where+" on_enter", n.OnEnter)

	if n.Ending {
		if len(n.Choices) > 0 {
			v.warnf(where, "ending node has choices that can never be taken")
		}
		return
	}
	if len(n.Choices) == 0 && (g.Hub == "" || g.Hub == n.ID) {
		v.warnf(where, "dead end: no choices and no hub to fall back to")
	}

	seen := map[string]bool{}
	for i := range n.Choices {
		c := &n.Choices[i]
		cw := fmt.Sprintf("%s choice %q", where, c.ID)
		if c.ID == "" {
			v.errorf(where, "choice #%d has empty id", i)
		} else if seen[c.ID] {
			v.errorf(cw, "duplicate choice id")
		}
		seen[c.ID] = true
		if c.Pattern != "" {
			v.pattern(cw, c.Pattern)
		}
		v.condition(cw+" visible_if", c.VisibleIf)
		v.effects(cw, &c.Effects)
		if c.Next != "" {
			v.target(cw, charID, c.Next)
		}
		for j, r := range c.Redirects {
			rw := fmt.Sprintf("%s redirect #%d", cw, j)
			if r.If == nil {
				v.warnf(rw, "redirect without condition always wins")
			}
			v.condition(rw, r.If)
			v.target(rw, charID, r.Next)
		}
	}
}

func (v *validator) target(where, current, ref string) {
	charID, nodeID := domain.SplitTarget(ref, current)
	if _, ok := v.lib.Graph(charID); !ok {
		v.errorf(where, "target %q: unknown character %q%s", ref, charID, v.suggestCharacter(charID))
		return
	}
	if _, ok := v.lib.Node(charID, nodeID); !ok {
		v.errorf(where, "target %q: unknown node%s", ref, v.suggestNode(charID, nodeID))
	}
}

func (v *validator) pattern(where string, p domain.Pattern) {
	if p.Valid() {
		return
	}
	// Сравнение паттернов строгое: "Building" в контенте не совпадет с building.
	if canon, err := domain.ParsePattern(string(p)); err == nil {
		v.errorf(where, "pattern %q must be written as %q", p, canon)
		return
	}
	candidates := make([]string, 0, 5)
	for _, known := range domain.AllPatterns() {
		candidates = append(candidates, string(known))
	}
	v.errorf(where, "unknown pattern %q%s", p, didYouMean(string(p), candidates))
}

func (v *validator) trustRef(where, charID string, allowSelf bool) {
	if allowSelf && charID == domain.SelfCharacter {
		return
	}
	if _, ok := v.lib.Character(charID); !ok {
		v.errorf(where, "unknown character %q%s", charID, v.suggestCharacter(charID))
	}
}

func (v *validator) effects(where string, e *domain.Effects) {
	if e == nil {
		return
	}
	for c := range e.Trust {
		v.trustRef(where+" trust", c, true)
	}
	for p, delta := range e.Patterns {
		v.pattern(where, p)
		if delta < 0 {
			v.warnf(where, "negative delta for pattern %q is ignored", p)
		}
	}
}

func (v *validator) condition(where string, c *domain.Condition) {
	if c == nil {
		return
	}
	for ch := range c.TrustMin {
		v.trustRef(where+" trust_min", ch, false)
	}
	for ch := range c.TrustMax {
		v.trustRef(where+" trust_max", ch, false)
	}
	for ch, tier := range c.TierMin {
		v.trustRef(where+" tier_min", ch, false)
		if !tier.Valid() {
			v.errorf(where, "unknown tier %q%s", tier, didYouMean(string(tier), []string{
				string(domain.TierStranger), string(domain.TierAcquaintance), string(domain.TierTrusted), string(domain.TierConfidant),
			}))
		}
	}
	for p := range c.PatternMin {
		v.pattern(where+" pattern_min", p)
	}
	if c.Identity != "" {
		v.pattern(where+" identity", c.Identity)
	}
	for _, ref := range append(append([]string(nil), c.Visited...), c.NotVisited...) {
		charID, nodeID := domain.SplitTarget(ref, "")
		if charID == "" {
			// Без персонажа ссылка относится к текущему узлу состояния; проверить нельзя.
			continue
		}
		if _, ok := v.lib.Node(charID, nodeID); !ok {
			v.errorf(where, "visited ref %q: unknown node%s", ref, v.suggestNode(charID, nodeID))
		}
	}
	for _, a := range c.Achievements {
		if !v.hasAchievement(a) {
			v.errorf(where, "unknown achievement %q%s", a, didYouMean(a, v.achievementIDs()))
		}
	}
	for i, sub := range c.All {
		v.condition(fmt.Sprintf("%s all[%d]", where, i), sub)
	}
	for i, sub := range c.Any {
		v.condition(fmt.Sprintf("%s any[%d]", where, i), sub)
	}
	v.condition(where+" not", c.Not)
}

func (v *validator) achievements() {
	seen := map[string]bool{}
	for _, a := range v.lib.Achievements() {
		where := "achievement " + a.ID
		if a.ID == "" {
			v.errorf("achievements", "achievement with empty id")
			continue
		}
		if seen[a.ID] {
			v.errorf(where, "duplicate achievement id")
		}
		seen[a.ID] = true
		if a.When == nil {
			v.errorf(where, "missing condition")
		}
		v.condition(where, a.When)
	}
}

func (v *validator) arcs() {
	seen := map[string]bool{}
	for _, arc := range v.lib.Arcs() {
		where := "arc " + arc.ID
		if seen[arc.ID] {
			v.errorf(where, "duplicate arc id")
		}
		seen[arc.ID] = true
		if len(arc.Steps) == 0 {
			v.errorf(where, "arc has no steps")
		}
		for i, s := range arc.Steps {
			sw := fmt.Sprintf("%s step #%d", where, i)
			if s.When == nil {
				v.errorf(sw, "missing condition")
			}
			v.condition(sw, s.When)
		}
	}
}

func (v *validator) gifts() {
	seen := map[string]bool{}
	for _, g := range v.lib.Gifts() {
		where := "gift " + g.ID
		if seen[g.ID] {
			v.errorf(where, "duplicate gift id")
		}
		seen[g.ID] = true
		v.trustRef(where, g.CharacterID, false)
		if g.MinTrust < domain.MinTrust || g.MinTrust > domain.MaxTrust {
			v.errorf(where, "min_trust %d outside [%d, %d]", g.MinTrust, domain.MinTrust, domain.MaxTrust)
		}
		v.condition(where, g.When)
	}
}

// reachability warns about nodes that no start, hub or choice leads to.
func (v *validator) reachability() {
	reached := map[string]bool{}
	var queue []string
	push := func(key string) {
		if !reached[key] {
			reached[key] = true
			queue = append(queue, key)
		}
	}
	for _, id := range v.lib.GraphIDs() {
		g, _ := v.lib.Graph(id)
		push(domain.NodeKey(id, g.Start))
		if g.Hub != "" {
			push(domain.NodeKey(id, g.Hub))
		}
	}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		charID, nodeID := domain.SplitTarget(key, "")
		n, ok := v.lib.Node(charID, nodeID)
		if !ok {
			continue
		}
		for _, c := range n.Choices {
			if c.Next != "" {
				push(domain.NodeKey(domain.SplitTarget(c.Next, charID)))
			}
			for _, r := range c.Redirects {
				push(domain.NodeKey(domain.SplitTarget(r.Next, charID)))
			}
		}
	}
	for _, id := range v.lib.GraphIDs() {
		g, _ := v.lib.Graph(id)
		for _, n := range g.Nodes {
			if key := domain.NodeKey(id, n.ID); !reached[key] {
				v.warnf(key, "unreachable node")
			}
		}
	}
}

func (v *validator) hasAchievement(id string) bool {
	for _, a := range v.lib.Achievements() {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (v *validator) achievementIDs() []string {
	ids := make([]string, 0, len(v.lib.Achievements()))
	for _, a := range v.lib.Achievements() {
		ids = append(ids, a.ID)
	}
	return ids
}

func (v *validator) suggestCharacter(id string) string {
	return didYouMean(id, v.lib.GraphIDs())
}

func (v *validator) suggestNode(charID, nodeID string) string {
	g, ok := v.lib.Graph(charID)
	if !ok {
		return ""
	}
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return didYouMean(nodeID, ids)
}

// didYouMean returns a hint with the closest candidate, or "" when nothing is close.
func didYouMean(word string, candidates []string) string {
	best, bestDist := "", -1
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	for _, c := range sorted {
		d := levenshtein.ComputeDistance(word, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	limit := len(word) / 3
	if limit < 2 {
		limit = 2
	}
	if best == "" || bestDist > limit {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

// Package condition оценивает авторские условия контента против состояния игры.
// Пакет чистый: без ввода-вывода и без изменения состояния.
package condition

import (
	"fmt"
	"sort"

	"pathways-server/internal/domain"
)

// Evaluate reports whether every clause of cond holds for st. A nil condition holds.
func Evaluate(cond *domain.Condition, st *domain.GameState) bool {
	return len(check(cond, st, true)) == 0
}

// Explain returns a human-readable description of each failing clause.
// An empty result means the condition holds.
func Explain(cond *domain.Condition, st *domain.GameState) []string {
	return check(cond, st, false)
}

// check walks the clauses; with stopEarly it returns on the first failure.
func check(cond *domain.Condition, st *domain.GameState, stopEarly bool) []string {
	if cond == nil {
		return nil
	}
	var failures []string
	fail := func(format string, args ...any) bool {
		failures = append(failures, fmt.Sprintf(format, args...))
		return stopEarly
	}

	for _, char := range sortedKeys(cond.TrustMin) {
		if got := st.Trust[char]; got < cond.TrustMin[char] {
			if fail("trust[%s]=%d < %d", char, got, cond.TrustMin[char]) {
				return failures
			}
		}
	}
	for _, char := range sortedKeys(cond.TrustMax) {
		if got := st.Trust[char]; got > cond.TrustMax[char] {
			if fail("trust[%s]=%d > %d", char, got, cond.TrustMax[char]) {
				return failures
			}
		}
	}
	for _, char := range sortedKeys(cond.TierMin) {
		want := cond.TierMin[char]
		if got := st.TierFor(char); got.Rank() < want.Rank() {
			if fail("tier[%s]=%s below %s", char, got, want) {
				return failures
			}
		}
	}
	for _, p := range domain.AllPatterns() {
		want, ok := cond.PatternMin[p]
		if !ok {
			continue
		}
		if got := st.Patterns[p]; got < want {
			if fail("pattern[%s]=%d < %d", p, got, want) {
				return failures
			}
		}
	}
	for _, f := range cond.Flags {
		if !st.Flags.Has(f) {
			if fail("flag %q not set", f) {
				return failures
			}
		}
	}
	for _, f := range cond.NotFlags {
		if st.Flags.Has(f) {
			if fail("flag %q is set", f) {
				return failures
			}
		}
	}
	for _, ref := range cond.Visited {
		if !st.Visited.Has(visitKey(ref, st)) {
			if fail("node %q not visited", ref) {
				return failures
			}
		}
	}
	for _, ref := range cond.NotVisited {
		if st.Visited.Has(visitKey(ref, st)) {
			if fail("node %q already visited", ref) {
				return failures
			}
		}
	}
	for _, a := range cond.Achievements {
		if !st.Achievements.Has(a) {
			if fail("achievement %q missing", a) {
				return failures
			}
		}
	}
	if cond.Identity != "" && st.Identity != cond.Identity {
		if fail("identity is %q, want %q", st.Identity, cond.Identity) {
			return failures
		}
	}
	for i, sub := range cond.All {
		if nested := check(sub, st, stopEarly); len(nested) > 0 {
			if fail("all[%d]: %v", i, nested) {
				return failures
			}
		}
	}
	if cond.Any != nil {
		matched := false
		for _, sub := range cond.Any {
			if Evaluate(sub, st) {
				matched = true
				break
			}
		}
		if !matched {
			if fail("none of %d alternatives hold", len(cond.Any)) {
				return failures
			}
		}
	}
	if cond.Not != nil && Evaluate(cond.Not, st) {
		if fail("negated condition holds") {
			return failures
		}
	}
	return failures
}

// visitKey resolves a bare node id against the current character.
func visitKey(ref string, st *domain.GameState) string {
	char, node := domain.SplitTarget(ref, st.CharacterID)
	return domain.NodeKey(char, node)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

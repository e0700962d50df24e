package domain

import (
	"fmt"
	"strings"
)

// Pattern - одно из пяти измерений поведения игрока, накапливаемых через выборы.
type Pattern string

const (
	PatternAnalytical Pattern = "analytical"
	PatternPatience   Pattern = "patience"
	PatternExploring  Pattern = "exploring"
	PatternHelping    Pattern = "helping"
	PatternBuilding   Pattern = "building"
)

// AllPatterns returns the patterns in canonical order.
func AllPatterns() []Pattern {
	return []Pattern{
		PatternAnalytical,
		PatternPatience,
		PatternExploring,
		PatternHelping,
		PatternBuilding,
	}
}

// ParsePattern accepts a pattern name case-insensitively.
func ParsePattern(s string) (Pattern, error) {
	p := Pattern(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown pattern %q", s)
	}
	return p, nil
}

// Valid reports whether p is one of the five known patterns.
func (p Pattern) Valid() bool {
	switch p {
	case PatternAnalytical, PatternPatience, PatternExploring, PatternHelping, PatternBuilding:
		return true
	}
	return false
}

// PatternLevel - производный уровень паттерна по накопленным очкам.
type PatternLevel string

const (
	PatternLevelNone        PatternLevel = "none"
	PatternLevelEmerging    PatternLevel = "emerging"
	PatternLevelDeveloping  PatternLevel = "developing"
	PatternLevelFlourishing PatternLevel = "flourishing"
)

const (
	PatternEmergingAt    = 3
	PatternDevelopingAt  = 6
	PatternFlourishingAt = 9
)

// LevelForScore maps an accumulated score to its level.
func LevelForScore(score int) PatternLevel {
	switch {
	case score >= PatternFlourishingAt:
		return PatternLevelFlourishing
	case score >= PatternDevelopingAt:
		return PatternLevelDeveloping
	case score >= PatternEmergingAt:
		return PatternLevelEmerging
	default:
		return PatternLevelNone
	}
}

// Rank orders levels so that crossings can be compared.
func (l PatternLevel) Rank() int {
	switch l {
	case PatternLevelEmerging:
		return 1
	case PatternLevelDeveloping:
		return 2
	case PatternLevelFlourishing:
		return 3
	default:
		return 0
	}
}

// PatternScores хранит накопленные очки по паттернам.
// Очки никогда не уменьшаются.
type PatternScores map[Pattern]int

// Add applies a delta. Negative deltas are ignored and the applied amount is returned.
func (ps PatternScores) Add(p Pattern, delta int) int {
	if delta <= 0 || !p.Valid() {
		return 0
	}
	ps[p] += delta
	return delta
}

// Total sums all pattern scores.
func (ps PatternScores) Total() int {
	total := 0
	for _, v := range ps {
		total += v
	}
	return total
}

// Leading returns the highest and second-highest patterns.
// Ties are broken by canonical order.
func (ps PatternScores) Leading() (first Pattern, firstScore int, secondScore int) {
	firstScore, secondScore = -1, -1
	for _, p := range AllPatterns() {
		v := ps[p]
		switch {
		case v > firstScore:
			secondScore = firstScore
			first, firstScore = p, v
		case v > secondScore:
			secondScore = v
		}
	}
	if secondScore < 0 {
		secondScore = 0
	}
	return first, firstScore, secondScore
}

func (ps PatternScores) clone() PatternScores {
	out := make(PatternScores, len(ps))
	for k, v := range ps {
		out[k] = v
	}
	return out
}

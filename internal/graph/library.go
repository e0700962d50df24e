// Package graph хранит неизменяемый снимок контента и перемещает состояние
// игры по диалоговым графам персонажей.
package graph

import (
	"fmt"
	"sort"

	"pathways-server/internal/domain"
)

// Library - неизменяемый снимок всего контента. Безопасен для конкурентного чтения.
type Library struct {
	characters   map[string]*domain.Character
	order        []string
	graphs       map[string]*indexedGraph
	achievements []domain.Achievement
	arcs         []domain.StoryArc
	gifts        []domain.Gift
	revision     string
}

type indexedGraph struct {
	graph *domain.DialogueGraph
	nodes map[string]*domain.Node
}

// Bundle - сырой контент до индексации.
type Bundle struct {
	Characters   []domain.Character
	Graphs       []domain.DialogueGraph
	Achievements []domain.Achievement
	Arcs         []domain.StoryArc
	Gifts        []domain.Gift
	Revision     string
}

// NewLibrary indexes a bundle. Structural duplicates are rejected here;
// referential checks live in the content validator.
func NewLibrary(b Bundle) (*Library, error) {
	lib := &Library{
		characters:   make(map[string]*domain.Character, len(b.Characters)),
		graphs:       make(map[string]*indexedGraph, len(b.Graphs)),
		achievements: append([]domain.Achievement(nil), b.Achievements...),
		arcs:         append([]domain.StoryArc(nil), b.Arcs...),
		gifts:        append([]domain.Gift(nil), b.Gifts...),
		revision:     b.Revision,
	}

	for i := range b.Characters {
		c := b.Characters[i]
		if c.ID == "" {
			return nil, fmt.Errorf("character #%d has empty id", i)
		}
		if _, dup := lib.characters[c.ID]; dup {
			return nil, fmt.Errorf("duplicate character id %q", c.ID)
		}
		lib.characters[c.ID] = &c
		lib.order = append(lib.order, c.ID)
	}

	for i := range b.Graphs {
		g := b.Graphs[i]
		if _, dup := lib.graphs[g.CharacterID]; dup {
			return nil, fmt.Errorf("duplicate dialogue graph for character %q", g.CharacterID)
		}
		idx := &indexedGraph{graph: &g, nodes: make(map[string]*domain.Node, len(g.Nodes))}
		for _, n := range g.Nodes {
			if n == nil || n.ID == "" {
				return nil, fmt.Errorf("graph %q contains a node without id", g.CharacterID)
			}
			if _, dup := idx.nodes[n.ID]; dup {
				return nil, fmt.Errorf("graph %q: duplicate node id %q", g.CharacterID, n.ID)
			}
			idx.nodes[n.ID] = n
		}
		lib.graphs[g.CharacterID] = idx
	}
	return lib, nil
}

// Revision identifies the content snapshot (hash of source files).
func (l *Library) Revision() string {
	if l == nil {
		return ""
	}
	return l.revision
}

// Character returns a character by id.
func (l *Library) Character(id string) (*domain.Character, bool) {
	c, ok := l.characters[id]
	return c, ok
}

// Characters returns characters in authored order.
func (l *Library) Characters() []*domain.Character {
	out := make([]*domain.Character, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.characters[id])
	}
	return out
}

// Graph returns the dialogue graph of a character.
func (l *Library) Graph(characterID string) (*domain.DialogueGraph, bool) {
	g, ok := l.graphs[characterID]
	if !ok {
		return nil, false
	}
	return g.graph, true
}

// GraphIDs returns the characters that own a graph, sorted.
func (l *Library) GraphIDs() []string {
	ids := make([]string, 0, len(l.graphs))
	for id := range l.graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Node looks up a node in a character's graph.
func (l *Library) Node(characterID, nodeID string) (*domain.Node, bool) {
	g, ok := l.graphs[characterID]
	if !ok {
		return nil, false
	}
	n, ok := g.nodes[nodeID]
	return n, ok
}

// Achievements returns achievements in authored order.
func (l *Library) Achievements() []domain.Achievement { return l.achievements }

// Arcs returns story arcs in authored order.
func (l *Library) Arcs() []domain.StoryArc { return l.arcs }

// Gifts returns gifts in authored order.
func (l *Library) Gifts() []domain.Gift { return l.gifts }

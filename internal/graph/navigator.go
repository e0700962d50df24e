package graph

import (
	"fmt"
	"strings"

	"pathways-server/internal/condition"
	"pathways-server/internal/domain"
	"pathways-server/internal/models"
)

// PresentedChoice - выбор, который видит игрок.
type PresentedChoice struct {
	ID      string         `json:"id"`
	Text    string         `json:"text"`
	Pattern domain.Pattern `json:"pattern,omitempty"`
}

// Presented - текущий узел в том виде, в каком его показывают игроку.
type Presented struct {
	CharacterID string            `json:"character_id"`
	NodeID      string            `json:"node_id"`
	Speaker     string            `json:"speaker"`
	Text        string            `json:"text"`
	Ending      bool              `json:"ending"`
	Choices     []PresentedChoice `json:"choices"`
}

// Present renders the state's current node: first matching text variant and visible choices.
func Present(lib *Library, st *domain.GameState) (*Presented, error) {
	node, ok := lib.Node(st.CharacterID, st.NodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownNode, st.CurrentKey())
	}
	text := node.Text
	for _, v := range node.Variants {
		if condition.Evaluate(v.If, st) {
			text = v.Text
			break
		}
	}
	p := &Presented{
		CharacterID: st.CharacterID,
		NodeID:      node.ID,
		Speaker:     SpeakerName(lib, st.CharacterID, node),
		Text:        text,
		Ending:      node.Ending,
		Choices:     []PresentedChoice{},
	}
	for _, c := range VisibleChoices(node, st) {
		p.Choices = append(p.Choices, PresentedChoice{ID: c.ID, Text: c.Text, Pattern: c.Pattern})
	}
	return p, nil
}

// VisibleChoices returns the choices whose visibility condition holds, in authored order.
func VisibleChoices(node *domain.Node, st *domain.GameState) []*domain.Choice {
	out := make([]*domain.Choice, 0, len(node.Choices))
	for i := range node.Choices {
		if condition.Evaluate(node.Choices[i].VisibleIf, st) {
			out = append(out, &node.Choices[i])
		}
	}
	return out
}

// SpeakerName resolves who says a node: explicit speaker, character name, or id.
func SpeakerName(lib *Library, characterID string, node *domain.Node) string {
	if node != nil && node.Speaker != "" {
		return node.Speaker
	}
	if c, ok := lib.Character(characterID); ok && c.Name != "" {
		return c.Name
	}
	return characterID
}

// Target - куда ведет выбор. Stay: у выбора нет next, узел показывается заново.
type Target struct {
	CharacterID string
	NodeID      string
	Stay        bool
}

// ResolveTarget picks the next position for a choice: first redirect whose
// condition holds, else Next. An empty Next keeps the current node.
func ResolveTarget(choice *domain.Choice, st *domain.GameState) Target {
	ref := choice.Next
	for _, r := range choice.Redirects {
		if condition.Evaluate(r.If, st) {
			ref = r.Next
			break
		}
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Target{CharacterID: st.CharacterID, NodeID: st.NodeID, Stay: true}
	}
	characterID, nodeID := domain.SplitTarget(ref, st.CharacterID)
	return Target{CharacterID: characterID, NodeID: nodeID}
}

// Go moves st to the target: Stay re-presents the current node, anything else
// is a regular Enter.
func Go(lib *Library, st *domain.GameState, t Target, d *domain.Deltas) error {
	if t.Stay {
		return Stay(lib, st, d)
	}
	return Enter(lib, st, t.CharacterID, t.NodeID, d)
}

// Enter moves st to the node, marks it visited and applies on-enter effects.
// A non-ending node without visible choices falls back to the character hub once.
func Enter(lib *Library, st *domain.GameState, characterID, nodeID string, d *domain.Deltas) error {
	return enter(lib, st, characterID, nodeID, d, true)
}

// Stay keeps st on its current node without re-entering it: on-enter effects
// are not applied again. When the choice's effects hid every remaining choice,
// the hub fallback of Enter still applies.
func Stay(lib *Library, st *domain.GameState, d *domain.Deltas) error {
	g, ok := lib.Graph(st.CharacterID)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownCharacter, st.CharacterID)
	}
	node, ok := lib.Node(st.CharacterID, st.NodeID)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownNode, st.CurrentKey())
	}
	if node.Ending || len(VisibleChoices(node, st)) > 0 {
		return nil
	}
	if g.Hub != "" && g.Hub != node.ID {
		return enter(lib, st, st.CharacterID, g.Hub, d, false)
	}
	return fmt.Errorf("%w: %s", models.ErrDeadEnd, st.CurrentKey())
}

func enter(lib *Library, st *domain.GameState, characterID, nodeID string, d *domain.Deltas, allowFallback bool) error {
	g, ok := lib.Graph(characterID)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownCharacter, characterID)
	}
	node, ok := lib.Node(characterID, nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownNode, domain.NodeKey(characterID, nodeID))
	}

	st.CharacterID = characterID
	st.NodeID = nodeID
	st.Visited.Add(domain.NodeKey(characterID, nodeID))
	st.ApplyEffects(node.OnEnter, characterID, d)

	if node.Ending {
		st.Ended = true
		return nil
	}
	if len(VisibleChoices(node, st)) > 0 {
		return nil
	}
	if allowFallback && g.Hub != "" && g.Hub != nodeID {
		return enter(lib, st, characterID, g.Hub, d, false)
	}
	return fmt.Errorf("%w: %s", models.ErrDeadEnd, domain.NodeKey(characterID, nodeID))
}

// HasMet reports whether any node of the character was visited.
func HasMet(st *domain.GameState, characterID string) bool {
	prefix := characterID + ":"
	for key, ok := range st.Visited {
		if ok && strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// Start switches the conversation partner: start node on first meeting,
// hub (or start) afterwards.
func Start(lib *Library, st *domain.GameState, characterID string, d *domain.Deltas) error {
	if st.Ended {
		return models.ErrGameEnded
	}
	g, ok := lib.Graph(characterID)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownCharacter, characterID)
	}
	target := g.Start
	if HasMet(st, characterID) && g.Hub != "" {
		target = g.Hub
	}
	return Enter(lib, st, characterID, target, d)
}

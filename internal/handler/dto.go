package handler

import (
	"time"

	"pathways-server/internal/domain"
	"pathways-server/internal/graph"
	"pathways-server/internal/resolver"

	"github.com/google/uuid"
)

type profileRequest struct {
	DisplayName string `json:"display_name" binding:"omitempty,min=1,max=64"`
}

type startGameRequest struct {
	CharacterID string `json:"character_id" binding:"required,max=64,contentid"`
	Locale      string `json:"locale" binding:"omitempty,max=35,locale"`
}

type choiceRequest struct {
	ChoiceID        string `json:"choice_id" binding:"required,max=128,contentid"`
	ExpectedVersion *int64 `json:"expected_version" binding:"omitempty,min=0"`
	Locale          string `json:"locale" binding:"omitempty,max=35,locale"`
}

type talkRequest struct {
	CharacterID string `json:"character_id" binding:"required,max=64,contentid"`
	Locale      string `json:"locale" binding:"omitempty,max=35,locale"`
}

type characterDTO struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Role     string           `json:"role,omitempty"`
	Affinity []domain.Pattern `json:"affinity"`
}

type relationshipDTO struct {
	Trust int              `json:"trust"`
	Tier  domain.TrustTier `json:"tier"`
}

type patternDTO struct {
	Score int                 `json:"score"`
	Level domain.PatternLevel `json:"level"`
}

// saveDTO - сохранение в том виде, в каком его видит клиент.
type saveDTO struct {
	ID            uuid.UUID                     `json:"id"`
	CharacterID   string                        `json:"character_id"`
	NodeID        string                        `json:"node_id"`
	Ended         bool                          `json:"ended"`
	Version       int64                         `json:"version"`
	StateHash     string                        `json:"state_hash"`
	Relationships map[string]relationshipDTO    `json:"relationships"`
	Patterns      map[domain.Pattern]patternDTO `json:"patterns"`
	Identity      domain.Pattern                `json:"identity,omitempty"`
	Achievements  []string                      `json:"achievements"`
	CompletedArcs []string                      `json:"completed_arcs"`
	Gifts         []string                      `json:"gifts"`
	Combo         domain.Combo                  `json:"combo"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}

type outcomeDTO struct {
	Save   saveDTO          `json:"save"`
	Node   *graph.Presented `json:"node"`
	Echo   *domain.Echo     `json:"echo"`
	Events []domain.Event   `json:"events"`
	Deltas *domain.Deltas   `json:"deltas"`
}

func toSaveDTO(st *domain.GameState) saveDTO {
	dto := saveDTO{
		ID:            st.ID,
		CharacterID:   st.CharacterID,
		NodeID:        st.NodeID,
		Ended:         st.Ended,
		Version:       st.Version,
		StateHash:     st.StateHash,
		Relationships: make(map[string]relationshipDTO, len(st.Trust)),
		Patterns:      make(map[domain.Pattern]patternDTO, len(st.Patterns)),
		Identity:      st.Identity,
		Achievements:  st.Achievements.Sorted(),
		CompletedArcs: st.CompletedArcs.Sorted(),
		Gifts:         st.Gifts.Sorted(),
		Combo:         st.Combo,
		UpdatedAt:     st.UpdatedAt,
	}
	for id, trust := range st.Trust {
		dto.Relationships[id] = relationshipDTO{Trust: trust, Tier: domain.TierForTrust(trust)}
	}
	for p, score := range st.Patterns {
		dto.Patterns[p] = patternDTO{Score: score, Level: domain.LevelForScore(score)}
	}
	return dto
}

func toOutcomeDTO(out *resolver.Outcome) outcomeDTO {
	return outcomeDTO{
		Save:   toSaveDTO(out.State),
		Node:   out.Presented,
		Echo:   out.Echo,
		Events: out.Events,
		Deltas: out.Deltas,
	}
}

func toCharacterDTOs(chars []*domain.Character) []characterDTO {
	out := make([]characterDTO, 0, len(chars))
	for _, c := range chars {
		affinity := c.Affinity
		if affinity == nil {
			affinity = []domain.Pattern{}
		}
		out = append(out, characterDTO{ID: c.ID, Name: c.Name, Role: c.Role, Affinity: affinity})
	}
	return out
}

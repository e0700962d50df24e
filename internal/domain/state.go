package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// MaxHistory ограничивает журнал выборов в состоянии.
const MaxHistory = 200

// Set - множество строковых ключей (флаги, посещенные узлы, достижения).
type Set map[string]bool

// Has reports membership.
func (s Set) Has(key string) bool { return s[key] }

// Add inserts key and reports whether it was newly added.
func (s Set) Add(key string) bool {
	if s[key] {
		return false
	}
	s[key] = true
	return true
}

// Remove deletes key.
func (s Set) Remove(key string) { delete(s, key) }

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k, ok := range s {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (s Set) clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		if v {
			out[k] = true
		}
	}
	return out
}

// HistoryEntry - одна запись журнала выборов.
type HistoryEntry struct {
	CharacterID string    `json:"character_id"`
	NodeID      string    `json:"node_id"`
	ChoiceID    string    `json:"choice_id"`
	Pattern     Pattern   `json:"pattern,omitempty"`
	At          time.Time `json:"at"`
}

// Combo - текущая цепочка выборов одного паттерна.
type Combo struct {
	Pattern Pattern `json:"pattern,omitempty"`
	Length  int     `json:"length"`
}

// GameState - неизменяемый снимок сохранения игрока.
// Пайплайн выбора всегда работает с Clone() и никогда не меняет вход.
type GameState struct {
	ID              uuid.UUID            `json:"id"`
	PlayerID        uuid.UUID            `json:"player_id"`
	CharacterID     string               `json:"character_id"`
	NodeID          string               `json:"node_id"`
	Ended           bool                 `json:"ended"`
	Trust           TrustScores          `json:"trust"`
	Patterns        PatternScores        `json:"patterns"`
	Flags           Set                  `json:"flags"`
	Visited         Set                  `json:"visited"`
	History         []HistoryEntry       `json:"history"`
	Achievements    Set                  `json:"achievements"`
	ArcProgress     map[string]int       `json:"arc_progress"`
	CompletedArcs   Set                  `json:"completed_arcs"`
	Gifts           Set                  `json:"gifts"`
	Combo           Combo                `json:"combo"`
	LastInteraction map[string]time.Time `json:"last_interaction"`
	Identity        Pattern              `json:"identity,omitempty"`
	Version         int64                `json:"version"`
	StateHash       string               `json:"state_hash"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// InitialStateHash - хэш состояния до первого выбора.
const InitialStateHash = "initial"

// NewGameState creates an empty save positioned nowhere; the navigator places it.
func NewGameState(playerID uuid.UUID, now time.Time) *GameState {
	st := &GameState{
		ID:        uuid.New(),
		PlayerID:  playerID,
		StateHash: InitialStateHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.ensureMaps()
	return st
}

func (s *GameState) ensureMaps() {
	if s.Trust == nil {
		s.Trust = TrustScores{}
	}
	if s.Patterns == nil {
		s.Patterns = PatternScores{}
	}
	if s.Flags == nil {
		s.Flags = Set{}
	}
	if s.Visited == nil {
		s.Visited = Set{}
	}
	if s.Achievements == nil {
		s.Achievements = Set{}
	}
	if s.ArcProgress == nil {
		s.ArcProgress = map[string]int{}
	}
	if s.CompletedArcs == nil {
		s.CompletedArcs = Set{}
	}
	if s.Gifts == nil {
		s.Gifts = Set{}
	}
	if s.LastInteraction == nil {
		s.LastInteraction = map[string]time.Time{}
	}
}

// Normalize fills nil maps after decoding from storage.
func (s *GameState) Normalize() { s.ensureMaps() }

// Clone returns a deep copy.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Trust = s.Trust.clone()
	out.Patterns = s.Patterns.clone()
	out.Flags = s.Flags.clone()
	out.Visited = s.Visited.clone()
	out.Achievements = s.Achievements.clone()
	out.CompletedArcs = s.CompletedArcs.clone()
	out.Gifts = s.Gifts.clone()
	out.History = append([]HistoryEntry(nil), s.History...)
	out.ArcProgress = make(map[string]int, len(s.ArcProgress))
	for k, v := range s.ArcProgress {
		out.ArcProgress[k] = v
	}
	out.LastInteraction = make(map[string]time.Time, len(s.LastInteraction))
	for k, v := range s.LastInteraction {
		out.LastInteraction[k] = v
	}
	out.ensureMaps()
	return &out
}

// AppendHistory adds an entry keeping at most MaxHistory records.
func (s *GameState) AppendHistory(e HistoryEntry) {
	s.History = append(s.History, e)
	if over := len(s.History) - MaxHistory; over > 0 {
		s.History = append([]HistoryEntry(nil), s.History[over:]...)
	}
}

// TierFor returns the relationship tier with a character.
func (s *GameState) TierFor(characterID string) TrustTier {
	return TierForTrust(s.Trust[characterID])
}

// NodeKey builds the "character:node" key used by Visited and cross-character targets.
func NodeKey(characterID, nodeID string) string {
	return characterID + ":" + nodeID
}

// CurrentKey is NodeKey of the state's position.
func (s *GameState) CurrentKey() string {
	return NodeKey(s.CharacterID, s.NodeID)
}

// GameStateSummary - краткая информация о сохранении для списков.
type GameStateSummary struct {
	ID          uuid.UUID `json:"id"`
	CharacterID string    `json:"character_id"`
	NodeID      string    `json:"node_id"`
	Version     int64     `json:"version"`
	Ended       bool      `json:"ended"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Profile - профиль игрока.
type Profile struct {
	PlayerID    uuid.UUID `json:"player_id" db:"player_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

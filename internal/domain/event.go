package domain

// EventType - тип события, произведенного пайплайном выбора.
// Эти же значения служат триггерами голосовых реплик.
type EventType string

const (
	EventTrustDecayed        EventType = "trust_decayed"
	EventResonance           EventType = "resonance"
	EventTrustTierUp         EventType = "trust_tier_up"
	EventTrustTierDown       EventType = "trust_tier_down"
	EventPatternMilestone    EventType = "pattern_milestone"
	EventCombo               EventType = "combo"
	EventIdentity            EventType = "identity"
	EventArcAdvanced         EventType = "arc_advanced"
	EventArcCompleted        EventType = "arc_completed"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventGiftReceived        EventType = "gift_received"
	EventFirstMeeting        EventType = "first_meeting"
	// EventChoiceEcho - авторская реплика, привязанная к конкретному выбору.
	EventChoiceEcho EventType = "choice_echo"
)

// KnownEventTypes lists every trigger usable in voice tables.
func KnownEventTypes() []EventType {
	return []EventType{
		EventTrustDecayed, EventResonance, EventTrustTierUp, EventTrustTierDown,
		EventPatternMilestone, EventCombo, EventIdentity, EventArcAdvanced,
		EventArcCompleted, EventAchievementUnlocked, EventGiftReceived,
		EventFirstMeeting, EventChoiceEcho,
	}
}

// Event - факт, произошедший при разрешении выбора.
type Event struct {
	Type        EventType    `json:"type"`
	CharacterID string       `json:"character_id,omitempty"`
	Pattern     Pattern      `json:"pattern,omitempty"`
	Tier        TrustTier    `json:"tier,omitempty"`
	Level       PatternLevel `json:"level,omitempty"`
	Ref         string       `json:"ref,omitempty"`
	Value       int          `json:"value,omitempty"`
}

// Echo - отклик, показываемый игроку после выбора (не более одного).
type Echo struct {
	Trigger     EventType `json:"trigger"`
	CharacterID string    `json:"character_id"`
	Speaker     string    `json:"speaker"`
	Text        string    `json:"text"`
}

package derivative

import (
	"sort"
	"strings"

	"pathways-server/internal/domain"
	"pathways-server/internal/graph"

	"golang.org/x/text/language"
)

// EchoPriority - порядок триггеров откликов, от высшего к низшему.
var EchoPriority = []domain.EventType{
	domain.EventIdentity,
	domain.EventArcCompleted,
	domain.EventGiftReceived,
	domain.EventTrustTierUp,
	domain.EventTrustTierDown,
	domain.EventAchievementUnlocked,
	domain.EventCombo,
	domain.EventPatternMilestone,
	domain.EventChoiceEcho,
	domain.EventResonance,
	domain.EventFirstMeeting,
	domain.EventTrustDecayed,
}

// defaultLines используются, если у персонажа нет своей реплики на триггер.
var defaultLines = map[domain.EventType]string{
	domain.EventIdentity:            "{name} looks at you differently now. You are someone who leans {pattern}.",
	domain.EventArcCompleted:        "{name} smiles. Something between you has come full circle.",
	domain.EventGiftReceived:        "{name} presses something into your hand.",
	domain.EventTrustTierUp:         "{name} relaxes a little. You feel like a {tier} now.",
	domain.EventTrustTierDown:       "{name} seems more guarded than before.",
	domain.EventAchievementUnlocked: "You feel you've accomplished something.",
	domain.EventCombo:               "Your {pattern} streak doesn't go unnoticed.",
	domain.EventPatternMilestone:    "Your {pattern} side is growing stronger.",
	domain.EventResonance:           "{name} nods. That's exactly how they would have put it.",
	domain.EventFirstMeeting:        "{name} takes a good look at you.",
	domain.EventTrustDecayed:        "{name} seems a little distant. It's been a while.",
}

// EchoRequest - входные данные выбора отклика.
type EchoRequest struct {
	Library *graph.Library
	Events  []domain.Event
	Choice  *domain.Choice
	Speaker string
	// Locale is a BCP 47 tag or an Accept-Language value; empty means the authored text.
	Locale string
}

// SelectEcho picks at most one echo by trigger priority. A trigger without a
// line (neither voice table nor default) yields to the next one.
func SelectEcho(req EchoRequest) *domain.Echo {
	prefs := parseLocale(req.Locale)
	for _, trigger := range EchoPriority {
		if trigger == domain.EventChoiceEcho {
			if req.Choice != nil && strings.TrimSpace(req.Choice.Echo) != "" {
				name := displayName(req.Library, req.Speaker)
				ev := domain.Event{Type: domain.EventChoiceEcho, CharacterID: req.Speaker, Pattern: req.Choice.Pattern}
				return &domain.Echo{
					Trigger:     domain.EventChoiceEcho,
					CharacterID: req.Speaker,
					Speaker:     name,
					Text:        fill(req.Choice.Echo, name, ev),
				}
			}
			continue
		}
		for _, ev := range req.Events {
			if ev.Type != trigger {
				continue
			}
			charID := ev.CharacterID
			if charID == "" {
				charID = req.Speaker
			}
			text, ok := voiceLine(req.Library, charID, ev, prefs)
			if !ok {
				continue
			}
			name := displayName(req.Library, charID)
			return &domain.Echo{
				Trigger:     trigger,
				CharacterID: charID,
				Speaker:     name,
				Text:        fill(text, name, ev),
			}
		}
	}
	return nil
}

func voiceLine(lib *graph.Library, characterID string, ev domain.Event, prefs []language.Tag) (string, bool) {
	if lib != nil {
		if c, ok := lib.Character(characterID); ok {
			var generic *domain.VoiceLine
			for i := range c.Voice {
				line := &c.Voice[i]
				if line.Trigger != ev.Type {
					continue
				}
				if line.Pattern != "" && line.Pattern == ev.Pattern {
					return localized(line, prefs), true
				}
				if line.Pattern == "" && generic == nil {
					generic = line
				}
			}
			if generic != nil {
				return localized(generic, prefs), true
			}
		}
	}
	text, ok := defaultLines[ev.Type]
	return text, ok
}

// localized matches the request languages against the line's translations.
// The authored text counts as English.
func localized(line *domain.VoiceLine, prefs []language.Tag) string {
	if len(prefs) == 0 || len(line.Locales) == 0 {
		return line.Text
	}
	keys := make([]string, 0, len(line.Locales))
	for k := range line.Locales {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	supported := []language.Tag{language.English}
	texts := []string{line.Text}
	for _, k := range keys {
		tag, err := language.Parse(k)
		if err != nil {
			continue
		}
		supported = append(supported, tag)
		texts = append(texts, line.Locales[k])
	}
	_, idx, conf := language.NewMatcher(supported).Match(prefs...)
	if conf == language.No {
		return line.Text
	}
	return texts[idx]
}

func parseLocale(locale string) []language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return nil
	}
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil {
		return nil
	}
	return tags
}

func displayName(lib *graph.Library, characterID string) string {
	if lib != nil {
		if c, ok := lib.Character(characterID); ok && c.Name != "" {
			return c.Name
		}
	}
	return characterID
}

func fill(text, name string, ev domain.Event) string {
	return strings.NewReplacer(
		"{name}", name,
		"{pattern}", string(ev.Pattern),
		"{tier}", string(ev.Tier),
	).Replace(text)
}

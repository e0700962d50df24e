package domain

import "strings"

// SelfCharacter в эффектах доверия означает говорящего персонажа узла.
const SelfCharacter = "self"

// Condition - условие видимости/срабатывания, описанное авторами контента.
// Все заданные поля должны выполняться одновременно. Nil-условие истинно.
type Condition struct {
	TrustMin     map[string]int       `yaml:"trust_min,omitempty" json:"trust_min,omitempty"`
	TrustMax     map[string]int       `yaml:"trust_max,omitempty" json:"trust_max,omitempty"`
	TierMin      map[string]TrustTier `yaml:"tier_min,omitempty" json:"tier_min,omitempty"`
	PatternMin   map[Pattern]int      `yaml:"pattern_min,omitempty" json:"pattern_min,omitempty"`
	Flags        []string             `yaml:"flags,omitempty" json:"flags,omitempty"`
	NotFlags     []string             `yaml:"not_flags,omitempty" json:"not_flags,omitempty"`
	Visited      []string             `yaml:"visited,omitempty" json:"visited,omitempty"`
	NotVisited   []string             `yaml:"not_visited,omitempty" json:"not_visited,omitempty"`
	Achievements []string             `yaml:"achievements,omitempty" json:"achievements,omitempty"`
	Identity     Pattern              `yaml:"identity,omitempty" json:"identity,omitempty"`
	All          []*Condition         `yaml:"all,omitempty" json:"all,omitempty"`
	Any          []*Condition         `yaml:"any,omitempty" json:"any,omitempty"`
	Not          *Condition           `yaml:"not,omitempty" json:"not,omitempty"`
}

// Effects - изменения состояния, привязанные к выбору или входу в узел.
type Effects struct {
	Trust      map[string]int  `yaml:"trust,omitempty" json:"trust,omitempty"`
	Patterns   map[Pattern]int `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	SetFlags   []string        `yaml:"set_flags,omitempty" json:"set_flags,omitempty"`
	ClearFlags []string        `yaml:"clear_flags,omitempty" json:"clear_flags,omitempty"`
}

// Empty reports whether the effects change nothing.
func (e *Effects) Empty() bool {
	return e == nil || (len(e.Trust) == 0 && len(e.Patterns) == 0 && len(e.SetFlags) == 0 && len(e.ClearFlags) == 0)
}

// Redirect - условный переход, проверяемый до Choice.Next.
type Redirect struct {
	If   *Condition `yaml:"if" json:"if"`
	Next string     `yaml:"next" json:"next"`
}

// Choice - вариант ответа игрока.
type Choice struct {
	ID        string     `yaml:"id" json:"id"`
	Text      string     `yaml:"text" json:"text"`
	Pattern   Pattern    `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	VisibleIf *Condition `yaml:"visible_if,omitempty" json:"visible_if,omitempty"`
	Effects   Effects    `yaml:"effects,omitempty" json:"effects,omitempty"`
	Next      string     `yaml:"next,omitempty" json:"next,omitempty"`
	Redirects []Redirect `yaml:"redirects,omitempty" json:"redirects,omitempty"`
	Echo      string     `yaml:"echo,omitempty" json:"echo,omitempty"`
}

// TextVariant - альтернативный текст узла, выбираемый по первому совпадению.
type TextVariant struct {
	If   *Condition `yaml:"if" json:"if"`
	Text string     `yaml:"text" json:"text"`
}

// Node - узел диалогового графа.
type Node struct {
	ID       string        `yaml:"id" json:"id"`
	Speaker  string        `yaml:"speaker,omitempty" json:"speaker,omitempty"`
	Text     string        `yaml:"text" json:"text"`
	Variants []TextVariant `yaml:"variants,omitempty" json:"variants,omitempty"`
	Choices  []Choice      `yaml:"choices,omitempty" json:"choices,omitempty"`
	OnEnter  *Effects      `yaml:"on_enter,omitempty" json:"on_enter,omitempty"`
	Ending   bool          `yaml:"ending,omitempty" json:"ending,omitempty"`
}

// Choice looks up a choice by id.
func (n *Node) Choice(id string) (*Choice, bool) {
	for i := range n.Choices {
		if n.Choices[i].ID == id {
			return &n.Choices[i], true
		}
	}
	return nil, false
}

// DialogueGraph - граф диалога одного персонажа.
type DialogueGraph struct {
	CharacterID string  `yaml:"character" json:"character"`
	Start       string  `yaml:"start" json:"start"`
	Hub         string  `yaml:"hub,omitempty" json:"hub,omitempty"`
	Nodes       []*Node `yaml:"nodes" json:"nodes"`
}

// VoiceLine - реплика персонажа для отклика на событие.
type VoiceLine struct {
	Trigger EventType         `yaml:"trigger" json:"trigger"`
	Pattern Pattern           `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Text    string            `yaml:"text" json:"text"`
	Locales map[string]string `yaml:"locales,omitempty" json:"locales,omitempty"`
}

// Character - персонаж и его голосовая таблица.
type Character struct {
	ID       string      `yaml:"id" json:"id"`
	Name     string      `yaml:"name" json:"name"`
	Role     string      `yaml:"role,omitempty" json:"role,omitempty"`
	Affinity []Pattern   `yaml:"affinity,omitempty" json:"affinity,omitempty"`
	Voice    []VoiceLine `yaml:"voice,omitempty" json:"-"`
}

// PrimaryAffinity returns the first listed affinity, if any.
func (c *Character) PrimaryAffinity() (Pattern, bool) {
	if c == nil || len(c.Affinity) == 0 {
		return "", false
	}
	return c.Affinity[0], true
}

// Achievement - разовое достижение по условию.
type Achievement struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	When        *Condition `yaml:"when" json:"-"`
}

// ArcStep - шаг сюжетной арки.
type ArcStep struct {
	ID          string     `yaml:"id" json:"id"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	When        *Condition `yaml:"when" json:"-"`
}

// StoryArc - упорядоченная последовательность шагов с наградой.
type StoryArc struct {
	ID          string    `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	Steps       []ArcStep `yaml:"steps" json:"steps"`
	RewardFlags []string  `yaml:"reward_flags,omitempty" json:"reward_flags,omitempty"`
}

// Gift - подарок персонажа при достаточном доверии.
type Gift struct {
	ID          string     `yaml:"id" json:"id"`
	CharacterID string     `yaml:"character" json:"character"`
	Item        string     `yaml:"item" json:"item"`
	MinTrust    int        `yaml:"min_trust" json:"min_trust"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	When        *Condition `yaml:"when,omitempty" json:"-"`
}

// SplitTarget разбирает ссылку вида "char:node" или "node" (текущий персонаж).
func SplitTarget(ref, currentCharacter string) (characterID, nodeID string) {
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return currentCharacter, ref
}

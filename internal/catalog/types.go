package catalog

import "strings"

// Stats are the four base attributes shared by classes and enemies.
type Stats struct {
	Life    int `yaml:"life"`
	Attack  int `yaml:"attack"`
	Defense int `yaml:"defense"`
	Speed   int `yaml:"speed"`
}

// Skill is a special combat action. Skills are copied into the player's
// sheet at character creation and saved with it.
type Skill struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Cost        int    `yaml:"cost"`
	Damage      int    `yaml:"damage,omitempty"`
	Heal        int    `yaml:"heal,omitempty"`
	BonusVsEvil int    `yaml:"bonus_vs_evil,omitempty"`
	Effect      Status `yaml:"effect,omitempty"`
	Duration    int    `yaml:"duration,omitempty"`
}

// Class is a playable character class.
type Class struct {
	ID          string   `yaml:"-"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Stats       Stats    `yaml:"stats"`
	Skills      []Skill  `yaml:"skills"`
	Equipment   []string `yaml:"equipment"`
}

// Step is one row of the advancement table.
type Step struct {
	Level      int `yaml:"level"`
	Experience int `yaml:"experience"`
	Life       int `yaml:"life"`
	Attack     int `yaml:"attack"`
}

// Category groups items by how the player interacts with them.
type Category string

const (
	CategoryEquipment  Category = "equipment"
	CategoryConsumable Category = "consumable"
	CategoryOther      Category = "other"
)

// EffectKind is what a consumable does when used.
type EffectKind string

const (
	EffectHeal    EffectKind = "heal"
	EffectRestore EffectKind = "restore_energy"
)

// Bonus is the stat contribution of an equipped item.
type Bonus struct {
	Attack  int `yaml:"attack,omitempty"`
	Defense int `yaml:"defense,omitempty"`
	Speed   int `yaml:"speed,omitempty"`
	Life    int `yaml:"life,omitempty"`
	Energy  int `yaml:"energy,omitempty"`
}

// Item is an entry of the item document.
type Item struct {
	ID          string     `yaml:"-"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Category    Category   `yaml:"category"`
	Effect      EffectKind `yaml:"effect,omitempty"`
	Value       int        `yaml:"value,omitempty"`
	Combat      bool       `yaml:"combat,omitempty"`
	Bonus       Bonus      `yaml:"bonus,omitempty"`
	Equipped    bool       `yaml:"equipped,omitempty"`
}

// UsableInCombat reports whether the item can be consumed during a fight.
func (i *Item) UsableInCombat() bool {
	return i.Category == CategoryConsumable && i.Combat
}

// Attack is one of an enemy's moves.
type Attack struct {
	Name        string `yaml:"name"`
	Accuracy    int    `yaml:"accuracy"`
	Damage      int    `yaml:"damage"`
	Effect      Status `yaml:"effect,omitempty"`
	EffectTurns int    `yaml:"effect_turns,omitempty"`
	Cooldown    int    `yaml:"cooldown,omitempty"`
}

// Loot is a loot table entry; Chance is a percentage.
type Loot struct {
	Item   string `yaml:"item"`
	Chance int    `yaml:"chance"`
}

// Enemy is an entry of the enemy document.
type Enemy struct {
	ID           string            `yaml:"-"`
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description"`
	Stats        Stats             `yaml:"stats"`
	Attacks      []Attack          `yaml:"attacks"`
	Resistances  []string          `yaml:"resistances,omitempty"`
	Weaknesses   []string          `yaml:"weaknesses,omitempty"`
	Loot         []Loot            `yaml:"loot,omitempty"`
	Gold         int               `yaml:"gold"`
	Experience   int               `yaml:"experience"`
	Dialogue     string            `yaml:"dialogue,omitempty"`
	FleeDialogue string            `yaml:"flee_dialogue,omitempty"`
	AvoidableBy  map[string]string `yaml:"avoidable_by,omitempty"`
}

// Avoidance returns the approach label that lets the given class skip the
// fight, if any.
func (e *Enemy) Avoidance(class string) (string, bool) {
	approach, ok := e.AvoidableBy[class]
	return approach, ok
}

// Trap damages the player unless their class or one of their traits is
// listed in AvoidedBy. Trait entries are written "trait:<name>".
type Trap struct {
	Damage    int      `yaml:"damage"`
	AvoidedBy []string `yaml:"avoided_by,omitempty"`
}

// Avoids reports whether the trap is evaded.
func (t *Trap) Avoids(class string, hasTrait func(string) bool) bool {
	for _, entry := range t.AvoidedBy {
		if trait, ok := strings.CutPrefix(entry, "trait:"); ok {
			if hasTrait(trait) {
				return true
			}
			continue
		}
		if entry == class {
			return true
		}
	}
	return false
}

// Encounter triggers Count sequential fights against Enemy.
type Encounter struct {
	Enemy string `yaml:"enemy"`
	Count int    `yaml:"count,omitempty"`
}

// Fights returns the number of fights, at least one.
func (e *Encounter) Fights() int {
	if e.Count < 1 {
		return 1
	}
	return e.Count
}

// Choice is an outgoing edge of a story node.
type Choice struct {
	Label string `yaml:"label"`
	Next  string `yaml:"next"`
	Class string `yaml:"class,omitempty"`
	Trait string `yaml:"trait,omitempty"`
}

// Reward is granted when an ending is reached.
type Reward struct {
	Title string `yaml:"title,omitempty"`
	Gold  int    `yaml:"gold,omitempty"`
}

// Node is one scene of the story graph.
type Node struct {
	ID        string            `yaml:"-"`
	Title     string            `yaml:"title"`
	Text      string            `yaml:"text"`
	ClassText map[string]string `yaml:"class_text,omitempty"`
	Item      string            `yaml:"item,omitempty"`
	Trap      *Trap             `yaml:"trap,omitempty"`
	NPC       string            `yaml:"npc,omitempty"`
	Encounter *Encounter        `yaml:"encounter,omitempty"`
	OnVictory string            `yaml:"on_victory,omitempty"`
	OnFlee    string            `yaml:"on_flee,omitempty"`
	Choices   []Choice          `yaml:"choices,omitempty"`
	Ending    bool              `yaml:"ending,omitempty"`
	Reward    *Reward           `yaml:"reward,omitempty"`
}

// Quest is offered by an NPC and completes when its condition holds.
type Quest struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Condition   Condition `yaml:"condition"`
	Reward      string    `yaml:"reward"`
}

// NPC is a non-player character referenced by story nodes.
type NPC struct {
	ID             string   `yaml:"-"`
	Name           string   `yaml:"name"`
	Dialogue       string   `yaml:"dialogue"`
	Quests         []Quest  `yaml:"quests,omitempty"`
	Recruitable    bool     `yaml:"recruitable,omitempty"`
	RecruitClasses []string `yaml:"recruit_classes,omitempty"`
	AllySkills     []string `yaml:"ally_skills,omitempty"`
}

// CanRecruit reports whether the NPC joins a player of the given class.
func (n *NPC) CanRecruit(class string) bool {
	if !n.Recruitable {
		return false
	}
	if len(n.RecruitClasses) == 0 {
		return true
	}
	for _, c := range n.RecruitClasses {
		if c == class {
			return true
		}
	}
	return false
}

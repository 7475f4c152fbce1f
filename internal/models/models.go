package models

import (
	"fmt"
	"time"

	"github.com/tatianab/donjon/internal/catalog"
)

const (
	// StartingEnergy is every new character's energy pool.
	StartingEnergy = 50
	// StartingGold is the purse a new adventurer sets out with.
	StartingGold = 100
)

// Player is the character sheet.
type Player struct {
	Name       string          `yaml:"name"`
	Class      string          `yaml:"class"`
	Level      int             `yaml:"level"`
	Experience int             `yaml:"experience"`
	MaxLife    int             `yaml:"max_life"`
	Life       int             `yaml:"life"`
	MaxEnergy  int             `yaml:"max_energy"`
	Energy     int             `yaml:"energy"`
	Stats      catalog.Stats   `yaml:"stats"`
	Skills     []catalog.Skill `yaml:"skills"`
	Equipment  []string        `yaml:"equipment"`
}

// Stack is one inventory line. Quantity is always positive.
type Stack struct {
	Item     string `yaml:"item"`
	Quantity int    `yaml:"quantity"`
}

// Ally is a recruited companion.
type Ally struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Skills []string `yaml:"skills"`
}

// Counters are the adventure statistics shown at an ending.
type Counters struct {
	EnemiesDefeated int `yaml:"enemies_defeated"`
	ItemsFound      int `yaml:"items_found"`
	Decisions       int `yaml:"decisions"`
}

// GameSession is the whole mutable state of one running game. It is owned
// by the session and mutated only through its methods.
type GameSession struct {
	Player    Player   `yaml:"player"`
	Inventory []Stack  `yaml:"inventory"`
	Allies    []Ally   `yaml:"allies"`
	Traits    []string `yaml:"traits"`
	Position  string   `yaml:"position"`
	Gold      int      `yaml:"gold"`
	Counters  Counters `yaml:"statistics"`
	Journal   []string `yaml:"journal"`
	// PlayTime is the wall time spent in the story across every sitting.
	PlayTime time.Duration `yaml:"play_time"`
}

// NewSession creates a level 1 character of the given class, stocked with
// the class's starting equipment and placed on the story's start node.
func NewSession(cat *catalog.Catalog, classID, name string) (*GameSession, error) {
	class, ok := cat.Class(classID)
	if !ok {
		return nil, fmt.Errorf("new session: class %q: %w", classID, catalog.ErrUnknownID)
	}
	if name == "" {
		return nil, fmt.Errorf("new session: name is required")
	}

	s := &GameSession{
		Player: Player{
			Name:      name,
			Class:     classID,
			Level:     1,
			MaxLife:   class.Stats.Life,
			Life:      class.Stats.Life,
			MaxEnergy: StartingEnergy,
			Energy:    StartingEnergy,
			Stats:     class.Stats,
			Skills:    append([]catalog.Skill{}, class.Skills...),
			Equipment: append([]string{}, class.Equipment...),
		},
		Inventory: []Stack{},
		Allies:    []Ally{},
		Traits:    []string{},
		Position:  cat.Start,
		Gold:      StartingGold,
		Journal:   []string{},
	}
	for _, itemID := range class.Equipment {
		s.AddItem(itemID, 1)
	}
	s.Record(fmt.Sprintf("%s the %s entered the dungeon.", name, class.Name))
	return s, nil
}

// Clone returns a deep copy.
func (s *GameSession) Clone() *GameSession {
	c := *s
	c.Player.Skills = append([]catalog.Skill{}, s.Player.Skills...)
	c.Player.Equipment = append([]string{}, s.Player.Equipment...)
	c.Inventory = append([]Stack{}, s.Inventory...)
	c.Allies = make([]Ally, len(s.Allies))
	for i, a := range s.Allies {
		a.Skills = append([]string{}, a.Skills...)
		c.Allies[i] = a
	}
	c.Traits = append([]string{}, s.Traits...)
	c.Journal = append([]string{}, s.Journal...)
	return &c
}

// normalize replaces nil slices with empty ones so that a session decoded
// from a blob compares equal to the one that was saved.
func (s *GameSession) normalize() {
	if s.Player.Skills == nil {
		s.Player.Skills = []catalog.Skill{}
	}
	if s.Player.Equipment == nil {
		s.Player.Equipment = []string{}
	}
	if s.Inventory == nil {
		s.Inventory = []Stack{}
	}
	if s.Allies == nil {
		s.Allies = []Ally{}
	}
	for i := range s.Allies {
		if s.Allies[i].Skills == nil {
			s.Allies[i].Skills = []string{}
		}
	}
	if s.Traits == nil {
		s.Traits = []string{}
	}
	if s.Journal == nil {
		s.Journal = []string{}
	}
}

package combat

import (
	"slices"

	"github.com/tatianab/donjon/internal/catalog"
)

// Instance is one enemy in one fight. It owns copies of everything it takes
// from the definition, so nothing done during the fight reaches the catalog.
type Instance struct {
	ID          string
	Name        string
	Description string
	Life        int
	MaxLife     int
	Stats       catalog.Stats
	Attacks     []catalog.Attack
	Resistances []string
	Weaknesses  []string
	Loot        []catalog.Loot
	Gold        int
	Experience  int
	Cooldowns   Cooldowns
}

// NewInstance spawns a fresh enemy at full life with no cooldowns.
func NewInstance(def *catalog.Enemy) *Instance {
	return &Instance{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Life:        def.Stats.Life,
		MaxLife:     def.Stats.Life,
		Stats:       def.Stats,
		Attacks:     slices.Clone(def.Attacks),
		Resistances: slices.Clone(def.Resistances),
		Weaknesses:  slices.Clone(def.Weaknesses),
		Loot:        slices.Clone(def.Loot),
		Gold:        def.Gold,
		Experience:  def.Experience,
	}
}

// Alive reports whether the enemy can still fight.
func (in *Instance) Alive() bool { return in.Life > 0 }

// Hurt lowers life, never below zero, and returns the life lost.
func (in *Instance) Hurt(n int) int {
	if n > in.Life {
		n = in.Life
	}
	if n < 0 {
		n = 0
	}
	in.Life -= n
	return n
}

// WeakTo reports whether the enemy lists the weakness.
func (in *Instance) WeakTo(weakness string) bool {
	return slices.Contains(in.Weaknesses, weakness)
}

// Ready returns the attacks not on cooldown, in definition order.
func (in *Instance) Ready() []catalog.Attack {
	var ready []catalog.Attack
	for _, a := range in.Attacks {
		if in.Cooldowns.Remaining(a.Name) == 0 {
			ready = append(ready, a)
		}
	}
	return ready
}

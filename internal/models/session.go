package models

import (
	"errors"

	"github.com/tatianab/donjon/internal/catalog"
)

// ErrNotEnoughEnergy is returned when a skill costs more than the player has.
var ErrNotEnoughEnergy = errors.New("not enough energy")

// ClassID returns the player's class.
func (s *GameSession) ClassID() string { return s.Player.Class }

// Alive reports whether the player has life left.
func (s *GameSession) Alive() bool { return s.Player.Life > 0 }

// AddItem adds qty units of an item. Non-positive quantities are ignored.
func (s *GameSession) AddItem(id string, qty int) {
	if qty <= 0 {
		return
	}
	for i := range s.Inventory {
		if s.Inventory[i].Item == id {
			s.Inventory[i].Quantity += qty
			return
		}
	}
	s.Inventory = append(s.Inventory, Stack{Item: id, Quantity: qty})
}

// RemoveItem takes qty units of an item and drops the line when it runs
// out. It reports false when the item is not held.
func (s *GameSession) RemoveItem(id string, qty int) bool {
	for i := range s.Inventory {
		if s.Inventory[i].Item != id {
			continue
		}
		s.Inventory[i].Quantity -= qty
		if s.Inventory[i].Quantity <= 0 {
			s.Inventory = append(s.Inventory[:i], s.Inventory[i+1:]...)
		}
		return true
	}
	return false
}

// Quantity returns how many units of an item are held.
func (s *GameSession) Quantity(id string) int {
	for _, st := range s.Inventory {
		if st.Item == id {
			return st.Quantity
		}
	}
	return 0
}

// HasItem reports whether at least one unit is held.
func (s *GameSession) HasItem(id string) bool {
	return s.Quantity(id) > 0
}

// AddTrait records a narrative flag once. It reports whether the trait was
// new.
func (s *GameSession) AddTrait(trait string) bool {
	if trait == "" || s.HasTrait(trait) {
		return false
	}
	s.Traits = append(s.Traits, trait)
	return true
}

// HasTrait reports whether the flag is set.
func (s *GameSession) HasTrait(trait string) bool {
	for _, t := range s.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// TakeDamage lowers life, never below zero, and returns the life lost.
func (s *GameSession) TakeDamage(n int) int {
	if n <= 0 {
		return 0
	}
	if n > s.Player.Life {
		n = s.Player.Life
	}
	s.Player.Life -= n
	return n
}

// Heal raises life, never above MaxLife, and returns the life restored.
func (s *GameSession) Heal(cat *catalog.Catalog, n int) int {
	n = clampGain(n, s.Player.Life, s.MaxLife(cat))
	s.Player.Life += n
	return n
}

// RestoreEnergy raises energy, never above MaxEnergy, and returns the
// energy restored.
func (s *GameSession) RestoreEnergy(cat *catalog.Catalog, n int) int {
	n = clampGain(n, s.Player.Energy, s.MaxEnergy(cat))
	s.Player.Energy += n
	return n
}

// MaxLife is the character's life ceiling with equipment bonuses. It is at
// least 1.
func (s *GameSession) MaxLife(cat *catalog.Catalog) int {
	return max(1, s.Player.MaxLife+s.gear(cat).Life)
}

// MaxEnergy is the character's energy ceiling with equipment bonuses.
func (s *GameSession) MaxEnergy(cat *catalog.Catalog) int {
	return max(0, s.Player.MaxEnergy+s.gear(cat).Energy)
}

// ClampVitals lowers life and energy to the current ceilings.
func (s *GameSession) ClampVitals(cat *catalog.Catalog) {
	s.Player.Life = min(s.Player.Life, s.MaxLife(cat))
	s.Player.Energy = min(s.Player.Energy, s.MaxEnergy(cat))
}

// SpendEnergy pays a skill cost.
func (s *GameSession) SpendEnergy(n int) error {
	if n > s.Player.Energy {
		return ErrNotEnoughEnergy
	}
	if n > 0 {
		s.Player.Energy -= n
	}
	return nil
}

// AddGold adds to the purse.
func (s *GameSession) AddGold(n int) {
	s.Gold += n
}

// GainExperience adds experience and applies every level crossed, raising
// max life and attack by the table's bonuses and refilling life. It returns
// the rows applied.
func (s *GameSession) GainExperience(n int, table []catalog.Step) []catalog.Step {
	if n <= 0 {
		return nil
	}
	s.Player.Experience += n
	var gained []catalog.Step
	for _, step := range table {
		if step.Level <= s.Player.Level || s.Player.Experience < step.Experience {
			continue
		}
		s.Player.Level = step.Level
		s.Player.MaxLife += step.Life
		s.Player.Stats.Attack += step.Attack
		gained = append(gained, step)
	}
	if len(gained) > 0 {
		s.Player.Life = s.Player.MaxLife
	}
	return gained
}

// Recruit adds an ally. It reports false if the ally is already with the
// party.
func (s *GameSession) Recruit(a Ally) bool {
	if s.HasAlly(a.ID) {
		return false
	}
	a.Skills = append([]string{}, a.Skills...)
	s.Allies = append(s.Allies, a)
	return true
}

// HasAlly reports whether the companion has joined.
func (s *GameSession) HasAlly(id string) bool {
	for _, a := range s.Allies {
		if a.ID == id {
			return true
		}
	}
	return false
}

// MoveTo sets the current story node.
func (s *GameSession) MoveTo(node string) {
	s.Position = node
}

// Record appends a journal entry.
func (s *GameSession) Record(entry string) {
	s.Journal = append(s.Journal, entry)
}

// EffectiveStats returns the base stats plus the bonuses of every held
// equipment item flagged as equipped. Life is the effective maximum.
func (s *GameSession) EffectiveStats(cat *catalog.Catalog) catalog.Stats {
	stats := s.Player.Stats
	gear := s.gear(cat)
	stats.Life = s.MaxLife(cat)
	stats.Attack += gear.Attack
	stats.Defense += gear.Defense
	stats.Speed += gear.Speed
	return stats
}

// gear sums the bonuses of the equipped items held. Each item counts once
// however many are carried.
func (s *GameSession) gear(cat *catalog.Catalog) catalog.Bonus {
	var sum catalog.Bonus
	for _, st := range s.Inventory {
		it, ok := cat.Item(st.Item)
		if !ok || it.Category != catalog.CategoryEquipment || !it.Equipped {
			continue
		}
		sum.Attack += it.Bonus.Attack
		sum.Defense += it.Bonus.Defense
		sum.Speed += it.Bonus.Speed
		sum.Life += it.Bonus.Life
		sum.Energy += it.Bonus.Energy
	}
	return sum
}

func clampGain(n, current, max int) int {
	if n <= 0 || current >= max {
		return 0
	}
	if current+n > max {
		return max - current
	}
	return n
}

package catalog

import (
	"errors"
	"fmt"
	"sort"
)

func (c *Catalog) validate() error {
	if len(c.Classes) == 0 {
		return &ContentError{Doc: ClassesDoc, Err: errors.New("no classes defined")}
	}
	if len(c.Nodes) == 0 {
		return &ContentError{Doc: StoryDoc, Err: errors.New("no story nodes defined")}
	}
	if _, ok := c.Nodes[c.Start]; !ok {
		return &ContentError{Doc: StoryDoc, ID: c.Start, Err: fmt.Errorf("start node: %w", ErrUnknownID)}
	}

	for _, id := range sortedKeys(c.Classes) {
		if err := c.validateClass(c.Classes[id]); err != nil {
			return &ContentError{Doc: ClassesDoc, ID: id, Err: err}
		}
	}
	for _, id := range sortedKeys(c.Items) {
		if err := validateItem(c.Items[id]); err != nil {
			return &ContentError{Doc: ItemsDoc, ID: id, Err: err}
		}
	}
	for _, id := range sortedKeys(c.Enemies) {
		if err := c.validateEnemy(c.Enemies[id]); err != nil {
			return &ContentError{Doc: EnemiesDoc, ID: id, Err: err}
		}
	}
	for _, id := range sortedKeys(c.NPCs) {
		if err := c.validateNPC(c.NPCs[id]); err != nil {
			return &ContentError{Doc: StoryDoc, ID: id, Err: err}
		}
	}
	for _, id := range sortedKeys(c.Nodes) {
		if err := c.validateNode(c.Nodes[id]); err != nil {
			return &ContentError{Doc: StoryDoc, ID: id, Err: err}
		}
	}
	return nil
}

func (c *Catalog) validateClass(cl *Class) error {
	if cl.Stats.Life <= 0 {
		return errors.New("life must be positive")
	}
	for _, sk := range cl.Skills {
		if sk.Cost < 0 {
			return fmt.Errorf("skill %q: negative cost", sk.Name)
		}
		if !sk.Effect.Valid() {
			return fmt.Errorf("skill %q: unknown status %q", sk.Name, sk.Effect)
		}
	}
	for _, itemID := range cl.Equipment {
		if _, ok := c.Items[itemID]; !ok {
			return fmt.Errorf("equipment %q: %w", itemID, ErrUnknownID)
		}
	}
	return nil
}

func validateItem(it *Item) error {
	switch it.Category {
	case CategoryEquipment, CategoryOther:
	case CategoryConsumable:
		switch it.Effect {
		case EffectHeal, EffectRestore:
		default:
			return fmt.Errorf("unknown consumable effect %q", it.Effect)
		}
		if it.Value <= 0 {
			return errors.New("consumable value must be positive")
		}
	default:
		return fmt.Errorf("unknown category %q", it.Category)
	}
	return nil
}

func (c *Catalog) validateEnemy(e *Enemy) error {
	if e.Stats.Life <= 0 {
		return errors.New("life must be positive")
	}
	if len(e.Attacks) == 0 {
		return errors.New("no attacks")
	}
	for _, a := range e.Attacks {
		if a.Accuracy < 0 || a.Accuracy > 100 {
			return fmt.Errorf("attack %q: accuracy out of range", a.Name)
		}
		if !a.Effect.Valid() {
			return fmt.Errorf("attack %q: unknown status %q", a.Name, a.Effect)
		}
	}
	for _, l := range e.Loot {
		if _, ok := c.Items[l.Item]; !ok {
			return fmt.Errorf("loot %q: %w", l.Item, ErrUnknownID)
		}
	}
	for class := range e.AvoidableBy {
		if _, ok := c.Classes[class]; !ok {
			return fmt.Errorf("avoidable_by class %q: %w", class, ErrUnknownID)
		}
	}
	return nil
}

func (c *Catalog) validateNPC(n *NPC) error {
	for _, q := range n.Quests {
		if _, ok := c.Items[q.Reward]; !ok {
			return fmt.Errorf("quest %q reward %q: %w", q.Name, q.Reward, ErrUnknownID)
		}
		if q.Condition.Kind == CondHasItem {
			if _, ok := c.Items[q.Condition.Arg]; !ok {
				return fmt.Errorf("quest %q condition item %q: %w", q.Name, q.Condition.Arg, ErrUnknownID)
			}
		}
	}
	return nil
}

func (c *Catalog) validateNode(n *Node) error {
	if n.Ending {
		if len(n.Choices) > 0 || n.Encounter != nil {
			return errors.New("ending node cannot have choices or an encounter")
		}
		return nil
	}
	if n.Item != "" {
		if _, ok := c.Items[n.Item]; !ok {
			return fmt.Errorf("item %q: %w", n.Item, ErrUnknownID)
		}
	}
	if n.NPC != "" {
		if _, ok := c.NPCs[n.NPC]; !ok {
			return fmt.Errorf("npc %q: %w", n.NPC, ErrUnknownID)
		}
	}
	if n.Encounter != nil {
		if _, ok := c.Enemies[n.Encounter.Enemy]; !ok {
			return fmt.Errorf("encounter %q: %w", n.Encounter.Enemy, ErrUnknownID)
		}
		if len(n.Choices) == 0 && (n.OnVictory == "" || n.OnFlee == "") {
			return errors.New("encounter needs on_victory and on_flee, or choices")
		}
	}
	for _, dest := range []string{n.OnVictory, n.OnFlee} {
		if dest == "" {
			continue
		}
		if _, ok := c.Nodes[dest]; !ok {
			return fmt.Errorf("destination %q: %w", dest, ErrUnknownID)
		}
	}
	if len(n.Choices) == 0 && n.OnVictory == "" {
		return errors.New("node has no way forward")
	}
	for _, ch := range n.Choices {
		if _, ok := c.Nodes[ch.Next]; !ok {
			return fmt.Errorf("choice %q destination %q: %w", ch.Label, ch.Next, ErrUnknownID)
		}
		if ch.Class != "" {
			if _, ok := c.Classes[ch.Class]; !ok {
				return fmt.Errorf("choice %q class %q: %w", ch.Label, ch.Class, ErrUnknownID)
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

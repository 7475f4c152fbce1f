package combat

import "github.com/tatianab/donjon/internal/catalog"

// Timer counts down the turns left on one key.
type Timer[K comparable] struct {
	Key   K
	Turns int
}

// Timers is an ordered list of countdowns. Order of insertion is kept so
// iteration is deterministic.
type Timers[K comparable] []Timer[K]

// Set starts or restarts the countdown for key. Non-positive turns clear it.
func (t *Timers[K]) Set(key K, turns int) {
	for i := range *t {
		if (*t)[i].Key == key {
			if turns <= 0 {
				*t = append((*t)[:i], (*t)[i+1:]...)
				return
			}
			(*t)[i].Turns = turns
			return
		}
	}
	if turns > 0 {
		*t = append(*t, Timer[K]{Key: key, Turns: turns})
	}
}

// Remaining returns the turns left for key, zero when inactive.
func (t Timers[K]) Remaining(key K) int {
	for _, tm := range t {
		if tm.Key == key {
			return tm.Turns
		}
	}
	return 0
}

// Tick decrements every countdown and drops the ones that reach zero.
func (t *Timers[K]) Tick() {
	kept := (*t)[:0]
	for _, tm := range *t {
		tm.Turns--
		if tm.Turns > 0 {
			kept = append(kept, tm)
		}
	}
	*t = kept
}

// Effects are the statuses active on one side of a fight.
type Effects = Timers[catalog.Status]

// Cooldowns map an enemy attack name to the turns before it can be reused.
type Cooldowns = Timers[string]

// modifierOf sums the rules of every active status.
func modifierOf(fx Effects) catalog.Modifier {
	var total catalog.Modifier
	for _, tm := range fx {
		m, ok := tm.Key.Modifier()
		if !ok {
			continue
		}
		total.Attack += m.Attack
		total.Defense += m.Defense
		total.Drain += m.Drain
	}
	return total
}

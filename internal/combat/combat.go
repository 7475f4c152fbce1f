// Package combat resolves turn-based fights between the player and one
// enemy at a time.
package combat

import (
	"context"
	"fmt"
	"log"

	"github.com/tatianab/donjon/internal/catalog"
	"github.com/tatianab/donjon/internal/models"
	"github.com/tatianab/donjon/internal/prompt"
)

// Outcome is how an encounter ended.
type Outcome int

const (
	Victory Outcome = iota + 1
	Defeat
	Flee
	// FleeAvoided means the player talked, sneaked or prayed their way out
	// before the first round.
	FleeAvoided
)

func (o Outcome) String() string {
	switch o {
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	case Flee:
		return "flee"
	case FleeAvoided:
		return "flee-avoided"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Combat rules.
const (
	DefendBonus         = 2
	EnergyBetweenFights = 10
	BaseFleeChance      = 50
	FleeSpeedFactor     = 5
	MinFleeChance       = 10
	MaxFleeChance       = 90
	// divineWeakness is the enemy weakness that triggers a skill's bonus
	// against evil.
	divineWeakness = "divine"
)

// Action menu labels.
const (
	LabelAttack = "Attack"
	LabelDefend = "Defend"
	LabelItem   = "Use an item"
	LabelFlee   = "Flee"
	LabelBack   = "Back"
)

// Rand is the random source. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Resolver runs encounters. The narrative engine depends on this rather
// than on *Engine.
type Resolver interface {
	Resolve(ctx context.Context, s *models.GameSession, enemyID string) (Outcome, error)
	ResolveSeries(ctx context.Context, s *models.GameSession, enemyID string, count int) (Outcome, error)
}

// Engine is the combat engine.
type Engine struct {
	cat *catalog.Catalog
	rng Rand
	ui  prompt.Prompter
}

// NewEngine wires a combat engine.
func NewEngine(cat *catalog.Catalog, rng Rand, ui prompt.Prompter) *Engine {
	return &Engine{cat: cat, rng: rng, ui: ui}
}

// FleeChance is the percentage chance to escape given both speeds.
func FleeChance(playerSpeed, enemySpeed int) int {
	chance := BaseFleeChance + FleeSpeedFactor*(playerSpeed-enemySpeed)
	return max(MinFleeChance, min(MaxFleeChance, chance))
}

// Damage applies the damage floor: every hit deals at least 1.
func Damage(raw, defense int) int {
	return max(1, raw-defense)
}

// ResolveSeries fights count copies of the enemy back to back. The player
// recovers EnergyBetweenFights energy between fights, and the series stops
// at the first outcome that is not a victory.
func (e *Engine) ResolveSeries(ctx context.Context, s *models.GameSession, enemyID string, count int) (Outcome, error) {
	if count < 1 {
		count = 1
	}
	for i := 0; i < count; i++ {
		if count > 1 {
			e.ui.Say(prompt.Linef(prompt.ToneInfo, "Fight %d/%d", i+1, count))
		}
		outcome, err := e.Resolve(ctx, s, enemyID)
		if err != nil {
			return 0, err
		}
		if outcome != Victory {
			return outcome, nil
		}
		if i < count-1 {
			if got := s.RestoreEnergy(e.cat, EnergyBetweenFights); got > 0 {
				e.ui.Say(prompt.Linef(prompt.ToneInfo, "You catch your breath and recover %d energy.", got))
			}
		}
	}
	return Victory, nil
}

// Resolve runs one encounter to its end.
func (e *Engine) Resolve(ctx context.Context, s *models.GameSession, enemyID string) (Outcome, error) {
	def, ok := e.cat.Enemy(enemyID)
	if !ok {
		return 0, &catalog.ContentError{Doc: catalog.EnemiesDoc, ID: enemyID, Err: catalog.ErrUnknownID}
	}
	if !s.Alive() {
		return Defeat, nil
	}

	f := &fight{e: e, s: s, def: def, enemy: NewInstance(def)}
	f.intro()

	if approach, ok := def.Avoidance(s.ClassID()); ok {
		avoid, err := e.ui.Confirm(ctx, fmt.Sprintf("You could avoid this fight (%s). Avoid it?", approach), false)
		if err != nil {
			return 0, err
		}
		if avoid {
			if def.FleeDialogue != "" {
				e.ui.Say(prompt.Line{Tone: prompt.ToneSuccess, Text: def.FleeDialogue})
			}
			s.Record(fmt.Sprintf("Avoided a fight with the %s.", def.Name))
			if err := e.ui.Acknowledge(ctx); err != nil {
				return 0, err
			}
			return FleeAvoided, nil
		}
	}

	outcome, err := f.run(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("combat: %s vs %s: %s after %d rounds", s.Player.Name, def.ID, outcome, f.round)
	return outcome, nil
}

type fight struct {
	e     *Engine
	s     *models.GameSession
	def   *catalog.Enemy
	enemy *Instance

	player    Effects
	foe       Effects
	defending bool
	round     int
}

func (f *fight) intro() {
	f.e.ui.Say(
		prompt.Line{Tone: prompt.ToneTitle, Text: "COMBAT"},
		prompt.Linef(prompt.ToneDanger, "A %s appears!", f.enemy.Name),
		prompt.Line{Tone: prompt.ToneNarration, Text: f.enemy.Description},
	)
	if f.def.Dialogue != "" {
		f.e.ui.Say(prompt.Line{Tone: prompt.ToneDialogue, Text: f.def.Dialogue})
	}
}

func (f *fight) run(ctx context.Context) (Outcome, error) {
	for f.s.Alive() && f.enemy.Alive() {
		f.round++
		f.status()

		fled, err := f.playerTurn(ctx)
		if err != nil {
			return 0, err
		}
		if fled {
			f.s.Record(fmt.Sprintf("Fled from the %s.", f.enemy.Name))
			return Flee, nil
		}
		if !f.enemy.Alive() {
			return f.victory(ctx)
		}

		f.enemyTurn()
		if !f.s.Alive() {
			return f.defeat(ctx)
		}

		// Damage over time can drop both sides at once; the player's death
		// takes precedence.
		f.endRound()
		if !f.s.Alive() {
			return f.defeat(ctx)
		}
		if !f.enemy.Alive() {
			return f.victory(ctx)
		}
		if err := f.e.ui.Acknowledge(ctx); err != nil {
			return 0, err
		}
	}
	if !f.s.Alive() {
		return f.defeat(ctx)
	}
	return f.victory(ctx)
}

func (f *fight) status() {
	p := f.s.Player
	f.e.ui.Say(prompt.Linef(prompt.ToneInfo,
		"Round %d | %s: %d/%d life, %d/%d energy | %s: %d/%d life",
		f.round, p.Name, p.Life, f.s.MaxLife(f.e.cat), p.Energy, f.s.MaxEnergy(f.e.cat),
		f.enemy.Name, f.enemy.Life, f.enemy.MaxLife))
}

type actionKind int

const (
	actAttack actionKind = iota
	actDefend
	actSkill
	actItem
	actFlee
)

type action struct {
	kind  actionKind
	label string
	skill int
}

// actions lists the base four actions with one entry per affordable skill
// inserted before Flee.
func (f *fight) actions() []action {
	acts := []action{
		{kind: actAttack, label: LabelAttack},
		{kind: actDefend, label: LabelDefend},
		{kind: actItem, label: LabelItem},
	}
	for i, sk := range f.s.Player.Skills {
		if sk.Cost <= f.s.Player.Energy {
			acts = append(acts, action{
				kind:  actSkill,
				label: fmt.Sprintf("%s (%d energy)", sk.Name, sk.Cost),
				skill: i,
			})
		}
	}
	return append(acts, action{kind: actFlee, label: LabelFlee})
}

// playerTurn resolves one player action. Backing out of the item menu
// offers the action menu again without using up the turn.
func (f *fight) playerTurn(ctx context.Context) (bool, error) {
	for {
		acts := f.actions()
		labels := make([]string, len(acts))
		for i, a := range acts {
			labels[i] = a.label
		}
		pick, err := f.e.ui.Choose(ctx, "What do you do?", labels)
		if err != nil {
			return false, err
		}

		switch act := acts[pick]; act.kind {
		case actAttack:
			f.attack()
			return false, nil
		case actDefend:
			f.defending = true
			f.e.ui.Say(prompt.Line{Tone: prompt.ToneInfo, Text: "You raise your guard. Your defense is up until the enemy strikes."})
			return false, nil
		case actSkill:
			return false, f.useSkill(act.skill)
		case actItem:
			used, err := f.useItem(ctx)
			if err != nil {
				return false, err
			}
			if used {
				return false, nil
			}
		case actFlee:
			return f.tryFlee(), nil
		}
	}
}

func (f *fight) playerStats() catalog.Stats {
	stats := f.s.EffectiveStats(f.e.cat)
	mod := modifierOf(f.player)
	stats.Attack += mod.Attack
	stats.Defense += mod.Defense
	return stats
}

func (f *fight) enemyStats() catalog.Stats {
	stats := f.enemy.Stats
	mod := modifierOf(f.foe)
	stats.Attack += mod.Attack
	stats.Defense += mod.Defense
	return stats
}

func (f *fight) attack() {
	offset := f.e.rng.Intn(6) - 2
	dmg := Damage(f.playerStats().Attack+offset, f.enemyStats().Defense)
	f.enemy.Hurt(dmg)
	f.e.ui.Say(prompt.Linef(prompt.ToneSuccess, "You strike the %s for %d damage!", f.enemy.Name, dmg))
	f.reportEnemy()
}

func (f *fight) reportEnemy() {
	if f.enemy.Alive() {
		f.e.ui.Say(prompt.Linef(prompt.ToneText, "%s has %d/%d life left.", f.enemy.Name, f.enemy.Life, f.enemy.MaxLife))
	} else {
		f.e.ui.Say(prompt.Linef(prompt.ToneSuccess, "%s is defeated!", f.enemy.Name))
	}
}

func (f *fight) useSkill(i int) error {
	sk := f.s.Player.Skills[i]
	if err := f.s.SpendEnergy(sk.Cost); err != nil {
		return fmt.Errorf("skill %s: %w", sk.Name, err)
	}
	f.e.ui.Say(prompt.Linef(prompt.ToneReward, "You use %s!", sk.Name))
	if sk.Description != "" {
		f.e.ui.Say(prompt.Line{Tone: prompt.ToneNarration, Text: sk.Description})
	}

	if sk.Damage > 0 {
		raw := sk.Damage
		if sk.BonusVsEvil > 0 && f.enemy.WeakTo(divineWeakness) {
			raw += sk.BonusVsEvil
			f.e.ui.Say(prompt.Line{Tone: prompt.ToneReward, Text: "Holy power sears the wicked!"})
		}
		dmg := Damage(raw, f.enemyStats().Defense)
		f.enemy.Hurt(dmg)
		f.e.ui.Say(prompt.Linef(prompt.ToneSuccess, "%s deals %d damage!", sk.Name, dmg))
		f.reportEnemy()
	}
	if sk.Heal > 0 {
		got := f.s.Heal(f.e.cat, sk.Heal)
		f.e.ui.Say(prompt.Linef(prompt.ToneSuccess, "You recover %d life.", got))
	}
	if sk.Effect != catalog.StatusNone {
		turns := sk.Duration
		if turns <= 0 {
			turns = catalog.DefaultDuration
		}
		mod, _ := sk.Effect.Modifier()
		if mod.Hostile {
			f.foe.Set(sk.Effect, turns)
			f.e.ui.Say(prompt.Linef(prompt.ToneReward, "The %s suffers %s for %d turns.", f.enemy.Name, sk.Effect, turns))
		} else {
			f.player.Set(sk.Effect, turns)
			f.e.ui.Say(prompt.Linef(prompt.ToneReward, "%s is active for %d turns.", sk.Effect, turns))
		}
	}
	return nil
}

var itemEffects = map[catalog.EffectKind]struct {
	apply func(*models.GameSession, *catalog.Catalog, int) int
	msg   string
}{
	catalog.EffectHeal:    {apply: (*models.GameSession).Heal, msg: "You recover %d life."},
	catalog.EffectRestore: {apply: (*models.GameSession).RestoreEnergy, msg: "You recover %d energy."},
}

// useItem reports whether an item was consumed. An empty bag or picking
// Back leaves the turn unused.
func (f *fight) useItem(ctx context.Context) (bool, error) {
	var usable []*catalog.Item
	for _, st := range f.s.Inventory {
		if it, ok := f.e.cat.Item(st.Item); ok && it.UsableInCombat() {
			usable = append(usable, it)
		}
	}
	if len(usable) == 0 {
		f.e.ui.Say(prompt.Line{Tone: prompt.ToneInfo, Text: "You have nothing you can use in a fight."})
		return false, nil
	}

	options := make([]string, 0, len(usable)+1)
	for _, it := range usable {
		options = append(options, fmt.Sprintf("%s (x%d) - %s", it.Name, f.s.Quantity(it.ID), it.Description))
	}
	options = append(options, LabelBack)
	pick, err := f.e.ui.Choose(ctx, "Which item?", options)
	if err != nil {
		return false, err
	}
	if pick == len(usable) {
		return false, nil
	}

	it := usable[pick]
	effect, ok := itemEffects[it.Effect]
	if !ok {
		return false, &catalog.ContentError{Doc: catalog.ItemsDoc, ID: it.ID, Err: fmt.Errorf("unknown consumable effect %q", it.Effect)}
	}
	f.e.ui.Say(prompt.Linef(prompt.ToneInfo, "You use the %s.", it.Name))
	got := effect.apply(f.s, f.e.cat, it.Value)
	f.s.RemoveItem(it.ID, 1)
	f.e.ui.Say(prompt.Linef(prompt.ToneSuccess, effect.msg, got))
	return true, nil
}

func (f *fight) tryFlee() bool {
	chance := FleeChance(f.s.EffectiveStats(f.e.cat).Speed, f.enemy.Stats.Speed)
	if f.e.rng.Intn(100) < chance {
		f.e.ui.Say(prompt.Line{Tone: prompt.ToneSuccess, Text: "You get away!"})
		return true
	}
	f.e.ui.Say(prompt.Linef(prompt.ToneDanger, "The %s blocks your escape!", f.enemy.Name))
	return false
}

func (f *fight) enemyTurn() {
	defer func() { f.defending = false }()

	ready := f.enemy.Ready()
	if len(ready) == 0 {
		f.e.ui.Say(prompt.Linef(prompt.ToneText, "The %s hesitates.", f.enemy.Name))
		return
	}
	atk := ready[f.e.rng.Intn(len(ready))]
	f.e.ui.Say(prompt.Linef(prompt.ToneDanger, "The %s uses %s!", f.enemy.Name, atk.Name))

	if f.e.rng.Intn(100) < atk.Accuracy {
		defense := f.playerStats().Defense
		if f.defending {
			defense += DefendBonus
		}
		dmg := Damage(atk.Damage+modifierOf(f.foe).Attack, defense)
		f.s.TakeDamage(dmg)
		f.e.ui.Say(prompt.Linef(prompt.ToneDanger, "%s hits you for %d damage!", atk.Name, dmg))
		if atk.Effect != catalog.StatusNone {
			turns := atk.EffectTurns
			if turns <= 0 {
				turns = catalog.DefaultDuration
			}
			f.player.Set(atk.Effect, turns)
			f.e.ui.Say(prompt.Linef(prompt.ToneDanger, "You suffer %s.", atk.Effect))
		}
	} else {
		f.e.ui.Say(prompt.Line{Tone: prompt.ToneSuccess, Text: "The attack misses!"})
	}

	if atk.Cooldown > 0 {
		f.enemy.Cooldowns.Set(atk.Name, atk.Cooldown)
	}
}

// endRound applies damage over time, then counts down both sides' effects
// and the enemy's cooldowns.
func (f *fight) endRound() {
	if drain := modifierOf(f.player).Drain; drain > 0 {
		lost := f.s.TakeDamage(drain)
		f.e.ui.Say(prompt.Linef(prompt.ToneDanger, "Poison burns through you for %d damage.", lost))
	}
	if drain := modifierOf(f.foe).Drain; drain > 0 {
		lost := f.enemy.Hurt(drain)
		f.e.ui.Say(prompt.Linef(prompt.ToneSuccess, "Poison eats at the %s for %d damage.", f.enemy.Name, lost))
	}
	f.player.Tick()
	f.foe.Tick()
	f.enemy.Cooldowns.Tick()
}

func (f *fight) victory(ctx context.Context) (Outcome, error) {
	s := f.s
	s.AddGold(f.enemy.Gold)
	levels := s.GainExperience(f.enemy.Experience, f.e.cat.Advancement)
	s.Counters.EnemiesDefeated++

	f.e.ui.Say(
		prompt.Line{Tone: prompt.ToneTitle, Text: "VICTORY!"},
		prompt.Linef(prompt.ToneText, "You defeated the %s.", f.enemy.Name),
		prompt.Linef(prompt.ToneReward, "Gold: +%d  Experience: +%d", f.enemy.Gold, f.enemy.Experience),
	)
	for _, step := range levels {
		f.e.ui.Say(prompt.Linef(prompt.ToneReward, "You reach level %d! Max life +%d, attack +%d.", step.Level, step.Life, step.Attack))
	}
	if len(levels) > 0 {
		s.Heal(f.e.cat, s.MaxLife(f.e.cat))
	}

	for _, drop := range f.enemy.Loot {
		if f.e.rng.Intn(100) < drop.Chance {
			s.AddItem(drop.Item, 1)
			s.Counters.ItemsFound++
			f.e.ui.Say(prompt.Linef(prompt.ToneReward, "Loot: %s", f.e.cat.ItemName(drop.Item)))
		}
	}
	s.ClampVitals(f.e.cat)
	s.Record(fmt.Sprintf("Defeated the %s.", f.enemy.Name))
	if err := f.e.ui.Acknowledge(ctx); err != nil {
		return 0, err
	}
	return Victory, nil
}

func (f *fight) defeat(ctx context.Context) (Outcome, error) {
	f.e.ui.Say(
		prompt.Line{Tone: prompt.ToneTitle, Text: "DEFEAT"},
		prompt.Linef(prompt.ToneDanger, "The %s has bested you.", f.enemy.Name),
	)
	f.s.Record(fmt.Sprintf("Fell to the %s.", f.enemy.Name))
	if err := f.e.ui.Acknowledge(ctx); err != nil {
		return 0, err
	}
	return Defeat, nil
}

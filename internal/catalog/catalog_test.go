package catalog

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

const (
	classesYAML = `
classes:
  warrior:
    name: Warrior
    description: Steel and grit.
    stats: {life: 30, attack: 8, defense: 4, speed: 4}
    skills:
      - {name: Cleave, cost: 10, damage: 12}
    equipment: [sword]
advancement:
  - {level: 3, experience: 250, life: 5, attack: 1}
  - {level: 2, experience: 100, life: 5, attack: 1}
`
	itemsYAML = `
items:
  sword: {name: Sword, description: Sharp., category: equipment, bonus: {attack: 2}, equipped: true}
  potion: {name: Potion, description: Red., category: consumable, effect: heal, value: 20, combat: true}
  amulet: {name: Amulet, description: Warm., category: equipment, bonus: {life: 5, energy: 3}, equipped: true}
`
	enemiesYAML = `
enemies:
  rat:
    name: Rat
    description: Big.
    stats: {life: 5, attack: 2, defense: 0, speed: 6}
    attacks:
      - {name: Bite, accuracy: 90, damage: 3}
    loot:
      - {item: potion, chance: 50}
    gold: 2
    experience: 5
`
	storyYAML = `
start: intro
nodes:
  intro:
    title: Intro
    text: A cellar.
    npc: cook
    encounter: {enemy: rat}
    on_victory: end
    on_flee: end
  end:
    title: End
    text: Done.
    ending: true
npcs:
  cook:
    name: Cook
    dialogue: Bring me a potion.
    quests:
      - {name: Thirst, description: A drink., condition: "has_item:potion", reward: sword}
`
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		ClassesDoc: {Data: []byte(classesYAML)},
		ItemsDoc:   {Data: []byte(itemsYAML)},
		EnemiesDoc: {Data: []byte(enemiesYAML)},
		StoryDoc:   {Data: []byte(storyYAML)},
	}
}

func TestLoad(t *testing.T) {
	c, err := Load(testFS())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Start != "intro" {
		t.Errorf("Start = %q", c.Start)
	}
	if cl, ok := c.Class("warrior"); !ok || cl.ID != "warrior" || cl.Skills[0].Name != "Cleave" {
		t.Errorf("Class(warrior) = %+v, %v", cl, ok)
	}
	if n, ok := c.Node("end"); !ok || n.ID != "end" || !n.Ending {
		t.Errorf("Node(end) = %+v, %v", n, ok)
	}
	npc, ok := c.NPC("cook")
	if !ok || npc.Quests[0].Condition != (Condition{Kind: CondHasItem, Arg: "potion"}) {
		t.Errorf("NPC(cook) = %+v", npc)
	}
	if c.Advancement[0].Level != 2 {
		t.Errorf("advancement not sorted: %v", c.Advancement)
	}
	if it, ok := c.Item("amulet"); !ok || it.Bonus != (Bonus{Life: 5, Energy: 3}) {
		t.Errorf("Item(amulet) = %+v, %v", it, ok)
	}
	if got := c.ItemName("potion"); got != "Potion" {
		t.Errorf("ItemName = %q", got)
	}
	if got := c.ItemName("ghost"); got != "ghost" {
		t.Errorf("ItemName unknown = %q", got)
	}
}

func TestLoadEmbedded(t *testing.T) {
	c, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	if _, ok := c.Node(c.Start); !ok {
		t.Fatalf("start node %q missing", c.Start)
	}
	if len(c.ClassList()) < 2 {
		t.Errorf("only %d classes", len(c.ClassList()))
	}
	var endings int
	for _, n := range c.Nodes {
		if n.Ending {
			endings++
		}
	}
	if endings == 0 {
		t.Error("story has no ending")
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		from    string
		to      string
		wantDoc string
		wantID  string
		wantErr error
	}{
		{name: "dangling choice", doc: StoryDoc, from: "on_flee: end", to: "on_flee: nowhere", wantDoc: StoryDoc, wantID: "intro", wantErr: ErrUnknownID},
		{name: "missing start", doc: StoryDoc, from: "start: intro", to: "start: cellar", wantDoc: StoryDoc, wantID: "cellar", wantErr: ErrUnknownID},
		{name: "unknown enemy", doc: StoryDoc, from: "enemy: rat", to: "enemy: bat", wantDoc: StoryDoc, wantID: "intro", wantErr: ErrUnknownID},
		{name: "unknown npc", doc: StoryDoc, from: "npc: cook", to: "npc: baker", wantDoc: StoryDoc, wantID: "intro", wantErr: ErrUnknownID},
		{name: "unknown equipment", doc: ClassesDoc, from: "equipment: [sword]", to: "equipment: [axe]", wantDoc: ClassesDoc, wantID: "warrior", wantErr: ErrUnknownID},
		{name: "unknown loot", doc: EnemiesDoc, from: "item: potion", to: "item: cheese", wantDoc: EnemiesDoc, wantID: "rat", wantErr: ErrUnknownID},
		{name: "unknown quest reward", doc: StoryDoc, from: "reward: sword", to: "reward: crown", wantDoc: StoryDoc, wantID: "cook", wantErr: ErrUnknownID},
		{name: "unknown effect kind", doc: ItemsDoc, from: "effect: heal", to: "effect: teleport", wantDoc: ItemsDoc, wantID: "potion"},
		{name: "unknown status", doc: ClassesDoc, from: "damage: 12}", to: "damage: 12, effect: frozen}", wantDoc: ClassesDoc, wantID: "warrior"},
		{name: "accuracy out of range", doc: EnemiesDoc, from: "accuracy: 90", to: "accuracy: 190", wantDoc: EnemiesDoc, wantID: "rat"},
		{name: "encounter without flee route", doc: StoryDoc, from: "    on_flee: end\n", to: "", wantDoc: StoryDoc, wantID: "intro"},
		{name: "unknown field", doc: ItemsDoc, from: "value: 20", to: "valeu: 20", wantDoc: ItemsDoc},
		{name: "bad condition", doc: StoryDoc, from: `"has_item:potion"`, to: `"owns:potion"`, wantDoc: StoryDoc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := testFS()
			doc := string(fsys[tt.doc].Data)
			if !strings.Contains(doc, tt.from) {
				t.Fatalf("fixture %s lacks %q", tt.doc, tt.from)
			}
			fsys[tt.doc] = &fstest.MapFile{Data: []byte(strings.Replace(doc, tt.from, tt.to, 1))}

			_, err := Load(fsys)
			var cerr *ContentError
			if !errors.As(err, &cerr) {
				t.Fatalf("err = %v, want *ContentError", err)
			}
			if cerr.Doc != tt.wantDoc || cerr.ID != tt.wantID {
				t.Errorf("error at %s/%s, want %s/%s (%v)", cerr.Doc, cerr.ID, tt.wantDoc, tt.wantID, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingDocument(t *testing.T) {
	fsys := testFS()
	delete(fsys, EnemiesDoc)
	var cerr *ContentError
	if _, err := Load(fsys); !errors.As(err, &cerr) || cerr.Doc != EnemiesDoc {
		t.Fatalf("err = %v, want a content error for %s", err, EnemiesDoc)
	}
}

func TestStepFor(t *testing.T) {
	c, err := Load(testFS())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if step, ok := c.StepFor(3); !ok || step.Experience != 250 {
		t.Errorf("StepFor(3) = %+v, %v", step, ok)
	}
	if step, ok := c.StepFor(9); ok {
		t.Errorf("StepFor(9) = %+v, want no row", step)
	}
}

type subject struct {
	items, traits []string
	class         string
}

func (s subject) HasItem(id string) bool {
	for _, it := range s.items {
		if it == id {
			return true
		}
	}
	return false
}

func (s subject) HasTrait(t string) bool {
	for _, tr := range s.traits {
		if tr == t {
			return true
		}
	}
	return false
}

func (s subject) ClassID() string { return s.class }

func TestCondition(t *testing.T) {
	who := subject{items: []string{"key"}, traits: []string{"brave"}, class: "rogue"}
	tests := []struct {
		raw  string
		want bool
	}{
		{raw: "has_item:key", want: true},
		{raw: "has_item:lamp", want: false},
		{raw: "has_trait:brave", want: true},
		{raw: " class:rogue ", want: true},
		{raw: "class:mage", want: false},
	}
	for _, tt := range tests {
		c, err := ParseCondition(tt.raw)
		if err != nil {
			t.Fatalf("ParseCondition(%q): %v", tt.raw, err)
		}
		if got := c.Holds(who); got != tt.want {
			t.Errorf("%s holds = %v, want %v", tt.raw, got, tt.want)
		}
	}

	for _, raw := range []string{"", "has_item", "has_item:", "wish:pony"} {
		if _, err := ParseCondition(raw); err == nil {
			t.Errorf("ParseCondition(%q) succeeded", raw)
		}
	}
}

func TestTrapAvoids(t *testing.T) {
	trap := &Trap{Damage: 5, AvoidedBy: []string{"rogue", "trait:prudent"}}
	has := func(set ...string) func(string) bool {
		return func(t string) bool {
			for _, s := range set {
				if s == t {
					return true
				}
			}
			return false
		}
	}
	if !trap.Avoids("rogue", has()) {
		t.Error("rogue should avoid")
	}
	if !trap.Avoids("warrior", has("prudent")) {
		t.Error("prudent warrior should avoid")
	}
	if trap.Avoids("warrior", has("rogue")) {
		t.Error("a trait named like a class must not count")
	}
}

func TestStatus(t *testing.T) {
	if !StatusNone.Valid() || !StatusPoison.Valid() || Status("frozen").Valid() {
		t.Error("Valid mismatch")
	}
	if m, ok := StatusPoison.Modifier(); !ok || !m.Hostile || m.Drain <= 0 {
		t.Errorf("poison = %+v, %v", m, ok)
	}
	if _, ok := StatusNone.Modifier(); ok {
		t.Error("StatusNone has a modifier")
	}
}

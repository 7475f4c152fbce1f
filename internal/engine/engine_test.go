package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tatianab/donjon/internal/catalog"
	"github.com/tatianab/donjon/internal/combat"
	"github.com/tatianab/donjon/internal/models"
	"github.com/tatianab/donjon/internal/prompt"
	"github.com/tatianab/donjon/internal/storage"
	"github.com/tatianab/donjon/internal/storage/filestore"
)

// fakeCombat returns canned outcomes and counts fights. A lethal fake
// leaves the player at 0 life whatever the outcome.
type fakeCombat struct {
	outcomes []combat.Outcome
	calls    []string
	lethal   bool
}

func (f *fakeCombat) Resolve(ctx context.Context, s *models.GameSession, enemyID string) (combat.Outcome, error) {
	return f.ResolveSeries(ctx, s, enemyID, 1)
}

func (f *fakeCombat) ResolveSeries(_ context.Context, s *models.GameSession, enemyID string, count int) (combat.Outcome, error) {
	f.calls = append(f.calls, enemyID)
	if len(f.outcomes) == 0 {
		return 0, errors.New("unexpected fight")
	}
	o := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	if o == combat.Defeat || f.lethal {
		s.TakeDamage(s.Player.Life)
	}
	return o, nil
}

// brokenStore fails every write.
type brokenStore struct{ storage.Store }

func (brokenStore) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Start: "intro",
		Classes: map[string]*catalog.Class{
			"warrior": {ID: "warrior", Name: "Warrior", Stats: catalog.Stats{Life: 30, Attack: 8, Defense: 3, Speed: 4}},
			"rogue":   {ID: "rogue", Name: "Rogue", Stats: catalog.Stats{Life: 20, Attack: 7, Defense: 2, Speed: 7}},
		},
		Items: map[string]*catalog.Item{
			"key":   {ID: "key", Name: "Rusty Key", Category: catalog.CategoryOther},
			"charm": {ID: "charm", Name: "Charm", Category: catalog.CategoryOther},
		},
		Enemies: map[string]*catalog.Enemy{
			"rat": {ID: "rat", Name: "Rat", Stats: catalog.Stats{Life: 5}},
		},
		NPCs: map[string]*catalog.NPC{
			"hermit": {
				ID: "hermit", Name: "Hermit", Dialogue: "Bring me a key.",
				Quests: []catalog.Quest{{
					Name:      "Lost Key",
					Condition: catalog.Condition{Kind: catalog.CondHasItem, Arg: "key"},
					Reward:    "charm",
				}},
				Recruitable:    true,
				RecruitClasses: []string{"warrior"},
			},
		},
		Nodes: map[string]*catalog.Node{
			"intro": {
				ID: "intro", Title: "Intro", Text: "A door.",
				ClassText: map[string]string{"rogue": "You notice a loose stone."},
				Choices: []catalog.Choice{
					{Label: "Open the door", Next: "hall", Trait: "brave"},
					{Label: "Sneak around", Next: "hall", Class: "rogue"},
				},
			},
			"hall": {
				ID: "hall", Title: "Hall", Text: "Rats.", Item: "key",
				Encounter: &catalog.Encounter{Enemy: "rat", Count: 2},
				OnVictory: "hut", OnFlee: "end",
				Choices:   []catalog.Choice{{Label: "Go on", Next: "hut"}},
			},
			"hut": {
				ID: "hut", Title: "Hut", Text: "A hermit.", NPC: "hermit",
				Choices: []catalog.Choice{{Label: "Leave", Next: "end"}, {Label: "Back", Next: "hut"}},
			},
			"pit": {
				ID: "pit", Title: "Pit", Text: "Spikes.",
				Trap:      &catalog.Trap{Damage: 50, AvoidedBy: []string{"rogue", "trait:careful"}},
				OnVictory: "end",
			},
			"dead_end": {
				ID: "dead_end", Title: "Dead End", Text: "Nothing.",
				Choices: []catalog.Choice{{Label: "Squeeze through", Next: "end", Class: "rogue"}},
			},
			"end": {
				ID: "end", Title: "The End", Text: "Daylight.", Ending: true,
				Reward: &catalog.Reward{Title: "Survivor", Gold: 50},
			},
		},
	}
}

func newSession(t *testing.T, cat *catalog.Catalog, class string) *models.GameSession {
	t.Helper()
	s, err := models.NewSession(cat, class, "Hero")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestRunReachesEnding(t *testing.T) {
	cat := testCatalog()
	s := newSession(t, cat, "warrior")
	fights := &fakeCombat{outcomes: []combat.Outcome{combat.Victory}}
	ui := &prompt.Script{
		Choices:  []int{0, 0}, // open the door, then leave the hut
		Confirms: []bool{true},
	}

	res, err := NewEngine(cat, fights, ui, nil).Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Kind != Ending || res.Node != "end" {
		t.Fatalf("result = %+v, want ending at end", res)
	}
	if !reflect.DeepEqual(fights.calls, []string{"rat"}) {
		t.Errorf("fights = %v, want one series against rat", fights.calls)
	}
	if s.Gold != models.StartingGold+50 {
		t.Errorf("gold = %d, want %d", s.Gold, models.StartingGold+50)
	}
	if s.Counters.Decisions != 2 {
		t.Errorf("decisions = %d, want 2", s.Counters.Decisions)
	}
	if !s.HasTrait("brave") {
		t.Error("choice trait not recorded")
	}
	if !s.HasItem("charm") || !s.HasAlly("hermit") {
		t.Errorf("inventory %v allies %v, want charm and hermit", s.Inventory, s.Allies)
	}
	if s.Counters.ItemsFound != 2 {
		t.Errorf("items found = %d, want 2", s.Counters.ItemsFound)
	}
	if !ui.Said("Title earned: Survivor") {
		t.Error("ending reward not shown")
	}
}

func TestClassTextAndChoiceFilter(t *testing.T) {
	cat := testCatalog()
	for _, tt := range []struct {
		class     string
		wantExtra bool
		wantOpts  []string
	}{
		{class: "warrior", wantExtra: false, wantOpts: []string{"Open the door"}},
		{class: "rogue", wantExtra: true, wantOpts: []string{"Open the door", "Sneak around"}},
	} {
		t.Run(tt.class, func(t *testing.T) {
			s := newSession(t, cat, tt.class)
			ui := &prompt.Script{Choices: []int{0}}
			e := NewEngine(cat, &fakeCombat{}, ui, nil)

			next, err := e.step(context.Background(), s, cat.Nodes["intro"])
			if err != nil {
				t.Fatalf("step: %v", err)
			}
			if next != "hall" {
				t.Errorf("next = %q, want hall", next)
			}
			if got := ui.Said("loose stone"); got != tt.wantExtra {
				t.Errorf("class text shown = %v, want %v", got, tt.wantExtra)
			}
			if !reflect.DeepEqual(ui.Options[0], tt.wantOpts) {
				t.Errorf("options = %v, want %v", ui.Options[0], tt.wantOpts)
			}
		})
	}
}

func TestTraitRecordedOnce(t *testing.T) {
	cat := testCatalog()
	s := newSession(t, cat, "warrior")
	e := NewEngine(cat, &fakeCombat{}, &prompt.Script{Choices: []int{0, 0}}, nil)

	for range 2 {
		if _, err := e.step(context.Background(), s, cat.Nodes["intro"]); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if !reflect.DeepEqual(s.Traits, []string{"brave"}) {
		t.Errorf("traits = %v, want [brave]", s.Traits)
	}
	if s.Counters.Decisions != 2 {
		t.Errorf("decisions = %d, want 2", s.Counters.Decisions)
	}
}

func TestTrap(t *testing.T) {
	cat := testCatalog()

	t.Run("lethal trap skips the rest of the node", func(t *testing.T) {
		s := newSession(t, cat, "warrior")
		s.MoveTo("pit")
		ui := &prompt.Script{}
		res, err := NewEngine(cat, &fakeCombat{}, ui, nil).Run(context.Background(), s)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if res.Kind != Defeat || res.Node != "pit" {
			t.Errorf("result = %+v, want defeat at pit", res)
		}
		if s.Player.Life != 0 {
			t.Errorf("life = %d, want 0", s.Player.Life)
		}
	})

	t.Run("avoided by class", func(t *testing.T) {
		s := newSession(t, cat, "rogue")
		next, err := NewEngine(cat, &fakeCombat{}, &prompt.Script{}, nil).step(context.Background(), s, cat.Nodes["pit"])
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if next != "end" || s.Player.Life != s.Player.MaxLife {
			t.Errorf("next %q life %d, want end at full life", next, s.Player.Life)
		}
	})

	t.Run("avoided by trait", func(t *testing.T) {
		s := newSession(t, cat, "warrior")
		s.AddTrait("careful")
		if _, err := NewEngine(cat, &fakeCombat{}, &prompt.Script{}, nil).step(context.Background(), s, cat.Nodes["pit"]); err != nil {
			t.Fatalf("step: %v", err)
		}
		if s.Player.Life != s.Player.MaxLife {
			t.Errorf("life = %d, want full", s.Player.Life)
		}
	})

	t.Run("survivable", func(t *testing.T) {
		s := newSession(t, cat, "warrior")
		s.Player.MaxLife, s.Player.Life = 80, 80
		next, err := NewEngine(cat, &fakeCombat{}, &prompt.Script{}, nil).step(context.Background(), s, cat.Nodes["pit"])
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if next != "end" || s.Player.Life != 30 {
			t.Errorf("next %q life %d, want end with 30 life", next, s.Player.Life)
		}
	})
}

func TestEncounterRouting(t *testing.T) {
	cat := testCatalog()
	tests := []struct {
		outcome combat.Outcome
		choices []int
		want    string
	}{
		{outcome: combat.Victory, want: "hut"},
		{outcome: combat.Flee, want: "end"},
		{outcome: combat.FleeAvoided, choices: []int{0}, want: "hut"},
		{outcome: combat.Defeat, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			s := newSession(t, cat, "warrior")
			fights := &fakeCombat{outcomes: []combat.Outcome{tt.outcome}}
			ui := &prompt.Script{Choices: tt.choices}

			next, err := NewEngine(cat, fights, ui, nil).step(context.Background(), s, cat.Nodes["hall"])
			if err != nil {
				t.Fatalf("step: %v", err)
			}
			if next != tt.want {
				t.Errorf("next = %q, want %q", next, tt.want)
			}
			if len(ui.Questions) != len(tt.choices) {
				t.Errorf("asked %v, want %d questions", ui.Questions, len(tt.choices))
			}
		})
	}
}

func TestDeadPlayerLeavesEncounterDefeated(t *testing.T) {
	cat := testCatalog()
	s := newSession(t, cat, "warrior")
	s.MoveTo("hall")
	fights := &fakeCombat{outcomes: []combat.Outcome{combat.Victory}, lethal: true}

	res, err := NewEngine(cat, fights, &prompt.Script{}, nil).Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Kind != Defeat || res.Node != "hall" {
		t.Errorf("result = %+v, want defeat at hall", res)
	}
	if s.Gold != models.StartingGold {
		t.Errorf("gold = %d, the ending reward was paid", s.Gold)
	}
}

func TestPlayTimeAccumulates(t *testing.T) {
	cat := testCatalog()
	s := newSession(t, cat, "warrior")
	s.PlayTime = time.Hour
	ui := &prompt.Script{Choices: []int{0}, Confirms: []bool{false}}
	clock := time.Unix(1700000000, 0)
	tick := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	s.MoveTo("hut")

	// Run start, the hut, the ending and the final mark.
	if _, err := NewEngine(cat, &fakeCombat{}, ui, nil, WithClock(tick)).Run(context.Background(), s); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := time.Hour + 3*time.Minute; s.PlayTime != want {
		t.Errorf("play time = %v, want %v", s.PlayTime, want)
	}
}

func TestEncounterWithoutDestinationIsContentError(t *testing.T) {
	cat := testCatalog()
	cat.Nodes["lair"] = &catalog.Node{
		ID: "lair", Title: "Lair", Text: "Teeth.",
		Encounter: &catalog.Encounter{Enemy: "rat"},
		OnVictory: "end",
	}
	s := newSession(t, cat, "warrior")
	fights := &fakeCombat{outcomes: []combat.Outcome{combat.Flee}}

	_, err := NewEngine(cat, fights, &prompt.Script{}, nil).step(context.Background(), s, cat.Nodes["lair"])
	var cerr *catalog.ContentError
	if !errors.As(err, &cerr) || cerr.ID != "lair" {
		t.Fatalf("err = %v, want content error for lair", err)
	}
}

func TestQuestRewardGrantedOnce(t *testing.T) {
	cat := testCatalog()
	s := newSession(t, cat, "rogue")
	s.AddItem("key", 1)
	ui := &prompt.Script{Choices: []int{1, 1}}
	e := NewEngine(cat, &fakeCombat{}, ui, nil)

	for range 2 {
		if _, err := e.step(context.Background(), s, cat.Nodes["hut"]); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if got := s.Quantity("charm"); got != 1 {
		t.Errorf("charm quantity = %d, want 1", got)
	}
	if !s.HasTrait(questKey("hermit", "Lost Key")) {
		t.Error("quest completion not tracked")
	}
	if s.HasAlly("hermit") {
		t.Error("rogue recruited a warrior-only ally")
	}
}

func TestQuestPendingShowsDescription(t *testing.T) {
	cat := testCatalog()
	cat.NPCs["hermit"].Quests[0].Description = "Find my key."
	s := newSession(t, cat, "rogue")
	ui := &prompt.Script{Choices: []int{0}}

	if _, err := NewEngine(cat, &fakeCombat{}, ui, nil).step(context.Background(), s, cat.Nodes["hut"]); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !ui.Said("Find my key.") {
		t.Error("pending quest not shown")
	}
	if s.HasItem("charm") {
		t.Error("reward granted without the key")
	}
}

func TestRecruitmentOfferedOnce(t *testing.T) {
	cat := testCatalog()
	s := newSession(t, cat, "warrior")
	// The second visit must not ask again: the script holds one answer.
	ui := &prompt.Script{Choices: []int{1, 1}, Confirms: []bool{true}}
	e := NewEngine(cat, &fakeCombat{}, ui, nil)

	for range 2 {
		if _, err := e.step(context.Background(), s, cat.Nodes["hut"]); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if len(s.Allies) != 1 {
		t.Errorf("allies = %v, want one hermit", s.Allies)
	}
}

func TestRecruitmentDeclined(t *testing.T) {
	cat := testCatalog()
	s := newSession(t, cat, "warrior")
	ui := &prompt.Script{Choices: []int{0}, Confirms: []bool{false}}

	if _, err := NewEngine(cat, &fakeCombat{}, ui, nil).step(context.Background(), s, cat.Nodes["hut"]); err != nil {
		t.Fatalf("step: %v", err)
	}
	if s.HasAlly("hermit") {
		t.Error("declined ally joined")
	}
}

func TestStalled(t *testing.T) {
	cat := testCatalog()
	s := newSession(t, cat, "warrior")
	s.MoveTo("dead_end")

	res, err := NewEngine(cat, &fakeCombat{}, &prompt.Script{}, nil).Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Kind != Stalled || res.Node != "dead_end" {
		t.Errorf("result = %+v, want stalled at dead_end", res)
	}
}

func TestMissingNodeIsFatal(t *testing.T) {
	cat := testCatalog()
	s := newSession(t, cat, "warrior")
	s.MoveTo("nowhere")

	_, err := NewEngine(cat, &fakeCombat{}, &prompt.Script{}, nil).Run(context.Background(), s)
	var cerr *catalog.ContentError
	if !errors.As(err, &cerr) || !errors.Is(err, catalog.ErrUnknownID) || cerr.ID != "nowhere" {
		t.Fatalf("err = %v, want unknown id nowhere", err)
	}
}

func TestSavePseudoChoice(t *testing.T) {
	cat := testCatalog()
	store, err := filestore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	s := newSession(t, cat, "warrior")
	// Save, then open the door.
	ui := &prompt.Script{Choices: []int{1, 0}}
	at := time.UnixMilli(1700000000000)
	e := NewEngine(cat, &fakeCombat{}, ui, store, WithClock(func() time.Time { return at }))

	before := s.Clone()
	next, err := e.step(context.Background(), s, cat.Nodes["intro"])
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if next != "hall" {
		t.Errorf("next = %q, want hall", next)
	}
	if len(ui.Options) != 2 || !reflect.DeepEqual(ui.Options[0], ui.Options[1]) {
		t.Fatalf("options = %v, want the same menu twice", ui.Options)
	}
	if last := ui.Options[0][len(ui.Options[0])-1]; last != LabelSave {
		t.Errorf("last option = %q, want %q", last, LabelSave)
	}
	if s.Counters.Decisions != 1 {
		t.Errorf("decisions = %d, the save must not count", s.Counters.Decisions)
	}

	loaded, err := models.LoadSession(context.Background(), store, models.SaveName(SaveLabel, at))
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if !reflect.DeepEqual(loaded, before) {
		t.Errorf("saved session = %+v, want %+v", loaded, before)
	}
}

func TestSaveFailureLeavesSessionUntouched(t *testing.T) {
	cat := testCatalog()
	s := newSession(t, cat, "warrior")
	ui := &prompt.Script{Choices: []int{1, 0}}
	e := NewEngine(cat, &fakeCombat{}, ui, brokenStore{})

	before := s.Clone()
	if _, err := e.choose(context.Background(), s, cat.Nodes["intro"]); err != nil {
		t.Fatalf("choose: %v", err)
	}
	if !ui.Said("Save failed") {
		t.Error("save failure not reported")
	}
	// Only the real choice changed anything.
	before.AddTrait("brave")
	before.Counters.Decisions++
	if !reflect.DeepEqual(s, before) {
		t.Errorf("session = %+v, want %+v", s, before)
	}
}

type fixedChronicle string

func (c fixedChronicle) Epilogue(context.Context, *models.GameSession) (string, error) {
	if c == "" {
		return "", errors.New("offline")
	}
	return string(c), nil
}

func TestEndingEpilogue(t *testing.T) {
	cat := testCatalog()
	for _, tt := range []struct {
		name  string
		chron fixedChronicle
		want  string
	}{
		{name: "written", chron: "And so it ended.", want: "And so it ended."},
		{name: "failed", chron: "", want: ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, cat, "warrior")
			s.MoveTo("end")
			ui := &prompt.Script{}
			res, err := NewEngine(cat, &fakeCombat{}, ui, nil, WithChronicler(tt.chron)).Run(context.Background(), s)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if res.Epilogue != tt.want {
				t.Errorf("epilogue = %q, want %q", res.Epilogue, tt.want)
			}
			if ui.Acks != 1 {
				t.Errorf("acks = %d, want 1", ui.Acks)
			}
		})
	}
}

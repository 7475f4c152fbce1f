// Package engine walks the player through the story graph, one node at a
// time, handing encounters to the combat engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tatianab/donjon/internal/catalog"
	"github.com/tatianab/donjon/internal/combat"
	"github.com/tatianab/donjon/internal/models"
	"github.com/tatianab/donjon/internal/prompt"
	"github.com/tatianab/donjon/internal/storage"
)

// LabelSave is the pseudo-choice appended to every choice menu.
const LabelSave = "Save game"

// SaveLabel prefixes saves made from the choice menu.
const SaveLabel = "manual"

// ErrStalled means the current node offers no choice the player can take.
var ErrStalled = errors.New("no eligible choices")

// Kind is how a run ended.
type Kind int

const (
	Ending Kind = iota + 1
	Defeat
	Stalled
)

func (k Kind) String() string {
	switch k {
	case Ending:
		return "ending"
	case Defeat:
		return "defeat"
	case Stalled:
		return "stalled"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Result describes the terminal state a run reached.
type Result struct {
	Kind Kind
	// Node is the ending, the node where the player fell, or the node that
	// stalled.
	Node string
	// Epilogue is the chronicler's text, when one was written.
	Epilogue string
}

// Chronicler writes a closing epilogue for a finished adventure.
type Chronicler interface {
	Epilogue(ctx context.Context, s *models.GameSession) (string, error)
}

// Engine is the narrative engine.
type Engine struct {
	cat    *catalog.Catalog
	combat combat.Resolver
	ui     prompt.Prompter
	store  storage.Store

	chronicler Chronicler
	now        func() time.Time
	// mark is when play time was last added to the session.
	mark time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithChronicler asks c for an epilogue at every ending.
func WithChronicler(c Chronicler) Option {
	return func(e *Engine) { e.chronicler = c }
}

// WithClock overrides the clock used to name saves.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires a narrative engine. A nil store removes the save
// pseudo-choice.
func NewEngine(cat *catalog.Catalog, resolver combat.Resolver, ui prompt.Prompter, store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		cat:    cat,
		combat: resolver,
		ui:     ui,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run drives s from its current position until an ending, a defeat or a
// node with no way forward. Content faults and prompter failures are
// returned as errors.
func (e *Engine) Run(ctx context.Context, s *models.GameSession) (Result, error) {
	e.mark = e.now()
	defer e.track(s)
	for {
		e.track(s)
		node, ok := e.cat.Node(s.Position)
		if !ok {
			return Result{}, &catalog.ContentError{Doc: catalog.StoryDoc, ID: s.Position, Err: catalog.ErrUnknownID}
		}
		log.Printf("engine: %s enters %s", s.Player.Name, node.ID)

		if node.Ending {
			return e.ending(ctx, s, node)
		}

		next, err := e.step(ctx, s, node)
		switch {
		case errors.Is(err, ErrStalled):
			e.ui.Say(prompt.Line{Tone: prompt.ToneDanger, Text: "There is no way forward from here."})
			log.Printf("engine: stalled at %s", node.ID)
			return Result{Kind: Stalled, Node: node.ID}, nil
		case err != nil:
			return Result{}, err
		}
		if next == "" {
			s.Record(fmt.Sprintf("Fell in %s.", node.Title))
			return Result{Kind: Defeat, Node: node.ID}, nil
		}
		s.MoveTo(next)
	}
}

// step processes one non-ending node and returns the next node id, or ""
// when the player was defeated.
func (e *Engine) step(ctx context.Context, s *models.GameSession, node *catalog.Node) (string, error) {
	e.render(s, node)
	if err := e.ui.Acknowledge(ctx); err != nil {
		return "", err
	}

	if node.Item != "" {
		s.AddItem(node.Item, 1)
		s.Counters.ItemsFound++
		s.ClampVitals(e.cat)
		e.ui.Say(prompt.Linef(prompt.ToneReward, "You found: %s", e.cat.ItemName(node.Item)))
	}

	if node.Trap != nil && !e.trap(s, node.Trap) {
		return "", nil
	}

	if node.NPC != "" {
		if err := e.meet(ctx, s, node.NPC); err != nil {
			return "", err
		}
	}

	if node.Encounter != nil {
		next, done, err := e.encounter(ctx, s, node)
		if err != nil {
			return "", err
		}
		if !s.Alive() {
			return "", nil
		}
		if done {
			return next, nil
		}
	}

	return e.choose(ctx, s, node)
}

func (e *Engine) render(s *models.GameSession, node *catalog.Node) {
	lines := []prompt.Line{
		{Tone: prompt.ToneTitle, Text: node.Title},
		{Tone: prompt.ToneNarration, Text: node.Text},
	}
	if extra, ok := node.ClassText[s.ClassID()]; ok {
		lines = append(lines, prompt.Line{Tone: prompt.ToneClass, Text: extra})
	}
	e.ui.Say(lines...)
}

// trap reports whether the player is still standing afterwards.
func (e *Engine) trap(s *models.GameSession, t *catalog.Trap) bool {
	if t.Avoids(s.ClassID(), s.HasTrait) {
		e.ui.Say(prompt.Line{Tone: prompt.ToneSuccess, Text: "You spot the trap and step around it."})
		return true
	}
	lost := s.TakeDamage(t.Damage)
	e.ui.Say(prompt.Linef(prompt.ToneDanger, "A trap springs! You lose %d life.", lost))
	if !s.Alive() {
		e.ui.Say(prompt.Line{Tone: prompt.ToneDanger, Text: "The trap was your last mistake."})
		return false
	}
	return true
}

func (e *Engine) meet(ctx context.Context, s *models.GameSession, npcID string) error {
	npc, ok := e.cat.NPC(npcID)
	if !ok {
		return &catalog.ContentError{Doc: catalog.StoryDoc, ID: npcID, Err: catalog.ErrUnknownID}
	}
	e.ui.Say(prompt.Linef(prompt.ToneDialogue, "%s: %q", npc.Name, npc.Dialogue))

	for _, q := range npc.Quests {
		key := questKey(npc.ID, q.Name)
		if s.HasTrait(key) {
			continue
		}
		if !q.Condition.Holds(s) {
			e.ui.Say(prompt.Linef(prompt.ToneInfo, "Quest: %s. %s", q.Name, q.Description))
			continue
		}
		s.AddTrait(key)
		s.AddItem(q.Reward, 1)
		s.Counters.ItemsFound++
		s.ClampVitals(e.cat)
		s.Record(fmt.Sprintf("Completed %s for %s.", q.Name, npc.Name))
		e.ui.Say(
			prompt.Linef(prompt.ToneSuccess, "Quest complete: %s", q.Name),
			prompt.Linef(prompt.ToneReward, "%s gives you: %s", npc.Name, e.cat.ItemName(q.Reward)),
		)
	}

	if !npc.CanRecruit(s.ClassID()) || s.HasAlly(npc.ID) {
		return nil
	}
	join, err := e.ui.Confirm(ctx, fmt.Sprintf("%s offers to join you. Accept?", npc.Name), true)
	if err != nil {
		return err
	}
	if join {
		s.Recruit(models.Ally{ID: npc.ID, Name: npc.Name, Skills: npc.AllySkills})
		s.Record(fmt.Sprintf("%s joined the party.", npc.Name))
		e.ui.Say(prompt.Linef(prompt.ToneSuccess, "%s joins your party!", npc.Name))
	}
	return nil
}

func questKey(npcID, quest string) string {
	return "quest:" + npcID + ":" + quest
}

// encounter runs the node's fights. done is true when the outcome decided
// where to go next; otherwise the node's choices apply.
func (e *Engine) encounter(ctx context.Context, s *models.GameSession, node *catalog.Node) (next string, done bool, err error) {
	outcome, err := e.combat.ResolveSeries(ctx, s, node.Encounter.Enemy, node.Encounter.Fights())
	if err != nil {
		return "", false, err
	}
	log.Printf("engine: encounter at %s: %s", node.ID, outcome)

	var dest string
	switch outcome {
	case combat.Defeat:
		return "", true, nil
	case combat.Victory:
		dest = node.OnVictory
	case combat.Flee:
		dest = node.OnFlee
	case combat.FleeAvoided:
		if len(node.Choices) == 0 {
			dest = node.OnVictory
		}
	}
	if dest != "" {
		return dest, true, nil
	}
	if len(node.Choices) == 0 {
		return "", false, &catalog.ContentError{
			Doc: catalog.StoryDoc,
			ID:  node.ID,
			Err: fmt.Errorf("no destination after %s", outcome),
		}
	}
	return "", false, nil
}

// choose presents the eligible choices until a real one is picked.
func (e *Engine) choose(ctx context.Context, s *models.GameSession, node *catalog.Node) (string, error) {
	var eligible []catalog.Choice
	for _, c := range node.Choices {
		if c.Class == "" || c.Class == s.ClassID() {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		if node.OnVictory != "" && len(node.Choices) == 0 {
			return node.OnVictory, nil
		}
		return "", fmt.Errorf("node %s: %w", node.ID, ErrStalled)
	}

	labels := make([]string, 0, len(eligible)+1)
	for _, c := range eligible {
		labels = append(labels, c.Label)
	}
	if e.store != nil {
		labels = append(labels, LabelSave)
	}

	for {
		pick, err := e.ui.Choose(ctx, "What will you do?", labels)
		if err != nil {
			return "", err
		}
		if pick == len(eligible) {
			e.save(ctx, s)
			continue
		}
		c := eligible[pick]
		s.AddTrait(c.Trait)
		s.Counters.Decisions++
		return c.Next, nil
	}
}

// track adds the time since the last mark to the session's play time.
func (e *Engine) track(s *models.GameSession) {
	now := e.now()
	if !e.mark.IsZero() && now.After(e.mark) {
		s.PlayTime += now.Sub(e.mark)
	}
	e.mark = now
}

// save only brings the play time up to date; a failure is reported and play
// continues.
func (e *Engine) save(ctx context.Context, s *models.GameSession) {
	e.track(s)
	name, err := s.Save(ctx, e.store, SaveLabel, e.now())
	if err != nil {
		log.Printf("engine: save failed: %v", err)
		e.ui.Say(prompt.Linef(prompt.ToneDanger, "Save failed: %v", err))
		return
	}
	e.ui.Say(prompt.Linef(prompt.ToneSuccess, "Game saved as %s.", name))
}

func (e *Engine) ending(ctx context.Context, s *models.GameSession, node *catalog.Node) (Result, error) {
	e.render(s, node)
	if r := node.Reward; r != nil {
		if r.Gold > 0 {
			s.AddGold(r.Gold)
			e.ui.Say(prompt.Linef(prompt.ToneReward, "Reward: %d gold", r.Gold))
		}
		if r.Title != "" {
			e.ui.Say(prompt.Linef(prompt.ToneReward, "Title earned: %s", r.Title))
		}
	}
	s.Record(fmt.Sprintf("Reached the ending: %s.", node.Title))

	res := Result{Kind: Ending, Node: node.ID}
	if e.chronicler != nil {
		text, err := e.chronicler.Epilogue(ctx, s)
		if err != nil {
			log.Printf("engine: epilogue: %v", err)
		} else if text != "" {
			res.Epilogue = text
			e.ui.Say(prompt.Line{Tone: prompt.ToneNarration, Text: text})
		}
	}
	if err := e.ui.Acknowledge(ctx); err != nil {
		return Result{}, err
	}
	return res, nil
}

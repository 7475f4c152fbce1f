package tui

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tatianab/donjon/internal/engine"
	"github.com/tatianab/donjon/internal/models"
	"github.com/tatianab/donjon/internal/prompt"
)

type askKind int

const (
	askAck askKind = iota
	askChoose
	askConfirm
)

// sayMsg carries engine output to the log.
type sayMsg struct {
	lines []prompt.Line
}

// askMsg is a pending question. The engine goroutine blocks until an index
// arrives on reply. For confirmations 0 means yes.
type askMsg struct {
	kind     askKind
	question string
	options  []string
	def      bool
	snapshot *models.GameSession
	reply    chan int
}

// doneMsg reports that the engine returned.
type doneMsg struct {
	res      engine.Result
	err      error
	snapshot *models.GameSession
}

// bridge is the engine's prompt.Prompter. It runs on the engine goroutine
// and holds the turn gate except while it waits for the player, so whoever
// else takes the gate sees the session between turns.
type bridge struct {
	ctx     context.Context
	events  chan tea.Msg
	gate    *sync.Mutex
	session *models.GameSession
}

func newBridge(ctx context.Context, gate *sync.Mutex, s *models.GameSession) *bridge {
	return &bridge{
		ctx:     ctx,
		events:  make(chan tea.Msg, 64),
		gate:    gate,
		session: s,
	}
}

func (b *bridge) post(msg tea.Msg) {
	select {
	case b.events <- msg:
	case <-b.ctx.Done():
	}
}

func (b *bridge) Say(lines ...prompt.Line) {
	b.post(sayMsg{lines: slices.Clone(lines)})
}

func (b *bridge) Acknowledge(ctx context.Context) error {
	_, err := b.ask(ctx, askMsg{kind: askAck})
	return err
}

func (b *bridge) Choose(ctx context.Context, question string, options []string) (int, error) {
	return b.ask(ctx, askMsg{kind: askChoose, question: question, options: slices.Clone(options)})
}

func (b *bridge) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	pick, err := b.ask(ctx, askMsg{kind: askConfirm, question: question, options: []string{"Yes", "No"}, def: def})
	return pick == 0 && err == nil, err
}

func (b *bridge) ask(ctx context.Context, msg askMsg) (int, error) {
	msg.reply = make(chan int, 1)
	msg.snapshot = b.session.Clone()
	select {
	case b.events <- msg:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	b.gate.Unlock()
	defer b.gate.Lock()
	select {
	case pick := <-msg.reply:
		return pick, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// play runs the engine to completion on the calling goroutine and posts a
// doneMsg. A panic is turned into an error.
func (b *bridge) play(eng *engine.Engine) {
	b.gate.Lock()
	var done doneMsg
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine panic: %v\n%s", r, debug.Stack())
			done = doneMsg{err: fmt.Errorf("engine panic: %v", r)}
		}
		done.snapshot = b.session.Clone()
		b.gate.Unlock()
		b.post(done)
	}()
	res, err := eng.Run(b.ctx, b.session)
	done = doneMsg{res: res, err: err}
}

// listen waits for the next engine event.
func listen(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

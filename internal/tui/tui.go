package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tatianab/donjon/internal/catalog"
	"github.com/tatianab/donjon/internal/combat"
	"github.com/tatianab/donjon/internal/engine"
	"github.com/tatianab/donjon/internal/models"
	"github.com/tatianab/donjon/internal/prompt"
	"github.com/tatianab/donjon/internal/storage"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// QuickSaveLabel prefixes saves made with the quick save key.
const QuickSaveLabel = "quicksave"

// Main menu entries.
const (
	menuNew  = "New game"
	menuLoad = "Load game"
	menuHelp = "Help"
	menuQuit = "Quit"
)

// Options wires the game into the UI.
type Options struct {
	Catalog *catalog.Catalog
	Store   storage.Store
	Rand    combat.Rand
	// Chronicler is optional.
	Chronicler engine.Chronicler
	Lang       language.Tag
}

type screen int

const (
	screenMenu screen = iota
	screenClass
	screenName
	screenLoad
	screenHelp
	screenGame
	screenEnd
	screenFatal
)

type model struct {
	opts    Options
	ctx     context.Context
	keys    keyMap
	help    help.Model
	printer *message.Printer

	screen screen
	back   screen
	status string

	mainMenu  menu
	classMenu menu
	saveMenu  menu
	classID   string
	textInput textinput.Model

	// gate is held by the engine goroutine while it computes.
	gate    *sync.Mutex
	session *models.GameSession
	events  chan tea.Msg
	running bool

	snapshot *models.GameSession
	pending  *askMsg
	choices  menu
	result   engine.Result
	gameLog  []string
	viewport viewport.Model
	width    int
	height   int

	err error
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87AFFF")).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD75F")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	toneStyles = map[prompt.Tone]lipgloss.Style{
		prompt.ToneText:      gameStyle,
		prompt.ToneTitle:     titleStyle,
		prompt.ToneNarration: gameStyle.Italic(true),
		prompt.ToneClass:     lipgloss.NewStyle().Foreground(lipgloss.Color("#AF87FF")),
		prompt.ToneDialogue:  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7D7")),
		prompt.ToneSuccess:   lipgloss.NewStyle().Foreground(lipgloss.Color("#87D75F")),
		prompt.ToneDanger:    errorStyle,
		prompt.ToneInfo:      helpStyle.Italic(false),
		prompt.ToneReward:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
	}
)

// NewModel builds the UI on the main menu. ctx bounds every engine run.
func NewModel(ctx context.Context, opts Options) model {
	ti := textinput.New()
	ti.Placeholder = "Your hero's name..."
	ti.CharLimit = 32
	ti.Width = 40

	classes := opts.Catalog.ClassList()
	classMenu := newMenu("Choose your class:")
	for _, c := range classes {
		classMenu.items = append(classMenu.items, c.Name)
		classMenu.notes = append(classMenu.notes, c.Description)
	}

	return model{
		opts:      opts,
		ctx:       ctx,
		keys:      newKeyMap(),
		help:      help.New(),
		printer:   message.NewPrinter(opts.Lang),
		mainMenu:  newMenu("DONJON", menuNew, menuLoad, menuHelp, menuQuit),
		classMenu: classMenu,
		textInput: ti,
		gate:      &sync.Mutex{},
		viewport:  viewport.New(80, 20),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

type savedMsg struct {
	name string
	err  error
}

type savesMsg struct {
	blobs []storage.Blob
	err   error
}

type loadedMsg struct {
	session *models.GameSession
	err     error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.75)
		m.viewport.Height = msg.Height - 8
		m.help.Width = msg.Width
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case sayMsg:
		m.appendLines(msg.lines...)
		return m, listen(m.events)

	case askMsg:
		m.pending = &msg
		m.snapshot = msg.snapshot
		m.choices = newMenu(msg.question, msg.options...)
		if msg.kind == askConfirm && !msg.def {
			m.choices.cursor = 1
		}
		return m, listen(m.events)

	case doneMsg:
		m.running = false
		m.pending = nil
		m.snapshot = msg.snapshot
		if msg.err != nil {
			log.Printf("engine stopped: %v", msg.err)
			m.err = msg.err
			m.screen = screenFatal
			return m, nil
		}
		m.result = msg.res
		m.screen = screenEnd
		return m, nil

	case savedMsg:
		if msg.err != nil {
			log.Printf("quick save: %v", msg.err)
			m.status = "Save failed: " + msg.err.Error()
		} else {
			m.status = "Game saved as " + msg.name + "."
		}
		return m, nil

	case savesMsg:
		switch {
		case msg.err != nil:
			m.status = "Could not list saves: " + msg.err.Error()
		case len(msg.blobs) == 0:
			m.status = "No saved games found."
		default:
			m.saveMenu = newMenu("Choose a save:")
			for _, b := range msg.blobs {
				m.saveMenu.items = append(m.saveMenu.items, b.Name)
				m.saveMenu.notes = append(m.saveMenu.notes, b.ModTime.Local().Format(time.DateTime))
			}
			m.status = ""
			m.screen = screenLoad
		}
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			log.Printf("load: %v", msg.err)
			m.status = "Load failed: " + msg.err.Error()
			m.screen = screenMenu
			return m, nil
		}
		return m.begin(msg.session)
	}

	if m.screen == screenName {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenMenu:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.mainMenu.up()
		case key.Matches(msg, m.keys.Down):
			m.mainMenu.down()
		case key.Matches(msg, m.keys.Help):
			m.back, m.screen = screenMenu, screenHelp
		case key.Matches(msg, m.keys.Select):
			m.status = ""
			switch m.mainMenu.selected() {
			case menuNew:
				m.screen = screenClass
			case menuLoad:
				return m, m.listSaves()
			case menuHelp:
				m.back, m.screen = screenMenu, screenHelp
			case menuQuit:
				return m, tea.Quit
			}
		}

	case screenClass:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.classMenu.up()
		case key.Matches(msg, m.keys.Down):
			m.classMenu.down()
		case key.Matches(msg, m.keys.Back):
			m.screen = screenMenu
		case key.Matches(msg, m.keys.Select):
			classes := m.opts.Catalog.ClassList()
			if len(classes) == 0 {
				return m, nil
			}
			m.classID = classes[m.classMenu.cursor].ID
			m.textInput.Reset()
			m.status = ""
			m.screen = screenName
			return m, m.textInput.Focus()
		}

	case screenName:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.textInput.Blur()
			m.screen = screenClass
		case key.Matches(msg, m.keys.Select):
			name := strings.TrimSpace(m.textInput.Value())
			if name == "" {
				m.status = "Your hero needs a name."
				return m, nil
			}
			s, err := models.NewSession(m.opts.Catalog, m.classID, name)
			if err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.textInput.Blur()
			return m.begin(s)
		default:
			var cmd tea.Cmd
			m.textInput, cmd = m.textInput.Update(msg)
			return m, cmd
		}

	case screenLoad:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.saveMenu.up()
		case key.Matches(msg, m.keys.Down):
			m.saveMenu.down()
		case key.Matches(msg, m.keys.Back):
			m.screen = screenMenu
		case key.Matches(msg, m.keys.Select):
			return m, m.load(m.saveMenu.selected())
		}

	case screenHelp:
		if key.Matches(msg, m.keys.Back, m.keys.Select, m.keys.Help) {
			m.screen = m.back
		}

	case screenGame:
		return m.handleGameKey(msg)

	case screenEnd:
		switch msg.String() {
		case "y", "Y":
			m.session, m.snapshot = nil, nil
			m.gameLog = nil
			m.status = ""
			m.screen = screenClass
		case "n", "N", "q":
			return m, tea.Quit
		}

	case screenFatal:
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleGameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		if !m.running {
			return m, nil
		}
		m.status = "Saving..."
		return m, m.quickSave()
	case key.Matches(msg, m.keys.Help):
		m.back, m.screen = screenGame, screenHelp
		return m, nil
	case key.Matches(msg, m.keys.Scroll):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.pending == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.choices.up()
	case key.Matches(msg, m.keys.Down):
		m.choices.down()
	case key.Matches(msg, m.keys.Select):
		p := m.pending
		m.pending = nil
		m.status = ""
		pick := 0
		if p.kind != askAck {
			pick = m.choices.cursor
			m.appendUser(p.options[pick])
		}
		p.reply <- pick
	}
	return m, nil
}

// begin starts the engine on s.
func (m model) begin(s *models.GameSession) (tea.Model, tea.Cmd) {
	b := newBridge(m.ctx, m.gate, s)
	fights := combat.NewEngine(m.opts.Catalog, m.opts.Rand, b)
	var opts []engine.Option
	if m.opts.Chronicler != nil {
		opts = append(opts, engine.WithChronicler(m.opts.Chronicler))
	}
	eng := engine.NewEngine(m.opts.Catalog, fights, b, m.opts.Store, opts...)

	m.session = s
	m.snapshot = s.Clone()
	m.events = b.events
	m.running = true
	m.pending = nil
	m.gameLog = nil
	m.status = ""
	m.screen = screenGame
	m.refreshLog()

	log.Printf("tui: %s the %s starts at %s", s.Player.Name, s.Player.Class, s.Position)
	return m, tea.Batch(
		func() tea.Msg {
			b.play(eng)
			return nil
		},
		listen(b.events),
	)
}

func (m model) quickSave() tea.Cmd {
	s, gate, store, ctx := m.session, m.gate, m.opts.Store, m.ctx
	return func() tea.Msg {
		gate.Lock()
		defer gate.Unlock()
		name, err := s.Save(ctx, store, QuickSaveLabel, time.Now())
		return savedMsg{name: name, err: err}
	}
}

func (m model) listSaves() tea.Cmd {
	store, ctx := m.opts.Store, m.ctx
	return func() tea.Msg {
		blobs, err := models.ListSessions(ctx, store)
		return savesMsg{blobs: blobs, err: err}
	}
}

func (m model) load(name string) tea.Cmd {
	store, ctx := m.opts.Store, m.ctx
	return func() tea.Msg {
		s, err := models.LoadSession(ctx, store, name)
		return loadedMsg{session: s, err: err}
	}
}

func (m *model) appendLines(lines ...prompt.Line) {
	for _, l := range lines {
		if l.Text == "" {
			continue
		}
		style, ok := toneStyles[l.Tone]
		if !ok {
			style = gameStyle
		}
		m.gameLog = append(m.gameLog, style.Width(m.viewport.Width).Render(l.Text))
	}
	m.refreshLog()
}

func (m *model) appendUser(choice string) {
	m.gameLog = append(m.gameLog, userStyle.Width(m.viewport.Width).Render("> "+choice))
	m.refreshLog()
}

func (m *model) refreshLog() {
	m.viewport.SetContent(m.renderLog())
	m.viewport.GotoBottom()
}

func (m model) renderLog() string {
	return strings.Join(m.gameLog, "\n\n")
}

func (m model) View() string {
	var s string

	switch m.screen {
	case screenMenu:
		s = m.mainMenu.view()

	case screenClass:
		s = m.classMenu.view()

	case screenName:
		s = fmt.Sprintf("%s\n\n%s", questionStyle.Render("What is your name, adventurer?"), m.textInput.View())

	case screenLoad:
		s = m.saveMenu.view()

	case screenHelp:
		s = titleStyle.Render("HOW TO PLAY") + "\n\n" + helpText + "\n\n" + m.help.FullHelpView(m.keys.FullHelp())

	case screenGame:
		mainView := lipgloss.JoinHorizontal(lipgloss.Top,
			m.viewport.View(),
			m.renderState(),
		)
		s = lipgloss.JoinVertical(lipgloss.Left,
			mainView,
			"\n"+m.renderPrompt(),
			m.help.View(m.keys),
		)

	case screenEnd:
		s = m.renderEnd()

	case screenFatal:
		s = fmt.Sprintf("%s\n\n%v\n\nPress any key to quit.", errorStyle.Render("Something went wrong."), m.err)
	}

	if m.status != "" {
		s += "\n" + helpStyle.Render(m.status)
	}
	return "\n" + s + "\n"
}

const helpText = `Read each scene, then pick what to do next. Fights are turn based:
attack, defend, use an item or a skill, or try to flee. Some classes can
avoid certain fights or traps entirely.

Choose "Save game" at any crossroads, or press ctrl+s between turns, to
write a save you can load from the main menu.`

func (m model) renderPrompt() string {
	if m.pending == nil {
		if m.running {
			return helpStyle.Render("...")
		}
		return ""
	}
	if m.pending.kind == askAck {
		return helpStyle.Render("Press enter to continue.")
	}
	return m.choices.view()
}

func (m model) renderState() string {
	s := m.snapshot
	if s == nil {
		return ""
	}
	cat := m.opts.Catalog
	p := s.Player

	location := s.Position
	if n, ok := cat.Node(s.Position); ok {
		location = n.Title
	}
	class := p.Class
	if c, ok := cat.Class(p.Class); ok {
		class = c.Name
	}
	stats := s.EffectiveStats(cat)

	var b strings.Builder
	b.WriteString(titleStyle.Render("LOCATION") + "\n" + location + "\n\n")
	b.WriteString(titleStyle.Render("CHARACTER") + "\n")
	b.WriteString(m.printer.Sprintf("%s, level %d %s\n", p.Name, p.Level, class))
	if next, ok := cat.StepFor(p.Level + 1); ok {
		b.WriteString(m.printer.Sprintf("XP: %d/%d\n\n", p.Experience, next.Experience))
	} else {
		b.WriteString(m.printer.Sprintf("XP: %d (max level)\n\n", p.Experience))
	}
	b.WriteString(titleStyle.Render("STATS") + "\n")
	b.WriteString(m.printer.Sprintf("Life: %d/%d\nEnergy: %d/%d\nAttack: %d\nDefense: %d\nSpeed: %d\nGold: %d\n\n",
		p.Life, stats.Life, p.Energy, s.MaxEnergy(cat), stats.Attack, stats.Defense, stats.Speed, s.Gold))

	b.WriteString(titleStyle.Render("INVENTORY") + "\n")
	if len(s.Inventory) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, st := range s.Inventory {
		fmt.Fprintf(&b, "- %s x%d\n", cat.ItemName(st.Item), st.Quantity)
	}
	if len(s.Allies) > 0 {
		b.WriteString("\n" + titleStyle.Render("ALLIES") + "\n")
		for _, a := range s.Allies {
			b.WriteString("- " + a.Name + "\n")
		}
	}

	stateWidth := int(float64(m.width) * 0.23)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(b.String())
}

func (m model) renderEnd() string {
	var heading string
	switch m.result.Kind {
	case engine.Ending:
		heading = "THE END"
	case engine.Defeat:
		heading = "GAME OVER"
	default:
		heading = "THE STORY CANNOT CONTINUE"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(heading) + "\n\n")
	if n, ok := m.opts.Catalog.Node(m.result.Node); ok && m.result.Kind == engine.Ending {
		b.WriteString(gameStyle.Render(n.Title) + "\n")
		if n.Reward != nil && n.Reward.Title != "" {
			b.WriteString(toneStyles[prompt.ToneReward].Render("Title: "+n.Reward.Title) + "\n")
		}
		b.WriteString("\n")
	}
	if m.result.Epilogue != "" {
		b.WriteString(toneStyles[prompt.ToneNarration].Width(max(m.width-4, 20)).Render(m.result.Epilogue) + "\n\n")
	}
	if s := m.snapshot; s != nil {
		b.WriteString(m.summary(s) + "\n")
	}
	b.WriteString(questionStyle.Render("Start a new adventure? (y/n)"))
	return b.String()
}

// summary formats the end-of-game statistics for the configured language.
func (m model) summary(s *models.GameSession) string {
	return m.printer.Sprintf(
		"Level: %d\nExperience: %d\nGold: %d\nEnemies defeated: %d\nItems found: %d\nDecisions: %d\nAllies: %d\nPlay time: %s\n",
		s.Player.Level, s.Player.Experience, s.Gold,
		s.Counters.EnemiesDefeated, s.Counters.ItemsFound, s.Counters.Decisions, len(s.Allies),
		s.PlayTime.Round(time.Second),
	)
}

// Run shows the UI until the player quits. It returns an error when the
// engine stopped on a fault.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(ctx, opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

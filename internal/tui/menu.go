package tui

import "strings"

// menu is a vertical list with a cursor.
type menu struct {
	title  string
	items  []string
	notes  []string
	cursor int
}

func newMenu(title string, items ...string) menu {
	return menu{title: title, items: items}
}

func (m *menu) up() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *menu) down() {
	if m.cursor < len(m.items)-1 {
		m.cursor++
	}
}

func (m menu) selected() string {
	if len(m.items) == 0 {
		return ""
	}
	return m.items[m.cursor]
}

func (m menu) view() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(questionStyle.Render(m.title))
		b.WriteString("\n\n")
	}
	for i, item := range m.items {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + item))
		} else {
			b.WriteString("  " + item)
		}
		if i < len(m.notes) && m.notes[i] != "" {
			b.WriteString("\n    " + helpStyle.Render(m.notes[i]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cassini/internal/ui/theme"
)

// MenuItem is one selectable button. Data is the callback it sends.
type MenuItem struct {
	Label string
	Data  string
}

// SelectMsg is emitted when an item is chosen.
type SelectMsg struct {
	Data string
}

// Menu is a grid of buttons laid out in rows.
type Menu struct {
	Rows [][]MenuItem
	Row  int
	Col  int
}

// NewMenu creates a menu, dropping empty rows.
func NewMenu(rows [][]MenuItem) Menu {
	kept := make([][]MenuItem, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			kept = append(kept, r)
		}
	}
	return Menu{Rows: kept}
}

// Selected returns the highlighted item.
func (m Menu) Selected() (MenuItem, bool) {
	if m.Row < 0 || m.Row >= len(m.Rows) {
		return MenuItem{}, false
	}
	row := m.Rows[m.Row]
	if m.Col < 0 || m.Col >= len(row) {
		return MenuItem{}, false
	}
	return row[m.Col], true
}

// Find returns the first item whose Data equals data.
func (m Menu) Find(data string) (MenuItem, bool) {
	for _, r := range m.Rows {
		for _, it := range r {
			if it.Data == data {
				return it, true
			}
		}
	}
	return MenuItem{}, false
}

// Update handles arrow and vim-style movement.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Rows) == 0 {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if m.Row > 0 {
			m.Row--
		}
	case "down", "j":
		if m.Row < len(m.Rows)-1 {
			m.Row++
		}
	case "left", "h":
		if m.Col > 0 {
			m.Col--
		}
	case "right", "l":
		m.Col++
	case "enter":
		if it, ok := m.Selected(); ok {
			return m, Select(it.Data)
		}
	}
	if last := len(m.Rows[m.Row]) - 1; m.Col > last {
		m.Col = last
	}
	return m, nil
}

// Select returns a command emitting SelectMsg for data.
func Select(data string) tea.Cmd {
	return func() tea.Msg { return SelectMsg{Data: data} }
}

// View renders the grid.
func (m Menu) View() string {
	var b strings.Builder
	for i, row := range m.Rows {
		cells := make([]string, 0, len(row))
		for j, it := range row {
			if i == m.Row && j == m.Col {
				cells = append(cells, theme.ButtonActive.Render(it.Label))
				continue
			}
			cells = append(cells, lipgloss.NewStyle().Foreground(theme.Text).Padding(0, 2).Render(it.Label))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

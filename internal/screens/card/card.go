// Package card draws a rendered screen as a terminal card: its variables,
// an optional question block, and the button grid.
package card

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/present"
	"github.com/abhisek/cassini/internal/quiz"
	"github.com/abhisek/cassini/internal/screen"
	"github.com/abhisek/cassini/internal/ui/components"
	"github.com/abhisek/cassini/internal/ui/layout"
	"github.com/abhisek/cassini/internal/ui/theme"
)

// questionKeys are drawn by the question block, not the variable list.
var questionKeys = map[string]bool{
	"question_stem": true, "opt_a": true, "opt_b": true, "opt_c": true, "opt_d": true,
	"curr_index": true, "total_count": true, "remaining_seconds": true, "unit_progress": true,
}

// CardScreen shows one view.
type CardScreen struct {
	view  present.View
	menu  components.Menu
	input *components.TextInput
}

var _ screen.Screen = (*CardScreen)(nil)
var _ screen.KeyHintProvider = (*CardScreen)(nil)

// New creates a card for v.
func New(v present.View) *CardScreen {
	c := &CardScreen{}
	c.Refresh(v)
	return c
}

// Refresh replaces the view. The cursor survives when the screen and its
// parameter are unchanged.
func (c *CardScreen) Refresh(v present.View) {
	same := c.view.Screen == v.Screen && c.view.Param == v.Param
	row, col := c.menu.Row, c.menu.Col

	rows := make([][]components.MenuItem, 0, len(v.Buttons))
	for _, r := range v.Buttons {
		items := make([]components.MenuItem, 0, len(r))
		for _, b := range r {
			items = append(items, components.MenuItem{Label: b.Label, Data: b.Data})
		}
		rows = append(rows, items)
	}
	c.view = v
	c.menu = components.NewMenu(rows)
	if same && row < len(c.menu.Rows) {
		c.menu.Row = row
		c.menu.Col = min(col, len(c.menu.Rows[row])-1)
	}

	switch {
	case v.Screen != nav.Invites:
		c.input = nil
	case c.input == nil:
		in := components.NewTextInput(quiz.InvitePrefix+"XXXXXXXX", 16)
		c.input = &in
	}
}

// Current returns the view being shown.
func (c *CardScreen) Current() present.View { return c.view }

func (c *CardScreen) Init() tea.Cmd {
	if c.input != nil {
		return c.input.Init()
	}
	return nil
}

func (c *CardScreen) Title() string { return c.view.Title }

func (c *CardScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓←→", Description: "Move"},
		{Key: "Enter", Description: "Select"},
	}
	if c.view.Get("question_stem") != "" {
		hints = append(hints, layout.KeyHint{Key: "A-D", Description: "Answer"})
	}
	if c.input != nil {
		hints = append(hints, layout.KeyHint{Key: "Type", Description: "Challenge id"})
	}
	return append(hints,
		layout.KeyHint{Key: "Esc", Description: "Back"},
		layout.KeyHint{Key: "Ctrl+C", Description: "Quit"},
	)
}

func (c *CardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if c.input != nil {
			in, cmd := c.input.Update(msg)
			c.input = &in
			return c, cmd
		}
		return c, nil
	}
	key := kmsg.String()

	if c.input != nil {
		switch {
		case key == "enter" && c.input.Value() != "":
			return c, components.Select(nav.Act("MP", "JOIN", quiz.NormalizeInviteID(c.input.Value())))
		case len(key) == 1 || key == "backspace":
			in, cmd := c.input.Update(msg)
			c.input = &in
			return c, cmd
		}
	}

	if len(key) == 1 {
		data := nav.Ans(c.view.Screen, strings.ToUpper(key))
		if _, ok := c.menu.Find(data); ok {
			return c, components.Select(data)
		}
	}

	var cmd tea.Cmd
	c.menu, cmd = c.menu.Update(msg)
	return c, cmd
}

func (c *CardScreen) View(width, height int) string {
	v := c.view
	cardWidth := min(width-4, 72)
	if cardWidth < 20 {
		cardWidth = 20
	}

	var parts []string
	if v.Notice != "" {
		parts = append(parts, theme.Notice.Render(v.Notice))
	}
	if v.Get("question_stem") != "" {
		parts = append(parts, c.question(cardWidth-6))
	} else if verdict := c.verdict(); verdict != "" {
		parts = append(parts, verdict)
	}
	if vars := c.vars(); vars != "" {
		parts = append(parts, vars)
	}
	if c.input != nil {
		parts = append(parts, theme.Body.Render("Challenge id: ")+c.input.View())
	}
	parts = append(parts, c.menu.View())

	body := theme.Card.Width(cardWidth).Render(strings.Join(parts, "\n\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

func (c *CardScreen) question(width int) string {
	v := c.view
	done, _ := strconv.Atoi(v.Get("curr_index"))
	total, _ := strconv.Atoi(v.Get("total_count"))

	lines := []string{components.NewProgressBar("Question", done, total, width).View()}
	if secs := v.Get("remaining_seconds"); secs != "" {
		lines = append(lines, theme.Notice.Render(fmt.Sprintf("⏱ %ss left", secs)))
	}
	lines = append(lines, "", theme.Question.Width(width).Render(v.Get("question_stem")), "")
	for _, l := range curriculum.Letters {
		opt := v.Get("opt_" + strings.ToLower(l))
		if opt == "" {
			continue
		}
		lines = append(lines, theme.Body.Render(fmt.Sprintf("%s) %s", l, opt)))
	}
	return strings.Join(lines, "\n")
}

func (c *CardScreen) verdict() string {
	switch c.view.Get("is_correct") {
	case "true":
		return theme.Correct.Render("Correct!")
	case "false":
		return theme.Incorrect.Render(fmt.Sprintf("Not quite. The answer was %s.", c.view.Get("correct_answer")))
	}
	return ""
}

func (c *CardScreen) vars() string {
	lines := make([]string, 0, len(c.view.Vars))
	for _, kv := range c.view.Vars {
		if questionKeys[kv.Key] || kv.Key == "is_correct" || kv.Value == "" {
			continue
		}
		style := theme.Body
		if kv.Value == "locked" {
			style = theme.Locked
		}
		lines = append(lines, theme.Hint.Render(label(kv.Key)+": ")+style.Render(kv.Value))
	}
	return strings.Join(lines, "\n")
}

func label(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

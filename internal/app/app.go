package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cassini/internal/dispatch"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/present"
	"github.com/abhisek/cassini/internal/screens/card"
	"github.com/abhisek/cassini/internal/ui/components"
	"github.com/abhisek/cassini/internal/ui/layout"
	"github.com/abhisek/cassini/internal/ui/theme"
)

// Client handles callbacks for one learner. *dispatch.Dispatcher
// satisfies it.
type Client interface {
	Handle(ctx context.Context, req dispatch.Request) (present.View, error)
	Current(ctx context.Context, userID int64, name string) (present.View, error)
}

// Options configures a terminal session.
type Options struct {
	UserID int64
	Name   string
	Client Client

	// Tick is how often running games are checked for expiry.
	Tick time.Duration
}

// viewMsg carries a freshly rendered view.
type viewMsg struct {
	View present.View
	Err  error
}

// tickMsg drives game timers.
type tickMsg time.Time

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts   Options
	card   *card.CardScreen
	msgID  int64
	xp     int
	streak int
	err    error
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	return AppModel{opts: opts}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

func (m AppModel) load() tea.Cmd {
	return func() tea.Msg {
		v, err := m.opts.Client.Current(context.Background(), m.opts.UserID, m.opts.Name)
		return viewMsg{View: v, Err: err}
	}
}

func (m *AppModel) send(data string) tea.Cmd {
	m.msgID++
	req := dispatch.Request{UserID: m.opts.UserID, Name: m.opts.Name, Data: data, MessageID: m.msgID}
	client := m.opts.Client
	return func() tea.Msg {
		v, err := client.Handle(context.Background(), req)
		return viewMsg{View: v, Err: err}
	}
}

func (m AppModel) tick() tea.Cmd {
	return tea.Tick(m.opts.Tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, m.send(nav.Back())
		}

	case components.SelectMsg:
		return m, m.send(msg.Data)

	case viewMsg:
		return m.apply(msg)

	case tickMsg:
		if m.card != nil && m.card.Current().Screen == nav.GamePresent {
			return m, tea.Batch(m.send(nav.Act("GAME", "CHECK")), m.tick())
		}
		return m, m.tick()
	}

	if m.card == nil {
		return m, nil
	}
	_, cmd := m.card.Update(msg)
	return m, cmd
}

func (m AppModel) apply(msg viewMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.err = msg.Err
		return m, nil
	}
	m.err = nil
	v := msg.View
	if xp, err := strconv.Atoi(v.Get("total_xp")); err == nil {
		m.xp = xp
		m.streak, _ = strconv.Atoi(v.Get("streak"))
	}
	if m.card == nil {
		m.card = card.New(v)
		return m, m.card.Init()
	}
	m.card.Refresh(v)
	return m, nil
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	title := "Loading"
	footerHints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if m.card != nil {
		title = m.card.Title()
		footerHints = m.card.KeyHints()
	}

	header := layout.RenderHeader(layout.Status{Title: title, XP: m.xp, Streak: m.streak}, m.width)
	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	var content string
	switch {
	case m.err != nil:
		content = theme.Incorrect.Render(fmt.Sprintf("  %v", m.err))
	case m.card != nil:
		content = m.card.View(m.width, contentHeight)
	}
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}

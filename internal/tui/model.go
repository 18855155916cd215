// Package tui is the terminal dashboard: world clocks and market cards that
// refresh once per tick, with search, country and status filters and a
// persisted light/dark theme.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"marketclock/internal/calendar"
	"marketclock/internal/dashboard"
	"marketclock/internal/domain"
	"marketclock/internal/market"
	"marketclock/internal/store"
)

// Options configures a Model.
type Options struct {
	Registry *market.Registry
	Prefs    store.PreferenceStore // nil: theme changes are not persisted
	Theme    store.Theme
	Clock    calendar.Clock // nil: system clock
	Interval time.Duration  // zero means 1s
	Logger   *slog.Logger
}

// Messages.
type tickMsg time.Time

type themeSavedMsg struct {
	theme store.Theme
	err   error
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	reg      *market.Registry
	prefs    store.PreferenceStore
	clock    calendar.Clock
	interval time.Duration
	logger   *slog.Logger

	theme store.Theme
	st    styles

	filter     dashboard.Filter
	countryIdx int // 0 = all countries
	search     textinput.Model
	searching  bool

	snap     dashboard.Snapshot
	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

// New builds the initial model and computes its first snapshot.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "输入股市名称..."
	ti.Prompt = ""
	ti.CharLimit = 64
	ti.Width = 20

	m := Model{
		reg:      opts.Registry,
		prefs:    opts.Prefs,
		clock:    opts.Clock,
		interval: opts.Interval,
		logger:   opts.Logger,
		theme:    opts.Theme,
		search:   ti,
		filter:   dashboard.Filter{Status: domain.StatusAll},
	}
	if m.clock == nil {
		m.clock = calendar.SystemClock{}
	}
	if m.interval <= 0 {
		m.interval = time.Second
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.theme == "" {
		m.theme = store.ThemeLight
	}
	m.st = newStyles(m.theme)
	m.refresh()
	return m
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.interval)
}

// Update handles keys, resizes, ticks and theme persistence results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "/":
			m.searching = true
			cmd = m.search.Focus()
			return m, cmd
		case "c":
			countries := m.reg.Countries()
			m.countryIdx = (m.countryIdx + 1) % (len(countries) + 1)
			m.filter.Country = ""
			if m.countryIdx > 0 {
				m.filter.Country = countries[m.countryIdx-1]
			}
			m.refresh()
			m.viewport.GotoTop()
			return m, nil
		case "s":
			m.filter.Status = m.filter.Status.Next()
			m.refresh()
			m.viewport.GotoTop()
			return m, nil
		case "x":
			m.search.SetValue("")
			m.countryIdx = 0
			m.filter = dashboard.Filter{Status: domain.StatusAll}
			m.refresh()
			return m, nil
		case "t":
			cmd = m.toggleTheme()
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerH := 3
		footerH := 1
		vpHeight := m.height - headerH - footerH
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tickCmd(m.interval)

	case themeSavedMsg:
		if msg.err != nil {
			m.logger.Warn("saving theme", "error", msg.err)
			return m, nil
		}
		m.setTheme(msg.theme)
		m.logger.Info("theme toggled", "theme", msg.theme)
		return m, nil
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != m.filter.Search {
		m.filter.Search = v
		m.refresh()
		m.viewport.GotoTop()
	}
	return m, cmd
}

// toggleTheme flips the theme, persisting it when a store is configured.
func (m *Model) toggleTheme() tea.Cmd {
	if m.prefs == nil {
		m.setTheme(m.theme.Toggle())
		return nil
	}
	prefs, cur := m.prefs, m.theme
	return func() tea.Msg {
		t, err := prefs.ToggleTheme(context.Background(), cur)
		return themeSavedMsg{theme: t, err: err}
	}
}

func (m *Model) setTheme(t store.Theme) {
	m.theme = t
	m.st = newStyles(t)
	if m.ready {
		m.viewport.SetContent(m.renderContent())
	}
}

// refresh recomputes the snapshot for the current instant and filter.
func (m *Model) refresh() {
	m.snap = dashboard.Build(m.clock.Now(), m.reg, m.filter)
	if m.ready {
		m.viewport.SetContent(m.renderContent())
	}
}

// Snapshot returns the snapshot currently on screen.
func (m Model) Snapshot() dashboard.Snapshot { return m.snap }

// Theme returns the active theme.
func (m Model) Theme() store.Theme { return m.theme }

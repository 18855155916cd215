package tui

import (
	"github.com/charmbracelet/lipgloss"

	"marketclock/internal/domain"
	"marketclock/internal/store"
)

// styles holds every lipgloss style for one theme.
type styles struct {
	header   lipgloss.Style
	subtitle lipgloss.Style
	section  lipgloss.Style
	clock    lipgloss.Style
	clockLbl lipgloss.Style
	card     lipgloss.Style
	cardName lipgloss.Style
	badgeOn  lipgloss.Style
	badgeOff lipgloss.Style
	dim      lipgloss.Style
	mono     lipgloss.Style
	filter   lipgloss.Style
	active   lipgloss.Style
	empty    lipgloss.Style
	footer   lipgloss.Style
}

type palette struct {
	fg, dim, border, accent, accentFg, headerBg, footerBg lipgloss.Color
}

var (
	lightPalette = palette{
		fg: "0", dim: "244", border: "250", accent: "0", accentFg: "15",
		headerBg: "254", footerBg: "252",
	}
	darkPalette = palette{
		fg: "15", dim: "245", border: "239", accent: "15", accentFg: "0",
		headerBg: "236", footerBg: "238",
	}
)

func newStyles(t store.Theme) styles {
	p := lightPalette
	if t == store.ThemeDark {
		p = darkPalette
	}
	return styles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(p.fg).Background(p.headerBg),
		subtitle: lipgloss.NewStyle().Foreground(p.dim),
		section:  lipgloss.NewStyle().Bold(true).Foreground(p.fg).MarginTop(1),
		clock:    lipgloss.NewStyle().Bold(true).Foreground(p.fg),
		clockLbl: lipgloss.NewStyle().Foreground(p.dim),
		card: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		cardName: lipgloss.NewStyle().Foreground(p.fg),
		badgeOn:  lipgloss.NewStyle().Foreground(p.accentFg).Background(p.accent).Padding(0, 1),
		badgeOff: lipgloss.NewStyle().Foreground(p.dim).Padding(0, 1),
		dim:      lipgloss.NewStyle().Foreground(p.dim),
		mono:     lipgloss.NewStyle().Bold(true).Foreground(p.fg),
		filter:   lipgloss.NewStyle().Foreground(p.dim),
		active:   lipgloss.NewStyle().Bold(true).Foreground(p.fg).Underline(true),
		empty:    lipgloss.NewStyle().Foreground(p.dim).Padding(2, 0),
		footer:   lipgloss.NewStyle().Foreground(p.fg).Background(p.footerBg),
	}
}

// badge renders a state label: filled while any session is running.
func (s styles) badge(state domain.SessionState) string {
	if state.Trading() {
		return s.badgeOn.Render(state.Label())
	}
	return s.badgeOff.Render(state.Label())
}

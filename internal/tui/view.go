package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"marketclock/internal/dashboard"
)

const (
	cardWidth  = 40 // inner width, border excluded
	clockWidth = 12
	helpText   = " / 搜索  c 国家  s 状态  x 清除  t 主题  ↑/↓ 滚动  q 退出"
)

// View renders the header, the scrolling body and the footer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.renderHeader() + "\n" + m.viewport.View() + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	title := m.st.header.Width(m.width).MaxHeight(1).
		Render(" " + dashboard.Title + "  " + m.st.subtitle.Render(dashboard.Subtitle))

	search := m.search.View()
	if !m.searching && m.search.Value() == "" {
		search = m.st.dim.Render("(/)")
	}
	country := dashboard.AllCountries
	if m.filter.Country != "" {
		country = m.filter.Country
	}
	filters := fmt.Sprintf(" 搜索股市: %s   国家/地区: %s   交易状态: %s   %s",
		search,
		m.st.active.Render(country),
		m.st.active.Render(m.filter.Status.Label()),
		m.st.dim.Render("t "+m.theme.Label()),
	)
	filterBar := lipgloss.NewStyle().Width(m.width).MaxHeight(1).Render(filters)

	return title + "\n" + filterBar + "\n"
}

func (m Model) renderFooter() string {
	pct := fmt.Sprintf("%.0f%% ", m.viewport.ScrollPercent()*100)
	gap := m.width - lipgloss.Width(helpText) - lipgloss.Width(pct)
	if gap < 0 {
		gap = 0
	}
	return m.st.footer.Width(m.width).MaxHeight(1).
		Render(helpText + strings.Repeat(" ", gap) + pct)
}

// renderContent builds the scrollable body: world clocks, then market cards.
func (m Model) renderContent() string {
	var b strings.Builder

	b.WriteString(m.st.section.Render(dashboard.ClocksHeading))
	b.WriteString("\n")
	tiles := make([]string, len(m.snap.Clocks))
	for i, c := range m.snap.Clocks {
		tiles[i] = lipgloss.NewStyle().Width(clockWidth).Render(
			m.st.clockLbl.Render(c.Label) + "\n" + m.st.clock.Render(c.Time))
	}
	b.WriteString(grid(tiles, max(1, m.width/clockWidth)))
	b.WriteString("\n")

	b.WriteString(m.st.section.Render(dashboard.MarketHeading))
	b.WriteString("  ")
	b.WriteString(m.st.dim.Render(dashboard.FormatSummary(m.snap.Summary)))
	b.WriteString("\n")

	if m.snap.Empty() {
		b.WriteString(m.st.empty.Width(m.width).Align(lipgloss.Center).Render(dashboard.EmptyMessage))
		b.WriteString("\n")
		return b.String()
	}

	cards := make([]string, len(m.snap.Markets))
	for i, v := range m.snap.Markets {
		cards[i] = m.renderCard(v)
	}
	b.WriteString(grid(cards, max(1, m.width/(cardWidth+2))))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderCard(v dashboard.MarketView) string {
	var lines []string

	badge := m.st.badge(v.State)
	name := m.st.cardName.Render(v.Name)
	gap := cardWidth - 2 - lipgloss.Width(name) - lipgloss.Width(badge)
	if gap < 1 {
		gap = 1
	}
	lines = append(lines, name+strings.Repeat(" ", gap)+badge)
	lines = append(lines, m.st.dim.Render(v.Country))
	for _, h := range v.Hours {
		lines = append(lines, m.st.dim.Render(h.String()))
	}
	lines = append(lines, m.st.dim.Render(dashboard.LocalTimeText+": "+v.LocalTime))
	lines = append(lines, v.CountdownCaption+": "+m.st.mono.Render(v.CountdownText))
	if v.Description != "" {
		lines = append(lines, m.st.dim.Render(v.Description))
	}

	return m.st.card.Width(cardWidth).Render(strings.Join(lines, "\n"))
}

// grid lays blocks out left to right, cols per row.
func grid(blocks []string, cols int) string {
	var rows []string
	for i := 0; i < len(blocks); i += cols {
		end := min(i+cols, len(blocks))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, blocks[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

package dashboard

import (
	"fmt"

	"marketclock/internal/domain"
)

// Fixed display strings shared by the terminal and browser dashboards.
const (
	Title         = "世界股市时钟"
	Subtitle      = "查看世界各地股市开盘时间和当前状态"
	ClocksHeading = "世界时钟"
	MarketHeading = "股市状态"
	EmptyMessage  = "没有找到匹配的股市"
	AllCountries  = "所有国家/地区"
	LocalTimeText = "当地时间"
)

// HoursLine is one labelled session range on a market card.
type HoursLine struct {
	Label string `json:"label"`
	Range string `json:"range"`
}

// String renders "label: HH:MM - HH:MM".
func (h HoursLine) String() string {
	return h.Label + ": " + h.Range
}

// FormatHours returns the session lines shown on a market card: three lines
// when the market has extended hours, otherwise a single trading-hours line.
func FormatHours(m domain.Market) []HoursLine {
	if !m.HasExtendedHours() {
		return []HoursLine{{Label: "交易时间", Range: formatRange(m.Open, m.Close)}}
	}
	return []HoursLine{
		{Label: "盘前交易", Range: formatRange(*m.PreMarket, m.Open)},
		{Label: "正常交易", Range: formatRange(m.Open, m.Close)},
		{Label: "盘后交易", Range: formatRange(m.Close, *m.AfterMarket)},
	}
}

func formatRange(from, to domain.TimeOfDay) string {
	return fmt.Sprintf("%s - %s", from, to)
}

// CountdownCaption returns the caption shown before a countdown value.
func CountdownCaption(s domain.SessionState) string {
	switch s {
	case domain.SessionOpen:
		return "距离收盘还有"
	case domain.SessionAfterHours:
		return "距离盘后结束还有"
	default:
		return "距离开盘还有"
	}
}

// FormatSummary renders the one-line state tally shown under the market
// heading, e.g. "共 10 个 · 交易中 3 · 盘前 1 · 盘后 0 · 已收盘 6".
func FormatSummary(s Summary) string {
	return fmt.Sprintf("共 %d 个 · 交易中 %d · 盘前 %d · 盘后 %d · 已收盘 %d",
		s.Total, s.Open, s.PreMarket, s.AfterHours, s.Closed)
}

package dashboard

import (
	"strings"
	"time"

	"marketclock/internal/calendar"
	"marketclock/internal/domain"
)

// Filter narrows the market list. The zero value matches every market.
type Filter struct {
	Search  string              `json:"search"`
	Country string              `json:"country"`
	Status  domain.StatusFilter `json:"status"`
}

// ParseFilter builds a Filter from raw user input, rejecting unknown status
// values.
func ParseFilter(search, country, status string) (Filter, error) {
	st, err := domain.ParseStatusFilter(status)
	if err != nil {
		return Filter{}, err
	}
	return Filter{
		Search:  strings.TrimSpace(search),
		Country: country,
		Status:  st,
	}, nil
}

// IsZero reports whether f matches everything.
func (f Filter) IsZero() bool {
	return f.Search == "" && f.Country == "" && (f.Status == "" || f.Status == domain.StatusAll)
}

// Matches reports whether m passes every criterion of f at instant now.
func (f Filter) Matches(m domain.Market, now time.Time) bool {
	return f.matches(calendar.NewTradingCalendar(m), now)
}

func (f Filter) matches(cal *calendar.TradingCalendar, now time.Time) bool {
	m := cal.Market()
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(m.Name), q) &&
			!strings.Contains(strings.ToLower(m.Country), q) {
			return false
		}
	}

	if f.Country != "" && m.Country != f.Country {
		return false
	}

	switch f.Status {
	case domain.StatusOpen:
		return cal.IsMarketOpen(now)
	case domain.StatusClosed:
		return !cal.IsMarketOpen(now)
	}
	return true
}

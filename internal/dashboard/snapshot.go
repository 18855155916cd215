// Package dashboard turns the market registry into render-ready views for a
// single instant. Both the terminal and the browser dashboards consume the
// same Snapshot so their contents never diverge.
package dashboard

import (
	"time"

	"marketclock/internal/calendar"
	"marketclock/internal/domain"
	"marketclock/internal/market"
)

// ClockView is one world-clock tile.
type ClockView struct {
	Label    string `json:"label"`
	Timezone string `json:"timezone"`
	Time     string `json:"time"`
}

// MarketView is one market card.
type MarketView struct {
	Name        string `json:"name"`
	Country     string `json:"country"`
	Timezone    string `json:"timezone"`
	Description string `json:"description,omitempty"`

	State      domain.SessionState `json:"state"`
	StateLabel string              `json:"stateLabel"`
	Trading    bool                `json:"trading"` // coarse open/closed view used by Filter

	LocalTime string      `json:"localTime"`
	Hours     []HoursLine `json:"hours"`

	Countdown        calendar.Countdown `json:"countdown"`
	CountdownText    string             `json:"countdownText"`
	CountdownCaption string             `json:"countdownCaption"`
}

// Summary tallies the session states of the visible markets.
type Summary struct {
	Total      int `json:"total"`
	PreMarket  int `json:"preMarket"`
	Open       int `json:"open"`
	AfterHours int `json:"afterHours"`
	Closed     int `json:"closed"`
}

func (s *Summary) add(state domain.SessionState) {
	s.Total++
	switch state {
	case domain.SessionPreMarket:
		s.PreMarket++
	case domain.SessionOpen:
		s.Open++
	case domain.SessionAfterHours:
		s.AfterHours++
	default:
		s.Closed++
	}
}

// Snapshot is the full dashboard state at one instant.
type Snapshot struct {
	At        time.Time    `json:"at"`
	Clocks    []ClockView  `json:"clocks"`
	Markets   []MarketView `json:"markets"`
	Countries []string     `json:"countries"`
	Filter    Filter       `json:"filter"`
	Summary   Summary      `json:"summary"`
}

// Empty reports whether the filter removed every market.
func (s Snapshot) Empty() bool { return len(s.Markets) == 0 }

// Build computes the snapshot of reg at now with f applied to the market
// list. Clocks and countries are never filtered.
func Build(now time.Time, reg *market.Registry, f Filter) Snapshot {
	cals := reg.Calendars()
	snap := Snapshot{
		At:        now,
		Clocks:    BuildClocks(now, reg.Timezones()),
		Markets:   make([]MarketView, 0, len(cals)),
		Countries: reg.Countries(),
		Filter:    f,
	}
	for _, cal := range cals {
		if !f.matches(cal, now) {
			continue
		}
		v := BuildMarket(now, cal)
		snap.Summary.add(v.State)
		snap.Markets = append(snap.Markets, v)
	}
	return snap
}

// BuildClocks renders the world-clock tiles.
func BuildClocks(now time.Time, zones []domain.TimezoneEntry) []ClockView {
	out := make([]ClockView, len(zones))
	for i, z := range zones {
		out[i] = ClockView{
			Label:    z.Label,
			Timezone: z.Timezone,
			Time:     calendar.FormatLocalTime(now, z.Timezone),
		}
	}
	return out
}

// BuildMarket renders one market card.
func BuildMarket(now time.Time, cal *calendar.TradingCalendar) MarketView {
	m := cal.Market()
	state := cal.State(now)
	cd := cal.Countdown(now, state)
	return MarketView{
		Name:             m.Name,
		Country:          m.Country,
		Timezone:         m.Timezone,
		Description:      m.Description,
		State:            state,
		StateLabel:       state.Label(),
		Trading:          cal.IsMarketOpen(now),
		LocalTime:        calendar.FormatLocalDateTime(now, m.Timezone),
		Hours:            FormatHours(m),
		Countdown:        cd,
		CountdownText:    cd.String(),
		CountdownCaption: CountdownCaption(state),
	}
}

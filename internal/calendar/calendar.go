// Package calendar provides market-hours awareness: session classification,
// countdowns to the next session boundary, and zone-aware clock formatting.
//
// Every exported operation is total. Time-zone resolution failures degrade
// to fixed fallbacks (SessionClosed, Placeholder) instead of surfacing errors
// to the presentation layer. Holidays are not modelled.
package calendar

import (
	"errors"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // Embedded zone database.

	"marketclock/internal/domain"
)

const secondsPerDay = 24 * 60 * 60

// ErrNoTradingDays is returned when a market has an empty weekday set and no
// next open can be located.
var ErrNoTradingDays = errors.New("market has no trading weekdays")

var zones sync.Map // name -> *time.Location

// LoadLocation resolves an IANA zone name, caching successful lookups.
func LoadLocation(name string) (*time.Location, error) {
	if loc, ok := zones.Load(name); ok {
		return loc.(*time.Location), nil
	}
	if name == "" {
		return nil, fmt.Errorf("empty time zone")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", name, err)
	}
	zones.Store(name, loc)
	return loc, nil
}

// TradingCalendar provides market-hours awareness for a specific market.
type TradingCalendar struct {
	market domain.Market
	loc    *time.Location
	err    error
}

// NewTradingCalendar creates a TradingCalendar for the given market. A zone
// that cannot be resolved is remembered and reported by Err; the calendar
// still answers every query with its fallback values.
func NewTradingCalendar(market domain.Market) *TradingCalendar {
	loc, err := LoadLocation(market.Timezone)
	return &TradingCalendar{
		market: market,
		loc:    loc,
		err:    err,
	}
}

// Market returns the market this calendar was built for.
func (tc *TradingCalendar) Market() domain.Market {
	return tc.market
}

// Err returns the zone resolution error, if any.
func (tc *TradingCalendar) Err() error {
	return tc.err
}

// Local converts t to the market's wall clock.
func (tc *TradingCalendar) Local(t time.Time) (time.Time, error) {
	if tc.err != nil {
		return time.Time{}, tc.err
	}
	return t.In(tc.loc), nil
}

// State returns the session state of the market at t. It returns
// SessionClosed when the market's zone cannot be resolved.
func (tc *TradingCalendar) State(t time.Time) domain.SessionState {
	s, err := tc.StateErr(t)
	if err != nil {
		return domain.SessionClosed
	}
	return s
}

// StateErr is State with the resolution error exposed.
func (tc *TradingCalendar) StateErr(t time.Time) (domain.SessionState, error) {
	local, err := tc.Local(t)
	if err != nil {
		return domain.SessionClosed, err
	}
	return stateAt(tc.market, int(local.Weekday()), minuteOfDay(local)), nil
}

// stateAt classifies a local weekday and minute-of-day. Bounds are lower
// inclusive and upper exclusive.
func stateAt(m domain.Market, weekday, cur int) domain.SessionState {
	if !m.TradesOn(weekday) {
		return domain.SessionClosed
	}

	openAt, closeAt := int(m.Open), int(m.Close)
	if m.HasExtendedHours() {
		pre, after := int(*m.PreMarket), int(*m.AfterMarket)
		switch {
		case cur >= pre && cur < openAt:
			return domain.SessionPreMarket
		case cur >= openAt && cur < closeAt:
			return domain.SessionOpen
		case cur >= closeAt && cur < after:
			return domain.SessionAfterHours
		default:
			return domain.SessionClosed
		}
	}

	if cur >= openAt && cur < closeAt {
		return domain.SessionOpen
	}
	return domain.SessionClosed
}

// IsMarketOpen returns the coarse open/closed view used for list filtering:
// open from the first session start (pre-market or open) up to the last
// session end (after-hours end or close) on a trading weekday. Extended
// sessions therefore count as open here, unlike State.
func (tc *TradingCalendar) IsMarketOpen(t time.Time) bool {
	local, err := tc.Local(t)
	if err != nil {
		return false
	}
	if !tc.market.TradesOn(int(local.Weekday())) {
		return false
	}
	cur := minuteOfDay(local)
	return cur >= int(tc.market.SessionStart()) && cur < int(tc.market.SessionEnd())
}

// Classify is a convenience wrapper around NewTradingCalendar(m).State(t).
func Classify(t time.Time, m domain.Market) domain.SessionState {
	return NewTradingCalendar(m).State(t)
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

package calendar

import (
	"fmt"
	"time"

	"marketclock/internal/domain"
)

// Placeholder is shown in place of a countdown or clock that could not be
// computed.
const Placeholder = "--:--:--"

// Countdown is the time remaining until a market's next session boundary.
// Exactly one form is meaningful: Unknown, DaysUntilOpen > 0 (the next open
// is on a later day), or the same-day Hours/Minutes/Seconds.
type Countdown struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`

	DaysUntilOpen int  `json:"daysUntilOpen,omitempty"`
	Unknown       bool `json:"unknown,omitempty"`
}

// Remaining returns the same-day countdown as a duration. It is zero for
// day-based and unknown countdowns.
func (c Countdown) Remaining() time.Duration {
	if c.Unknown || c.DaysUntilOpen > 0 {
		return 0
	}
	return time.Duration(c.Hours)*time.Hour +
		time.Duration(c.Minutes)*time.Minute +
		time.Duration(c.Seconds)*time.Second
}

// String renders "HH:MM:SS", "N天后开盘", or Placeholder.
func (c Countdown) String() string {
	switch {
	case c.Unknown:
		return Placeholder
	case c.DaysUntilOpen > 0:
		return fmt.Sprintf("%d天后开盘", c.DaysUntilOpen)
	default:
		return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
	}
}

func countdownFromSeconds(s int) Countdown {
	return Countdown{
		Hours:   s / 3600,
		Minutes: (s % 3600) / 60,
		Seconds: s % 60,
	}
}

// Countdown returns the time until the boundary that ends state at t:
//
//	pre-market  -> regular open
//	open        -> regular close
//	after-hours -> after-hours end (close when unset)
//	closed      -> today's first session start if still ahead, otherwise the
//	               number of days until the next trading weekday
//
// Unresolvable zones and markets without trading days yield an Unknown
// countdown.
func (tc *TradingCalendar) Countdown(t time.Time, state domain.SessionState) Countdown {
	c, err := tc.CountdownErr(t, state)
	if err != nil {
		return Countdown{Unknown: true}
	}
	return c
}

// CountdownErr is Countdown with the failure exposed.
func (tc *TradingCalendar) CountdownErr(t time.Time, state domain.SessionState) (Countdown, error) {
	local, err := tc.Local(t)
	if err != nil {
		return Countdown{Unknown: true}, err
	}

	m := tc.market
	var target domain.TimeOfDay
	switch state {
	case domain.SessionPreMarket:
		target = m.Open
	case domain.SessionOpen:
		target = m.Close
	case domain.SessionAfterHours:
		target = m.Close
		if m.AfterMarket != nil {
			target = *m.AfterMarket
		}
	default:
		weekday := int(local.Weekday())
		start := m.SessionStart()
		if m.TradesOn(weekday) && minuteOfDay(local) < int(start) {
			target = start
			break
		}
		days, ok := daysUntilTradingDay(m, weekday)
		if !ok {
			return Countdown{Unknown: true}, ErrNoTradingDays
		}
		return Countdown{DaysUntilOpen: days}, nil
	}

	remaining := target.Seconds() - secondOfDay(local)
	if remaining < 0 {
		remaining += secondsPerDay
	}
	return countdownFromSeconds(remaining), nil
}

// daysUntilTradingDay scans forward from the day after weekday, wrapping
// around the week, and returns the distance to the first trading day. A
// market trading only on weekday itself yields 7.
func daysUntilTradingDay(m domain.Market, weekday int) (int, bool) {
	for d := 1; d <= 7; d++ {
		if m.TradesOn((weekday + d) % 7) {
			return d, true
		}
	}
	return 0, false
}

// CountdownTo is a convenience wrapper around
// NewTradingCalendar(m).Countdown(t, state).
func CountdownTo(t time.Time, m domain.Market, state domain.SessionState) Countdown {
	return NewTradingCalendar(m).Countdown(t, state)
}

package domain

import "fmt"

// SessionState is the trading state of a market at an instant.
type SessionState string

const (
	SessionPreMarket  SessionState = "pre-market"
	SessionOpen       SessionState = "open"
	SessionAfterHours SessionState = "after-hours"
	SessionClosed     SessionState = "closed"
)

// Label returns the display text for the state.
func (s SessionState) Label() string {
	switch s {
	case SessionPreMarket:
		return "盘前交易"
	case SessionOpen:
		return "交易中"
	case SessionAfterHours:
		return "盘后交易"
	default:
		return "已收盘"
	}
}

// Trading reports whether the state is any non-closed session.
func (s SessionState) Trading() bool {
	return s == SessionPreMarket || s == SessionOpen || s == SessionAfterHours
}

// StatusFilter is the coarse open/closed filter applied to the market list.
// It folds pre-market and after-hours into "open".
type StatusFilter string

const (
	StatusAll    StatusFilter = "all"
	StatusOpen   StatusFilter = "open"
	StatusClosed StatusFilter = "closed"
)

// ParseStatusFilter maps a user-supplied value to a StatusFilter. The empty
// string means StatusAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusOpen:
		return StatusOpen, nil
	case StatusClosed:
		return StatusClosed, nil
	}
	return "", fmt.Errorf("unknown status filter %q", s)
}

// Label returns the display text for the filter option.
func (f StatusFilter) Label() string {
	switch f {
	case StatusOpen:
		return "交易中"
	case StatusClosed:
		return "已收盘"
	default:
		return "所有状态"
	}
}

// Next cycles all -> open -> closed -> all.
func (f StatusFilter) Next() StatusFilter {
	switch f {
	case StatusAll, "":
		return StatusOpen
	case StatusOpen:
		return StatusClosed
	default:
		return StatusAll
	}
}

// Package domain defines the core types shared across marketclock: exchange
// records, session states and world-clock entries.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the number of minutes in a wall-clock day.
const MinutesPerDay = 24 * 60

// TimeOfDay is a local wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses a 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustTimeOfDay is like ParseTimeOfDay but panics on error. It is intended
// for static tables only.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Seconds returns the offset from midnight in seconds.
func (t TimeOfDay) Seconds() int { return int(t) * 60 }

// String formats t as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Market is a static exchange record. Values are never mutated after the
// registry is loaded.
type Market struct {
	Name     string    `yaml:"name" json:"name"`
	Country  string    `yaml:"country" json:"country"`
	Timezone string    `yaml:"timezone" json:"timezone"`
	Open     TimeOfDay `yaml:"opening_time" json:"openingTime"`
	Close    TimeOfDay `yaml:"closing_time" json:"closingTime"`

	// Extended hours apply only when both are set.
	PreMarket   *TimeOfDay `yaml:"pre_market_time,omitempty" json:"preMarketTime,omitempty"`
	AfterMarket *TimeOfDay `yaml:"after_market_time,omitempty" json:"afterMarketTime,omitempty"`

	Weekdays    []int  `yaml:"weekdays" json:"weekdays"` // 0 = Sunday
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// HasExtendedHours reports whether both pre-market and after-hours bounds
// are defined.
func (m Market) HasExtendedHours() bool {
	return m.PreMarket != nil && m.AfterMarket != nil
}

// TradesOn reports whether weekday (0 = Sunday) is a trading day.
func (m Market) TradesOn(weekday int) bool {
	for _, d := range m.Weekdays {
		if d == weekday {
			return true
		}
	}
	return false
}

// SessionStart returns the first boundary of the trading day: pre-market
// when extended hours exist, otherwise the regular open.
func (m Market) SessionStart() TimeOfDay {
	if m.HasExtendedHours() {
		return *m.PreMarket
	}
	return m.Open
}

// SessionEnd returns the last boundary of the trading day: the after-hours
// end when extended hours exist, otherwise the regular close.
func (m Market) SessionEnd() TimeOfDay {
	if m.HasExtendedHours() {
		return *m.AfterMarket
	}
	return m.Close
}

// TimezoneEntry is a labelled zone shown on the world-clock panel.
type TimezoneEntry struct {
	Label    string `yaml:"label" json:"label"`
	Timezone string `yaml:"timezone" json:"timezone"`
}

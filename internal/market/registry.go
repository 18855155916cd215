// Package market holds the static registry of exchanges and world-clock
// zones. A Registry is built once at startup and never mutated, so it is
// safe to share between goroutines without locking.
package market

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"marketclock/internal/calendar"
	"marketclock/internal/domain"
)

var (
	// ErrInvalidMarket wraps every registry validation failure.
	ErrInvalidMarket = errors.New("invalid market")

	// ErrNotFound is returned when a market name is not in the registry.
	ErrNotFound = errors.New("market not found")
)

// Registry is an ordered, read-only set of markets and world-clock zones.
type Registry struct {
	markets   []domain.Market
	calendars []*calendar.TradingCalendar
	timezones []domain.TimezoneEntry
	byName    map[string]int
	countries []string
}

// New validates markets and timezones and builds a Registry.
func New(markets []domain.Market, timezones []domain.TimezoneEntry) (*Registry, error) {
	r := &Registry{
		markets:   make([]domain.Market, 0, len(markets)),
		calendars: make([]*calendar.TradingCalendar, 0, len(markets)),
		timezones: slices.Clone(timezones),
		byName:    make(map[string]int, len(markets)),
	}

	seenCountry := make(map[string]bool)
	for i, m := range markets {
		if err := Validate(m); err != nil {
			return nil, fmt.Errorf("market %d: %w", i, err)
		}
		if _, dup := r.byName[m.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidMarket, m.Name)
		}
		m.Weekdays = slices.Clone(m.Weekdays)
		r.byName[m.Name] = len(r.markets)
		r.markets = append(r.markets, m)
		r.calendars = append(r.calendars, calendar.NewTradingCalendar(m))
		if !seenCountry[m.Country] {
			seenCountry[m.Country] = true
			r.countries = append(r.countries, m.Country)
		}
	}

	for i, tz := range r.timezones {
		if tz.Label == "" {
			return nil, fmt.Errorf("timezone %d: label is required", i)
		}
		if _, err := calendar.LoadLocation(tz.Timezone); err != nil {
			return nil, fmt.Errorf("timezone %q: %w", tz.Label, err)
		}
	}

	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := New(defaultMarkets(), defaultTimezones())
	if err != nil {
		panic(fmt.Sprintf("built-in market registry is invalid: %v", err))
	}
	return r
}

// registryFile is the on-disk YAML layout accepted by LoadFile.
type registryFile struct {
	Markets   []domain.Market        `yaml:"markets"`
	Timezones []domain.TimezoneEntry `yaml:"timezones"`
}

// LoadFile reads a YAML registry. Sections that are absent fall back to the
// built-in markets or world clocks.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading market registry: %w", err)
	}

	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing market registry %s: %w", path, err)
	}
	if len(f.Markets) == 0 {
		f.Markets = defaultMarkets()
	}
	if len(f.Timezones) == 0 {
		f.Timezones = defaultTimezones()
	}
	return New(f.Markets, f.Timezones)
}

// Validate checks a market record against the registry invariants: the
// regular session is non-empty, extended hours (when both bounds are
// given) enclose it, weekdays are in 0..6 and the zone resolves.
func Validate(m domain.Market) error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMarket)
	}
	if m.Open < 0 || m.Close > domain.MinutesPerDay || m.Open >= m.Close {
		return fmt.Errorf("%w: %s: opening time %s must be before closing time %s",
			ErrInvalidMarket, m.Name, m.Open, m.Close)
	}
	if m.HasExtendedHours() {
		if *m.PreMarket > m.Open {
			return fmt.Errorf("%w: %s: pre-market %s after open %s",
				ErrInvalidMarket, m.Name, *m.PreMarket, m.Open)
		}
		if *m.AfterMarket < m.Close {
			return fmt.Errorf("%w: %s: after-market %s before close %s",
				ErrInvalidMarket, m.Name, *m.AfterMarket, m.Close)
		}
	}
	for _, d := range m.Weekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: %s: weekday %d out of range 0-6", ErrInvalidMarket, m.Name, d)
		}
	}
	if _, err := calendar.LoadLocation(m.Timezone); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidMarket, m.Name, err)
	}
	return nil
}

// Len returns the number of markets.
func (r *Registry) Len() int { return len(r.markets) }

// Markets returns the markets in display order.
func (r *Registry) Markets() []domain.Market {
	return slices.Clone(r.markets)
}

// Calendars returns one TradingCalendar per market, in display order.
func (r *Registry) Calendars() []*calendar.TradingCalendar {
	return slices.Clone(r.calendars)
}

// Find returns the named market.
func (r *Registry) Find(name string) (domain.Market, error) {
	i, ok := r.byName[name]
	if !ok {
		return domain.Market{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return r.markets[i], nil
}

// Calendar returns the calendar of the named market.
func (r *Registry) Calendar(name string) (*calendar.TradingCalendar, error) {
	i, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return r.calendars[i], nil
}

// Timezones returns the world-clock entries in display order.
func (r *Registry) Timezones() []domain.TimezoneEntry {
	return slices.Clone(r.timezones)
}

// Countries returns the distinct market countries in first-seen order.
func (r *Registry) Countries() []string {
	return slices.Clone(r.countries)
}

package calendar

import (
	"testing"
	"time"

	"marketclock/internal/domain"
)

func tod(s string) *domain.TimeOfDay {
	t := domain.MustTimeOfDay(s)
	return &t
}

var weekdaysMonFri = []int{1, 2, 3, 4, 5}

func nyse() domain.Market {
	return domain.Market{
		Name:        "NYSE",
		Country:     "US",
		Timezone:    "America/New_York",
		Open:        domain.MustTimeOfDay("09:30"),
		Close:       domain.MustTimeOfDay("16:00"),
		PreMarket:   tod("04:00"),
		AfterMarket: tod("20:00"),
		Weekdays:    weekdaysMonFri,
	}
}

func sse() domain.Market {
	return domain.Market{
		Name:     "SSE",
		Country:  "CN",
		Timezone: "Asia/Shanghai",
		Open:     domain.MustTimeOfDay("09:30"),
		Close:    domain.MustTimeOfDay("15:00"),
		Weekdays: weekdaysMonFri,
	}
}

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q): %v", name, err)
	}
	return loc
}

func TestNYSEOpenTuesdayMorning(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	now := time.Date(2025, 1, 7, 10, 15, 0, 0, ny) // Tuesday

	cal := NewTradingCalendar(nyse())
	state := cal.State(now)
	if state != domain.SessionOpen {
		t.Fatalf("State() = %q, want %q", state, domain.SessionOpen)
	}
	cd := cal.Countdown(now, state)
	if got := cd.String(); got != "05:45:00" {
		t.Errorf("Countdown() = %q, want %q", got, "05:45:00")
	}
	if cd.Remaining() != 5*time.Hour+45*time.Minute {
		t.Errorf("Remaining() = %v", cd.Remaining())
	}
}

func TestNYSEClosedFridayNight(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	now := time.Date(2025, 1, 10, 21, 0, 0, 0, ny) // Friday

	state := Classify(now, nyse())
	if state != domain.SessionClosed {
		t.Fatalf("Classify() = %q, want closed", state)
	}
	cd := CountdownTo(now, nyse(), state)
	if cd.DaysUntilOpen != 3 {
		t.Errorf("DaysUntilOpen = %d, want 3", cd.DaysUntilOpen)
	}
	if cd.String() != "3天后开盘" {
		t.Errorf("String() = %q", cd.String())
	}
}

func TestWeekendScanWrapsToMonday(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"saturday noon", time.Date(2025, 1, 11, 12, 0, 0, 0, ny), 2},
		{"sunday noon", time.Date(2025, 1, 12, 12, 0, 0, 0, ny), 1},
		{"friday after close", time.Date(2025, 1, 10, 20, 0, 0, 0, ny), 3},
		{"thursday night", time.Date(2025, 1, 9, 23, 59, 59, 0, ny), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := NewTradingCalendar(nyse())
			state := cal.State(tt.now)
			if state != domain.SessionClosed {
				t.Fatalf("State() = %q, want closed", state)
			}
			if got := cal.Countdown(tt.now, state).DaysUntilOpen; got != tt.want {
				t.Errorf("DaysUntilOpen = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSSEOpeningBoundary(t *testing.T) {
	sh := mustLoc(t, "Asia/Shanghai")
	cal := NewTradingCalendar(sse())

	before := time.Date(2025, 1, 7, 9, 29, 59, 0, sh)
	if s := cal.State(before); s != domain.SessionClosed {
		t.Errorf("State(09:29:59) = %q, want closed", s)
	}
	if cd := cal.Countdown(before, domain.SessionClosed); cd.String() != "00:00:01" {
		t.Errorf("Countdown(09:29:59) = %q, want 00:00:01", cd.String())
	}

	at := time.Date(2025, 1, 7, 9, 30, 0, 0, sh)
	if s := cal.State(at); s != domain.SessionOpen {
		t.Errorf("State(09:30:00) = %q, want open", s)
	}

	closing := time.Date(2025, 1, 7, 15, 0, 0, 0, sh)
	if s := cal.State(closing); s != domain.SessionClosed {
		t.Errorf("State(15:00:00) = %q, want closed", s)
	}
	if s := cal.State(closing.Add(-time.Second)); s != domain.SessionOpen {
		t.Errorf("State(14:59:59) = %q, want open", s)
	}
}

func TestExtendedHoursBoundaries(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	cal := NewTradingCalendar(nyse())
	at := func(h, m int) time.Time { return time.Date(2025, 1, 7, h, m, 0, 0, ny) }

	tests := []struct {
		h, m int
		want domain.SessionState
	}{
		{3, 59, domain.SessionClosed},
		{4, 0, domain.SessionPreMarket},
		{9, 29, domain.SessionPreMarket},
		{9, 30, domain.SessionOpen},
		{15, 59, domain.SessionOpen},
		{16, 0, domain.SessionAfterHours},
		{19, 59, domain.SessionAfterHours},
		{20, 0, domain.SessionClosed},
		{0, 0, domain.SessionClosed},
	}
	for _, tt := range tests {
		if got := cal.State(at(tt.h, tt.m)); got != tt.want {
			t.Errorf("State(%02d:%02d) = %q, want %q", tt.h, tt.m, got, tt.want)
		}
	}
}

func TestWeekdayGateWinsOverClock(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	saturday := time.Date(2025, 1, 11, 10, 15, 0, 0, ny)
	if s := Classify(saturday, nyse()); s != domain.SessionClosed {
		t.Errorf("Classify(Saturday 10:15) = %q, want closed", s)
	}
}

func TestSessionsPartitionTradingDay(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	m := nyse()
	day := time.Date(2025, 1, 7, 0, 0, 0, 0, ny)
	counts := map[domain.SessionState]int{}

	for cur := 0; cur < domain.MinutesPerDay; cur++ {
		got := stateAt(m, 2, cur)

		var want domain.SessionState
		switch {
		case cur >= 240 && cur < 570:
			want = domain.SessionPreMarket
		case cur >= 570 && cur < 960:
			want = domain.SessionOpen
		case cur >= 960 && cur < 1200:
			want = domain.SessionAfterHours
		default:
			want = domain.SessionClosed
		}
		if got != want {
			t.Fatalf("stateAt(minute %d) = %q, want %q", cur, got, want)
		}
		counts[got]++

		// Full instant path agrees with the minute classifier.
		if s := Classify(day.Add(time.Duration(cur)*time.Minute), m); s != got {
			t.Fatalf("Classify(minute %d) = %q, stateAt = %q", cur, s, got)
		}
	}

	if counts[domain.SessionPreMarket] != 330 || counts[domain.SessionOpen] != 390 ||
		counts[domain.SessionAfterHours] != 240 || counts[domain.SessionClosed] != 480 {
		t.Errorf("unexpected partition sizes: %v", counts)
	}
}

func TestRegularOnlyMarketIsTwoState(t *testing.T) {
	m := sse()
	for cur := 0; cur < domain.MinutesPerDay; cur++ {
		got := stateAt(m, 3, cur)
		want := domain.SessionClosed
		if cur >= 570 && cur < 900 {
			want = domain.SessionOpen
		}
		if got != want {
			t.Fatalf("stateAt(minute %d) = %q, want %q", cur, got, want)
		}
	}
}

func TestCountdownTargets(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	cal := NewTradingCalendar(nyse())

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"pre-market to open", time.Date(2025, 1, 7, 8, 0, 30, 0, ny), "01:29:30"},
		{"open to close", time.Date(2025, 1, 7, 15, 59, 59, 0, ny), "00:00:01"},
		{"after-hours to end", time.Date(2025, 1, 7, 16, 0, 0, 0, ny), "04:00:00"},
		{"early morning to pre-market", time.Date(2025, 1, 7, 2, 30, 15, 0, ny), "01:29:45"},
		{"monday before pre-market", time.Date(2025, 1, 6, 0, 0, 0, 0, ny), "04:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := cal.State(tt.now)
			if got := cal.Countdown(tt.now, state).String(); got != tt.want {
				t.Errorf("Countdown(%s, %q) = %q, want %q", tt.now.Format("15:04:05"), state, got, tt.want)
			}
		})
	}
}

func TestCountdownMatchesSecondArithmetic(t *testing.T) {
	sh := mustLoc(t, "Asia/Shanghai")
	cal := NewTradingCalendar(sse())
	closeSecs := domain.MustTimeOfDay("15:00").Seconds()

	for _, now := range []time.Time{
		time.Date(2025, 1, 8, 9, 30, 0, 0, sh),
		time.Date(2025, 1, 8, 11, 7, 43, 0, sh),
		time.Date(2025, 1, 8, 14, 59, 0, 0, sh),
	} {
		cd := cal.Countdown(now, domain.SessionOpen)
		want := closeSecs - (now.Hour()*3600 + now.Minute()*60 + now.Second())
		if got := int(cd.Remaining() / time.Second); got != want {
			t.Errorf("Countdown(%s) = %ds, want %ds", now.Format("15:04:05"), got, want)
		}
	}
}

func TestClosedAfterSessionRollsToNextDay(t *testing.T) {
	sh := mustLoc(t, "Asia/Shanghai")
	now := time.Date(2025, 1, 7, 15, 30, 0, 0, sh) // Tuesday after close
	cd := CountdownTo(now, sse(), domain.SessionClosed)
	if cd.DaysUntilOpen != 1 {
		t.Errorf("DaysUntilOpen = %d, want 1", cd.DaysUntilOpen)
	}
}

func TestSingleTradingDayWrapsFullWeek(t *testing.T) {
	m := sse()
	m.Weekdays = []int{3} // Wednesday only
	sh := mustLoc(t, "Asia/Shanghai")
	now := time.Date(2025, 1, 8, 16, 0, 0, 0, sh) // Wednesday after close
	if cd := CountdownTo(now, m, domain.SessionClosed); cd.DaysUntilOpen != 7 {
		t.Errorf("DaysUntilOpen = %d, want 7", cd.DaysUntilOpen)
	}
}

func TestNoTradingDaysIsUnknown(t *testing.T) {
	m := sse()
	m.Weekdays = nil
	cal := NewTradingCalendar(m)
	now := time.Date(2025, 1, 8, 16, 0, 0, 0, time.UTC)
	if s := cal.State(now); s != domain.SessionClosed {
		t.Errorf("State() = %q, want closed", s)
	}
	cd, err := cal.CountdownErr(now, domain.SessionClosed)
	if err != ErrNoTradingDays {
		t.Errorf("CountdownErr() error = %v, want ErrNoTradingDays", err)
	}
	if !cd.Unknown || cd.String() != Placeholder {
		t.Errorf("countdown = %+v, want unknown", cd)
	}
}

func TestInvalidZoneFailsClosed(t *testing.T) {
	m := nyse()
	m.Timezone = "Mars/Olympus_Mons"
	cal := NewTradingCalendar(m)
	if cal.Err() == nil {
		t.Fatal("Err() = nil for unknown zone")
	}

	now := time.Date(2025, 1, 7, 15, 15, 0, 0, time.UTC)
	if s := cal.State(now); s != domain.SessionClosed {
		t.Errorf("State() = %q, want closed", s)
	}
	if _, err := cal.StateErr(now); err == nil {
		t.Error("StateErr() should report the zone error")
	}
	if cd := cal.Countdown(now, domain.SessionOpen); cd.String() != Placeholder {
		t.Errorf("Countdown() = %q, want %q", cd.String(), Placeholder)
	}
	if cal.IsMarketOpen(now) {
		t.Error("IsMarketOpen() = true for unknown zone")
	}
}

func TestIsMarketOpenFoldsExtendedHours(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	cal := NewTradingCalendar(nyse())

	afterHours := time.Date(2025, 1, 7, 17, 0, 0, 0, ny)
	if s := cal.State(afterHours); s != domain.SessionAfterHours {
		t.Fatalf("State() = %q, want after-hours", s)
	}
	if !cal.IsMarketOpen(afterHours) {
		t.Error("IsMarketOpen(after-hours) = false, want true")
	}
	if !cal.IsMarketOpen(time.Date(2025, 1, 7, 4, 0, 0, 0, ny)) {
		t.Error("IsMarketOpen(04:00) = false, want true")
	}
	if cal.IsMarketOpen(time.Date(2025, 1, 7, 20, 0, 0, 0, ny)) {
		t.Error("IsMarketOpen(20:00) = true, want false")
	}
	if cal.IsMarketOpen(time.Date(2025, 1, 11, 12, 0, 0, 0, ny)) {
		t.Error("IsMarketOpen(Saturday) = true, want false")
	}
}

func TestStateIsIdempotent(t *testing.T) {
	now := time.Date(2025, 1, 7, 14, 42, 17, 0, time.UTC)
	cal := NewTradingCalendar(nyse())
	s1, s2 := cal.State(now), cal.State(now)
	c1, c2 := cal.Countdown(now, s1), cal.Countdown(now, s2)
	if s1 != s2 || c1 != c2 {
		t.Errorf("repeated calls differ: %q/%q %+v/%+v", s1, s2, c1, c2)
	}
}

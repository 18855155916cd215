package calendar

import (
	"fmt"
	"time"
)

// Clock abstracts the current time so refresh loops can be driven
// deterministically in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.T }

var _ Clock = SystemClock{}
var _ Clock = FixedClock{}

var weekdayNames = [...]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

// FormatLocalTime renders t in zone tz as 24-hour "HH:MM:SS". It returns
// Placeholder when tz cannot be resolved.
func FormatLocalTime(t time.Time, tz string) string {
	loc, err := LoadLocation(tz)
	if err != nil {
		return Placeholder
	}
	return t.In(loc).Format("15:04:05")
}

// FormatLocalDateTime renders the long header form used on market cards,
// e.g. "2025年1月7日星期二 10:15:00". It returns Placeholder when tz cannot
// be resolved.
func FormatLocalDateTime(t time.Time, tz string) string {
	loc, err := LoadLocation(tz)
	if err != nil {
		return Placeholder
	}
	local := t.In(loc)
	return fmt.Sprintf("%d年%d月%d日%s %s",
		local.Year(), int(local.Month()), local.Day(),
		weekdayNames[local.Weekday()],
		local.Format("15:04:05"))
}

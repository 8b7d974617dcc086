// Package calendar holds the date-key ("YYYY-MM-DD") and time-of-day
// ("HH:mm") arithmetic everything else is built on. All day math is done at
// a fixed reference hour (noon UTC) so local-clock shifts around day
// boundaries cannot move a date onto a neighboring day.
package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// DateKeyLayout is the canonical calendar-day encoding.
	DateKeyLayout = "2006-01-02"

	// ReferenceHour is the fixed hour-of-day used for all day arithmetic.
	ReferenceHour = 12
)

var (
	dateKeyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRe   = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// IsDateKey reports whether s is a well-formed, real calendar date.
func IsDateKey(s string) bool {
	if !dateKeyRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateKeyLayout, s)
	return err == nil
}

// At returns the date at the reference hour, UTC. The key must be valid.
func At(key string) time.Time {
	t, _ := time.Parse(DateKeyLayout, key)
	return time.Date(t.Year(), t.Month(), t.Day(), ReferenceHour, 0, 0, 0, time.UTC)
}

// Midnight returns the stored day boundary (00:00 UTC) for the key.
func Midnight(key string) time.Time {
	t, _ := time.Parse(DateKeyLayout, key)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Key formats t as a date key in UTC.
func Key(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// AddDays returns the key n days after (or before, for negative n) key.
func AddDays(key string, n int) string {
	return Key(At(key).AddDate(0, 0, n))
}

// ISOWeekday returns the ISO day of week for key: 1=Monday .. 7=Sunday.
func ISOWeekday(key string) int {
	wd := int(At(key).Weekday()) // 0=Sunday .. 6=Saturday
	if wd == 0 {
		return 7
	}
	return wd
}

// DayOfMonth returns the calendar day (1..31) of key.
func DayOfMonth(key string) int {
	return At(key).Day()
}

// Month returns the calendar month (1..12) of key.
func Month(key string) int {
	return int(At(key).Month())
}

// DaysBetween returns the number of calendar days from a to b (negative
// when b is earlier). Both ends are evaluated at the reference hour, so
// the division is exact.
func DaysBetween(a, b string) int {
	return int(At(b).Sub(At(a)) / (24 * time.Hour))
}

// MonthsBetween returns the signed month difference from a to b, ignoring
// the day-of-month component.
func MonthsBetween(a, b string) int {
	ta, tb := At(a), At(b)
	return (tb.Year()-ta.Year())*12 + int(tb.Month()) - int(ta.Month())
}

// IsClock reports whether s is a valid zero-padded "HH:mm" time of day.
func IsClock(s string) bool {
	if !clockRe.MatchString(s) {
		return false
	}
	m, ok := MinutesOfDay(s)
	return ok && m >= 0 && m < 24*60
}

// MinutesOfDay converts "HH:mm" to minutes from midnight.
func MinutesOfDay(s string) (int, bool) {
	if !clockRe.MatchString(s) {
		return 0, false
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, false
	}
	if h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// NormalizeClock trims and zero-pads a user-supplied time of day, dropping
// any trailing seconds component. Returns ok=false for anything that does
// not normalize to a valid "HH:mm".
func NormalizeClock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 5 {
		s = s[:5]
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	if len(parts[0]) == 1 {
		parts[0] = "0" + parts[0]
	}
	if len(parts[1]) == 1 {
		parts[1] = "0" + parts[1]
	}
	out := parts[0] + ":" + parts[1]
	if !IsClock(out) {
		return "", false
	}
	return out, true
}

package window

import (
	"time"
)

// AddMonths adds n calendar months, clamping to the last day of the target
// month when the source day does not exist there (Jan 31 + 1 = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	// first of the target month, normalized by time.Date
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddYears adds n calendar years with the same clamping as AddMonths (Feb 29 + 1 = Feb 28)
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, 12*n)
}

// AddDays adds n calendar days keeping the wall clock time
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

package utils

import "time"

// AddCalendarMonths advances t by n calendar months, clamping the day of
// month to the last valid day of the target month instead of letting it
// spill over (Jan 31 + 1 month is Feb 28, or Feb 29 in a leap year).
// time.AddDate would normalize Jan 31 + 1 month to Mar 2/3, which is the
// wrong answer for billing dates.
func AddCalendarMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()

	// Months since year zero, so negative n and December rollover both work.
	total := year*12 + int(month) - 1 + n
	targetYear := total / 12
	targetMonth := time.Month(total%12 + 1)

	if last := daysIn(targetYear, targetMonth); day > last {
		day = last
	}

	return time.Date(targetYear, targetMonth, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// NextPaymentDate returns the first renewal date for a membership joined at t.
func NextPaymentDate(t time.Time) time.Time {
	return AddCalendarMonths(t, 1)
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

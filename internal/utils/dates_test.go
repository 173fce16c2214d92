package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddCalendarMonthsClampsToLastDay(t *testing.T) {
	jan31 := time.Date(2025, time.January, 31, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.February, 28, 10, 30, 0, 0, time.UTC), AddCalendarMonths(jan31, 1))

	// Leap year February keeps the 29th.
	jan31Leap := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), AddCalendarMonths(jan31Leap, 1))

	mar31 := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC), AddCalendarMonths(mar31, 1))
}

func TestAddCalendarMonthsPlainDays(t *testing.T) {
	jun15 := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.July, 15, 8, 0, 0, 0, time.UTC), AddCalendarMonths(jun15, 1))
}

func TestAddCalendarMonthsYearRollover(t *testing.T) {
	dec5 := time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), AddCalendarMonths(dec5, 1))

	nov30 := time.Date(2025, time.November, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), AddCalendarMonths(nov30, 3))
}

func TestNextPaymentDate(t *testing.T) {
	joined := time.Date(2025, time.August, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.September, 30, 12, 0, 0, 0, time.UTC), NextPaymentDate(joined))
}

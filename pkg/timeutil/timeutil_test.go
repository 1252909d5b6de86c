package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateKeyUsesSchoolTimezone(t *testing.T) {
	// 23:30 UTC is already the next day in WIB (UTC+7).
	utc := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-10", DateKey(utc))
	assert.Equal(t, "2026-03", MonthKey(utc))
}

func TestHourOfConvertsBeforeComparing(t *testing.T) {
	// 00:15 UTC is 07:15 WIB, past a 07:00 start threshold.
	utc := time.Date(2026, 3, 10, 0, 15, 0, 0, time.UTC)
	assert.Equal(t, 7, HourOf(utc))
}

func TestWeekdayOfMatchesActiveDayIndices(t *testing.T) {
	// 2026-03-08 is a Sunday (index 0), 2026-03-09 a Monday (index 1).
	assert.Equal(t, 0, WeekdayOf(Date(2026, 3, 8)))
	assert.Equal(t, 1, WeekdayOf(Date(2026, 3, 9)))
}

func TestParseDateKeyRoundTrip(t *testing.T) {
	parsed, err := ParseDateKey("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", DateKey(parsed))
	assert.Equal(t, 0, parsed.Hour())
	assert.Equal(t, SchoolTZ, parsed.Location())

	_, err = ParseDateKey("28-02-2026")
	assert.Error(t, err)
}

func TestParseMonthKey(t *testing.T) {
	parsed, err := ParseMonthKey("2026-02")
	require.NoError(t, err)
	assert.Equal(t, 1, parsed.Day())
	assert.Equal(t, 28, DaysInMonth(parsed))

	_, err = ParseMonthKey("2026/02")
	assert.Error(t, err)
}

func TestMonthBounds(t *testing.T) {
	mid := DateTime(2024, 2, 15, 10, 30, 0)

	start := StartOfMonth(mid)
	assert.Equal(t, "2024-02-01", DateKey(start))

	end := EndOfMonth(mid)
	assert.Equal(t, "2024-02-29", DateKey(end)) // leap year
	assert.Equal(t, 29, DaysInMonth(mid))
}

func TestIsSameDayAcrossZones(t *testing.T) {
	// The same instant expressed in UTC and WIB is always the same day.
	wib := DateTime(2026, 3, 10, 6, 0, 0)
	assert.True(t, IsSameDay(wib, wib.UTC()))

	// Two instants either side of WIB midnight are different days even
	// though they share a UTC date.
	before := time.Date(2026, 3, 9, 16, 30, 0, 0, time.UTC) // 23:30 WIB Mar 9
	after := time.Date(2026, 3, 9, 17, 30, 0, 0, time.UTC)  // 00:30 WIB Mar 10
	assert.False(t, IsSameDay(before, after))
}

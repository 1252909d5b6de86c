// Package timeutil provides timezone utilities for the school's local time
// (WIB, Asia/Jakarta, UTC+7). Every attendance decision - check-in hour, date
// key, working day - is made in school-local time, never in UTC or server time.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// SchoolTZ is the school timezone (WIB, UTC+7, no DST).
// Indonesia does not observe daylight saving time, so this is constant.
var SchoolTZ = time.FixedZone("Asia/Jakarta", 7*60*60)

// Now returns the current time in school timezone.
func Now() time.Time {
	return time.Now().In(SchoolTZ)
}

// ToSchool converts a time to school timezone.
func ToSchool(t time.Time) time.Time {
	return t.In(SchoolTZ)
}

// Date creates a time in school timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, SchoolTZ)
}

// DateTime creates a time in school timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, SchoolTZ)
}

// HourOf returns the hour of day (0-23) in school timezone.
// This is the hour the attendance engine compares against the configured
// check-in and check-out thresholds.
func HourOf(t time.Time) int {
	return ToSchool(t).Hour()
}

// WeekdayOf returns the weekday index (0=Sunday ... 6=Saturday) in school
// timezone, matching the active-day indices stored in the school config.
func WeekdayOf(t time.Time) int {
	return int(ToSchool(t).Weekday())
}

// StartOfDay returns the start of the day (00:00:00) in school timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToSchool(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, SchoolTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in school timezone.
func EndOfDay(t time.Time) time.Time {
	local := ToSchool(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, SchoolTZ)
}

// StartOfMonth returns the start of the month in school timezone.
func StartOfMonth(t time.Time) time.Time {
	local := ToSchool(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, SchoolTZ)
}

// EndOfMonth returns the end of the month in school timezone.
func EndOfMonth(t time.Time) time.Time {
	start := StartOfMonth(t)
	return EndOfDay(start.AddDate(0, 1, -1))
}

// DaysInMonth returns the number of calendar days in the month of t.
func DaysInMonth(t time.Time) int {
	start := StartOfMonth(t)
	return start.AddDate(0, 1, -1).Day()
}

// IsSameDay checks whether two times fall on the same calendar day in school
// timezone.
func IsSameDay(a, b time.Time) bool {
	la, lb := ToSchool(a), ToSchool(b)
	return la.Year() == lb.Year() && la.Month() == lb.Month() && la.Day() == lb.Day()
}

// IsToday checks if the given time is today in school timezone.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD), used as the
	// calendar-day key of attendance records.
	FormatDate = "2006-01-02"
	// FormatMonth is the month key format (YYYY-MM) used by monthly reports.
	FormatMonth = "2006-01"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
)

// DateKey formats a time as the calendar-day key (YYYY-MM-DD) in school
// timezone. Records created from the same instant always share one key.
func DateKey(t time.Time) string {
	return ToSchool(t).Format(FormatDate)
}

// MonthKey formats a time as the month key (YYYY-MM) in school timezone.
func MonthKey(t time.Time) string {
	return ToSchool(t).Format(FormatMonth)
}

// ParseDateKey parses a YYYY-MM-DD key into a school-timezone midnight.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(FormatDate, key, SchoolTZ)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid date key %q: %w", key, err)
	}
	return t, nil
}

// ParseMonthKey parses a YYYY-MM key into the first day of that month in
// school timezone.
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(FormatMonth, key, SchoolTZ)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid month key %q: %w", key, err)
	}
	return t, nil
}

// FormatTimeStr formats a time as a clock string (HH:MM) in school timezone.
func FormatTimeStr(t time.Time) string {
	return ToSchool(t).Format(FormatTime)
}

// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique staff user identifier (UUID format).
type UserID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Date Key Value Object
// ═══════════════════════════════════════════════════════════════════════════

// DateKey represents a calendar day as YYYY-MM-DD in school-local time.
// Attendance records are keyed by (user, date key, type); the key carries no
// time component on purpose.
type DateKey string

var dateKeyRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValid checks if the date key has the YYYY-MM-DD shape.
func (d DateKey) IsValid() bool {
	return dateKeyRegex.MatchString(string(d))
}

// String returns the string representation.
func (d DateKey) String() string {
	return string(d)
}

// Month returns the YYYY-MM prefix of the key.
func (d DateKey) Month() string {
	if len(d) < 7 {
		return string(d)
	}
	return string(d[:7])
}

// NewDateKey creates a new DateKey with validation.
func NewDateKey(key string) (DateKey, error) {
	dk := DateKey(strings.TrimSpace(key))
	if !dk.IsValid() {
		return "", ErrInvalidRecordDay
	}
	return dk, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Points Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Points represents attendance points. Points are assigned once at record
// creation by the scoring rule and never recomputed implicitly.
type Points int

// IsValid checks that points are non-negative.
func (p Points) IsValid() bool {
	return p >= 0
}

// Int returns the underlying int value.
func (p Points) Int() int {
	return int(p)
}

// Add sums two point values.
func (p Points) Add(other Points) Points {
	return p + other
}

// ═══════════════════════════════════════════════════════════════════════════
// Hour of Day Value Object
// ═══════════════════════════════════════════════════════════════════════════

// HourOfDay represents an integer hour threshold (0-23). The engine compares
// the current local hour against these thresholds with the half-open integer
// hour model: minute precision is deliberately ignored.
type HourOfDay int

// IsValid checks the hour is within 0-23.
func (h HourOfDay) IsValid() bool {
	return h >= 0 && h <= 23
}

// Int returns the underlying int value.
func (h HourOfDay) Int() int {
	return int(h)
}

// String returns a clock-style representation, e.g. "06:00".
func (h HourOfDay) String() string {
	return fmt.Sprintf("%02d:00", int(h))
}

// ═══════════════════════════════════════════════════════════════════════════
// Weekday Set Value Object
// ═══════════════════════════════════════════════════════════════════════════

// WeekdaySet is a set of weekday indices (0=Sunday ... 6=Saturday) defining
// mandatory-attendance days. A user-level set, when non-empty, replaces the
// school-wide set rather than merging with it.
type WeekdaySet []int

// IsValid checks that all members are valid weekday indices.
func (w WeekdaySet) IsValid() bool {
	for _, d := range w {
		if d < 0 || d > 6 {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the set has no members.
func (w WeekdaySet) IsEmpty() bool {
	return len(w) == 0
}

// Contains reports whether the weekday index is in the set.
func (w WeekdaySet) Contains(weekday int) bool {
	for _, d := range w {
		if d == weekday {
			return true
		}
	}
	return false
}

// Normalize returns a sorted copy with duplicates and invalid indices removed.
func (w WeekdaySet) Normalize() WeekdaySet {
	seen := make(map[int]bool, len(w))
	out := make(WeekdaySet, 0, len(w))
	for _, d := range w {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// Duty Role Value Object
// ═══════════════════════════════════════════════════════════════════════════

// RoleLabel names a secondary duty (e.g. "Wali Kelas", "Pembina OSIS"),
// eligible for one bonus task credit per day.
type RoleLabel string

// IsValid checks the label is non-empty and of sane length.
func (r RoleLabel) IsValid() bool {
	s := strings.TrimSpace(string(r))
	return len(s) >= 2 && len(s) <= 60
}

// String returns the string representation.
func (r RoleLabel) String() string {
	return string(r)
}

// NewRoleLabel creates a RoleLabel with validation.
func NewRoleLabel(label string) (RoleLabel, error) {
	rl := RoleLabel(strings.TrimSpace(label))
	if !rl.IsValid() {
		return "", NewDomainError("shared", "NewRoleLabel", ErrInvalidInput, "invalid duty role label")
	}
	return rl, nil
}

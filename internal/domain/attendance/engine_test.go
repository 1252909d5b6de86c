package attendance

import (
	"errors"
	"testing"
	"time"

	"github.com/geopresensi/attendance-hub/internal/domain/geo"
	"github.com/geopresensi/attendance-hub/internal/domain/school"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schoolCenter = geo.Point{Lat: -6.2, Lng: 106.8}

func testConfig() *school.Config {
	cfg := school.Default()
	cfg.GeofenceCenter = schoolCenter
	cfg.RadiusMeters = 50
	cfg.StartHour = 6
	cfg.MinCheckOutHour = 14
	cfg.EndHour = 17
	return cfg
}

func testUser() *user.User {
	return &user.User{
		ID:       "8d6f4a1e-3c2b-4f5a-9e8d-7c6b5a4f3e2d",
		Username: "budi123",
		FullName: "Budi Santoso",
		Role:     user.RoleStaff,
		IsActive: true,
		AdditionalRoles: []shared.RoleLabel{
			"Wali Kelas",
			"Pembina OSIS",
		},
	}
}

// 2026-03-02 is a Monday.
func at(hour, min int) time.Time {
	return timeutil.DateTime(2026, 3, 2, hour, min, 0)
}

// pointAtMeters returns a position roughly the given number of meters north
// of the school center.
func pointAtMeters(m float64) geo.Point {
	return geo.Point{Lat: schoolCenter.Lat + m/111195.0, Lng: schoolCenter.Lng}
}

// ─────────────────────────────────────────────────────────────────────────────
// EvaluateCheckIn
// ─────────────────────────────────────────────────────────────────────────────

func TestEvaluateCheckIn_AtStartHourIsPresent(t *testing.T) {
	engine := NewEngine()

	rec, err := engine.EvaluateCheckIn(testUser(), at(6, 5), pointAtMeters(30), testConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusPresent, rec.Status)
	assert.Equal(t, shared.Points(10), rec.Points)
	assert.Equal(t, TypeMain, rec.Type)
	assert.Equal(t, shared.DateKey("2026-03-02"), rec.Date)
	require.NotNil(t, rec.CheckInTime)
	assert.Nil(t, rec.CheckOutTime)
	assert.InDelta(t, 30, rec.DistanceMeters, 1)
	assert.NotEmpty(t, rec.ID)
}

func TestEvaluateCheckIn_AfterStartHourIsLate(t *testing.T) {
	engine := NewEngine()

	rec, err := engine.EvaluateCheckIn(testUser(), at(7, 0), pointAtMeters(10), testConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusLate, rec.Status)
	assert.Equal(t, shared.Points(5), rec.Points)
}

func TestEvaluateCheckIn_BeforeStartHourTooEarly(t *testing.T) {
	engine := NewEngine()

	_, err := engine.EvaluateCheckIn(testUser(), at(5, 59), pointAtMeters(10), testConfig(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrTooEarly)

	var tooEarly *TooEarlyError
	require.True(t, errors.As(err, &tooEarly))
	assert.Equal(t, shared.HourOfDay(6), tooEarly.ThresholdHour)
}

func TestEvaluateCheckIn_NoLateCutoff(t *testing.T) {
	// endHour never blocks check-in: even past the end of the school day
	// the check-in is accepted as Late.
	engine := NewEngine()

	rec, err := engine.EvaluateCheckIn(testUser(), at(19, 30), pointAtMeters(10), testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusLate, rec.Status)
}

func TestEvaluateCheckIn_RadiusBoundaryInclusive(t *testing.T) {
	engine := NewEngine()
	cfg := testConfig()
	cfg.RadiusMeters = 0

	// distance == radius still passes: standing exactly on the boundary
	// counts as inside the school.
	rec, err := engine.EvaluateCheckIn(testUser(), at(6, 0), schoolCenter, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.DistanceMeters)
}

func TestEvaluateCheckIn_OutOfRangeCarriesDistance(t *testing.T) {
	engine := NewEngine()

	_, err := engine.EvaluateCheckIn(testUser(), at(6, 5), pointAtMeters(120), testConfig(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrOutOfRange)

	var outOfRange *OutOfRangeError
	require.True(t, errors.As(err, &outOfRange))
	assert.InDelta(t, 120, outOfRange.DistanceMeters, 1)
	assert.Equal(t, 50, outOfRange.RadiusMeters)
}

func TestEvaluateCheckIn_GeofenceCheckedBeforeHour(t *testing.T) {
	// Out of range reported even when the hour would also fail.
	engine := NewEngine()

	_, err := engine.EvaluateCheckIn(testUser(), at(5, 0), pointAtMeters(500), testConfig(), nil)
	assert.ErrorIs(t, err, shared.ErrOutOfRange)
}

func TestEvaluateCheckIn_SecondCallSameDayFails(t *testing.T) {
	engine := NewEngine()

	first, err := engine.EvaluateCheckIn(testUser(), at(6, 5), pointAtMeters(10), testConfig(), nil)
	require.NoError(t, err)

	_, err = engine.EvaluateCheckIn(testUser(), at(8, 0), pointAtMeters(10), testConfig(), first)
	assert.ErrorIs(t, err, shared.ErrAlreadyCheckedIn)
}

// ─────────────────────────────────────────────────────────────────────────────
// EvaluateCheckOut
// ─────────────────────────────────────────────────────────────────────────────

func checkedInRecord(t *testing.T) *Record {
	t.Helper()
	rec, err := NewEngine().EvaluateCheckIn(testUser(), at(6, 5), pointAtMeters(30), testConfig(), nil)
	require.NoError(t, err)
	return rec
}

func TestEvaluateCheckOut_BeforeMinHourTooEarly(t *testing.T) {
	engine := NewEngine()

	_, err := engine.EvaluateCheckOut(checkedInRecord(t), at(13, 0), testConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrTooEarly)

	var tooEarly *TooEarlyError
	require.True(t, errors.As(err, &tooEarly))
	assert.Equal(t, shared.HourOfDay(14), tooEarly.ThresholdHour)
}

func TestEvaluateCheckOut_SetsTimeOnly(t *testing.T) {
	engine := NewEngine()
	rec := checkedInRecord(t)

	out, err := engine.EvaluateCheckOut(rec, at(14, 1), testConfig())
	require.NoError(t, err)

	require.NotNil(t, out.CheckOutTime)
	assert.Equal(t, rec.Status, out.Status)
	assert.Equal(t, rec.Points, out.Points)
	assert.Equal(t, rec.CheckInTime, out.CheckInTime)
	assert.Equal(t, rec.DistanceMeters, out.DistanceMeters)

	// Engine returns a copy; the input record is untouched.
	assert.Nil(t, rec.CheckOutTime)
}

func TestEvaluateCheckOut_TerminalStatusesNeverCheckOut(t *testing.T) {
	engine := NewEngine()

	for _, status := range []Status{StatusExcused, StatusAbsent} {
		rec := checkedInRecord(t)
		rec.Status = status

		_, err := engine.EvaluateCheckOut(rec, at(15, 0), testConfig())
		assert.ErrorIs(t, err, shared.ErrNotEligibleForCheckout, "status %s", status)
	}
}

func TestEvaluateCheckOut_RequiresOpenCheckIn(t *testing.T) {
	engine := NewEngine()

	// No check-in time at all.
	rec := checkedInRecord(t)
	rec.CheckInTime = nil
	_, err := engine.EvaluateCheckOut(rec, at(15, 0), testConfig())
	assert.ErrorIs(t, err, shared.ErrNotEligibleForCheckout)

	// Already checked out.
	rec = checkedInRecord(t)
	out, err := engine.EvaluateCheckOut(rec, at(14, 30), testConfig())
	require.NoError(t, err)
	_, err = engine.EvaluateCheckOut(out, at(16, 0), testConfig())
	assert.ErrorIs(t, err, shared.ErrNotEligibleForCheckout)
}

// ─────────────────────────────────────────────────────────────────────────────
// FileExcuse
// ─────────────────────────────────────────────────────────────────────────────

func TestFileExcuse_ProducesExcusedRecord(t *testing.T) {
	engine := NewEngine()

	rec, err := engine.FileExcuse(testUser(), at(5, 0), "sakit", "https://tasks.example/sub-1", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusExcused, rec.Status)
	assert.Equal(t, TypeMain, rec.Type)
	assert.Equal(t, shared.Points(0), rec.Points)
	assert.Nil(t, rec.CheckInTime)
	assert.Nil(t, rec.CheckOutTime)
	assert.True(t, rec.Location.IsZero())
	assert.Equal(t, 0.0, rec.DistanceMeters)
	assert.Equal(t, "sakit", rec.Notes)
	assert.Equal(t, "https://tasks.example/sub-1", rec.SubstitutionLink)
}

func TestFileExcuse_BlockedByExistingMainRecord(t *testing.T) {
	engine := NewEngine()

	_, err := engine.FileExcuse(testUser(), at(9, 0), "izin", "", checkedInRecord(t))
	assert.ErrorIs(t, err, shared.ErrAlreadyCheckedIn)
}

// ─────────────────────────────────────────────────────────────────────────────
// ReportAdditionalTask
// ─────────────────────────────────────────────────────────────────────────────

func TestReportAdditionalTask_OncePerRolePerDay(t *testing.T) {
	engine := NewEngine()

	first, err := engine.ReportAdditionalTask(testUser(), at(10, 0), "Wali Kelas", nil)
	require.NoError(t, err)
	assert.Equal(t, TypeAdditional, first.Type)
	assert.Equal(t, StatusPresent, first.Status)
	assert.Equal(t, shared.Points(5), first.Points)
	assert.Equal(t, "Wali Kelas", first.Notes)
	require.NotNil(t, first.CheckInTime)
	assert.Equal(t, first.CheckInTime, first.CheckOutTime)
	assert.True(t, first.Location.IsZero())

	_, err = engine.ReportAdditionalTask(testUser(), at(11, 0), "Wali Kelas", []shared.RoleLabel{"Wali Kelas"})
	assert.ErrorIs(t, err, shared.ErrDuplicateTask)
}

func TestReportAdditionalTask_DistinctRolesBothCount(t *testing.T) {
	engine := NewEngine()

	first, err := engine.ReportAdditionalTask(testUser(), at(10, 0), "Wali Kelas", nil)
	require.NoError(t, err)

	second, err := engine.ReportAdditionalTask(testUser(), at(11, 0), "Pembina OSIS", []shared.RoleLabel{first.RoleTag()})
	require.NoError(t, err)

	assert.Equal(t, shared.Points(5), first.Points)
	assert.Equal(t, shared.Points(5), second.Points)
}

// ─────────────────────────────────────────────────────────────────────────────
// DetermineWorkingDay
// ─────────────────────────────────────────────────────────────────────────────

func TestDetermineWorkingDay_OverrideReplacesSchoolDays(t *testing.T) {
	engine := NewEngine()
	cfg := testConfig()
	cfg.ActiveDays = shared.WeekdaySet{1, 2, 3, 4, 5}

	u := testUser()
	u.SpecificActiveDays = shared.WeekdaySet{6} // Saturday only

	assert.True(t, engine.DetermineWorkingDay(u, cfg, 6))
	// Monday is a school-wide day, but the override replaces the set
	// entirely rather than merging.
	assert.False(t, engine.DetermineWorkingDay(u, cfg, 1))
}

func TestDetermineWorkingDay_EmptyOverrideFallsBack(t *testing.T) {
	engine := NewEngine()
	cfg := testConfig()

	u := testUser()
	u.SpecificActiveDays = nil

	assert.True(t, engine.DetermineWorkingDay(u, cfg, 1))
	assert.False(t, engine.DetermineWorkingDay(u, cfg, 0))
}

// ─────────────────────────────────────────────────────────────────────────────
// OverrideStatus / RecomputePoints
// ─────────────────────────────────────────────────────────────────────────────

func TestOverrideStatus_LeavesPointsStale(t *testing.T) {
	engine := NewEngine()
	rec, err := engine.EvaluateCheckIn(testUser(), at(8, 0), pointAtMeters(10), testConfig(), nil)
	require.NoError(t, err)
	require.Equal(t, StatusLate, rec.Status)
	require.Equal(t, shared.Points(5), rec.Points)

	overridden, err := engine.OverrideStatus(rec, StatusPresent)
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, overridden.Status)
	// Points stay as assigned at check-in until an explicit recompute.
	assert.Equal(t, shared.Points(5), overridden.Points)
}

func TestOverrideStatus_RejectsUnknownStatus(t *testing.T) {
	engine := NewEngine()
	rec := checkedInRecord(t)

	_, err := engine.OverrideStatus(rec, Status("vacation"))
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestRecomputePoints_AppliesScoringRule(t *testing.T) {
	engine := NewEngine()
	rec, err := engine.EvaluateCheckIn(testUser(), at(8, 0), pointAtMeters(10), testConfig(), nil)
	require.NoError(t, err)

	overridden, err := engine.OverrideStatus(rec, StatusPresent)
	require.NoError(t, err)

	recomputed := engine.RecomputePoints(overridden)
	assert.Equal(t, shared.Points(10), recomputed.Points)

	asAbsent, err := engine.OverrideStatus(rec, StatusAbsent)
	require.NoError(t, err)
	assert.Equal(t, shared.Points(0), engine.RecomputePoints(asAbsent).Points)
}

// ─────────────────────────────────────────────────────────────────────────────
// End-to-end scenario
// ─────────────────────────────────────────────────────────────────────────────

func TestFullDayScenario(t *testing.T) {
	engine := NewEngine()
	cfg := testConfig() // start 6, min checkout 14, end 17, radius 50

	// 06:05, 30 m from school: Present, 10 points.
	rec, err := engine.EvaluateCheckIn(testUser(), at(6, 5), pointAtMeters(30), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, rec.Status)
	assert.Equal(t, shared.Points(10), rec.Points)

	// 13:00: too early to leave.
	_, err = engine.EvaluateCheckOut(rec, at(13, 0), cfg)
	assert.ErrorIs(t, err, shared.ErrTooEarly)

	// 14:01: checkout succeeds, record unchanged except the checkout time.
	out, err := engine.EvaluateCheckOut(rec, at(14, 1), cfg)
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, out.Status)
	assert.Equal(t, shared.Points(10), out.Points)
	assert.Equal(t, rec.CheckInTime, out.CheckInTime)
	require.NotNil(t, out.CheckOutTime)
	assert.Equal(t, 14, timeutil.HourOf(*out.CheckOutTime))
}

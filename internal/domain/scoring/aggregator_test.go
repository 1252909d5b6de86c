package scoring

import (
	"testing"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	uidAni  = "11111111-1111-4111-8111-111111111111"
	uidBudi = "22222222-2222-4222-8222-222222222222"
	uidCici = "33333333-3333-4333-8333-333333333333"
)

func staff(id, name string, duties ...shared.RoleLabel) *user.User {
	return &user.User{
		ID:              id,
		FullName:        name,
		Role:            user.RoleStaff,
		IsActive:        true,
		AdditionalRoles: duties,
	}
}

func record(uid string, typ attendance.Type, status attendance.Status, points shared.Points) *attendance.Record {
	return &attendance.Record{
		UserID: uid,
		Type:   typ,
		Status: status,
		Points: points,
	}
}

func TestTotalPoints_SumsBothRecordTypes(t *testing.T) {
	agg := NewAggregator()
	records := []*attendance.Record{
		record(uidAni, attendance.TypeMain, attendance.StatusPresent, 10),
		record(uidAni, attendance.TypeAdditional, attendance.StatusPresent, 5),
		record(uidAni, attendance.TypeMain, attendance.StatusLate, 5),
		record(uidBudi, attendance.TypeMain, attendance.StatusPresent, 10),
	}

	assert.Equal(t, shared.Points(20), agg.TotalPoints(uidAni, records))
	assert.Equal(t, shared.Points(10), agg.TotalPoints(uidBudi, records))
	assert.Equal(t, shared.Points(0), agg.TotalPoints(uidCici, records))
}

func TestLeaderboard_MainRecordsOnly(t *testing.T) {
	agg := NewAggregator()
	users := []*user.User{staff(uidAni, "Ani"), staff(uidBudi, "Budi")}
	records := []*attendance.Record{
		record(uidAni, attendance.TypeMain, attendance.StatusPresent, 10),
		record(uidBudi, attendance.TypeMain, attendance.StatusPresent, 10),
		// Additional points bump the personal total, not the ranking.
		record(uidBudi, attendance.TypeAdditional, attendance.StatusPresent, 5),
	}

	entries := agg.Leaderboard(records, users, CategoryAllStaff, 0)
	require.Len(t, entries, 2)
	assert.Equal(t, shared.Points(10), entries[0].Points)
	assert.Equal(t, shared.Points(10), entries[1].Points)
	// Tie keeps the original user ordering.
	assert.Equal(t, uidAni, entries[0].UserID)
	assert.Equal(t, uidBudi, entries[1].UserID)
}

func TestLeaderboard_RoleFilterExcludesOtherDuties(t *testing.T) {
	agg := NewAggregator()
	users := []*user.User{
		staff(uidAni, "Ani", "Pembina OSIS"),
		staff(uidBudi, "Budi", "Wali Kelas"),
	}
	records := []*attendance.Record{
		record(uidAni, attendance.TypeMain, attendance.StatusPresent, 10),
		record(uidBudi, attendance.TypeMain, attendance.StatusLate, 5),
	}

	// Ani leads the open ranking but has no homeroom duty, so the
	// filtered board drops her entirely.
	entries := agg.Leaderboard(records, users, "Wali Kelas", 0)
	require.Len(t, entries, 1)
	assert.Equal(t, uidBudi, entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
}

func TestLeaderboard_ExcludesAdmins(t *testing.T) {
	agg := NewAggregator()
	admin := staff(uidCici, "Kepala Sekolah")
	admin.Role = user.RoleAdmin
	users := []*user.User{admin, staff(uidAni, "Ani")}
	records := []*attendance.Record{
		record(uidCici, attendance.TypeMain, attendance.StatusPresent, 10),
		record(uidAni, attendance.TypeMain, attendance.StatusLate, 5),
	}

	entries := agg.Leaderboard(records, users, CategoryAllStaff, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, uidAni, entries[0].UserID)
}

func TestLeaderboard_SortAndLimit(t *testing.T) {
	agg := NewAggregator()
	users := []*user.User{
		staff(uidAni, "Ani"),
		staff(uidBudi, "Budi"),
		staff(uidCici, "Cici"),
	}
	records := []*attendance.Record{
		record(uidAni, attendance.TypeMain, attendance.StatusLate, 5),
		record(uidBudi, attendance.TypeMain, attendance.StatusPresent, 10),
		record(uidBudi, attendance.TypeMain, attendance.StatusPresent, 10),
		record(uidCici, attendance.TypeMain, attendance.StatusPresent, 10),
	}

	entries := agg.Leaderboard(records, users, CategoryAllStaff, 2)
	require.Len(t, entries, 2)
	assert.Equal(t, uidBudi, entries[0].UserID)
	assert.Equal(t, shared.Points(20), entries[0].Points)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, uidCici, entries[1].UserID)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestLeaderboard_ZeroPointStaffStillListed(t *testing.T) {
	agg := NewAggregator()
	users := []*user.User{staff(uidAni, "Ani")}

	entries := agg.Leaderboard(nil, users, CategoryAllStaff, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, shared.Points(0), entries[0].Points)
}

func TestAttendanceRate_EmptyHistoryIsPerfect(t *testing.T) {
	agg := NewAggregator()
	assert.Equal(t, 100, agg.AttendanceRate(nil))
}

func TestAttendanceRate_CountsPresentAndLate(t *testing.T) {
	agg := NewAggregator()
	records := []*attendance.Record{
		record(uidAni, attendance.TypeMain, attendance.StatusPresent, 10),
		record(uidAni, attendance.TypeMain, attendance.StatusLate, 5),
		record(uidAni, attendance.TypeMain, attendance.StatusAbsent, 0),
		record(uidAni, attendance.TypeMain, attendance.StatusAbsent, 0),
	}

	assert.Equal(t, 50, agg.AttendanceRate(records))
}

func TestAttendanceRate_IgnoresAdditionalRecords(t *testing.T) {
	agg := NewAggregator()
	records := []*attendance.Record{
		record(uidAni, attendance.TypeMain, attendance.StatusAbsent, 0),
		record(uidAni, attendance.TypeAdditional, attendance.StatusPresent, 5),
		record(uidAni, attendance.TypeAdditional, attendance.StatusPresent, 5),
	}

	assert.Equal(t, 0, agg.AttendanceRate(records))
}

func TestAttendanceRate_RoundsToNearestPercent(t *testing.T) {
	agg := NewAggregator()
	records := []*attendance.Record{
		record(uidAni, attendance.TypeMain, attendance.StatusPresent, 10),
		record(uidAni, attendance.TypeMain, attendance.StatusPresent, 10),
		record(uidAni, attendance.TypeMain, attendance.StatusAbsent, 0),
	}

	// 2/3 rounds to 67, not truncates to 66.
	assert.Equal(t, 67, agg.AttendanceRate(records))
}

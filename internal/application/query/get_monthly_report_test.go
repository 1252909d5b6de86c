package query

import (
	"context"
	"testing"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/scoring"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecordStore struct {
	attendance.Store
	records []*attendance.Record
}

func (s *stubRecordStore) List(_ context.Context, f attendance.Filter) ([]*attendance.Record, error) {
	var out []*attendance.Record
	for _, rec := range s.records {
		if f.Type != "" && rec.Type != f.Type {
			continue
		}
		if f.Month != "" && rec.Date.Month() != f.Month {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type stubUserRepo struct {
	user.Repository
	users []*user.User
}

func (s *stubUserRepo) List(context.Context, user.ListOptions) ([]*user.User, error) {
	return s.users, nil
}

func TestGetMonthlyReport_BuildsMatrix(t *testing.T) {
	const uid = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	store := &stubRecordStore{records: []*attendance.Record{
		{UserID: uid, Date: "2026-03-02", Type: attendance.TypeMain, Status: attendance.StatusPresent, Points: 10},
		{UserID: uid, Date: "2026-03-03", Type: attendance.TypeMain, Status: attendance.StatusLate, Points: 5},
		{UserID: uid, Date: "2026-03-04", Type: attendance.TypeMain, Status: attendance.StatusExcused, Points: 0},
		{UserID: uid, Date: "2026-03-02", Type: attendance.TypeAdditional, Status: attendance.StatusPresent, Points: 5},
		// Другой месяц в отчёт не попадает.
		{UserID: uid, Date: "2026-02-27", Type: attendance.TypeMain, Status: attendance.StatusPresent, Points: 10},
	}}
	repo := &stubUserRepo{users: []*user.User{{
		ID: uid, FullName: "Budi Santoso", Role: user.RoleStaff, IsActive: true,
	}}}

	handler := NewGetMonthlyReportHandler(store, repo, scoring.NewAggregator(), func(context.Context) string {
		return "SMA Negeri 1"
	})

	report, err := handler.Handle(context.Background(), GetMonthlyReportQuery{Month: "2026-03"})
	require.NoError(t, err)

	assert.Equal(t, "SMA Negeri 1", report.SchoolName)
	assert.Equal(t, 31, report.DaysInMonth)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.Equal(t, CodePresent, row.StatusByDay[2])
	assert.Equal(t, CodeLate, row.StatusByDay[3])
	assert.Equal(t, CodeExcused, row.StatusByDay[4])
	_, has27 := row.StatusByDay[27]
	assert.False(t, has27)

	assert.Equal(t, 1, row.PresentCount)
	assert.Equal(t, 1, row.LateCount)
	assert.Equal(t, 1, row.ExcusedCount)
	assert.Equal(t, 0, row.AbsentCount)
	// Additional запись не попадает в матрицу, но входит в баллы.
	assert.Equal(t, shared.Points(20), row.TotalPoints)
}

func TestGetLeaderboard_DefaultsAndCompute(t *testing.T) {
	const (
		uidA = "11111111-1111-4111-8111-111111111111"
		uidB = "22222222-2222-4222-8222-222222222222"
	)
	store := &stubRecordStore{records: []*attendance.Record{
		{UserID: uidA, Date: "2026-03-02", Type: attendance.TypeMain, Status: attendance.StatusPresent, Points: 10},
		{UserID: uidB, Date: "2026-03-02", Type: attendance.TypeMain, Status: attendance.StatusLate, Points: 5},
	}}
	repo := &stubUserRepo{users: []*user.User{
		{ID: uidA, FullName: "Ani", Role: user.RoleStaff, IsActive: true},
		{ID: uidB, FullName: "Budi", Role: user.RoleStaff, IsActive: true},
	}}

	handler := NewGetLeaderboardHandler(store, repo, scoring.NewAggregator(), nil)

	view, err := handler.Handle(context.Background(), GetLeaderboardQuery{Month: "2026-03"})
	require.NoError(t, err)

	assert.Equal(t, scoring.CategoryAllStaff, view.Category)
	require.Len(t, view.Entries, 2)
	assert.Equal(t, uidA, view.Entries[0].UserID)
	assert.Equal(t, 1, view.Entries[0].Rank)
	assert.False(t, view.FromCache)
}

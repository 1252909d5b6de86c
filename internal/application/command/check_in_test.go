package command

import (
	"context"
	"testing"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/geo"
	"github.com/geopresensi/attendance-hub/internal/domain/school"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const staffID = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"

func testSchoolConfig() *school.Config {
	cfg := school.Default()
	cfg.GeofenceCenter = geo.Point{Lat: -6.2, Lng: 106.8}
	cfg.RadiusMeters = 50
	return cfg
}

func activeStaff() *user.User {
	return &user.User{
		ID:       staffID,
		Username: "budi123",
		FullName: "Budi Santoso",
		Role:     user.RoleStaff,
		IsActive: true,
		AdditionalRoles: []shared.RoleLabel{
			"Wali Kelas",
		},
	}
}

func newCheckInHandler(u *user.User, store *memRecordStore, pub *capturingPublisher) *CheckInHandler {
	return NewCheckInHandler(
		newMemUserRepo(u),
		store,
		newMemConfigStore(testSchoolConfig()),
		attendance.NewEngine(),
		pub,
	)
}

func TestCheckInHandler_HappyPath(t *testing.T) {
	store := newMemRecordStore()
	pub := &capturingPublisher{}
	handler := newCheckInHandler(activeStaff(), store, pub)

	res, err := handler.Handle(context.Background(), CheckInCommand{
		UserID:    staffID,
		Latitude:  -6.2,
		Longitude: 106.8,
		Timestamp: timeutil.DateTime(2026, 3, 2, 6, 5, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusPresent, res.Status)
	assert.Equal(t, shared.Points(10), res.Points)
	assert.NotEmpty(t, res.RecordID)

	saved, err := store.FindMain(context.Background(), staffID, "2026-03-02")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, res.RecordID, saved.ID)

	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventCheckedIn, events[0].EventType())
}

func TestCheckInHandler_InactiveUserRejected(t *testing.T) {
	u := activeStaff()
	u.IsActive = false
	handler := newCheckInHandler(u, newMemRecordStore(), &capturingPublisher{})

	_, err := handler.Handle(context.Background(), CheckInCommand{
		UserID:    staffID,
		Latitude:  -6.2,
		Longitude: 106.8,
		Timestamp: timeutil.DateTime(2026, 3, 2, 6, 5, 0),
	})
	assert.ErrorIs(t, err, shared.ErrInactiveUser)
}

func TestCheckInHandler_SecondCheckInSameDayFails(t *testing.T) {
	store := newMemRecordStore()
	pub := &capturingPublisher{}
	handler := newCheckInHandler(activeStaff(), store, pub)

	cmd := CheckInCommand{
		UserID:    staffID,
		Latitude:  -6.2,
		Longitude: 106.8,
		Timestamp: timeutil.DateTime(2026, 3, 2, 6, 5, 0),
	}
	_, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	cmd.Timestamp = timeutil.DateTime(2026, 3, 2, 8, 0, 0)
	_, err = handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrAlreadyCheckedIn)

	// Only the first check-in published an event.
	assert.Len(t, pub.published(), 1)
}

// blindLookupStore hides today's record from FindMain, simulating a rival
// request that inserts between the handler's lookup and its own insert.
type blindLookupStore struct {
	*memRecordStore
}

func (s *blindLookupStore) FindMain(context.Context, string, shared.DateKey) (*attendance.Record, error) {
	return nil, nil
}

func TestCheckInHandler_StoreConflictMapsToAlreadyCheckedIn(t *testing.T) {
	inner := newMemRecordStore()
	handler := NewCheckInHandler(
		newMemUserRepo(activeStaff()),
		&blindLookupStore{inner},
		newMemConfigStore(testSchoolConfig()),
		attendance.NewEngine(),
		&capturingPublisher{},
	)

	rival := &attendance.Record{
		ID:     "rival-record",
		UserID: staffID,
		Date:   "2026-03-02",
		Type:   attendance.TypeMain,
		Status: attendance.StatusPresent,
	}
	require.NoError(t, inner.CreateIfAbsent(context.Background(), rival))

	_, err := handler.Handle(context.Background(), CheckInCommand{
		UserID:    staffID,
		Latitude:  -6.2,
		Longitude: 106.8,
		Timestamp: timeutil.DateTime(2026, 3, 2, 6, 5, 0),
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyCheckedIn)
}

func TestCheckInHandler_OutOfRangePassedThrough(t *testing.T) {
	handler := newCheckInHandler(activeStaff(), newMemRecordStore(), &capturingPublisher{})

	_, err := handler.Handle(context.Background(), CheckInCommand{
		UserID:    staffID,
		Latitude:  -6.21, // about 1.1 km south of the school
		Longitude: 106.8,
		Timestamp: timeutil.DateTime(2026, 3, 2, 6, 5, 0),
	})
	assert.ErrorIs(t, err, shared.ErrOutOfRange)
}

func TestCheckOutHandler_FullFlow(t *testing.T) {
	store := newMemRecordStore()
	pub := &capturingPublisher{}
	checkIn := newCheckInHandler(activeStaff(), store, pub)
	checkOut := NewCheckOutHandler(store, newMemConfigStore(testSchoolConfig()), attendance.NewEngine(), pub)

	_, err := checkIn.Handle(context.Background(), CheckInCommand{
		UserID:    staffID,
		Latitude:  -6.2,
		Longitude: 106.8,
		Timestamp: timeutil.DateTime(2026, 3, 2, 6, 5, 0),
	})
	require.NoError(t, err)

	// Too early to leave.
	_, err = checkOut.Handle(context.Background(), CheckOutCommand{
		UserID:    staffID,
		Timestamp: timeutil.DateTime(2026, 3, 2, 13, 0, 0),
	})
	assert.ErrorIs(t, err, shared.ErrTooEarly)

	res, err := checkOut.Handle(context.Background(), CheckOutCommand{
		UserID:    staffID,
		Timestamp: timeutil.DateTime(2026, 3, 2, 14, 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, res.Status)
	assert.Equal(t, shared.Points(10), res.Points)

	saved, err := store.FindMain(context.Background(), staffID, "2026-03-02")
	require.NoError(t, err)
	require.NotNil(t, saved.CheckOutTime)
}

func TestCheckOutHandler_NoRecordNotEligible(t *testing.T) {
	checkOut := NewCheckOutHandler(newMemRecordStore(), newMemConfigStore(testSchoolConfig()), attendance.NewEngine(), &capturingPublisher{})

	_, err := checkOut.Handle(context.Background(), CheckOutCommand{
		UserID:    staffID,
		Timestamp: timeutil.DateTime(2026, 3, 2, 15, 0, 0),
	})
	assert.ErrorIs(t, err, shared.ErrNotEligibleForCheckout)
}

func TestReportTaskHandler_DuplicateRoleRejected(t *testing.T) {
	store := newMemRecordStore()
	pub := &capturingPublisher{}
	handler := NewReportTaskHandler(newMemUserRepo(activeStaff()), store, attendance.NewEngine(), pub)

	cmd := ReportTaskCommand{
		UserID:    staffID,
		RoleLabel: "Wali Kelas",
		Timestamp: timeutil.DateTime(2026, 3, 2, 10, 0, 0),
	}
	res, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, shared.Points(5), res.Points)

	cmd.Timestamp = timeutil.DateTime(2026, 3, 2, 11, 0, 0)
	_, err = handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrDuplicateTask)
}

func TestReportTaskHandler_UnassignedRoleRejected(t *testing.T) {
	handler := NewReportTaskHandler(newMemUserRepo(activeStaff()), newMemRecordStore(), attendance.NewEngine(), &capturingPublisher{})

	_, err := handler.Handle(context.Background(), ReportTaskCommand{
		UserID:    staffID,
		RoleLabel: "Pembina OSIS",
		Timestamp: timeutil.DateTime(2026, 3, 2, 10, 0, 0),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestFileExcuseHandler_CreatesExcusedRecord(t *testing.T) {
	store := newMemRecordStore()
	handler := NewFileExcuseHandler(newMemUserRepo(activeStaff()), store, attendance.NewEngine(), &capturingPublisher{})

	res, err := handler.Handle(context.Background(), FileExcuseCommand{
		UserID:    staffID,
		Reason:    "sakit",
		Timestamp: timeutil.DateTime(2026, 3, 2, 5, 30, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusExcused, res.Status)

	saved, err := store.FindMain(context.Background(), staffID, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, shared.Points(0), saved.Points)
	assert.Nil(t, saved.CheckInTime)
}

package attendance

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymhub/internal/apperr"
)

var recordCols = []string{"id", "member_id", "schedule_id", "type", "method", "check_in_time", "check_out_time", "created_at"}

var now = time.Date(2025, 3, 10, 18, 5, 0, 0, time.UTC)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(raw, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })
	return NewRepository(sqlxDB), mock
}

func expectActiveMember(mock sqlmock.Sqlmock, id int, active bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT is_active FROM users WHERE id = $1 AND role = 'member' FOR UPDATE")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(active))
}

func expectOpenSession(mock sqlmock.Sqlmock, id int, open bool) {
	mock.ExpectQuery(regexp.QuoteMeta("check_out_time IS NULL)")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(open))
}

func TestCheckIn_GymVisit(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectActiveMember(mock, 7, true)
	expectOpenSession(mock, 7, false)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(7, nil, TypeGymVisit, MethodManual, now).
		WillReturnRows(sqlmock.NewRows(recordCols).AddRow(1, 7, nil, TypeGymVisit, MethodManual, now, nil, now))
	mock.ExpectCommit()

	rec, err := repo.CheckIn(context.Background(), CheckInParams{MemberID: 7, Method: MethodManual, Now: now})
	require.NoError(t, err)
	assert.Equal(t, TypeGymVisit, rec.Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func expectScheduleLock(mock sqlmock.Sqlmock, id int) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM class_schedules WHERE id = $1 FOR UPDATE")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
}

func TestCheckIn_ClassCompletesBooking(t *testing.T) {
	repo, mock := newMockRepo(t)
	schedule := 4

	mock.ExpectBegin()
	expectActiveMember(mock, 7, true)
	expectOpenSession(mock, 7, false)
	expectScheduleLock(mock, 4)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE member_id = $1 AND schedule_id = $2 AND status = 'confirmed'")).
		WithArgs(7, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(30))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_bookings SET status = 'completed'")).
		WithArgs(30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_waitlist SET status = 'accepted'")).
		WithArgs(30).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(7, 4, TypeClassAttendance, MethodQR, now).
		WillReturnRows(sqlmock.NewRows(recordCols).AddRow(2, 7, 4, TypeClassAttendance, MethodQR, now, nil, now))
	mock.ExpectCommit()

	rec, err := repo.CheckIn(context.Background(), CheckInParams{MemberID: 7, ScheduleID: &schedule, Method: MethodQR, Now: now})
	require.NoError(t, err)
	assert.Equal(t, TypeClassAttendance, rec.Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckIn_ClassWithoutBooking(t *testing.T) {
	repo, mock := newMockRepo(t)
	schedule := 4

	mock.ExpectBegin()
	expectActiveMember(mock, 7, true)
	expectOpenSession(mock, 7, false)
	expectScheduleLock(mock, 4)
	mock.ExpectQuery(regexp.QuoteMeta("status = 'confirmed'")).
		WithArgs(7, 4).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.CheckIn(context.Background(), CheckInParams{MemberID: 7, ScheduleID: &schedule, Method: MethodManual, Now: now})
	assert.True(t, apperr.IsValidation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

// A member holding an offer who checks in has attended; the offer must not be
// left to lapse and release the place again.
func TestCheckIn_SettlesOutstandingOffer(t *testing.T) {
	repo, mock := newMockRepo(t)
	schedule := 4

	mock.ExpectBegin()
	expectActiveMember(mock, 7, true)
	expectOpenSession(mock, 7, false)
	expectScheduleLock(mock, 4)
	mock.ExpectQuery(regexp.QuoteMeta("status = 'confirmed'")).
		WithArgs(7, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_bookings SET status = 'completed'")).
		WithArgs(41).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE booking_id = $1 AND status = 'notified'")).
		WithArgs(41).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(7, 4, TypeClassAttendance, MethodManual, now).
		WillReturnRows(sqlmock.NewRows(recordCols).AddRow(3, 7, 4, TypeClassAttendance, MethodManual, now, nil, now))
	mock.ExpectCommit()

	_, err := repo.CheckIn(context.Background(), CheckInParams{MemberID: 7, ScheduleID: &schedule, Method: MethodManual, Now: now})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckIn_UnknownSchedule(t *testing.T) {
	repo, mock := newMockRepo(t)
	schedule := 99

	mock.ExpectBegin()
	expectActiveMember(mock, 7, true)
	expectOpenSession(mock, 7, false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM class_schedules WHERE id = $1 FOR UPDATE")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.CheckIn(context.Background(), CheckInParams{MemberID: 7, ScheduleID: &schedule, Method: MethodManual, Now: now})
	assert.True(t, apperr.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckIn_SecondOpenSessionConflicts(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectActiveMember(mock, 7, true)
	expectOpenSession(mock, 7, true)
	mock.ExpectRollback()

	_, err := repo.CheckIn(context.Background(), CheckInParams{MemberID: 7, Method: MethodManual, Now: now})
	assert.True(t, apperr.IsConflict(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckIn_InactiveMember(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectActiveMember(mock, 7, false)
	mock.ExpectRollback()

	_, err := repo.CheckIn(context.Background(), CheckInParams{MemberID: 7, Method: MethodManual, Now: now})
	assert.True(t, apperr.IsValidation(err))
}

func TestCheckOut_NoOpenSession(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SET check_out_time = GREATEST($2, check_in_time)")).
		WithArgs(7, now).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.CheckOut(context.Background(), 7, now)
	assert.True(t, apperr.IsNotFound(err))
}

func TestList_Filters(t *testing.T) {
	repo, mock := newMockRepo(t)
	member := 7
	from := now.AddDate(0, 0, -7)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendance a WHERE a.member_id = $1 AND a.check_in_time >= $2")).
		WithArgs(7, from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $3 OFFSET $4")).
		WithArgs(7, from, 20, 0).
		WillReturnRows(sqlmock.NewRows(append(recordCols, "member_name", "class_name")).
			AddRow(1, 7, nil, TypeGymVisit, MethodManual, now, nil, now, "Ana", nil))

	list, total, err := repo.List(context.Background(), ListFilter{MemberID: &member, From: &from}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].MemberName)
	assert.Nil(t, list[0].ClassName)
}

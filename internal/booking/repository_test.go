package booking

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymhub/internal/apperr"
	"gymhub/internal/credits"
)

var (
	slotCols     = []string{"id", "class_id", "capacity", "start_time", "requires_credits"}
	bookingCols  = []string{"id", "member_id", "schedule_id", "status", "pass_id", "credit_source", "cancelled_at", "created_at", "updated_at"}
	waitlistCols = []string{"id", "member_id", "schedule_id", "position", "status", "booking_id", "notified_at", "expires_at", "created_at", "updated_at"}
	passCols     = []string{"id", "member_id", "package_id", "class_id", "credits_included", "credits_remaining",
		"unlimited", "is_active", "purchased_at", "expires_at", "updated_at"}
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })
	return NewRepository(sqlxDB), mock
}

func expectSlot(mock sqlmock.Sqlmock, capacity int, start time.Time) {
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF s")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(slotCols).AddRow(4, 1, capacity, start, true))
}

func expectMember(mock sqlmock.Sqlmock, id int, active bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT is_active FROM users WHERE id = $1 AND role = 'member' FOR UPDATE")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(active))
}

func expectExists(mock sqlmock.Sqlmock, table string, exists bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM " + table)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func expectOccupied(mock sqlmock.Sqlmock, n int) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM class_bookings WHERE schedule_id = $1 AND status IN ('confirmed', 'completed')")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

// expectPassConsume covers credits.ConsumeTx drawing from a single pass.
func expectPassConsume(mock sqlmock.Sqlmock, memberID, passID, remainingAfter int, now time.Time) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM member_passes")).
		WithArgs(memberID).
		WillReturnRows(sqlmock.NewRows(passCols).
			AddRow(passID, memberID, 1, nil, 10, remainingAfter+1, false, true, now, now.Add(30*24*time.Hour), now))
	mock.ExpectQuery(regexp.QuoteMeta("SET credits_remaining = credits_remaining - 1")).
		WithArgs(passID).
		WillReturnRows(sqlmock.NewRows([]string{"credits_remaining"}).AddRow(remainingAfter))
}

func TestBook_ConfirmsAndDrawsCredit(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()
	start := now.Add(24 * time.Hour)

	mock.ExpectBegin()
	expectMember(mock, 5, true)
	expectSlot(mock, 10, start)
	expectExists(mock, "class_bookings", false)
	expectOccupied(mock, 3)
	expectPassConsume(mock, 5, 2, 2, now)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO class_bookings")).
		WithArgs(5, 4, StatusConfirmed, 2, credits.SourcePass).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(40, 5, 4, StatusConfirmed, 2, credits.SourcePass, nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_transactions")).
		WithArgs(2, 5, 40, -1, credits.TxDeduction, 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := repo.Book(context.Background(), 5, 4, BookOptions{Now: now})
	require.NoError(t, err)
	require.NotNil(t, res.Booking)
	assert.Equal(t, 40, res.Booking.ID)
	assert.Nil(t, res.Waitlist)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBook_FullOffersNextPosition(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	expectMember(mock, 5, true)
	expectSlot(mock, 1, now.Add(time.Hour))
	expectExists(mock, "class_bookings", false)
	expectOccupied(mock, 1)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(MAX(position), 0) + 1")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), 5, 4, BookOptions{Now: now})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrCapacityExceeded))

	var ce *apperr.CapacityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.NextPosition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBook_FullJoinsWaitlist(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	expectMember(mock, 5, true)
	expectSlot(mock, 1, now.Add(time.Hour))
	expectExists(mock, "class_bookings", false)
	expectOccupied(mock, 1)
	expectExists(mock, "class_waitlist", false)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(MAX(position), 0) + 1")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO class_waitlist")).
		WithArgs(5, 4, 1).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(9, 5, 4, 1, WaitWaiting, nil, nil, nil, now, now))
	mock.ExpectCommit()

	res, err := repo.Book(context.Background(), 5, 4, BookOptions{Now: now, JoinWaitlist: true})
	require.NoError(t, err)
	assert.Nil(t, res.Booking)
	require.NotNil(t, res.Waitlist)
	assert.Equal(t, 1, *res.Waitlist.Position)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBook_RejectsDuplicateAndPastSchedules(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	expectMember(mock, 5, true)
	expectSlot(mock, 5, now.Add(time.Hour))
	expectExists(mock, "class_bookings", true)
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), 5, 4, BookOptions{Now: now})
	assert.True(t, apperr.IsConflict(err))

	mock.ExpectBegin()
	expectMember(mock, 5, true)
	expectSlot(mock, 5, now.Add(-time.Minute))
	mock.ExpectRollback()

	_, err = repo.Book(context.Background(), 5, 4, BookOptions{Now: now})
	assert.True(t, apperr.IsValidation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBook_UnknownOrDeactivatedMember(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT is_active FROM users WHERE id = $1 AND role = 'member' FOR UPDATE")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), 99, 4, BookOptions{Now: now})
	assert.True(t, apperr.IsNotFound(err))

	mock.ExpectBegin()
	expectMember(mock, 5, false)
	mock.ExpectRollback()

	_, err = repo.Book(context.Background(), 5, 4, BookOptions{Now: now})
	assert.True(t, apperr.IsValidation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinWaitlist_UnknownMember(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("role = 'member'")).
		WithArgs(12).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.JoinWaitlist(context.Background(), 12, 4, time.Now())
	assert.True(t, apperr.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

// An attended booking still holds its place, so a class with one place
// checked in early stays full.
func TestBook_CompletedBookingKeepsItsPlace(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	expectMember(mock, 5, true)
	expectSlot(mock, 1, now.Add(time.Hour))
	expectExists(mock, "class_bookings", false)
	mock.ExpectQuery(regexp.QuoteMeta("status IN ('confirmed', 'completed')")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(MAX(position), 0) + 1")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), 5, 4, BookOptions{Now: now})
	assert.True(t, errors.Is(err, apperr.ErrCapacityExceeded))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransition_CancelRefundsAndPromotes(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()
	start := now.Add(24 * time.Hour)
	window := 2 * time.Hour

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_id FROM class_bookings")).
		WithArgs(40).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}).AddRow(4))
	expectSlot(mock, 1, start)
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_bookings WHERE id = $1 FOR UPDATE")).
		WithArgs(40).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(40, 5, 4, StatusConfirmed, 2, credits.SourcePass, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE class_bookings")).
		WithArgs(40, StatusCancelled).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(40, 5, 4, StatusCancelled, 2, credits.SourcePass, now, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SET credits_remaining = credits_remaining + 1")).
		WithArgs(2, 5).
		WillReturnRows(sqlmock.NewRows([]string{"credits_remaining"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_transactions")).
		WithArgs(2, 5, 40, 1, credits.TxRefund, 3).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'declined'")).
		WithArgs(40).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// promotion of the head of the queue
	expectOccupied(mock, 0)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY position")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(9, 6, 4, 1, WaitWaiting, nil, nil, nil, now, now))
	expectExists(mock, "class_bookings", false)
	expectPassConsume(mock, 6, 7, 0, now)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO class_bookings")).
		WithArgs(6, 4, StatusConfirmed, 7, credits.SourcePass).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(41, 6, 4, StatusConfirmed, 7, credits.SourcePass, nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_transactions")).
		WithArgs(7, 6, 41, -1, credits.TxDeduction, 0).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SET status = 'notified'")).
		WithArgs(9, 41, now, now.Add(window)).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(9, 6, 4, nil, WaitNotified, 41, now, now.Add(window), now, now))
	mock.ExpectExec(regexp.QuoteMeta("SET position = position - 1")).
		WithArgs(4, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	expectOccupied(mock, 1)
	mock.ExpectCommit()

	res, err := repo.Transition(context.Background(), 40, StatusCancelled, TransitionOptions{
		Now:      now,
		Window:   window,
		Policy:   RefundPolicy{Cutoff: 2 * time.Hour},
		MemberID: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.From)
	assert.Equal(t, StatusCancelled, res.Booking.Status)
	assert.True(t, res.Refunded)
	require.Len(t, res.Offers, 1)
	assert.Equal(t, 41, res.Offers[0].Booking.ID)
	assert.Equal(t, WaitNotified, res.Offers[0].Entry.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransition_RejectsUnreachableStatus(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_id FROM class_bookings")).
		WithArgs(40).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}).AddRow(4))
	expectSlot(mock, 1, now.Add(time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(40).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(40, 5, 4, StatusCancelled, nil, credits.SourceNone, now, now, now))
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), 40, StatusConfirmed, TransitionOptions{Now: now, ByStaff: true})
	assert.True(t, errors.Is(err, apperr.ErrStateTransition))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransition_HidesOtherMembersBookings(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_id FROM class_bookings")).
		WithArgs(40).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}).AddRow(4))
	expectSlot(mock, 1, now.Add(time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(40).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(40, 8, 4, StatusConfirmed, nil, credits.SourceNone, nil, now, now))
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), 40, StatusCancelled, TransitionOptions{Now: now, MemberID: 5})
	assert.True(t, apperr.IsNotFound(err))
}

func TestAcceptOffer_Expired(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()
	expired := now.Add(-time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_waitlist WHERE id = $1 FOR UPDATE")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(9, 6, 4, nil, WaitNotified, 41, now.Add(-time.Hour), expired, now, now))
	mock.ExpectRollback()

	_, err := repo.AcceptOffer(context.Background(), 6, 9, now)
	assert.True(t, errors.Is(err, apperr.ErrStateTransition))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveWaitlist_ClosesGap(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_id FROM class_waitlist WHERE id = $1 AND member_id = $2")).
		WithArgs(9, 6).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}).AddRow(4))
	expectSlot(mock, 1, now.Add(time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_waitlist WHERE id = $1 FOR UPDATE")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(9, 6, 4, 2, WaitWaiting, nil, nil, nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta("SET status = $2, position = NULL")).
		WithArgs(9, WaitLeft).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET position = position - 1")).
		WithArgs(4, 2).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	e, err := repo.LeaveWaitlist(context.Background(), 6, 9)
	require.NoError(t, err)
	assert.Equal(t, WaitLeft, e.Status)
	assert.Nil(t, e.Position)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListWaitlist_NeedsFilter(t *testing.T) {
	repo, _ := setupMock(t)
	_, err := repo.ListWaitlist(context.Background(), WaitlistFilter{})
	assert.True(t, apperr.IsValidation(err))
}

// expectOfferWithdrawn covers the held booking 41 of member 6 being cancelled
// with its credit returned to pass 7, and entry 9 leaving the queue.
func expectOfferWithdrawn(mock sqlmock.Sqlmock, status string, now time.Time) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_bookings WHERE id = $1 FOR UPDATE")).
		WithArgs(41).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(41, 6, 4, StatusConfirmed, 7, credits.SourcePass, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE class_bookings")).
		WithArgs(41, StatusCancelled).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(41, 6, 4, StatusCancelled, 7, credits.SourcePass, now, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SET credits_remaining = credits_remaining + 1")).
		WithArgs(7, 6).
		WillReturnRows(sqlmock.NewRows([]string{"credits_remaining"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_transactions")).
		WithArgs(7, 6, 41, 1, credits.TxRefund, 1).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET status = $2, position = NULL")).
		WithArgs(9, status).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

// expectPromotion covers member 8, first of two waiting, being given booking
// 42 from pass 11 and offered it, with the member behind moving up.
func expectPromotion(mock sqlmock.Sqlmock, now time.Time, window time.Duration) {
	expectOccupied(mock, 0)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY position")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(10, 8, 4, 1, WaitWaiting, nil, nil, nil, now, now))
	expectExists(mock, "class_bookings", false)
	expectPassConsume(mock, 8, 11, 4, now)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO class_bookings")).
		WithArgs(8, 4, StatusConfirmed, 11, credits.SourcePass).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(42, 8, 4, StatusConfirmed, 11, credits.SourcePass, nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_transactions")).
		WithArgs(11, 8, 42, -1, credits.TxDeduction, 4).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SET status = 'notified'")).
		WithArgs(10, 42, now, now.Add(window)).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(10, 8, 4, nil, WaitNotified, 42, now, now.Add(window), now, now))
	mock.ExpectExec(regexp.QuoteMeta("SET position = position - 1")).
		WithArgs(4, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectOccupied(mock, 1)
}

func TestExpireOffer_RefundsAndCascades(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()
	window := 2 * time.Hour
	lapsed := now.Add(-time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_id FROM class_waitlist WHERE id = $1")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}).AddRow(4))
	expectSlot(mock, 1, now.Add(24*time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_waitlist WHERE id = $1 FOR UPDATE")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(9, 6, 4, nil, WaitNotified, 41, lapsed.Add(-window), lapsed, now, now))
	expectOfferWithdrawn(mock, WaitExpired, now)
	expectPromotion(mock, now, window)
	mock.ExpectCommit()

	w, err := repo.ExpireOffer(context.Background(), 9, now, window)
	require.NoError(t, err)
	assert.True(t, w.Withdrawn)
	assert.True(t, w.Refunded)
	offers := w.Offers
	require.Len(t, offers, 1)
	assert.Equal(t, 8, offers[0].Entry.MemberID)
	assert.Equal(t, WaitNotified, offers[0].Entry.Status)
	assert.Nil(t, offers[0].Entry.Position)
	assert.Equal(t, 42, offers[0].Booking.ID)
	assert.WithinDuration(t, now.Add(window), *offers[0].Entry.ExpiresAt, time.Second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireOffer_SettledMeanwhile(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_id FROM class_waitlist WHERE id = $1")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}).AddRow(4))
	expectSlot(mock, 1, now.Add(24*time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_waitlist WHERE id = $1 FOR UPDATE")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(9, 6, 4, nil, WaitAccepted, 41, now.Add(-time.Hour), now.Add(-time.Minute), now, now))
	mock.ExpectCommit()

	w, err := repo.ExpireOffer(context.Background(), 9, now, time.Hour)
	require.NoError(t, err)
	assert.False(t, w.Withdrawn)
	assert.Empty(t, w.Offers)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireOffer_NotYetDue(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_id FROM class_waitlist WHERE id = $1")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}).AddRow(4))
	expectSlot(mock, 1, now.Add(24*time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_waitlist WHERE id = $1 FOR UPDATE")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(9, 6, 4, nil, WaitNotified, 41, now, now.Add(time.Minute), now, now))
	mock.ExpectCommit()

	w, err := repo.ExpireOffer(context.Background(), 9, now, time.Hour)
	require.NoError(t, err)
	assert.False(t, w.Withdrawn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclineOffer_RefundsAndCascades(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()
	window := 2 * time.Hour

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_id FROM class_waitlist WHERE id = $1 AND member_id = $2")).
		WithArgs(9, 6).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}).AddRow(4))
	expectSlot(mock, 1, now.Add(24*time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_waitlist WHERE id = $1 FOR UPDATE")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(9, 6, 4, nil, WaitNotified, 41, now, now.Add(time.Hour), now, now))
	expectOfferWithdrawn(mock, WaitDeclined, now)
	expectPromotion(mock, now, window)
	mock.ExpectCommit()

	w, err := repo.DeclineOffer(context.Background(), 6, 9, now, window)
	require.NoError(t, err)
	assert.True(t, w.Refunded)
	require.Len(t, w.Offers, 1)
	assert.Equal(t, 42, w.Offers[0].Booking.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclineOffer_OnlyOutstandingOffers(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_id FROM class_waitlist WHERE id = $1 AND member_id = $2")).
		WithArgs(9, 6).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}).AddRow(4))
	expectSlot(mock, 1, now.Add(24*time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_waitlist WHERE id = $1 FOR UPDATE")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(waitlistCols).AddRow(9, 6, 4, 2, WaitWaiting, nil, nil, nil, now, now))
	mock.ExpectRollback()

	_, err := repo.DeclineOffer(context.Background(), 6, 9, now, time.Hour)
	assert.True(t, errors.Is(err, apperr.ErrStateTransition))
	require.NoError(t, mock.ExpectationsWereMet())
}

package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymhub/internal/apperr"
	"gymhub/internal/credits"
	"gymhub/internal/db/dbtest"
)

type fixture struct {
	conn    *sqlx.DB
	trainer int
	classID int
	pkg     credits.Package
}

func newFixture(t *testing.T) *fixture {
	conn := dbtest.Open(t)
	f := &fixture{conn: conn, trainer: dbtest.CreateUser(t, conn, "coach@gym.test", "trainer")}

	require.NoError(t, conn.Get(&f.classID,
		`INSERT INTO classes (name, duration_minutes) VALUES ('Spin', 45) RETURNING id`))

	pkg, err := credits.NewRepository(conn).CreatePackage(context.Background(), &credits.Package{
		Name: "Three pack", CreditsIncluded: 3, PriceCents: 3000, ValidityDays: 30,
	})
	require.NoError(t, err)
	f.pkg = *pkg
	return f
}

func (f *fixture) schedule(t *testing.T, capacity int) int {
	start := time.Now().Add(48 * time.Hour)
	var id int
	require.NoError(t, f.conn.Get(&id, `
		INSERT INTO class_schedules (class_id, trainer_id, start_time, end_time, capacity)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		f.classID, f.trainer, start, start.Add(45*time.Minute), capacity))
	return id
}

func (f *fixture) member(t *testing.T, email string) int {
	id := dbtest.CreateUser(t, f.conn, email, "member")
	_, err := credits.NewRepository(f.conn).IssuePass(context.Background(), credits.NewPass(id, f.pkg, time.Now()))
	require.NoError(t, err)
	return id
}

func (f *fixture) remaining(t *testing.T, memberID int) int {
	var n int
	require.NoError(t, f.conn.Get(&n, `SELECT SUM(credits_remaining) FROM member_passes WHERE member_id = $1`, memberID))
	return n
}

func TestScenario_CancellationPromotesWaitlist(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository(f.conn)
	ctx := context.Background()
	scheduleID := f.schedule(t, 1)
	a := f.member(t, "a@gym.test")
	b := f.member(t, "b@gym.test")
	now := time.Now()

	first, err := repo.Book(ctx, a, scheduleID, BookOptions{Now: now})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, first.Booking.Status)

	_, err = repo.Book(ctx, b, scheduleID, BookOptions{Now: now})
	var ce *apperr.CapacityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.NextPosition)

	entry, err := repo.JoinWaitlist(ctx, b, scheduleID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, *entry.Position)

	res, err := repo.Transition(ctx, first.Booking.ID, StatusCancelled, TransitionOptions{
		Now: now, Window: 2 * time.Hour, Policy: RefundPolicy{Cutoff: 2 * time.Hour}, MemberID: a,
	})
	require.NoError(t, err)
	assert.True(t, res.Refunded)
	assert.Equal(t, 3, f.remaining(t, a))

	require.Len(t, res.Offers, 1)
	assert.Equal(t, b, res.Offers[0].Booking.MemberID)
	assert.Equal(t, StatusConfirmed, res.Offers[0].Booking.Status)
	assert.Equal(t, 2, f.remaining(t, b))

	var waiting int
	require.NoError(t, f.conn.Get(&waiting,
		`SELECT COUNT(*) FROM class_waitlist WHERE schedule_id = $1 AND status = 'waiting'`, scheduleID))
	assert.Zero(t, waiting)

	var confirmed int
	require.NoError(t, f.conn.Get(&confirmed,
		`SELECT COUNT(*) FROM class_bookings WHERE schedule_id = $1 AND status = 'confirmed'`, scheduleID))
	assert.Equal(t, 1, confirmed)
}

func TestScenario_PassRunsDry(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository(f.conn)
	ctx := context.Background()
	m := f.member(t, "m@gym.test")

	for want := 2; want >= 0; want-- {
		_, err := repo.Book(ctx, m, f.schedule(t, 5), BookOptions{Now: time.Now()})
		require.NoError(t, err)
		assert.Equal(t, want, f.remaining(t, m))
	}

	_, err := repo.Book(ctx, m, f.schedule(t, 5), BookOptions{Now: time.Now()})
	assert.True(t, errors.Is(err, apperr.ErrInsufficientCredits))
}

func TestScenario_WaitlistStaysDense(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository(f.conn)
	ctx := context.Background()
	scheduleID := f.schedule(t, 1)
	now := time.Now()

	_, err := repo.Book(ctx, f.member(t, "holder@gym.test"), scheduleID, BookOptions{Now: now})
	require.NoError(t, err)

	var entries []*WaitlistEntry
	for _, email := range []string{"w1@gym.test", "w2@gym.test", "w3@gym.test"} {
		res, err := repo.Book(ctx, f.member(t, email), scheduleID, BookOptions{Now: now, JoinWaitlist: true})
		require.NoError(t, err)
		entries = append(entries, res.Waitlist)
	}

	_, err = repo.LeaveWaitlist(ctx, entries[0].MemberID, entries[0].ID)
	require.NoError(t, err)

	var positions []int
	require.NoError(t, f.conn.Select(&positions,
		`SELECT position FROM class_waitlist WHERE schedule_id = $1 AND status = 'waiting' ORDER BY position`, scheduleID))
	assert.Equal(t, []int{1, 2}, positions)
}

func TestScenario_LapsedOfferCascades(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository(f.conn)
	ctx := context.Background()
	scheduleID := f.schedule(t, 1)
	a := f.member(t, "a@gym.test")
	b := f.member(t, "b@gym.test")
	c := f.member(t, "c@gym.test")
	d := f.member(t, "d@gym.test")
	now := time.Now()
	window := time.Hour

	first, err := repo.Book(ctx, a, scheduleID, BookOptions{Now: now})
	require.NoError(t, err)
	for _, m := range []int{b, c, d} {
		_, err := repo.Book(ctx, m, scheduleID, BookOptions{Now: now, JoinWaitlist: true})
		require.NoError(t, err)
	}

	res, err := repo.Transition(ctx, first.Booking.ID, StatusCancelled, TransitionOptions{
		Now: now, Window: window, Policy: RefundPolicy{Cutoff: 2 * time.Hour}, MemberID: a,
	})
	require.NoError(t, err)
	require.Len(t, res.Offers, 1)
	offer := res.Offers[0]
	assert.Equal(t, b, offer.Entry.MemberID)
	assert.Equal(t, 2, f.remaining(t, b))

	later := now.Add(window + time.Minute)
	due, err := repo.DueOffers(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, []int{offer.Entry.ID}, due)

	w, err := repo.ExpireOffer(ctx, offer.Entry.ID, later, window)
	require.NoError(t, err)
	assert.True(t, w.Withdrawn)
	assert.True(t, w.Refunded)
	require.Len(t, w.Offers, 1)
	assert.Equal(t, c, w.Offers[0].Entry.MemberID)
	assert.Equal(t, 3, f.remaining(t, b))
	assert.Equal(t, 2, f.remaining(t, c))

	held, err := repo.GetBooking(ctx, offer.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, held.Status)

	var positions []int
	require.NoError(t, f.conn.Select(&positions,
		`SELECT position FROM class_waitlist WHERE schedule_id = $1 AND status = 'waiting' ORDER BY position`, scheduleID))
	assert.Equal(t, []int{1}, positions)

	var status string
	require.NoError(t, f.conn.Get(&status, `SELECT status FROM class_waitlist WHERE id = $1`, offer.Entry.ID))
	assert.Equal(t, WaitExpired, status)

	again, err := repo.ExpireOffer(ctx, offer.Entry.ID, later, window)
	require.NoError(t, err)
	assert.False(t, again.Withdrawn)
}

func TestScenario_CompletedBookingKeepsItsPlace(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository(f.conn)
	ctx := context.Background()
	scheduleID := f.schedule(t, 1)
	a := f.member(t, "a@gym.test")
	now := time.Now()

	first, err := repo.Book(ctx, a, scheduleID, BookOptions{Now: now})
	require.NoError(t, err)
	_, err = repo.Transition(ctx, first.Booking.ID, StatusCompleted, TransitionOptions{Now: now, ByStaff: true})
	require.NoError(t, err)

	_, err = repo.Book(ctx, f.member(t, "b@gym.test"), scheduleID, BookOptions{Now: now})
	assert.True(t, errors.Is(err, apperr.ErrCapacityExceeded))
}

func TestScenario_OnlyActiveMembersBook(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository(f.conn)
	ctx := context.Background()
	scheduleID := f.schedule(t, 5)

	_, err := repo.Book(ctx, f.trainer, scheduleID, BookOptions{Now: time.Now()})
	assert.True(t, apperr.IsNotFound(err))

	m := f.member(t, "gone@gym.test")
	_, err = f.conn.Exec(`UPDATE users SET is_active = FALSE WHERE id = $1`, m)
	require.NoError(t, err)
	_, err = repo.Book(ctx, m, scheduleID, BookOptions{Now: time.Now()})
	assert.True(t, apperr.IsValidation(err))
}

package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gymhub/internal/apperr"
	"gymhub/internal/credits"
	"gymhub/internal/db"
)

const bookingColumns = `id, member_id, schedule_id, status, pass_id, credit_source, cancelled_at, created_at, updated_at`

const waitlistColumns = `id, member_id, schedule_id, position, status, booking_id, notified_at, expires_at, created_at, updated_at`

// slot is the locked view of a schedule every booking mutation starts from.
// Locking the schedule row serialises capacity checks and waitlist
// renumbering for that schedule.
type slot struct {
	ID              int       `db:"id"`
	ClassID         int       `db:"class_id"`
	Capacity        int       `db:"capacity"`
	StartTime       time.Time `db:"start_time"`
	RequiresCredits bool      `db:"requires_credits"`
}

// lockMember checks the member can book. It is taken before the schedule,
// the same order check-in uses.
func lockMember(ctx context.Context, tx *sqlx.Tx, memberID int) error {
	var active bool
	err := tx.GetContext(ctx, &active,
		`SELECT is_active FROM users WHERE id = $1 AND role = 'member' FOR UPDATE`, memberID)
	if err != nil {
		return db.NotFound(err, fmt.Sprintf("member %d", memberID))
	}
	if !active {
		return apperr.Validation("member %d is deactivated", memberID)
	}
	return nil
}

func lockSlot(ctx context.Context, tx *sqlx.Tx, scheduleID int) (*slot, error) {
	var s slot
	err := tx.GetContext(ctx, &s, `
		SELECT s.id, s.class_id, s.capacity, s.start_time, c.requires_credits
		FROM class_schedules s
		JOIN classes c ON c.id = s.class_id
		WHERE s.id = $1
		FOR UPDATE OF s`, scheduleID)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("schedule %d", scheduleID))
	}
	return &s, nil
}

// occupiedCount counts the places taken on a schedule. A completed booking
// keeps its place, as check-in may happen before the class starts.
func occupiedCount(ctx context.Context, tx *sqlx.Tx, scheduleID int) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM class_bookings WHERE schedule_id = $1 AND status IN ('confirmed', 'completed')`, scheduleID)
	return n, err
}

// nextPosition is one past the last waiting position, or 1 for an empty list.
func nextPosition(ctx context.Context, tx *sqlx.Tx, scheduleID int) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM class_waitlist WHERE schedule_id = $1 AND status = 'waiting'`, scheduleID)
	return n, err
}

func hasActiveBooking(ctx context.Context, tx *sqlx.Tx, memberID, scheduleID int) (bool, error) {
	var ok bool
	err := tx.GetContext(ctx, &ok, `
		SELECT EXISTS(SELECT 1 FROM class_bookings
			WHERE member_id = $1 AND schedule_id = $2 AND status <> 'cancelled')`, memberID, scheduleID)
	return ok, err
}

func isQueued(ctx context.Context, tx *sqlx.Tx, memberID, scheduleID int) (bool, error) {
	var ok bool
	err := tx.GetContext(ctx, &ok, `
		SELECT EXISTS(SELECT 1 FROM class_waitlist
			WHERE member_id = $1 AND schedule_id = $2 AND status IN ('waiting', 'notified'))`, memberID, scheduleID)
	return ok, err
}

func capacityError(ctx context.Context, tx *sqlx.Tx, s *slot) error {
	next, err := nextPosition(ctx, tx, s.ID)
	if err != nil {
		return err
	}
	return &apperr.CapacityError{ScheduleID: s.ID, Capacity: s.Capacity, NextPosition: next}
}

// consume draws a credit when the class needs one.
func consume(ctx context.Context, tx *sqlx.Tx, memberID int, s *slot, now time.Time) (credits.Consumption, error) {
	if !s.RequiresCredits {
		return credits.Consumption{Source: credits.SourceNone}, nil
	}
	return credits.ConsumeTx(ctx, tx, memberID, s.ClassID, now)
}

func insertBooking(ctx context.Context, tx *sqlx.Tx, memberID, scheduleID int, status string, c credits.Consumption) (*Booking, error) {
	var b Booking
	err := tx.GetContext(ctx, &b, `
		INSERT INTO class_bookings (member_id, schedule_id, status, pass_id, credit_source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+bookingColumns,
		memberID, scheduleID, status, c.PassID, c.Source)
	if err != nil {
		return nil, db.Conflict(err, fmt.Sprintf("member %d already holds a booking for schedule %d", memberID, scheduleID))
	}

	if err := credits.RecordDeductionTx(ctx, tx, memberID, b.ID, c); err != nil {
		return nil, err
	}
	return &b, nil
}

func lockBooking(ctx context.Context, tx *sqlx.Tx, id int) (*Booking, error) {
	var b Booking
	err := tx.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM class_bookings WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("booking %d", id))
	}
	return &b, nil
}

func lockEntry(ctx context.Context, tx *sqlx.Tx, id int) (*WaitlistEntry, error) {
	var e WaitlistEntry
	err := tx.GetContext(ctx, &e, `SELECT `+waitlistColumns+` FROM class_waitlist WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("waitlist entry %d", id))
	}
	return &e, nil
}

// closeGap shifts every waiting entry behind a vacated position up by one.
// The position constraint is deferred so the shift may pass through
// transient duplicates.
func closeGap(ctx context.Context, tx *sqlx.Tx, scheduleID, vacated int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE class_waitlist
		SET position = position - 1, updated_at = NOW()
		WHERE schedule_id = $1 AND status = 'waiting' AND position > $2`, scheduleID, vacated)
	return err
}

// dequeue moves a waiting entry to a terminal or offered status and keeps the
// remaining positions dense.
func dequeue(ctx context.Context, tx *sqlx.Tx, e *WaitlistEntry, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE class_waitlist SET status = $2, position = NULL, updated_at = NOW()
		WHERE id = $1`, e.ID, status)
	if err != nil {
		return err
	}
	if e.Position == nil {
		return nil
	}
	return closeGap(ctx, tx, e.ScheduleID, *e.Position)
}

// setBookingStatus applies a status change and stamps cancelled_at for
// cancellations. With refund set the credit goes back to the pass it came
// from; the pass link is kept as provenance.
func setBookingStatus(ctx context.Context, tx *sqlx.Tx, b *Booking, to string, refund bool) error {
	query := `
		UPDATE class_bookings
		SET status = $2,
			cancelled_at = CASE WHEN $2 = 'cancelled' THEN NOW() ELSE cancelled_at END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bookingColumns
	if err := tx.GetContext(ctx, b, query, b.ID, to); err != nil {
		return err
	}
	if refund && b.PassID != nil && b.CreditSource == credits.SourcePass {
		return credits.RefundTx(ctx, tx, b.MemberID, b.ID, *b.PassID)
	}
	return nil
}

// promote fills free places from the head of the waitlist. Each promoted
// member gets a confirmed booking held for them and an offer that must be
// accepted before the window ends. Members without a usable credit or with a
// booking of their own are skipped and the cascade moves on.
func promote(ctx context.Context, tx *sqlx.Tx, s *slot, now time.Time, window time.Duration) ([]Offer, error) {
	var offers []Offer
	for {
		count, err := occupiedCount(ctx, tx, s.ID)
		if err != nil {
			return nil, err
		}
		if count >= s.Capacity {
			return offers, nil
		}

		var head WaitlistEntry
		err = tx.GetContext(ctx, &head, `
			SELECT `+waitlistColumns+`
			FROM class_waitlist
			WHERE schedule_id = $1 AND status = 'waiting'
			ORDER BY position
			LIMIT 1
			FOR UPDATE`, s.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return offers, nil
		}
		if err != nil {
			return nil, err
		}

		booked, err := hasActiveBooking(ctx, tx, head.MemberID, s.ID)
		if err != nil {
			return nil, err
		}
		if booked {
			if err := dequeue(ctx, tx, &head, WaitSkipped); err != nil {
				return nil, err
			}
			continue
		}

		c, err := consume(ctx, tx, head.MemberID, s, now)
		if errors.Is(err, apperr.ErrInsufficientCredits) {
			if err := dequeue(ctx, tx, &head, WaitSkipped); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		b, err := insertBooking(ctx, tx, head.MemberID, s.ID, StatusConfirmed, c)
		if err != nil {
			return nil, err
		}

		vacated := 0
		if head.Position != nil {
			vacated = *head.Position
		}
		expires := now.Add(window)
		err = tx.GetContext(ctx, &head, `
			UPDATE class_waitlist
			SET status = 'notified', position = NULL, booking_id = $2, notified_at = $3, expires_at = $4, updated_at = NOW()
			WHERE id = $1
			RETURNING `+waitlistColumns, head.ID, b.ID, now, expires)
		if err != nil {
			return nil, err
		}
		if vacated > 0 {
			if err := closeGap(ctx, tx, s.ID, vacated); err != nil {
				return nil, err
			}
		}

		offers = append(offers, Offer{Entry: head, Booking: *b})
	}
}

// withdrawOffer cancels the booking held by a notified entry and refunds its
// credit, then cascades to the next waiting member. s must already be locked.
func withdrawOffer(ctx context.Context, tx *sqlx.Tx, s *slot, e *WaitlistEntry, status string, now time.Time, window time.Duration) (*Withdrawal, error) {
	w := &Withdrawal{Withdrawn: true}
	if e.BookingID != nil {
		b, err := lockBooking(ctx, tx, *e.BookingID)
		if err != nil {
			return nil, err
		}
		if b.Status == StatusConfirmed {
			if err := setBookingStatus(ctx, tx, b, StatusCancelled, true); err != nil {
				return nil, err
			}
			w.Refunded = b.CreditSource == credits.SourcePass
		}
	}

	if err := dequeue(ctx, tx, e, status); err != nil {
		return nil, err
	}
	offers, err := promote(ctx, tx, s, now, window)
	if err != nil {
		return nil, err
	}
	w.Offers = offers
	return w, nil
}

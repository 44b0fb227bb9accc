package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"gymhub/internal/apperr"
	"gymhub/internal/credits"
	"gymhub/internal/db"
)

const detailSelect = `
	SELECT b.id, b.member_id, b.schedule_id, b.status, b.pass_id, b.credit_source, b.cancelled_at,
		b.created_at, b.updated_at,
		cl.name AS class_name, s.start_time, s.end_time, u.name AS member_name, u.email AS member_email
	FROM class_bookings b
	JOIN class_schedules s ON s.id = b.schedule_id
	JOIN classes cl ON cl.id = s.class_id
	JOIN users u ON u.id = b.member_id`

const waitlistSelect = `
	SELECT w.id, w.member_id, w.schedule_id, w.position, w.status, w.booking_id, w.notified_at, w.expires_at,
		w.created_at, w.updated_at,
		cl.name AS class_name, s.start_time, u.name AS member_name, u.email AS member_email
	FROM class_waitlist w
	JOIN class_schedules s ON s.id = w.schedule_id
	JOIN classes cl ON cl.id = s.class_id
	JOIN users u ON u.id = w.member_id`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Book(ctx context.Context, memberID, scheduleID int, opts BookOptions) (*BookResult, error) {
	var result BookResult
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockMember(ctx, tx, memberID); err != nil {
			return err
		}
		s, err := lockSlot(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		if !s.StartTime.After(opts.Now) {
			return apperr.Validation("schedule %d has already started", scheduleID)
		}

		booked, err := hasActiveBooking(ctx, tx, memberID, scheduleID)
		if err != nil {
			return err
		}
		if booked {
			return apperr.Conflict("member %d already holds a booking for schedule %d", memberID, scheduleID)
		}

		// A pending hold takes no place and no credit until confirmed.
		if opts.Pending {
			result.Booking, err = insertBooking(ctx, tx, memberID, scheduleID, StatusPending,
				credits.Consumption{Source: credits.SourceNone})
			return err
		}

		count, err := occupiedCount(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		if count >= s.Capacity {
			if !opts.JoinWaitlist {
				return capacityError(ctx, tx, s)
			}
			result.Waitlist, err = enqueue(ctx, tx, memberID, s)
			return err
		}

		c, err := consume(ctx, tx, memberID, s, opts.Now)
		if err != nil {
			return err
		}
		result.Booking, err = insertBooking(ctx, tx, memberID, scheduleID, StatusConfirmed, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func enqueue(ctx context.Context, tx *sqlx.Tx, memberID int, s *slot) (*WaitlistEntry, error) {
	queued, err := isQueued(ctx, tx, memberID, s.ID)
	if err != nil {
		return nil, err
	}
	if queued {
		return nil, apperr.Conflict("member %d is already on the waitlist for schedule %d", memberID, s.ID)
	}

	pos, err := nextPosition(ctx, tx, s.ID)
	if err != nil {
		return nil, err
	}

	var e WaitlistEntry
	err = tx.GetContext(ctx, &e, `
		INSERT INTO class_waitlist (member_id, schedule_id, position, status)
		VALUES ($1, $2, $3, 'waiting')
		RETURNING `+waitlistColumns, memberID, s.ID, pos)
	if err != nil {
		return nil, db.Conflict(err, fmt.Sprintf("member %d is already on the waitlist for schedule %d", memberID, s.ID))
	}
	return &e, nil
}

func (r *repository) Transition(ctx context.Context, bookingID int, to string, opts TransitionOptions) (*TransitionResult, error) {
	var result TransitionResult
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var scheduleID int
		err := tx.GetContext(ctx, &scheduleID, `SELECT schedule_id FROM class_bookings WHERE id = $1`, bookingID)
		if err != nil {
			return db.NotFound(err, fmt.Sprintf("booking %d", bookingID))
		}

		s, err := lockSlot(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		b, err := lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if opts.MemberID != 0 && b.MemberID != opts.MemberID {
			return apperr.NotFound(fmt.Sprintf("booking %d", bookingID))
		}

		from := b.Status
		result.From = from
		if !CanTransition(from, to) {
			return apperr.Transition(from, to)
		}

		if to == StatusConfirmed {
			count, err := occupiedCount(ctx, tx, s.ID)
			if err != nil {
				return err
			}
			if count >= s.Capacity {
				return capacityError(ctx, tx, s)
			}
			if err := confirmHold(ctx, tx, s, b, opts.Now); err != nil {
				return err
			}
			result.Booking = b
			return nil
		}

		refund := opts.Policy.Refundable(to, opts.ByStaff, s.StartTime, opts.Now)
		if err := setBookingStatus(ctx, tx, b, to, refund); err != nil {
			return err
		}
		result.Booking = b
		result.Refunded = refund && b.CreditSource == credits.SourcePass

		// An outstanding offer for this booking is settled by the transition.
		_, err = tx.ExecContext(ctx, `
			UPDATE class_waitlist SET status = 'declined', updated_at = NOW()
			WHERE booking_id = $1 AND status = 'notified'`, b.ID)
		if err != nil {
			return err
		}

		if FreesSlot(from, to) {
			result.Offers, err = promote(ctx, tx, s, opts.Now, opts.Window)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// confirmHold turns a pending hold into a confirmed booking, drawing the
// credit the hold did not take.
func confirmHold(ctx context.Context, tx *sqlx.Tx, s *slot, b *Booking, now time.Time) error {
	c, err := consume(ctx, tx, b.MemberID, s, now)
	if err != nil {
		return err
	}

	err = tx.GetContext(ctx, b, `
		UPDATE class_bookings
		SET status = 'confirmed', pass_id = $2, credit_source = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+bookingColumns, b.ID, c.PassID, c.Source)
	if err != nil {
		return err
	}
	return credits.RecordDeductionTx(ctx, tx, b.MemberID, b.ID, c)
}

func (r *repository) JoinWaitlist(ctx context.Context, memberID, scheduleID int, now time.Time) (*WaitlistEntry, error) {
	var entry *WaitlistEntry
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockMember(ctx, tx, memberID); err != nil {
			return err
		}
		s, err := lockSlot(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		if !s.StartTime.After(now) {
			return apperr.Validation("schedule %d has already started", scheduleID)
		}

		count, err := occupiedCount(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		if count < s.Capacity {
			return apperr.Validation("schedule %d still has free places", scheduleID)
		}

		booked, err := hasActiveBooking(ctx, tx, memberID, scheduleID)
		if err != nil {
			return err
		}
		if booked {
			return apperr.Conflict("member %d already holds a booking for schedule %d", memberID, scheduleID)
		}

		entry, err = enqueue(ctx, tx, memberID, s)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) LeaveWaitlist(ctx context.Context, memberID, entryID int) (*WaitlistEntry, error) {
	var entry *WaitlistEntry
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, e, err := r.lockOwnEntry(ctx, tx, memberID, entryID)
		if err != nil {
			return err
		}
		if e.Status != WaitWaiting {
			return apperr.Transition(e.Status, WaitLeft)
		}
		if err := dequeue(ctx, tx, e, WaitLeft); err != nil {
			return err
		}
		e.Status = WaitLeft
		e.Position = nil
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// lockOwnEntry locks the schedule and then the entry, hiding other members'
// entries behind NotFound.
func (r *repository) lockOwnEntry(ctx context.Context, tx *sqlx.Tx, memberID, entryID int) (*slot, *WaitlistEntry, error) {
	var scheduleID int
	err := tx.GetContext(ctx, &scheduleID,
		`SELECT schedule_id FROM class_waitlist WHERE id = $1 AND member_id = $2`, entryID, memberID)
	if err != nil {
		return nil, nil, db.NotFound(err, fmt.Sprintf("waitlist entry %d", entryID))
	}
	s, err := lockSlot(ctx, tx, scheduleID)
	if err != nil {
		return nil, nil, err
	}
	e, err := lockEntry(ctx, tx, entryID)
	if err != nil {
		return nil, nil, err
	}
	return s, e, nil
}

func (r *repository) AcceptOffer(ctx context.Context, memberID, entryID int, now time.Time) (*WaitlistEntry, error) {
	var entry WaitlistEntry
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		e, err := lockEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if e.MemberID != memberID {
			return apperr.NotFound(fmt.Sprintf("waitlist entry %d", entryID))
		}
		if e.Status != WaitNotified {
			return apperr.Transition(e.Status, WaitAccepted)
		}
		if e.ExpiresAt != nil && !now.Before(*e.ExpiresAt) {
			return fmt.Errorf("%w: offer expired at %s", apperr.ErrStateTransition, e.ExpiresAt.Format(time.RFC3339))
		}

		return tx.GetContext(ctx, &entry, `
			UPDATE class_waitlist SET status = 'accepted', updated_at = NOW()
			WHERE id = $1
			RETURNING `+waitlistColumns, entryID)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) DeclineOffer(ctx context.Context, memberID, entryID int, now time.Time, window time.Duration) (*Withdrawal, error) {
	var w *Withdrawal
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		s, e, err := r.lockOwnEntry(ctx, tx, memberID, entryID)
		if err != nil {
			return err
		}
		if e.Status != WaitNotified {
			return apperr.Transition(e.Status, WaitDeclined)
		}

		w, err = withdrawOffer(ctx, tx, s, e, WaitDeclined, now, window)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *repository) DueOffers(ctx context.Context, now time.Time) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id FROM class_waitlist
		WHERE status = 'notified' AND expires_at <= $1
		ORDER BY expires_at, id`, now)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ExpireOffer withdraws one lapsed offer. Withdrawn is false when the offer
// was accepted or settled after DueOffers listed it.
func (r *repository) ExpireOffer(ctx context.Context, entryID int, now time.Time, window time.Duration) (*Withdrawal, error) {
	w := &Withdrawal{}
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var scheduleID int
		err := tx.GetContext(ctx, &scheduleID, `SELECT schedule_id FROM class_waitlist WHERE id = $1`, entryID)
		if err != nil {
			return db.NotFound(err, fmt.Sprintf("waitlist entry %d", entryID))
		}
		s, err := lockSlot(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		e, err := lockEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if e.Status != WaitNotified || e.ExpiresAt == nil || e.ExpiresAt.After(now) {
			return nil
		}

		w, err = withdrawOffer(ctx, tx, s, e, WaitExpired, now, window)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *repository) GetBooking(ctx context.Context, id int) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM class_bookings WHERE id = $1`, id)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("booking %d", id))
	}
	return &b, nil
}

func (r *repository) GetDetail(ctx context.Context, id int) (*BookingDetail, error) {
	var d BookingDetail
	err := r.db.GetContext(ctx, &d, detailSelect+` WHERE b.id = $1`, id)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("booking %d", id))
	}
	return &d, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]BookingDetail, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.MemberID != nil {
		args = append(args, *filter.MemberID)
		conds = append(conds, fmt.Sprintf("b.member_id = $%d", len(args)))
	}
	if filter.ScheduleID != nil {
		args = append(args, *filter.ScheduleID)
		conds = append(conds, fmt.Sprintf("b.schedule_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("b.status = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM class_bookings b`+where, args...); err != nil {
		return nil, 0, err
	}

	query := detailSelect + where + fmt.Sprintf(" ORDER BY s.start_time DESC, b.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	var list []BookingDetail
	if err := r.db.SelectContext(ctx, &list, query, append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListWaitlist returns a schedule's live queue in position order, or a
// member's full waitlist history.
func (r *repository) ListWaitlist(ctx context.Context, filter WaitlistFilter) ([]WaitlistDetail, error) {
	var (
		query string
		arg   int
	)
	switch {
	case filter.ScheduleID != nil:
		query = waitlistSelect + ` WHERE w.schedule_id = $1 AND w.status IN ('waiting', 'notified')
			ORDER BY w.position NULLS FIRST, w.id`
		arg = *filter.ScheduleID
	case filter.MemberID != nil:
		query = waitlistSelect + ` WHERE w.member_id = $1 ORDER BY w.created_at DESC, w.id DESC`
		arg = *filter.MemberID
	default:
		return nil, apperr.Validation("waitlist filter needs a schedule or member")
	}

	var list []WaitlistDetail
	if err := r.db.SelectContext(ctx, &list, query, arg); err != nil {
		return nil, err
	}
	return list, nil
}

package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"gymhub/internal/apperr"
	"gymhub/internal/db"
)

const recordColumns = `id, member_id, schedule_id, type, method, check_in_time, check_out_time, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// CheckIn opens a session for the member. With a schedule the member's
// confirmed booking for it is completed in the same transaction.
func (r *repository) CheckIn(ctx context.Context, p CheckInParams) (*Record, error) {
	var rec Record
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var active bool
		err := tx.GetContext(ctx, &active,
			`SELECT is_active FROM users WHERE id = $1 AND role = 'member' FOR UPDATE`, p.MemberID)
		if err != nil {
			return db.NotFound(err, fmt.Sprintf("member %d", p.MemberID))
		}
		if !active {
			return apperr.Validation("member %d is deactivated", p.MemberID)
		}

		var open bool
		if err := tx.GetContext(ctx, &open, `
			SELECT EXISTS(SELECT 1 FROM attendance WHERE member_id = $1 AND check_out_time IS NULL)`,
			p.MemberID); err != nil {
			return err
		}
		if open {
			return apperr.Conflict("member %d is already checked in", p.MemberID)
		}

		kind := TypeGymVisit
		if p.ScheduleID != nil {
			kind = TypeClassAttendance
			if err := completeBooking(ctx, tx, p.MemberID, *p.ScheduleID); err != nil {
				return err
			}
		}

		err = tx.GetContext(ctx, &rec, `
			INSERT INTO attendance (member_id, schedule_id, type, method, check_in_time)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+recordColumns,
			p.MemberID, p.ScheduleID, kind, p.Method, p.Now)
		return db.Conflict(err, fmt.Sprintf("member %d is already checked in", p.MemberID))
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// completeBooking marks the member's booking as attended. The schedule row is
// locked before the booking. An offer still outstanding for the booking is
// settled as accepted so it cannot lapse and release the place.
func completeBooking(ctx context.Context, tx *sqlx.Tx, memberID, scheduleID int) error {
	var locked int
	err := tx.GetContext(ctx, &locked,
		`SELECT id FROM class_schedules WHERE id = $1 FOR UPDATE`, scheduleID)
	if err != nil {
		return db.NotFound(err, fmt.Sprintf("schedule %d", scheduleID))
	}

	var id int
	err = tx.GetContext(ctx, &id, `
		SELECT id FROM class_bookings
		WHERE member_id = $1 AND schedule_id = $2 AND status = 'confirmed'
		FOR UPDATE`, memberID, scheduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Validation("member %d has no confirmed booking for schedule %d", memberID, scheduleID)
	}
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE class_bookings SET status = 'completed', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE class_waitlist SET status = 'accepted', updated_at = NOW()
		WHERE booking_id = $1 AND status = 'notified'`, id)
	return err
}

// CheckOut closes the member's open session. The check-out time is clamped
// so it never precedes the check-in.
func (r *repository) CheckOut(ctx context.Context, memberID int, now time.Time) (*Record, error) {
	var rec Record
	err := r.db.GetContext(ctx, &rec, `
		UPDATE attendance
		SET check_out_time = GREATEST($2, check_in_time)
		WHERE member_id = $1 AND check_out_time IS NULL
		RETURNING `+recordColumns, memberID, now)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("open session for member %d", memberID))
	}
	return &rec, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]RecordDetail, int, error) {
	var conds []string
	var args []interface{}
	if filter.MemberID != nil {
		args = append(args, *filter.MemberID)
		conds = append(conds, fmt.Sprintf("a.member_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("a.check_in_time >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("a.check_in_time < $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM attendance a`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `
		SELECT a.id, a.member_id, a.schedule_id, a.type, a.method, a.check_in_time, a.check_out_time, a.created_at,
			u.name AS member_name, c.name AS class_name
		FROM attendance a
		JOIN users u ON u.id = a.member_id
		LEFT JOIN class_schedules s ON s.id = a.schedule_id
		LEFT JOIN classes c ON c.id = s.class_id` + where +
		fmt.Sprintf(" ORDER BY a.check_in_time DESC, a.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var list []RecordDetail
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *repository) Visits(ctx context.Context, from, to time.Time) ([]Visit, error) {
	var visits []Visit
	err := r.db.SelectContext(ctx, &visits, `
		SELECT member_id, check_in_time, check_out_time
		FROM attendance
		WHERE check_in_time >= $1 AND check_in_time < $2
		ORDER BY check_in_time`, from, to)
	if err != nil {
		return nil, err
	}
	return visits, nil
}

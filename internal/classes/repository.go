package classes

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"gymhub/internal/db"
)

const classColumns = `id, name, description, category, duration_minutes, requires_credits, is_active, created_at`

const scheduleSelect = `
	SELECT s.id, s.class_id, s.trainer_id, s.start_time, s.end_time, s.capacity, s.location, s.created_at,
		c.name AS class_name,
		u.name AS trainer_name,
		(SELECT COUNT(*) FROM class_bookings b
			WHERE b.schedule_id = s.id AND b.status IN ('confirmed', 'completed')) AS confirmed_count,
		(SELECT COUNT(*) FROM class_waitlist w
			WHERE w.schedule_id = s.id AND w.status = 'waiting') AS waiting_count
	FROM class_schedules s
	JOIN classes c ON c.id = s.class_id
	JOIN users u ON u.id = s.trainer_id`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateClass(ctx context.Context, c *Class) (*Class, error) {
	query := `
		INSERT INTO classes (name, description, category, duration_minutes, requires_credits)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + classColumns

	var created Class
	err := r.db.GetContext(ctx, &created, query,
		c.Name, c.Description, c.Category, c.DurationMinutes, c.RequiresCredits)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) ListClasses(ctx context.Context, activeOnly bool, limit, offset int) ([]Class, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE is_active = TRUE"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM classes`+where); err != nil {
		return nil, 0, err
	}

	var list []Class
	query := `SELECT ` + classColumns + ` FROM classes` + where + ` ORDER BY name, id LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &list, query, limit, offset); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *repository) GetClass(ctx context.Context, id int) (*Class, error) {
	var c Class
	err := r.db.GetContext(ctx, &c, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("class %d", id))
	}
	return &c, nil
}

func (r *repository) RatingStats(ctx context.Context, classID int) (*float64, int, error) {
	var row struct {
		Avg   *float64 `db:"avg"`
		Count int      `db:"count"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT AVG(rating)::float8 AS avg, COUNT(*) AS count FROM class_ratings WHERE class_id = $1`, classID)
	if err != nil {
		return nil, 0, err
	}
	return row.Avg, row.Count, nil
}

func (r *repository) IsActiveTrainer(ctx context.Context, userID int) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = 'trainer' AND is_active = TRUE)`, userID)
	return ok, err
}

func (r *repository) CreateSchedule(ctx context.Context, s *Schedule) (*Schedule, error) {
	query := `
		INSERT INTO class_schedules (class_id, trainer_id, start_time, end_time, capacity, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, class_id, trainer_id, start_time, end_time, capacity, location, created_at`

	var created Schedule
	err := r.db.GetContext(ctx, &created, query,
		s.ClassID, s.TrainerID, s.StartTime, s.EndTime, s.Capacity, s.Location)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetSchedule(ctx context.Context, id int) (*ScheduleWithAvailability, error) {
	var s ScheduleWithAvailability
	if err := r.db.GetContext(ctx, &s, scheduleSelect+` WHERE s.id = $1`, id); err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("schedule %d", id))
	}
	s.fill()
	return &s, nil
}

func (r *repository) ListSchedules(ctx context.Context, filter ScheduleFilter, limit, offset int) ([]ScheduleWithAvailability, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("s.start_time >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("s.start_time < $%d", len(args)))
	}
	if filter.ClassID != nil {
		args = append(args, *filter.ClassID)
		conds = append(conds, fmt.Sprintf("s.class_id = $%d", len(args)))
	}
	if filter.TrainerID != nil {
		args = append(args, *filter.TrainerID)
		conds = append(conds, fmt.Sprintf("s.trainer_id = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM class_schedules s`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`%s%s ORDER BY s.start_time, s.id LIMIT $%d OFFSET $%d`,
		scheduleSelect, where, len(args)-1, len(args))

	var list []ScheduleWithAvailability
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].fill()
	}
	return list, total, nil
}

// CompletedBookingClass returns the class of a COMPLETED booking owned by memberID.
func (r *repository) CompletedBookingClass(ctx context.Context, bookingID, memberID int) (int, error) {
	query := `
		SELECT s.class_id
		FROM class_bookings b
		JOIN class_schedules s ON s.id = b.schedule_id
		WHERE b.id = $1 AND b.member_id = $2 AND b.status = 'completed'`

	var classID int
	if err := r.db.GetContext(ctx, &classID, query, bookingID, memberID); err != nil {
		return 0, db.NotFound(err, "completed booking")
	}
	return classID, nil
}

func (r *repository) CreateRating(ctx context.Context, rt *Rating) (*Rating, error) {
	query := `
		INSERT INTO class_ratings (booking_id, class_id, member_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, booking_id, class_id, member_id, rating, comment, created_at`

	var created Rating
	err := r.db.GetContext(ctx, &created, query, rt.BookingID, rt.ClassID, rt.MemberID, rt.Rating, rt.Comment)
	if err != nil {
		return nil, db.Conflict(err, "booking already rated")
	}
	return &created, nil
}

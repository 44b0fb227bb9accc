package attendance

import (
	"context"
	"time"
)

type CheckInParams struct {
	MemberID   int
	ScheduleID *int
	Method     string
	Now        time.Time
}

type Repository interface {
	CheckIn(ctx context.Context, p CheckInParams) (*Record, error)
	CheckOut(ctx context.Context, memberID int, now time.Time) (*Record, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]RecordDetail, int, error)
	Visits(ctx context.Context, from, to time.Time) ([]Visit, error)
}

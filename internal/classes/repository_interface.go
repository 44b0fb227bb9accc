package classes

import "context"

type Repository interface {
	CreateClass(ctx context.Context, c *Class) (*Class, error)
	ListClasses(ctx context.Context, activeOnly bool, limit, offset int) ([]Class, int, error)
	GetClass(ctx context.Context, id int) (*Class, error)
	RatingStats(ctx context.Context, classID int) (*float64, int, error)
	IsActiveTrainer(ctx context.Context, userID int) (bool, error)
	CreateSchedule(ctx context.Context, s *Schedule) (*Schedule, error)
	GetSchedule(ctx context.Context, id int) (*ScheduleWithAvailability, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter, limit, offset int) ([]ScheduleWithAvailability, int, error)
	CompletedBookingClass(ctx context.Context, bookingID, memberID int) (int, error)
	CreateRating(ctx context.Context, r *Rating) (*Rating, error)
}

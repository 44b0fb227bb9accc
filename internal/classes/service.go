package classes

import (
	"context"
	"time"

	"gymhub/internal/apperr"
)

type Service interface {
	CreateClass(ctx context.Context, req CreateClassRequest) (*Class, error)
	ListClasses(ctx context.Context, activeOnly bool, limit, offset int) ([]Class, int, error)
	GetClass(ctx context.Context, id int) (*ClassDetail, error)
	CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*Schedule, error)
	GetSchedule(ctx context.Context, id int) (*ScheduleWithAvailability, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter, limit, offset int) ([]ScheduleWithAvailability, int, error)
	RateClass(ctx context.Context, memberID int, req RateClassRequest) (*Rating, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) CreateClass(ctx context.Context, req CreateClassRequest) (*Class, error) {
	requiresCredits := true
	if req.RequiresCredits != nil {
		requiresCredits = *req.RequiresCredits
	}
	return s.repo.CreateClass(ctx, &Class{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		DurationMinutes: req.DurationMinutes,
		RequiresCredits: requiresCredits,
	})
}

func (s *service) ListClasses(ctx context.Context, activeOnly bool, limit, offset int) ([]Class, int, error) {
	return s.repo.ListClasses(ctx, activeOnly, limit, offset)
}

func (s *service) GetClass(ctx context.Context, id int) (*ClassDetail, error) {
	c, err := s.repo.GetClass(ctx, id)
	if err != nil {
		return nil, err
	}
	avg, count, err := s.repo.RatingStats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ClassDetail{Class: *c, AverageRating: avg, RatingCount: count}, nil
}

func (s *service) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*Schedule, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, apperr.Validation("end_time must be after start_time")
	}
	if req.Capacity < 1 {
		return nil, apperr.Validation("capacity must be at least 1")
	}
	if !req.StartTime.After(s.now()) {
		return nil, apperr.Validation("start_time must be in the future")
	}

	class, err := s.repo.GetClass(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	if !class.IsActive {
		return nil, apperr.Validation("class %d is not active", class.ID)
	}

	isTrainer, err := s.repo.IsActiveTrainer(ctx, req.TrainerID)
	if err != nil {
		return nil, err
	}
	if !isTrainer {
		return nil, apperr.Validation("user %d is not an active trainer", req.TrainerID)
	}

	return s.repo.CreateSchedule(ctx, &Schedule{
		ClassID:   req.ClassID,
		TrainerID: req.TrainerID,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		Capacity:  req.Capacity,
		Location:  req.Location,
	})
}

func (s *service) GetSchedule(ctx context.Context, id int) (*ScheduleWithAvailability, error) {
	return s.repo.GetSchedule(ctx, id)
}

func (s *service) ListSchedules(ctx context.Context, filter ScheduleFilter, limit, offset int) ([]ScheduleWithAvailability, int, error) {
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		return nil, 0, apperr.Validation("to must be after from")
	}
	return s.repo.ListSchedules(ctx, filter, limit, offset)
}

// RateClass records feedback for a class the member actually attended.
func (s *service) RateClass(ctx context.Context, memberID int, req RateClassRequest) (*Rating, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}

	classID, err := s.repo.CompletedBookingClass(ctx, req.BookingID, memberID)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateRating(ctx, &Rating{
		BookingID: req.BookingID,
		ClassID:   classID,
		MemberID:  memberID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
}

package attendance

import (
	"context"
	"time"

	"gymhub/internal/apperr"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
	"gymhub/internal/user"
)

const (
	DefaultReportDays = 30
	MaxReportDays     = 365
)

// TokenResolver maps a QR check-in token to the active member holding it.
type TokenResolver interface {
	ResolveQRToken(ctx context.Context, token string) (*user.User, error)
}

type Service interface {
	CheckIn(ctx context.Context, req CheckInRequest) (*Record, error)
	CheckInByQR(ctx context.Context, req QRCheckInRequest) (*Record, error)
	CheckOut(ctx context.Context, memberID int) (*Record, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]RecordDetail, int, error)
	Report(ctx context.Context, from, to *time.Time, days int) (*Report, error)
}

type service struct {
	repo   Repository
	tokens TokenResolver
	now    func() time.Time
}

func NewService(repo Repository, tokens TokenResolver) Service {
	return &service{repo: repo, tokens: tokens, now: time.Now}
}

func (s *service) CheckIn(ctx context.Context, req CheckInRequest) (*Record, error) {
	return s.checkIn(ctx, req.MemberID, req.ScheduleID, MethodManual)
}

func (s *service) CheckInByQR(ctx context.Context, req QRCheckInRequest) (*Record, error) {
	member, err := s.tokens.ResolveQRToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	return s.checkIn(ctx, member.ID, req.ScheduleID, MethodQR)
}

func (s *service) checkIn(ctx context.Context, memberID int, scheduleID *int, method string) (*Record, error) {
	rec, err := s.repo.CheckIn(ctx, CheckInParams{
		MemberID:   memberID,
		ScheduleID: scheduleID,
		Method:     method,
		Now:        s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCheckIn(rec.Method, rec.Type)
	if rec.Type == TypeClassAttendance {
		metrics.RecordBookingTransition("confirmed", "completed")
	}
	logger.Info("member checked in", "attendance_id", rec.ID, "member_id", memberID,
		"type", rec.Type, "method", method)
	return rec, nil
}

func (s *service) CheckOut(ctx context.Context, memberID int) (*Record, error) {
	rec, err := s.repo.CheckOut(ctx, memberID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	logger.Info("member checked out", "attendance_id", rec.ID, "member_id", memberID)
	return rec, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]RecordDetail, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// Report covers either an explicit [from, to) range or the trailing number
// of days ending now.
func (s *service) Report(ctx context.Context, from, to *time.Time, days int) (*Report, error) {
	end := s.now().UTC()
	if to != nil {
		end = to.UTC()
	}

	var start time.Time
	switch {
	case from != nil:
		start = from.UTC()
		if !end.After(start) {
			return nil, apperr.Validation("to must be after from")
		}
		if end.Sub(start) > MaxReportDays*24*time.Hour {
			return nil, apperr.Validation("report range cannot exceed %d days", MaxReportDays)
		}
	default:
		if days == 0 {
			days = DefaultReportDays
		}
		if days < 1 || days > MaxReportDays {
			return nil, apperr.Validation("days must be between 1 and %d", MaxReportDays)
		}
		start = end.AddDate(0, 0, -days)
	}

	visits, err := s.repo.Visits(ctx, start, end)
	if err != nil {
		return nil, err
	}
	report := BuildReport(visits, start, end)
	return &report, nil
}

package discount

import (
	"context"
	"time"

	"gymhub/internal/apperr"
	"gymhub/internal/logger"
)

type Service interface {
	Create(ctx context.Context, req CreateCodeRequest) (*Code, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]Code, int, error)
	Deactivate(ctx context.Context, id int) (*Code, error)
	Preview(ctx context.Context, req PreviewRequest) (*Preview, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Create(ctx context.Context, req CreateCodeRequest) (*Code, error) {
	if req.Type == TypePercentage && req.Amount > 100 {
		return nil, apperr.Validation("percentage discount must be between 1 and 100")
	}
	if req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt) {
		return nil, apperr.Validation("ends_at must be after starts_at")
	}

	code, err := s.repo.Create(ctx, &Code{
		Code:           Normalize(req.Code),
		Description:    req.Description,
		Type:           req.Type,
		Amount:         req.Amount,
		MaxRedemptions: req.MaxRedemptions,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("discount code created", "code", code.Code, "type", code.Type, "amount", code.Amount)
	return code, nil
}

func (s *service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]Code, int, error) {
	return s.repo.List(ctx, activeOnly, limit, offset)
}

func (s *service) Deactivate(ctx context.Context, id int) (*Code, error) {
	return s.repo.Deactivate(ctx, id)
}

// Preview validates a code against a plan without redeeming it.
func (s *service) Preview(ctx context.Context, req PreviewRequest) (*Preview, error) {
	code, err := s.repo.GetByCode(ctx, Normalize(req.Code))
	if err != nil {
		return nil, err
	}
	if err := code.Check(s.now()); err != nil {
		return nil, err
	}

	price, err := s.repo.PlanPrice(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	off := code.Apply(price)
	return &Preview{
		Code:          code.Code,
		OriginalCents: price,
		DiscountCents: off,
		FinalCents:    price - off,
		RemainingUses: code.RemainingUses(),
	}, nil
}

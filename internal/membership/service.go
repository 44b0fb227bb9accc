package membership

import (
	"context"
	"time"

	"gymhub/internal/logger"
	"gymhub/internal/metrics"
)

// Mailer sends the membership welcome mail. *email.Service satisfies it.
type Mailer interface {
	SendMembershipAssigned(ctx context.Context, to, name, planName string, start, end time.Time, priceCents int64) error
}

type Service interface {
	CreatePlan(ctx context.Context, req CreatePlanRequest) (*Plan, error)
	ListPlans(ctx context.Context, activeOnly bool, limit, offset int) ([]Plan, int, error)
	GetPlan(ctx context.Context, id int) (*Plan, error)
	UpdatePlan(ctx context.Context, id int, req UpdatePlanRequest) (*Plan, error)
	DeactivatePlan(ctx context.Context, id int) (*Plan, error)

	Assign(ctx context.Context, req AssignRequest) (*MembershipDetail, error)
	Apply(ctx context.Context, id int, action string) (*Membership, error)
	Get(ctx context.Context, id int) (*MembershipDetail, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]MembershipDetail, int, error)
	Sweep(ctx context.Context) (*SweepResult, error)
}

type service struct {
	repo   Repository
	mailer Mailer
	now    func() time.Time
}

func NewService(repo Repository, mailer Mailer) Service {
	return &service{repo: repo, mailer: mailer, now: time.Now}
}

func (s *service) CreatePlan(ctx context.Context, req CreatePlanRequest) (*Plan, error) {
	features := req.Features
	if features == nil {
		features = []string{}
	}
	return s.repo.CreatePlan(ctx, &Plan{
		Name:         req.Name,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		PriceCents:   req.PriceCents,
		Features:     features,
	})
}

func (s *service) ListPlans(ctx context.Context, activeOnly bool, limit, offset int) ([]Plan, int, error) {
	return s.repo.ListPlans(ctx, activeOnly, limit, offset)
}

func (s *service) GetPlan(ctx context.Context, id int) (*Plan, error) {
	return s.repo.GetPlan(ctx, id)
}

func (s *service) UpdatePlan(ctx context.Context, id int, req UpdatePlanRequest) (*Plan, error) {
	return s.repo.UpdatePlan(ctx, id, req)
}

func (s *service) DeactivatePlan(ctx context.Context, id int) (*Plan, error) {
	return s.repo.DeactivatePlan(ctx, id)
}

// Assign gives a member a plan starting now or at the requested date.
func (s *service) Assign(ctx context.Context, req AssignRequest) (*MembershipDetail, error) {
	now := s.now().UTC()
	start := now
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}

	m, err := s.repo.Assign(ctx, AssignParams{
		MemberID: req.MemberID,
		PlanID:   req.PlanID,
		Code:     req.DiscountCode,
		Start:    start,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMembership(m.Status)
	if m.DiscountCodeID != nil {
		metrics.RecordDiscountRedemption()
	}
	logger.Info("membership assigned", "membership_id", m.ID, "member_id", m.MemberID, "plan_id", m.PlanID,
		"status", m.Status, "price_cents", m.PriceCents, "discount_cents", m.DiscountCents)

	d, err := s.repo.GetDetail(ctx, m.ID)
	if err != nil {
		logger.Error("failed to load membership after assignment", "membership_id", m.ID, "error", err)
		return &MembershipDetail{Membership: *m}, nil
	}
	if s.mailer != nil {
		if err := s.mailer.SendMembershipAssigned(ctx, d.MemberEmail, d.MemberName, d.PlanName,
			d.StartDate, d.EndDate, d.PriceCents); err != nil {
			logger.Error("failed to queue membership email", "membership_id", m.ID, "error", err)
		}
	}
	return d, nil
}

// Apply runs a freeze, unfreeze or cancel action.
func (s *service) Apply(ctx context.Context, id int, action string) (*Membership, error) {
	d, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	to, err := ActionTarget(action, d.Status)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.Transition(ctx, id, to, s.now().UTC())
	if err != nil {
		return nil, err
	}

	metrics.RecordMembership(m.Status)
	logger.Info("membership updated", "membership_id", id, "action", action, "status", m.Status)
	return m, nil
}

func (s *service) Get(ctx context.Context, id int) (*MembershipDetail, error) {
	return s.repo.GetDetail(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]MembershipDetail, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *service) Sweep(ctx context.Context) (*SweepResult, error) {
	res, err := s.repo.Sweep(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}
	for i := 0; i < res.Expired; i++ {
		metrics.RecordMembership(StatusExpired)
	}
	for i := 0; i < res.Activated; i++ {
		metrics.RecordMembership(StatusActive)
	}
	if res.Expired > 0 || res.Activated > 0 {
		logger.Info("membership sweep", "expired", res.Expired, "activated", res.Activated)
	}
	return res, nil
}

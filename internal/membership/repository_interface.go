package membership

import (
	"context"
	"time"
)

type AssignParams struct {
	MemberID int
	PlanID   int
	Code     string
	Start    time.Time
	Now      time.Time
}

type Repository interface {
	CreatePlan(ctx context.Context, p *Plan) (*Plan, error)
	ListPlans(ctx context.Context, activeOnly bool, limit, offset int) ([]Plan, int, error)
	GetPlan(ctx context.Context, id int) (*Plan, error)
	UpdatePlan(ctx context.Context, id int, req UpdatePlanRequest) (*Plan, error)
	DeactivatePlan(ctx context.Context, id int) (*Plan, error)

	Assign(ctx context.Context, p AssignParams) (*Membership, error)
	Transition(ctx context.Context, id int, to string, now time.Time) (*Membership, error)
	GetDetail(ctx context.Context, id int) (*MembershipDetail, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]MembershipDetail, int, error)
	Sweep(ctx context.Context, now time.Time) (*SweepResult, error)
}

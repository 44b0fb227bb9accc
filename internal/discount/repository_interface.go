package discount

import "context"

type Repository interface {
	Create(ctx context.Context, c *Code) (*Code, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]Code, int, error)
	GetByCode(ctx context.Context, code string) (*Code, error)
	Deactivate(ctx context.Context, id int) (*Code, error)
	PlanPrice(ctx context.Context, planID int) (int64, error)
}

package retention

import (
	"context"
	"time"
)

type Repository interface {
	Activity(ctx context.Context, asOf time.Time) ([]Activity, error)
	Replace(ctx context.Context, scores []Score) error
	Overview(ctx context.Context) (*Overview, error)
	List(ctx context.Context, risk string, limit, offset int) ([]ScoreDetail, int, error)
}

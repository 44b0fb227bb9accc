package dashboard

import (
	"context"
	"time"
)

type Repository interface {
	CheckInsSince(ctx context.Context, since time.Time) (int, error)
	OpenSessions(ctx context.Context) (int, error)
	ActiveMemberships(ctx context.Context) (int, error)
	LowStockProducts(ctx context.Context) (int, error)
}

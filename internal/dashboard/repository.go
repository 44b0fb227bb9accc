package dashboard

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, query, args...)
	return n, err
}

func (r *repository) CheckInsSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM attendance WHERE check_in_time >= $1`, since)
}

func (r *repository) OpenSessions(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM attendance WHERE check_out_time IS NULL`)
}

func (r *repository) ActiveMemberships(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM memberships WHERE status = 'active'`)
}

func (r *repository) LowStockProducts(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM products WHERE is_active = TRUE AND stock_quantity <= low_stock_threshold`)
}

package discount

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gymhub/internal/db"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Code) (*Code, error) {
	query := `
		INSERT INTO discount_codes (code, description, discount_type, amount, max_redemptions, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + codeColumns

	var created Code
	err := r.db.GetContext(ctx, &created, query,
		c.Code, c.Description, c.Type, c.Amount, c.MaxRedemptions, c.StartsAt, c.EndsAt)
	if err != nil {
		return nil, db.Conflict(err, fmt.Sprintf("discount code %s already exists", c.Code))
	}
	return &created, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]Code, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE is_active = TRUE"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM discount_codes`+where); err != nil {
		return nil, 0, err
	}

	var codes []Code
	query := `SELECT ` + codeColumns + ` FROM discount_codes` + where + ` ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &codes, query, limit, offset); err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Code, error) {
	var c Code
	err := r.db.GetContext(ctx, &c, `SELECT `+codeColumns+` FROM discount_codes WHERE code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Invalid(code, ReasonNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Deactivate(ctx context.Context, id int) (*Code, error) {
	var c Code
	err := r.db.GetContext(ctx, &c, `
		UPDATE discount_codes SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+codeColumns, id)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("discount code %d", id))
	}
	return &c, nil
}

func (r *repository) PlanPrice(ctx context.Context, planID int) (int64, error) {
	var price int64
	err := r.db.GetContext(ctx, &price,
		`SELECT price_cents FROM membership_plans WHERE id = $1 AND is_active = TRUE`, planID)
	if err != nil {
		return 0, db.NotFound(err, fmt.Sprintf("plan %d", planID))
	}
	return price, nil
}

package discount

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const codeColumns = `id, code, description, discount_type, amount, is_active, max_redemptions,
	used_count, starts_at, ends_at, created_at, updated_at`

// RedeemTx locks the code, validates it and consumes one redemption. The
// returned code reflects the incremented used count. Callers count the
// redemption in metrics after tx commits.
func RedeemTx(ctx context.Context, tx *sqlx.Tx, code string, now time.Time) (*Code, error) {
	code = Normalize(code)

	var c Code
	err := tx.GetContext(ctx, &c, `SELECT `+codeColumns+` FROM discount_codes WHERE code = $1 FOR UPDATE`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Invalid(code, ReasonNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := c.Check(now); err != nil {
		return nil, err
	}

	// The guard repeats the cap so a row that slipped past the lock still
	// cannot exceed it.
	err = tx.GetContext(ctx, &c.UsedCount, `
		UPDATE discount_codes
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND (max_redemptions IS NULL OR used_count < max_redemptions)
		RETURNING used_count`, c.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Invalid(code, ReasonExhausted)
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

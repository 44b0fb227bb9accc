package credits

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gymhub/internal/apperr"
	"gymhub/internal/db"
)

const passColumns = `id, member_id, package_id, class_id, credits_included, credits_remaining,
	unlimited, is_active, purchased_at, expires_at, updated_at`

// ConsumeTx draws one credit for a booking of classID. The member's passes
// stay locked until tx ends, so concurrent bookings serialise here.
func ConsumeTx(ctx context.Context, tx *sqlx.Tx, memberID, classID int, now time.Time) (Consumption, error) {
	var passes []Pass
	err := tx.SelectContext(ctx, &passes, `
		SELECT `+passColumns+`
		FROM member_passes
		WHERE member_id = $1 AND is_active = TRUE
		ORDER BY id
		FOR UPDATE`, memberID)
	if err != nil {
		return Consumption{}, err
	}

	pass, ok := SelectPass(passes, classID, now)
	if !ok {
		return Consumption{}, fmt.Errorf("%w: member %d has no usable pass for class %d",
			apperr.ErrInsufficientCredits, memberID, classID)
	}

	if pass.Unlimited {
		return Consumption{PassID: &pass.ID, Source: SourceUnlimited}, nil
	}

	var remaining int
	err = tx.GetContext(ctx, &remaining, `
		UPDATE member_passes
		SET credits_remaining = credits_remaining - 1, updated_at = NOW()
		WHERE id = $1 AND credits_remaining > 0
		RETURNING credits_remaining`, pass.ID)
	if err != nil {
		return Consumption{}, db.NotFound(err, fmt.Sprintf("pass %d", pass.ID))
	}

	return Consumption{PassID: &pass.ID, Source: SourcePass, BalanceAfter: remaining}, nil
}

// RecordDeductionTx writes the ledger row for a consumption once the booking
// it paid for exists. Unlimited and free bookings leave no ledger entry.
// Callers count the deduction in metrics after tx commits.
func RecordDeductionTx(ctx context.Context, tx *sqlx.Tx, memberID, bookingID int, c Consumption) error {
	if c.Source != SourcePass || c.PassID == nil {
		return nil
	}
	return insertLedger(ctx, tx, *c.PassID, memberID, &bookingID, -1, TxDeduction, c.BalanceAfter)
}

// RefundTx returns one credit to the pass a booking drew from.
func RefundTx(ctx context.Context, tx *sqlx.Tx, memberID, bookingID, passID int) error {
	var remaining int
	err := tx.GetContext(ctx, &remaining, `
		UPDATE member_passes
		SET credits_remaining = credits_remaining + 1, updated_at = NOW()
		WHERE id = $1 AND member_id = $2
		RETURNING credits_remaining`, passID, memberID)
	if err != nil {
		return db.NotFound(err, fmt.Sprintf("pass %d", passID))
	}

	return insertLedger(ctx, tx, passID, memberID, &bookingID, 1, TxRefund, remaining)
}

func insertLedger(ctx context.Context, tx *sqlx.Tx, passID, memberID int, bookingID *int, amount int, txType string, balanceAfter int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (pass_id, member_id, booking_id, amount, type, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		passID, memberID, bookingID, amount, txType, balanceAfter)
	return err
}

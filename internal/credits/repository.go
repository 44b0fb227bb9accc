package credits

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gymhub/internal/db"
)

const packageColumns = `id, name, description, credits_included, price_cents, validity_days,
	monthly_unlimited, class_id, is_active, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePackage(ctx context.Context, p *Package) (*Package, error) {
	query := `
		INSERT INTO class_packages (name, description, credits_included, price_cents, validity_days, monthly_unlimited, class_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + packageColumns

	var created Package
	err := r.db.GetContext(ctx, &created, query,
		p.Name, p.Description, p.CreditsIncluded, p.PriceCents, p.ValidityDays, p.MonthlyUnlimited, p.ClassID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) ListPackages(ctx context.Context, activeOnly bool, limit, offset int) ([]Package, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE is_active = TRUE"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM class_packages`+where); err != nil {
		return nil, 0, err
	}

	var list []Package
	query := `SELECT ` + packageColumns + ` FROM class_packages` + where + ` ORDER BY price_cents, id LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &list, query, limit, offset); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *repository) GetPackage(ctx context.Context, id int) (*Package, error) {
	var p Package
	err := r.db.GetContext(ctx, &p, `SELECT `+packageColumns+` FROM class_packages WHERE id = $1`, id)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("package %d", id))
	}
	return &p, nil
}

func (r *repository) IsActiveMember(ctx context.Context, memberID int) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = 'member' AND is_active = TRUE)`, memberID)
	return ok, err
}

// IssuePass stores a new pass together with its purchase ledger entry.
func (r *repository) IssuePass(ctx context.Context, pass Pass) (*Pass, error) {
	var created Pass
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &created, `
			INSERT INTO member_passes (member_id, package_id, class_id, credits_included, credits_remaining,
				unlimited, purchased_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+passColumns,
			pass.MemberID, pass.PackageID, pass.ClassID, pass.CreditsIncluded, pass.CreditsRemaining,
			pass.Unlimited, pass.PurchasedAt, pass.ExpiresAt)
		if err != nil {
			return err
		}
		return insertLedger(ctx, tx, created.ID, created.MemberID, nil,
			created.CreditsIncluded, TxPurchase, created.CreditsRemaining)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) ListPasses(ctx context.Context, memberID int) ([]Pass, error) {
	var passes []Pass
	err := r.db.SelectContext(ctx, &passes, `
		SELECT `+passColumns+`
		FROM member_passes
		WHERE member_id = $1
		ORDER BY purchased_at DESC, id DESC`, memberID)
	if err != nil {
		return nil, err
	}
	return passes, nil
}

func (r *repository) ListLedger(ctx context.Context, memberID, limit, offset int) ([]Transaction, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM credit_transactions WHERE member_id = $1`, memberID); err != nil {
		return nil, 0, err
	}

	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, pass_id, member_id, booking_id, amount, type, balance_after, created_at
		FROM credit_transactions
		WHERE member_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, memberID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

package membership

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gymhub/internal/apperr"
	"gymhub/internal/db"
	"gymhub/internal/discount"
)

const planColumns = `id, name, description, duration_days, price_cents, features, is_active, created_at, updated_at`

const membershipColumns = `id, member_id, plan_id, status, start_date, end_date, price_cents,
	discount_code_id, discount_cents, frozen_at, cancelled_at, created_at, updated_at`

const detailSelect = `
	SELECT m.id, m.member_id, m.plan_id, m.status, m.start_date, m.end_date, m.price_cents,
		m.discount_code_id, m.discount_cents, m.frozen_at, m.cancelled_at, m.created_at, m.updated_at,
		p.name AS plan_name, u.name AS member_name, u.email AS member_email
	FROM memberships m
	JOIN membership_plans p ON p.id = m.plan_id
	JOIN users u ON u.id = m.member_id`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePlan(ctx context.Context, p *Plan) (*Plan, error) {
	query := `
		INSERT INTO membership_plans (name, description, duration_days, price_cents, features)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + planColumns

	var created Plan
	err := r.db.GetContext(ctx, &created, query,
		p.Name, p.Description, p.DurationDays, p.PriceCents, pq.Array([]string(p.Features)))
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) ListPlans(ctx context.Context, activeOnly bool, limit, offset int) ([]Plan, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE is_active = TRUE"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM membership_plans`+where); err != nil {
		return nil, 0, err
	}

	var plans []Plan
	query := `SELECT ` + planColumns + ` FROM membership_plans` + where + ` ORDER BY price_cents, id LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &plans, query, limit, offset); err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

func (r *repository) GetPlan(ctx context.Context, id int) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, `SELECT `+planColumns+` FROM membership_plans WHERE id = $1`, id)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("plan %d", id))
	}
	return &p, nil
}

// UpdatePlan refuses to touch a plan that live memberships still point at,
// so the terms a member signed up to never shift underneath them.
func (r *repository) UpdatePlan(ctx context.Context, id int, req UpdatePlanRequest) (*Plan, error) {
	var updated Plan
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT TRUE FROM membership_plans WHERE id = $1 FOR UPDATE`, id); err != nil {
			return db.NotFound(err, fmt.Sprintf("plan %d", id))
		}

		var live int
		if err := tx.GetContext(ctx, &live, `
			SELECT COUNT(*) FROM memberships
			WHERE plan_id = $1 AND status IN ('active', 'frozen', 'pending')`, id); err != nil {
			return err
		}
		if live > 0 {
			return apperr.Conflict("plan %d is used by %d live memberships", id, live)
		}

		var features interface{}
		if req.Features != nil {
			features = pq.Array(req.Features)
		}
		return tx.GetContext(ctx, &updated, `
			UPDATE membership_plans SET
				name = COALESCE($2, name),
				description = COALESCE($3, description),
				duration_days = COALESCE($4, duration_days),
				price_cents = COALESCE($5, price_cents),
				features = COALESCE($6, features),
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+planColumns,
			id, req.Name, req.Description, req.DurationDays, req.PriceCents, features)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *repository) DeactivatePlan(ctx context.Context, id int) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, `
		UPDATE membership_plans SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+planColumns, id)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("plan %d", id))
	}
	return &p, nil
}

// Assign creates a membership, redeeming the discount code in the same
// transaction. The member row is locked so concurrent assignments for one
// member queue up behind each other.
func (r *repository) Assign(ctx context.Context, p AssignParams) (*Membership, error) {
	var created Membership
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var active bool
		err := tx.GetContext(ctx, &active,
			`SELECT is_active FROM users WHERE id = $1 AND role = 'member' FOR UPDATE`, p.MemberID)
		if err != nil {
			return db.NotFound(err, fmt.Sprintf("member %d", p.MemberID))
		}
		if !active {
			return apperr.Validation("member %d is deactivated", p.MemberID)
		}

		var plan Plan
		err = tx.GetContext(ctx, &plan,
			`SELECT `+planColumns+` FROM membership_plans WHERE id = $1 AND is_active = TRUE`, p.PlanID)
		if err != nil {
			return db.NotFound(err, fmt.Sprintf("plan %d", p.PlanID))
		}

		status, end := Window(plan, p.Start, p.Now)
		if status == StatusActive {
			var has bool
			if err := tx.GetContext(ctx, &has, `
				SELECT EXISTS(SELECT 1 FROM memberships WHERE member_id = $1 AND status = 'active')`,
				p.MemberID); err != nil {
				return err
			}
			if has {
				return apperr.Conflict("member %d already has an active membership", p.MemberID)
			}
		}

		price := plan.PriceCents
		var codeID *int
		var off int64
		if strings.TrimSpace(p.Code) != "" {
			code, err := discount.RedeemTx(ctx, tx, p.Code, p.Now)
			if err != nil {
				return err
			}
			codeID = &code.ID
			off = code.Apply(price)
		}

		err = tx.GetContext(ctx, &created, `
			INSERT INTO memberships (member_id, plan_id, status, start_date, end_date, price_cents, discount_code_id, discount_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+membershipColumns,
			p.MemberID, plan.ID, status, p.Start, end, price-off, codeID, off)
		return db.Conflict(err, fmt.Sprintf("member %d already has an active membership", p.MemberID))
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) Transition(ctx context.Context, id int, to string, now time.Time) (*Membership, error) {
	var m Membership
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &m, `SELECT `+membershipColumns+` FROM memberships WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return db.NotFound(err, fmt.Sprintf("membership %d", id))
		}
		if !CanTransition(m.Status, to) {
			return apperr.Transition(m.Status, to)
		}

		var query string
		args := []interface{}{id}
		switch {
		case to == StatusFrozen:
			query = `UPDATE memberships SET status = 'frozen', frozen_at = $2, updated_at = NOW() WHERE id = $1`
			args = append(args, now)
		case to == StatusActive && m.Status == StatusFrozen:
			query = `UPDATE memberships SET status = 'active', end_date = $2, frozen_at = NULL, updated_at = NOW() WHERE id = $1`
			args = append(args, ExtendedEnd(m, now))
		case to == StatusCancelled:
			query = `UPDATE memberships SET status = 'cancelled', cancelled_at = $2, updated_at = NOW() WHERE id = $1`
			args = append(args, now)
		default:
			query = `UPDATE memberships SET status = $2, updated_at = NOW() WHERE id = $1`
			args = append(args, to)
		}

		err = tx.GetContext(ctx, &m, query+` RETURNING `+membershipColumns, args...)
		return db.Conflict(err, fmt.Sprintf("member %d already has an active membership", m.MemberID))
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) GetDetail(ctx context.Context, id int) (*MembershipDetail, error) {
	var d MembershipDetail
	if err := r.db.GetContext(ctx, &d, detailSelect+` WHERE m.id = $1`, id); err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("membership %d", id))
	}
	return &d, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]MembershipDetail, int, error) {
	var conds []string
	var args []interface{}
	if filter.MemberID != nil {
		args = append(args, *filter.MemberID)
		conds = append(conds, fmt.Sprintf("m.member_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("m.status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM memberships m`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := detailSelect + where + fmt.Sprintf(" ORDER BY m.start_date DESC, m.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	var list []MembershipDetail
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Sweep expires memberships whose end has passed and then starts pending
// ones that are due. When a member has several pending memberships due at
// once only the earliest starts.
func (r *repository) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	var res SweepResult
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var expired []int
		if err := tx.SelectContext(ctx, &expired, `
			UPDATE memberships SET status = 'expired', updated_at = NOW()
			WHERE status IN ('active', 'pending') AND end_date <= $1
			RETURNING id`, now); err != nil {
			return err
		}

		var activated []int
		if err := tx.SelectContext(ctx, &activated, `
			UPDATE memberships SET status = 'active', updated_at = NOW()
			WHERE id IN (
				SELECT DISTINCT ON (p.member_id) p.id
				FROM memberships p
				WHERE p.status = 'pending' AND p.start_date <= $1
					AND NOT EXISTS (SELECT 1 FROM memberships a WHERE a.member_id = p.member_id AND a.status = 'active')
				ORDER BY p.member_id, p.start_date, p.id)
			RETURNING id`, now); err != nil {
			return err
		}

		res = SweepResult{Expired: len(expired), Activated: len(activated)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gymhub/internal/db"
)

const insertBatch = 1000

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Activity returns one row per active member with their last visit before
// asOf and the number of visits in the preceding window.
func (r *repository) Activity(ctx context.Context, asOf time.Time) ([]Activity, error) {
	var list []Activity
	err := r.db.SelectContext(ctx, &list, `
		SELECT u.id AS member_id,
			MAX(a.check_in_time) AS last_visit,
			COUNT(a.id) FILTER (WHERE a.check_in_time >= $1) AS recent_visits
		FROM users u
		LEFT JOIN attendance a ON a.member_id = u.id AND a.check_in_time < $2
		WHERE u.role = 'member' AND u.is_active = TRUE
		GROUP BY u.id
		ORDER BY u.id`, asOf.Add(-RecentWindow), asOf)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Replace swaps the whole score table for scores in one transaction.
func (r *repository) Replace(ctx context.Context, scores []Score) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM retention_scores`); err != nil {
			return err
		}
		for start := 0; start < len(scores); start += insertBatch {
			end := start + insertBatch
			if end > len(scores) {
				end = len(scores)
			}
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO retention_scores (member_id, risk, score, days_since_last_visit, recent_visits, computed_at)
				VALUES (:member_id, :risk, :score, :days_since_last_visit, :recent_visits, :computed_at)`,
				scores[start:end])
			if err != nil {
				return fmt.Errorf("insert retention scores: %w", err)
			}
		}
		return nil
	})
}

func (r *repository) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	err := r.db.GetContext(ctx, &o, `
		SELECT COUNT(*) FILTER (WHERE risk = 'high') AS high,
			COUNT(*) FILTER (WHERE risk = 'medium') AS medium,
			COUNT(*) FILTER (WHERE risk = 'low') AS low,
			COUNT(*) AS processed,
			MAX(computed_at) AS computed_at
		FROM retention_scores`)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) List(ctx context.Context, risk string, limit, offset int) ([]ScoreDetail, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM retention_scores WHERE risk = $1`, risk); err != nil {
		return nil, 0, err
	}

	var list []ScoreDetail
	err := r.db.SelectContext(ctx, &list, `
		SELECT r.member_id, r.risk, r.score, r.days_since_last_visit, r.recent_visits, r.computed_at,
			u.name AS member_name, u.email AS member_email
		FROM retention_scores r
		JOIN users u ON u.id = r.member_id
		WHERE r.risk = $1
		ORDER BY r.score DESC, r.member_id
		LIMIT $2 OFFSET $3`, risk, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

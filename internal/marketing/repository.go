package marketing

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gymhub/internal/apperr"
	"gymhub/internal/db"
)

const eventBatch = 1000

const campaignColumns = `id, name, subject, body, target_risk, status, sent_at, created_by, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Campaign) (*Campaign, error) {
	var created Campaign
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO campaigns (name, subject, body, target_risk, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+campaignColumns,
		c.Name, c.Subject, c.Body, c.TargetRisk, c.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*Campaign, error) {
	var c Campaign
	if err := r.db.GetContext(ctx, &c, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id); err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("campaign %d", id))
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]Campaign, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM campaigns`); err != nil {
		return nil, 0, err
	}

	var list []Campaign
	err := r.db.SelectContext(ctx, &list, `
		SELECT `+campaignColumns+` FROM campaigns
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Claim marks a draft campaign as sent and resolves its audience in the same
// transaction, so a campaign is only ever claimed together with the members
// it goes to. A campaign can only be claimed once.
func (r *repository) Claim(ctx context.Context, id int, now time.Time) (*Campaign, []Recipient, error) {
	var (
		c    Campaign
		list []Recipient
	)
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &c, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return db.NotFound(err, fmt.Sprintf("campaign %d", id))
		}
		if c.Status != StatusDraft {
			return apperr.Transition(c.Status, StatusSent)
		}

		list, err = recipients(ctx, tx, c.TargetRisk)
		if err != nil {
			return err
		}

		return tx.GetContext(ctx, &c, `
			UPDATE campaigns SET status = 'sent', sent_at = $2
			WHERE id = $1
			RETURNING `+campaignColumns, id, now)
	})
	if err != nil {
		return nil, nil, err
	}
	return &c, list, nil
}

// recipients lists active members, narrowed to one retention bucket when
// targetRisk is set.
func recipients(ctx context.Context, tx *sqlx.Tx, targetRisk *string) ([]Recipient, error) {
	list := []Recipient{}
	var err error
	if targetRisk == nil {
		err = tx.SelectContext(ctx, &list, `
			SELECT id, name, email FROM users
			WHERE role = 'member' AND is_active = TRUE
			ORDER BY id`)
	} else {
		err = tx.SelectContext(ctx, &list, `
			SELECT u.id, u.name, u.email
			FROM users u
			JOIN retention_scores rs ON rs.member_id = u.id
			WHERE u.role = 'member' AND u.is_active = TRUE AND rs.risk = $1
			ORDER BY u.id`, *targetRisk)
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) RecordEvents(ctx context.Context, events []Event) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for start := 0; start < len(events); start += eventBatch {
			end := start + eventBatch
			if end > len(events) {
				end = len(events)
			}
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO campaign_events (campaign_id, member_id, event_type)
				VALUES (:campaign_id, :member_id, :event_type)`, events[start:end])
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) Events(ctx context.Context, campaignID, limit, offset int) ([]Event, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM campaign_events WHERE campaign_id = $1`, campaignID); err != nil {
		return nil, 0, err
	}

	var list []Event
	err := r.db.SelectContext(ctx, &list, `
		SELECT id, campaign_id, member_id, event_type, created_at
		FROM campaign_events
		WHERE campaign_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`, campaignID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

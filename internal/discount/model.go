package discount

import "time"

const (
	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

// Code is a redeemable discount. Amount is a percentage (1-100) or a number
// of cents depending on Type.
type Code struct {
	ID             int        `db:"id" json:"id"`
	Code           string     `db:"code" json:"code"`
	Description    string     `db:"description" json:"description"`
	Type           string     `db:"discount_type" json:"discount_type"`
	Amount         int64      `db:"amount" json:"amount"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	MaxRedemptions *int       `db:"max_redemptions" json:"max_redemptions,omitempty"`
	UsedCount      int        `db:"used_count" json:"used_count"`
	StartsAt       *time.Time `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt         *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

type CreateCodeRequest struct {
	Code           string     `json:"code" binding:"required,min=3,max=64,alphanum"`
	Description    string     `json:"description" binding:"max=1000"`
	Type           string     `json:"discount_type" binding:"required,oneof=percentage fixed"`
	Amount         int64      `json:"amount" binding:"required,min=1"`
	MaxRedemptions *int       `json:"max_redemptions" binding:"omitempty,min=1"`
	StartsAt       *time.Time `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at"`
}

type PreviewRequest struct {
	Code   string `json:"code" binding:"required"`
	PlanID int    `json:"plan_id" binding:"required,min=1"`
}

type Preview struct {
	Code          string `json:"code"`
	OriginalCents int64  `json:"original_cents"`
	DiscountCents int64  `json:"discount_cents"`
	FinalCents    int64  `json:"final_cents"`
	RemainingUses *int   `json:"remaining_uses,omitempty"`
}

package membership

import (
	"time"

	"github.com/lib/pq"
)

const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
	StatusPending   = "pending"
	StatusFrozen    = "frozen"
)

type Plan struct {
	ID           int            `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Description  string         `db:"description" json:"description"`
	DurationDays int            `db:"duration_days" json:"duration_days"`
	PriceCents   int64          `db:"price_cents" json:"price_cents"`
	Features     pq.StringArray `db:"features" json:"features" swaggertype:"array,string"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

type Membership struct {
	ID             int        `db:"id" json:"id"`
	MemberID       int        `db:"member_id" json:"member_id"`
	PlanID         int        `db:"plan_id" json:"plan_id"`
	Status         string     `db:"status" json:"status" example:"active"`
	StartDate      time.Time  `db:"start_date" json:"start_date"`
	EndDate        time.Time  `db:"end_date" json:"end_date"`
	PriceCents     int64      `db:"price_cents" json:"price_cents"`
	DiscountCodeID *int       `db:"discount_code_id" json:"discount_code_id,omitempty"`
	DiscountCents  int64      `db:"discount_cents" json:"discount_cents"`
	FrozenAt       *time.Time `db:"frozen_at" json:"frozen_at,omitempty"`
	CancelledAt    *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

type MembershipDetail struct {
	Membership
	PlanName    string `db:"plan_name" json:"plan_name"`
	MemberName  string `db:"member_name" json:"member_name"`
	MemberEmail string `db:"member_email" json:"member_email"`
}

type ListFilter struct {
	MemberID *int
	Status   string
}

type SweepResult struct {
	Expired   int `json:"expired"`
	Activated int `json:"activated"`
}

type CreatePlanRequest struct {
	Name         string   `json:"name" binding:"required,max=255"`
	Description  string   `json:"description" binding:"max=2000"`
	DurationDays int      `json:"duration_days" binding:"required,min=1,max=3650"`
	PriceCents   int64    `json:"price_cents" binding:"gte=0"`
	Features     []string `json:"features" binding:"omitempty,dive,max=255"`
}

type UpdatePlanRequest struct {
	Name         *string  `json:"name" binding:"omitempty,max=255"`
	Description  *string  `json:"description" binding:"omitempty,max=2000"`
	DurationDays *int     `json:"duration_days" binding:"omitempty,min=1,max=3650"`
	PriceCents   *int64   `json:"price_cents" binding:"omitempty,gte=0"`
	Features     []string `json:"features" binding:"omitempty,dive,max=255"`
}

type AssignRequest struct {
	MemberID     int        `json:"member_id" binding:"required,min=1"`
	PlanID       int        `json:"plan_id" binding:"required,min=1"`
	DiscountCode string     `json:"discount_code" binding:"omitempty,max=64"`
	StartDate    *time.Time `json:"start_date"`
}

type TransitionRequest struct {
	Action string `json:"action" binding:"required,oneof=freeze unfreeze cancel"`
}

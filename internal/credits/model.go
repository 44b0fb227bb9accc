package credits

import "time"

const (
	SourceNone      = "none"
	SourcePass      = "pass"
	SourceUnlimited = "unlimited"

	TxPurchase  = "purchase"
	TxDeduction = "deduction"
	TxRefund    = "refund"
)

// Package is a purchasable bundle of class credits.
type Package struct {
	ID               int       `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Description      string    `db:"description" json:"description"`
	CreditsIncluded  int       `db:"credits_included" json:"credits_included"`
	PriceCents       int64     `db:"price_cents" json:"price_cents"`
	ValidityDays     int       `db:"validity_days" json:"validity_days"`
	MonthlyUnlimited bool      `db:"monthly_unlimited" json:"monthly_unlimited"`
	ClassID          *int      `db:"class_id" json:"class_id,omitempty"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Pass is one purchased package held by a member.
type Pass struct {
	ID               int        `db:"id" json:"id"`
	MemberID         int        `db:"member_id" json:"member_id"`
	PackageID        int        `db:"package_id" json:"package_id"`
	ClassID          *int       `db:"class_id" json:"class_id,omitempty"`
	CreditsIncluded  int        `db:"credits_included" json:"credits_included"`
	CreditsRemaining int        `db:"credits_remaining" json:"credits_remaining"`
	Unlimited        bool       `db:"unlimited" json:"unlimited"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	PurchasedAt      time.Time  `db:"purchased_at" json:"purchased_at"`
	ExpiresAt        *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

type Transaction struct {
	ID           int       `db:"id" json:"id"`
	PassID       int       `db:"pass_id" json:"pass_id"`
	MemberID     int       `db:"member_id" json:"member_id"`
	BookingID    *int      `db:"booking_id" json:"booking_id,omitempty"`
	Amount       int       `db:"amount" json:"amount"`
	Type         string    `db:"type" json:"type"`
	BalanceAfter int       `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Summary struct {
	TotalRemaining   int    `json:"total_remaining"`
	HasUnlimitedPass bool   `json:"has_unlimited_pass"`
	ActivePasses     []Pass `json:"active_passes"`
}

// Consumption records where a booking's credit came from so a later
// refund can return it to the same pass.
type Consumption struct {
	PassID       *int
	Source       string
	BalanceAfter int
}

type CreatePackageRequest struct {
	Name             string `json:"name" binding:"required,max=255"`
	Description      string `json:"description" binding:"max=2000"`
	CreditsIncluded  int    `json:"credits_included" binding:"gte=0"`
	PriceCents       int64  `json:"price_cents" binding:"gte=0"`
	ValidityDays     int    `json:"validity_days" binding:"required,min=1,max=3650"`
	MonthlyUnlimited bool   `json:"monthly_unlimited"`
	ClassID          *int   `json:"class_id" binding:"omitempty,min=1"`
}

type PurchaseRequest struct {
	PackageID int `json:"package_id" binding:"required,min=1"`
}

type GrantRequest struct {
	MemberID  int `json:"member_id" binding:"required,min=1"`
	PackageID int `json:"package_id" binding:"required,min=1"`
}

package discount

import (
	"fmt"
	"strings"
	"time"

	"gymhub/internal/apperr"
)

const (
	ReasonInactive   = "inactive"
	ReasonNotStarted = "not_started"
	ReasonExpired    = "expired"
	ReasonExhausted  = "exhausted"
	ReasonNotFound   = "not_found"
)

// InvalidError reports why a code cannot be redeemed.
type InvalidError struct {
	Code   string
	reason string
}

func Invalid(code, reason string) *InvalidError {
	return &InvalidError{Code: code, reason: reason}
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("discount code invalid: %s is %s", e.Code, strings.ReplaceAll(e.reason, "_", " "))
}

func (e *InvalidError) Reason() string { return e.reason }

func (e *InvalidError) Is(target error) bool {
	return target == apperr.ErrDiscountCodeInvalid
}

// Normalize upper-cases and trims a code so lookups are case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Check validates redeemability in a fixed order: active flag, then the
// validity window, then remaining redemptions.
func (c Code) Check(now time.Time) error {
	if !c.IsActive {
		return Invalid(c.Code, ReasonInactive)
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return Invalid(c.Code, ReasonNotStarted)
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return Invalid(c.Code, ReasonExpired)
	}
	if c.MaxRedemptions != nil && c.UsedCount >= *c.MaxRedemptions {
		return Invalid(c.Code, ReasonExhausted)
	}
	return nil
}

// Apply returns the discount in cents for a price. Percentages floor to the
// cent and fixed amounts never take the price below zero.
func (c Code) Apply(priceCents int64) int64 {
	var off int64
	switch c.Type {
	case TypePercentage:
		off = priceCents * c.Amount / 100
	case TypeFixed:
		off = c.Amount
	}
	if off > priceCents {
		off = priceCents
	}
	if off < 0 {
		off = 0
	}
	return off
}

// RemainingUses is nil for codes without a redemption cap.
func (c Code) RemainingUses() *int {
	if c.MaxRedemptions == nil {
		return nil
	}
	left := *c.MaxRedemptions - c.UsedCount
	if left < 0 {
		left = 0
	}
	return &left
}

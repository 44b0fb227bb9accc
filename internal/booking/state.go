package booking

import "time"

var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether a booking may move from one status to another.
// Completed, cancelled and no-show bookings are final.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// FreesSlot reports whether the transition releases a confirmed place.
func FreesSlot(from, to string) bool {
	return from == StatusConfirmed && (to == StatusCancelled || to == StatusNoShow)
}

// RefundPolicy decides whether a transition returns the booking's credit.
type RefundPolicy struct {
	Cutoff time.Duration
}

// Refundable: no-shows never refund, staff cancellations always do and
// member cancellations only when made at least Cutoff before the start.
func (p RefundPolicy) Refundable(to string, byStaff bool, start, now time.Time) bool {
	if to != StatusCancelled {
		return false
	}
	if byStaff {
		return true
	}
	return start.Sub(now) >= p.Cutoff
}

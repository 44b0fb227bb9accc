package membership

import (
	"time"

	"gymhub/internal/apperr"
)

var transitions = map[string][]string{
	StatusPending: {StatusActive, StatusCancelled},
	StatusActive:  {StatusFrozen, StatusCancelled, StatusExpired},
	StatusFrozen:  {StatusActive, StatusCancelled},
}

func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ActionTarget maps a requested action to the status it leads to. Unfreeze
// only applies to frozen memberships; activation of pending ones is left to
// the sweep.
func ActionTarget(action, current string) (string, error) {
	switch action {
	case "freeze":
		return StatusFrozen, nil
	case "unfreeze":
		if current != StatusFrozen {
			return "", apperr.Transition(current, StatusActive)
		}
		return StatusActive, nil
	case "cancel":
		return StatusCancelled, nil
	}
	return "", apperr.Validation("unknown action %q", action)
}

// Window returns the status and dates for a membership starting at start.
// A start in the future leaves the membership pending until then.
func Window(plan Plan, start, now time.Time) (status string, end time.Time) {
	end = start.AddDate(0, 0, plan.DurationDays)
	if start.After(now) {
		return StatusPending, end
	}
	return StatusActive, end
}

// ExtendedEnd pushes the end date out by the time spent frozen.
func ExtendedEnd(m Membership, now time.Time) time.Time {
	if m.FrozenAt == nil || now.Before(*m.FrozenAt) {
		return m.EndDate
	}
	return m.EndDate.Add(now.Sub(*m.FrozenAt))
}

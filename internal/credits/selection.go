package credits

import (
	"sort"
	"time"
)

// Live reports whether the pass can still be drawn from at all.
func (p Pass) Live(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return false
	}
	return p.Unlimited || p.CreditsRemaining > 0
}

// AppliesTo reports whether the pass covers classID.
func (p Pass) AppliesTo(classID int) bool {
	return p.ClassID == nil || *p.ClassID == classID
}

// SelectPass picks the pass a booking for classID should draw from.
// An applicable unlimited pass wins outright. Otherwise the pass closest to
// expiry is used; passes without expiry come last and ties go to the lowest id.
func SelectPass(passes []Pass, classID int, now time.Time) (Pass, bool) {
	var candidates []Pass
	for _, p := range passes {
		if !p.Live(now) || !p.AppliesTo(classID) {
			continue
		}
		if p.Unlimited {
			return p, true
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return Pass{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch {
		case a.ExpiresAt == nil && b.ExpiresAt == nil:
			return a.ID < b.ID
		case a.ExpiresAt == nil:
			return false
		case b.ExpiresAt == nil:
			return true
		case !a.ExpiresAt.Equal(*b.ExpiresAt):
			return a.ExpiresAt.Before(*b.ExpiresAt)
		default:
			return a.ID < b.ID
		}
	})
	return candidates[0], true
}

// Summarize aggregates the member's live passes.
func Summarize(passes []Pass, now time.Time) Summary {
	s := Summary{ActivePasses: []Pass{}}
	for _, p := range passes {
		if !p.Live(now) {
			continue
		}
		s.ActivePasses = append(s.ActivePasses, p)
		if p.Unlimited {
			s.HasUnlimitedPass = true
			continue
		}
		s.TotalRemaining += p.CreditsRemaining
	}
	return s
}

// NewPass builds the pass a purchase of pkg creates.
func NewPass(memberID int, pkg Package, now time.Time) Pass {
	p := Pass{
		MemberID:         memberID,
		PackageID:        pkg.ID,
		ClassID:          pkg.ClassID,
		CreditsIncluded:  pkg.CreditsIncluded,
		CreditsRemaining: pkg.CreditsIncluded,
		Unlimited:        pkg.MonthlyUnlimited,
		IsActive:         true,
		PurchasedAt:      now,
	}
	if !pkg.MonthlyUnlimited {
		expires := now.AddDate(0, 0, pkg.ValidityDays)
		p.ExpiresAt = &expires
	}
	return p
}

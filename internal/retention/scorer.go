package retention

import (
	"math"
	"time"
)

// RecentWindow is the look-back used for the visit-frequency signal.
const RecentWindow = 30 * 24 * time.Hour

// Scorer assigns a risk bucket and a 0-100 score to one member as of a
// point in time. Higher scores mean a member is more likely to churn.
type Scorer interface {
	Score(a Activity, asOf time.Time) Score
}

// ThresholdScorer buckets members by days since their last visit and lifts
// infrequent visitors from low to medium.
type ThresholdScorer struct {
	MediumDays       int
	HighDays         int
	MinMonthlyVisits int
}

func (t ThresholdScorer) Score(a Activity, asOf time.Time) Score {
	s := Score{MemberID: a.MemberID, RecentVisits: a.RecentVisits, ComputedAt: asOf}

	if a.LastVisit == nil {
		s.Risk = RiskHigh
		s.Score = 100
		return s
	}

	days := int(asOf.Sub(*a.LastVisit).Hours() / 24)
	if days < 0 {
		days = 0
	}
	s.DaysSinceLastVisit = &days

	switch {
	case days >= t.HighDays:
		s.Risk = RiskHigh
	case days >= t.MediumDays:
		s.Risk = RiskMedium
	case a.RecentVisits < t.MinMonthlyVisits:
		s.Risk = RiskMedium
	default:
		s.Risk = RiskLow
	}
	s.Score = t.points(days, a.RecentVisits)
	return s
}

// points blends recency (two thirds) with visit frequency (one third).
func (t ThresholdScorer) points(days, visits int) int {
	recency := 100.0
	if t.HighDays > 0 {
		recency = math.Min(100, float64(days)*100/float64(t.HighDays))
	}
	frequency := 0.0
	if t.MinMonthlyVisits > 0 && visits < t.MinMonthlyVisits {
		frequency = float64(t.MinMonthlyVisits-visits) * 100 / float64(t.MinMonthlyVisits)
	}
	return int(math.Round((2*recency + frequency) / 3))
}

// StartOfDay truncates t to midnight UTC so repeated runs on one day score
// identically.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package retention

import "time"

const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

// ValidRisk reports whether s names a risk bucket.
func ValidRisk(s string) bool {
	return s == RiskHigh || s == RiskMedium || s == RiskLow
}

// Activity is what the scorer sees of one member.
type Activity struct {
	MemberID     int        `db:"member_id"`
	LastVisit    *time.Time `db:"last_visit"`
	RecentVisits int        `db:"recent_visits"`
}

type Score struct {
	MemberID           int       `db:"member_id" json:"member_id"`
	Risk               string    `db:"risk" json:"risk" example:"high"`
	Score              int       `db:"score" json:"score"`
	DaysSinceLastVisit *int      `db:"days_since_last_visit" json:"days_since_last_visit"`
	RecentVisits       int       `db:"recent_visits" json:"recent_visits"`
	ComputedAt         time.Time `db:"computed_at" json:"computed_at"`
}

type ScoreDetail struct {
	Score
	MemberName  string `db:"member_name" json:"member_name"`
	MemberEmail string `db:"member_email" json:"member_email"`
}

type Counts struct {
	High      int `db:"high" json:"high"`
	Medium    int `db:"medium" json:"medium"`
	Low       int `db:"low" json:"low"`
	Processed int `db:"processed" json:"processed"`
}

type Overview struct {
	Counts
	ComputedAt *time.Time `db:"computed_at" json:"computed_at"`
}

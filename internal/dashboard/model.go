package dashboard

import (
	"time"

	"gymhub/internal/retention"
)

// Overview is the front-desk snapshot. Sources that could not be read are
// listed in Unavailable and report zero.
type Overview struct {
	GeneratedAt       time.Time          `json:"generated_at"`
	CheckInsToday     int                `json:"check_ins_today"`
	OpenSessions      int                `json:"open_sessions"`
	ActiveMemberships int                `json:"active_memberships"`
	LowStockProducts  int                `json:"low_stock_products"`
	Retention         retention.Overview `json:"retention"`
	Unavailable       []string           `json:"unavailable,omitempty"`
}

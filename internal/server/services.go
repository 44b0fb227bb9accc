package server

import (
	"github.com/jmoiron/sqlx"

	"gymhub/internal/attendance"
	"gymhub/internal/booking"
	"gymhub/internal/classes"
	"gymhub/internal/config"
	"gymhub/internal/credits"
	"gymhub/internal/dashboard"
	"gymhub/internal/discount"
	"gymhub/internal/inventory"
	"gymhub/internal/marketing"
	"gymhub/internal/membership"
	"gymhub/internal/retention"
	"gymhub/internal/user"
)

// Mailer is every notification the services send. *email.Service
// satisfies it.
type Mailer interface {
	booking.Mailer
	membership.Mailer
	inventory.Mailer
	marketing.Mailer
}

// Services holds one instance of every domain service. The HTTP router and
// the scheduler share them.
type Services struct {
	Users       user.Service
	Classes     classes.Service
	Credits     credits.Service
	Discounts   discount.Service
	Bookings    booking.Service
	Memberships membership.Service
	Attendance  attendance.Service
	Inventory   inventory.Service
	Retention   retention.Service
	Marketing   marketing.Service
	Dashboard   dashboard.Service
}

func NewServices(db *sqlx.DB, cfg *config.Config, mailer Mailer) *Services {
	users := user.NewService(user.NewRepository(db), cfg.JWTSecret)
	scores := retention.NewService(retention.NewRepository(db), retention.ThresholdScorer{
		MediumDays:       cfg.RetentionMediumDays,
		HighDays:         cfg.RetentionHighDays,
		MinMonthlyVisits: cfg.RetentionMinMonthlyVisits,
	})

	return &Services{
		Users:     users,
		Classes:   classes.NewService(classes.NewRepository(db)),
		Credits:   credits.NewService(credits.NewRepository(db)),
		Discounts: discount.NewService(discount.NewRepository(db)),
		Bookings: booking.NewService(booking.NewRepository(db), mailer, booking.Config{
			AcceptWindow: cfg.WaitlistAcceptWindow,
			RefundCutoff: cfg.CancellationRefundCutoff,
		}),
		Memberships: membership.NewService(membership.NewRepository(db), mailer),
		Attendance:  attendance.NewService(attendance.NewRepository(db), users),
		Inventory:   inventory.NewService(inventory.NewRepository(db), mailer, cfg.StaffAlertEmail),
		Retention:   scores,
		Marketing:   marketing.NewService(marketing.NewRepository(db), mailer),
		Dashboard:   dashboard.NewService(dashboard.NewRepository(db), scores),
	}
}

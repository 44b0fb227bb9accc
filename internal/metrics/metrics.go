package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_bookings_total",
			Help: "Bookings created, by initial status and credit source",
		},
		[]string{"status", "credit_source"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_booking_transitions_total",
			Help: "Booking status transitions",
		},
		[]string{"from", "to"},
	)

	WaitlistEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_waitlist_events_total",
			Help: "Waitlist lifecycle events",
		},
		[]string{"event"},
	)

	CreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_credits_total",
			Help: "Class credits moved, by ledger type",
		},
		[]string{"type"},
	)

	DiscountRedemptionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymhub_discount_redemptions_total",
			Help: "Discount codes redeemed",
		},
	)

	MembershipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_memberships_total",
			Help: "Membership status changes",
		},
		[]string{"status"},
	)

	CheckInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_check_ins_total",
			Help: "Attendance check-ins",
		},
		[]string{"method", "type"},
	)

	StockMovementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_stock_movements_total",
			Help: "Units moved in or out of stock",
		},
		[]string{"reason"},
	)

	LowStockProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymhub_low_stock_products",
			Help: "Products at or below their low-stock threshold",
		},
	)

	RetentionBucket = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gymhub_retention_members",
			Help: "Members per churn-risk bucket after the last recompute",
		},
		[]string{"risk"},
	)

	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_job_runs_total",
			Help: "Scheduled job runs",
		},
		[]string{"job", "status"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymhub_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(status, creditSource string) {
	BookingsTotal.WithLabelValues(status, creditSource).Inc()
}

func RecordBookingTransition(from, to string) {
	BookingTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordWaitlist(event string) {
	WaitlistEventsTotal.WithLabelValues(event).Inc()
}

func RecordCredits(txType string, amount int) {
	if amount < 0 {
		amount = -amount
	}
	CreditsTotal.WithLabelValues(txType).Add(float64(amount))
}

func RecordDiscountRedemption() {
	DiscountRedemptionsTotal.Inc()
}

func RecordMembership(status string) {
	MembershipsTotal.WithLabelValues(status).Inc()
}

func RecordCheckIn(method, attendanceType string) {
	CheckInsTotal.WithLabelValues(method, attendanceType).Inc()
}

func RecordStockMovement(reason string, quantity int) {
	StockMovementsTotal.WithLabelValues(reason).Add(float64(quantity))
}

func SetLowStockProducts(n int) {
	LowStockProducts.Set(float64(n))
}

func SetRetentionBuckets(high, medium, low int) {
	RetentionBucket.WithLabelValues("high").Set(float64(high))
	RetentionBucket.WithLabelValues("medium").Set(float64(medium))
	RetentionBucket.WithLabelValues("low").Set(float64(low))
}

func RecordJobRun(job string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	JobRunsTotal.WithLabelValues(job, status).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

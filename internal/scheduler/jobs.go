package scheduler

import (
	"context"
	"time"

	"gymhub/internal/booking"
	"gymhub/internal/logger"
	"gymhub/internal/membership"
	"gymhub/internal/retention"
)

type OfferSweeper interface {
	ExpireOffers(ctx context.Context) (*booking.SweepResult, error)
}

type MembershipSweeper interface {
	Sweep(ctx context.Context) (*membership.SweepResult, error)
}

type RetentionRunner interface {
	Recompute(ctx context.Context) (*retention.Counts, error)
}

type Schedules struct {
	WaitlistSweep   string
	MembershipSweep string
	Retention       string
}

// Jobs wires the standard sweeps to their schedules.
func Jobs(s Schedules, offers OfferSweeper, memberships MembershipSweeper, scores RetentionRunner) []Job {
	return []Job{
		{
			Name:    "waitlist_offer_sweep",
			Spec:    s.WaitlistSweep,
			Timeout: time.Minute,
			Run: func(ctx context.Context) error {
				res, err := offers.ExpireOffers(ctx)
				if res != nil && res.Expired > 0 {
					logger.Info("waitlist sweep", "expired", res.Expired, "promoted", res.Promoted)
				}
				return err
			},
		},
		{
			Name:    "membership_sweep",
			Spec:    s.MembershipSweep,
			Timeout: 2 * time.Minute,
			Run: func(ctx context.Context) error {
				res, err := memberships.Sweep(ctx)
				if err != nil {
					return err
				}
				if res.Expired > 0 || res.Activated > 0 {
					logger.Info("membership sweep", "expired", res.Expired, "activated", res.Activated)
				}
				return nil
			},
		},
		{
			Name:    "retention_recompute",
			Spec:    s.Retention,
			Timeout: 10 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := scores.Recompute(ctx)
				return err
			},
		},
	}
}

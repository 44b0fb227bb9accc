package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gymhub/internal/logger"
	"gymhub/internal/retention"
)

// RetentionSource supplies the last stored retention run. retention.Service
// satisfies it.
type RetentionSource interface {
	Overview(ctx context.Context) (*retention.Overview, error)
}

type Service interface {
	Overview(ctx context.Context) (*Overview, error)
}

type service struct {
	repo      Repository
	retention RetentionSource
	now       func() time.Time
}

func NewService(repo Repository, retention RetentionSource) Service {
	return &service{repo: repo, retention: retention, now: time.Now}
}

// Overview reads every source concurrently. A failing source is logged and
// reported as zero; only a cancelled request fails the whole call.
func (s *service) Overview(ctx context.Context) (*Overview, error) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	o := &Overview{GeneratedAt: now}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	load := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("dashboard source unavailable", "source", name, "error", err)
				mu.Lock()
				o.Unavailable = append(o.Unavailable, name)
				mu.Unlock()
			}
			return nil
		})
	}

	load("check_ins_today", func(ctx context.Context) (err error) {
		o.CheckInsToday, err = s.repo.CheckInsSince(ctx, midnight)
		return err
	})
	load("open_sessions", func(ctx context.Context) (err error) {
		o.OpenSessions, err = s.repo.OpenSessions(ctx)
		return err
	})
	load("active_memberships", func(ctx context.Context) (err error) {
		o.ActiveMemberships, err = s.repo.ActiveMemberships(ctx)
		return err
	})
	load("low_stock_products", func(ctx context.Context) (err error) {
		o.LowStockProducts, err = s.repo.LowStockProducts(ctx)
		return err
	})
	if s.retention != nil {
		load("retention", func(ctx context.Context) error {
			r, err := s.retention.Overview(ctx)
			if err != nil {
				return err
			}
			o.Retention = *r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return o, nil
}

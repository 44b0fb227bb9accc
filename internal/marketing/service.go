package marketing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gymhub/internal/logger"
)

const sendConcurrency = 8

// Mailer queues one campaign e-mail. *email.Service satisfies it.
type Mailer interface {
	SendCampaign(ctx context.Context, to, name, subject, body string) error
}

type Service interface {
	Create(ctx context.Context, req CreateCampaignRequest, createdBy *int) (*Campaign, error)
	Get(ctx context.Context, id int) (*Campaign, error)
	List(ctx context.Context, limit, offset int) ([]Campaign, int, error)
	Send(ctx context.Context, id int) (*SendResult, error)
	ListEvents(ctx context.Context, campaignID, limit, offset int) ([]Event, int, error)
}

type service struct {
	repo   Repository
	mailer Mailer
	now    func() time.Time
}

func NewService(repo Repository, mailer Mailer) Service {
	return &service{repo: repo, mailer: mailer, now: time.Now}
}

func (s *service) Create(ctx context.Context, req CreateCampaignRequest, createdBy *int) (*Campaign, error) {
	return s.repo.Create(ctx, &Campaign{
		Name:       req.Name,
		Subject:    req.Subject,
		Body:       req.Body,
		TargetRisk: req.TargetRisk,
		CreatedBy:  createdBy,
	})
}

func (s *service) Get(ctx context.Context, id int) (*Campaign, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, limit, offset int) ([]Campaign, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Send claims a draft campaign and queues one e-mail per recipient. A failed
// enqueue is recorded as a failed event and does not stop the others.
func (s *service) Send(ctx context.Context, id int) (*SendResult, error) {
	c, recipients, err := s.repo.Claim(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}

	events := make([]Event, len(recipients))
	var mu sync.Mutex
	res := SendResult{Campaign: *c, Recipients: len(recipients)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sendConcurrency)
	for i, r := range recipients {
		i, r := i, r
		g.Go(func() error {
			kind := EventQueued
			if err := s.mailer.SendCampaign(gctx, r.Email, r.Name, c.Subject, c.Body); err != nil {
				logger.Error("failed to queue campaign email", "campaign_id", c.ID, "member_id", r.ID, "error", err)
				kind = EventFailed
			}
			events[i] = Event{CampaignID: c.ID, MemberID: r.ID, EventType: kind}

			mu.Lock()
			if kind == EventQueued {
				res.Queued++
			} else {
				res.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.repo.RecordEvents(ctx, events); err != nil {
		return nil, err
	}

	logger.Info("campaign sent", "campaign_id", c.ID, "recipients", res.Recipients,
		"queued", res.Queued, "failed", res.Failed)
	return &res, nil
}

func (s *service) ListEvents(ctx context.Context, campaignID, limit, offset int) ([]Event, int, error) {
	if _, err := s.repo.Get(ctx, campaignID); err != nil {
		return nil, 0, err
	}
	return s.repo.Events(ctx, campaignID, limit, offset)
}

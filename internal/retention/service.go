package retention

import (
	"context"
	"time"

	"gymhub/internal/apperr"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
)

type Service interface {
	Recompute(ctx context.Context) (*Counts, error)
	Overview(ctx context.Context) (*Overview, error)
	ListByRisk(ctx context.Context, risk string, limit, offset int) ([]ScoreDetail, int, error)
}

type service struct {
	repo   Repository
	scorer Scorer
	now    func() time.Time
}

func NewService(repo Repository, scorer Scorer) Service {
	return &service{repo: repo, scorer: scorer, now: time.Now}
}

// Recompute scores every active member as of the start of the current UTC
// day and replaces the stored scores. Running it twice on one day yields the
// same table.
func (s *service) Recompute(ctx context.Context) (*Counts, error) {
	asOf := StartOfDay(s.now())

	activity, err := s.repo.Activity(ctx, asOf)
	if err != nil {
		return nil, err
	}

	scores := make([]Score, 0, len(activity))
	var counts Counts
	for _, a := range activity {
		sc := s.scorer.Score(a, asOf)
		switch sc.Risk {
		case RiskHigh:
			counts.High++
		case RiskMedium:
			counts.Medium++
		default:
			counts.Low++
		}
		scores = append(scores, sc)
	}
	counts.Processed = len(scores)

	if err := s.repo.Replace(ctx, scores); err != nil {
		return nil, err
	}

	metrics.SetRetentionBuckets(counts.High, counts.Medium, counts.Low)
	logger.Info("retention recomputed", "as_of", asOf, "high", counts.High, "medium", counts.Medium,
		"low", counts.Low, "processed", counts.Processed)
	return &counts, nil
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	return s.repo.Overview(ctx)
}

func (s *service) ListByRisk(ctx context.Context, risk string, limit, offset int) ([]ScoreDetail, int, error) {
	if !ValidRisk(risk) {
		return nil, 0, apperr.Validation("risk must be one of high, medium, low")
	}
	return s.repo.List(ctx, risk, limit, offset)
}

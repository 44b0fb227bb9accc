package credits

import (
	"context"
	"time"

	"gymhub/internal/apperr"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
)

type Service interface {
	CreatePackage(ctx context.Context, req CreatePackageRequest) (*Package, error)
	ListPackages(ctx context.Context, activeOnly bool, limit, offset int) ([]Package, int, error)
	Purchase(ctx context.Context, memberID, packageID int) (*Pass, error)
	Grant(ctx context.Context, memberID, packageID int) (*Pass, error)
	Summary(ctx context.Context, memberID int) (*Summary, error)
	ListPasses(ctx context.Context, memberID int) ([]Pass, error)
	ListLedger(ctx context.Context, memberID, limit, offset int) ([]Transaction, int, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) CreatePackage(ctx context.Context, req CreatePackageRequest) (*Package, error) {
	if !req.MonthlyUnlimited && req.CreditsIncluded < 1 {
		return nil, apperr.Validation("credits_included must be at least 1 unless the package is unlimited")
	}
	if req.ValidityDays < 1 {
		return nil, apperr.Validation("validity_days must be at least 1")
	}

	return s.repo.CreatePackage(ctx, &Package{
		Name:             req.Name,
		Description:      req.Description,
		CreditsIncluded:  req.CreditsIncluded,
		PriceCents:       req.PriceCents,
		ValidityDays:     req.ValidityDays,
		MonthlyUnlimited: req.MonthlyUnlimited,
		ClassID:          req.ClassID,
	})
}

func (s *service) ListPackages(ctx context.Context, activeOnly bool, limit, offset int) ([]Package, int, error) {
	return s.repo.ListPackages(ctx, activeOnly, limit, offset)
}

// Purchase issues a pass to the calling member. Payment capture happens
// outside this service.
func (s *service) Purchase(ctx context.Context, memberID, packageID int) (*Pass, error) {
	return s.issue(ctx, memberID, packageID)
}

// Grant lets staff issue a pass on a member's behalf.
func (s *service) Grant(ctx context.Context, memberID, packageID int) (*Pass, error) {
	ok, err := s.repo.IsActiveMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("active member")
	}
	return s.issue(ctx, memberID, packageID)
}

func (s *service) issue(ctx context.Context, memberID, packageID int) (*Pass, error) {
	pkg, err := s.repo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, apperr.Validation("package %d is no longer sold", pkg.ID)
	}

	pass, err := s.repo.IssuePass(ctx, NewPass(memberID, *pkg, s.now().UTC()))
	if err != nil {
		return nil, err
	}

	metrics.RecordCredits(TxPurchase, pass.CreditsIncluded)
	logger.Info("pass issued", "member_id", memberID, "package_id", packageID, "pass_id", pass.ID)
	return pass, nil
}

func (s *service) Summary(ctx context.Context, memberID int) (*Summary, error) {
	passes, err := s.repo.ListPasses(ctx, memberID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(passes, s.now())
	return &summary, nil
}

func (s *service) ListPasses(ctx context.Context, memberID int) ([]Pass, error) {
	return s.repo.ListPasses(ctx, memberID)
}

func (s *service) ListLedger(ctx context.Context, memberID, limit, offset int) ([]Transaction, int, error) {
	return s.repo.ListLedger(ctx, memberID, limit, offset)
}

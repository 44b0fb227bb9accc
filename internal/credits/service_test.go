package credits

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gymhub/internal/apperr"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreatePackage(ctx context.Context, p *Package) (*Package, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Package), args.Error(1)
}

func (m *MockRepository) ListPackages(ctx context.Context, activeOnly bool, limit, offset int) ([]Package, int, error) {
	args := m.Called(ctx, activeOnly, limit, offset)
	return args.Get(0).([]Package), args.Int(1), args.Error(2)
}

func (m *MockRepository) GetPackage(ctx context.Context, id int) (*Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Package), args.Error(1)
}

func (m *MockRepository) IsActiveMember(ctx context.Context, memberID int) (bool, error) {
	args := m.Called(ctx, memberID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) IssuePass(ctx context.Context, pass Pass) (*Pass, error) {
	args := m.Called(ctx, pass)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Pass), args.Error(1)
}

func (m *MockRepository) ListPasses(ctx context.Context, memberID int) ([]Pass, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).([]Pass), args.Error(1)
}

func (m *MockRepository) ListLedger(ctx context.Context, memberID, limit, offset int) ([]Transaction, int, error) {
	args := m.Called(ctx, memberID, limit, offset)
	return args.Get(0).([]Transaction), args.Int(1), args.Error(2)
}

func newTestService(repo Repository) *service {
	return &service{repo: repo, now: func() time.Time { return now }}
}

func TestCreatePackage_RequiresCreditsUnlessUnlimited(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	_, err := svc.CreatePackage(context.Background(), CreatePackageRequest{Name: "Empty", ValidityDays: 30})
	assert.True(t, apperr.IsValidation(err))

	repo.On("CreatePackage", mock.Anything, mock.MatchedBy(func(p *Package) bool {
		return p.MonthlyUnlimited && p.CreditsIncluded == 0
	})).Return(&Package{ID: 3, MonthlyUnlimited: true}, nil)

	pkg, err := svc.CreatePackage(context.Background(),
		CreatePackageRequest{Name: "Unlimited", ValidityDays: 30, MonthlyUnlimited: true})
	require.NoError(t, err)
	assert.Equal(t, 3, pkg.ID)
	repo.AssertExpectations(t)
}

func TestPurchase_IssuesPassWithExpiry(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("GetPackage", mock.Anything, 1).
		Return(&Package{ID: 1, CreditsIncluded: 10, ValidityDays: 30, IsActive: true}, nil)
	repo.On("IssuePass", mock.Anything, mock.MatchedBy(func(p Pass) bool {
		return p.MemberID == 5 && p.CreditsRemaining == 10 && p.ExpiresAt != nil &&
			p.ExpiresAt.Equal(now.AddDate(0, 0, 30))
	})).Return(&Pass{ID: 11, MemberID: 5, CreditsIncluded: 10, CreditsRemaining: 10}, nil)

	pass, err := svc.Purchase(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 11, pass.ID)
	repo.AssertExpectations(t)
}

func TestPurchase_RetiredPackage(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("GetPackage", mock.Anything, 1).Return(&Package{ID: 1, IsActive: false}, nil)

	_, err := svc.Purchase(context.Background(), 5, 1)
	assert.True(t, apperr.IsValidation(err))
	repo.AssertNotCalled(t, "IssuePass", mock.Anything, mock.Anything)
}

func TestGrant_UnknownMember(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("IsActiveMember", mock.Anything, 99).Return(false, nil)

	_, err := svc.Grant(context.Background(), 99, 1)
	assert.True(t, apperr.IsNotFound(err))
}

func TestSummary(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("ListPasses", mock.Anything, 5).Return([]Pass{
		{ID: 1, CreditsRemaining: 2, IsActive: true, ExpiresAt: at(4)},
		{ID: 2, CreditsRemaining: 4, IsActive: true, ExpiresAt: at(-4)},
	}, nil)

	s, err := svc.Summary(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalRemaining)
	assert.False(t, s.HasUnlimitedPass)
	assert.Len(t, s.ActivePasses, 1)
}

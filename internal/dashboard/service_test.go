package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gymhub/internal/retention"
)

var now = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CheckInsSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) OpenSessions(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ActiveMemberships(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) LowStockProducts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockRetention struct {
	mock.Mock
}

func (m *MockRetention) Overview(ctx context.Context) (*retention.Overview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retention.Overview), args.Error(1)
}

func newTestService(repo Repository, src RetentionSource) *service {
	return &service{repo: repo, retention: src, now: func() time.Time { return now }}
}

func TestOverview_AllSources(t *testing.T) {
	repo := new(MockRepository)
	src := new(MockRetention)
	computed := now.Add(-12 * time.Hour)

	repo.On("CheckInsSince", mock.Anything, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)).Return(42, nil)
	repo.On("OpenSessions", mock.Anything).Return(7, nil)
	repo.On("ActiveMemberships", mock.Anything).Return(130, nil)
	repo.On("LowStockProducts", mock.Anything).Return(3, nil)
	src.On("Overview", mock.Anything).Return(&retention.Overview{
		Counts:     retention.Counts{High: 5, Medium: 20, Low: 105, Processed: 130},
		ComputedAt: &computed,
	}, nil)

	o, err := newTestService(repo, src).Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, now, o.GeneratedAt)
	assert.Equal(t, 42, o.CheckInsToday)
	assert.Equal(t, 7, o.OpenSessions)
	assert.Equal(t, 130, o.ActiveMemberships)
	assert.Equal(t, 3, o.LowStockProducts)
	assert.Equal(t, 5, o.Retention.High)
	assert.Empty(t, o.Unavailable)
	repo.AssertExpectations(t)
}

func TestOverview_FailingSourceFallsBackToZero(t *testing.T) {
	repo := new(MockRepository)
	src := new(MockRetention)

	repo.On("CheckInsSince", mock.Anything, mock.Anything).Return(0, errors.New("timeout"))
	repo.On("OpenSessions", mock.Anything).Return(2, nil)
	repo.On("ActiveMemberships", mock.Anything).Return(10, nil)
	repo.On("LowStockProducts", mock.Anything).Return(0, nil)
	src.On("Overview", mock.Anything).Return(nil, errors.New("relation missing"))

	o, err := newTestService(repo, src).Overview(context.Background())
	require.NoError(t, err)

	assert.Zero(t, o.CheckInsToday)
	assert.Equal(t, 2, o.OpenSessions)
	assert.Zero(t, o.Retention.Processed)
	assert.Nil(t, o.Retention.ComputedAt)
	assert.ElementsMatch(t, []string{"check_ins_today", "retention"}, o.Unavailable)
}

func TestOverview_WithoutRetentionSource(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CheckInsSince", mock.Anything, mock.Anything).Return(1, nil)
	repo.On("OpenSessions", mock.Anything).Return(1, nil)
	repo.On("ActiveMemberships", mock.Anything).Return(1, nil)
	repo.On("LowStockProducts", mock.Anything).Return(1, nil)

	o, err := newTestService(repo, nil).Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, o.CheckInsToday)
	assert.Empty(t, o.Unavailable)
}

func TestOverview_CancelledRequest(t *testing.T) {
	repo := new(MockRepository)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo.On("CheckInsSince", mock.Anything, mock.Anything).Return(0, context.Canceled)
	repo.On("OpenSessions", mock.Anything).Return(0, context.Canceled)
	repo.On("ActiveMemberships", mock.Anything).Return(0, context.Canceled)
	repo.On("LowStockProducts", mock.Anything).Return(0, context.Canceled)

	_, err := newTestService(repo, nil).Overview(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

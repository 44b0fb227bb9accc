package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, p *Product) (*Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, id int) (*Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ProductFilter, limit, offset int) ([]Product, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]Product), args.Int(1), args.Error(2)
}

func (m *MockRepository) Update(ctx context.Context, id int, req UpdateProductRequest) (*Adjustment, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Adjustment), args.Error(1)
}

func (m *MockRepository) Restock(ctx context.Context, id, quantity int, note string, by *int) (*Adjustment, error) {
	args := m.Called(ctx, id, quantity, note, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Adjustment), args.Error(1)
}

func (m *MockRepository) Sell(ctx context.Context, p SaleParams) (*Adjustment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Adjustment), args.Error(1)
}

func (m *MockRepository) Movements(ctx context.Context, productID, limit, offset int) ([]Movement, int, error) {
	args := m.Called(ctx, productID, limit, offset)
	return args.Get(0).([]Movement), args.Int(1), args.Error(2)
}

func (m *MockRepository) Sales(ctx context.Context, filter SaleFilter, limit, offset int) ([]SaleDetail, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]SaleDetail), args.Int(1), args.Error(2)
}

func (m *MockRepository) LowStock(ctx context.Context) ([]Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Product), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendLowStockAlert(ctx context.Context, to, sku, productName string, stock, threshold int) error {
	return m.Called(ctx, to, sku, productName, stock, threshold).Error(0)
}

func lowShake() Product {
	p := Product{ID: 3, SKU: "SHAKE-01", Name: "Protein shake", StockQuantity: 4, LowStockThreshold: 5, IsActive: true}
	p.Derive()
	return p
}

func TestRecordSale_AlertsWhenCrossingThreshold(t *testing.T) {
	repo := new(MockRepository)
	mailer := new(MockMailer)
	svc := NewService(repo, mailer, "front@gym.test")
	staff := 2

	repo.On("Sell", mock.Anything, SaleParams{ProductID: 3, Quantity: 3, SoldBy: &staff}).
		Return(&Adjustment{Product: lowShake(), Sale: &Sale{ID: 5, TotalCents: 1050}, BecameLow: true}, nil)
	repo.On("LowStock", mock.Anything).Return([]Product{lowShake()}, nil)
	mailer.On("SendLowStockAlert", mock.Anything, "front@gym.test", "SHAKE-01", "Protein shake", 4, 5).Return(nil)

	adj, err := svc.RecordSale(context.Background(), SaleRequest{ProductID: 3, Quantity: 3}, &staff)
	require.NoError(t, err)
	assert.Equal(t, 5, adj.Sale.ID)
	mailer.AssertExpectations(t)
}

func TestRecordSale_NoAlertWhenAlreadyLow(t *testing.T) {
	repo := new(MockRepository)
	mailer := new(MockMailer)
	svc := NewService(repo, mailer, "front@gym.test")

	repo.On("Sell", mock.Anything, mock.Anything).
		Return(&Adjustment{Product: lowShake(), Sale: &Sale{ID: 6}}, nil)
	repo.On("LowStock", mock.Anything).Return([]Product{lowShake()}, nil)

	_, err := svc.RecordSale(context.Background(), SaleRequest{ProductID: 3, Quantity: 1}, nil)
	require.NoError(t, err)
	mailer.AssertNotCalled(t, "SendLowStockAlert")
}

func TestUpdate_AlertsDisabledWithoutRecipient(t *testing.T) {
	repo := new(MockRepository)
	mailer := new(MockMailer)
	svc := NewService(repo, mailer, "  ")
	threshold := 10

	repo.On("Update", mock.Anything, 3, UpdateProductRequest{LowStockThreshold: &threshold}).
		Return(&Adjustment{Product: lowShake(), BecameLow: true}, nil)
	repo.On("LowStock", mock.Anything).Return([]Product{lowShake()}, nil)

	p, err := svc.Update(context.Background(), 3, UpdateProductRequest{LowStockThreshold: &threshold})
	require.NoError(t, err)
	assert.True(t, p.IsLowStock)
	mailer.AssertNotCalled(t, "SendLowStockAlert")
}

func TestCreate_NormalisesSKU(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, nil, "")

	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *Product) bool { return p.SKU == "BAR-02" })).
		Return(&Product{ID: 4, SKU: "BAR-02"}, nil)
	repo.On("LowStock", mock.Anything).Return([]Product{}, nil)

	p, err := svc.Create(context.Background(), CreateProductRequest{SKU: " bar-02 ", Name: "Energy bar"})
	require.NoError(t, err)
	assert.Equal(t, "BAR-02", p.SKU)
}

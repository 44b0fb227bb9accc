package credits

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gymhub/internal/apperr"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreatePackage(ctx context.Context, req CreatePackageRequest) (*Package, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Package), args.Error(1)
}

func (m *MockService) ListPackages(ctx context.Context, activeOnly bool, limit, offset int) ([]Package, int, error) {
	args := m.Called(ctx, activeOnly, limit, offset)
	return args.Get(0).([]Package), args.Int(1), args.Error(2)
}

func (m *MockService) Purchase(ctx context.Context, memberID, packageID int) (*Pass, error) {
	args := m.Called(ctx, memberID, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Pass), args.Error(1)
}

func (m *MockService) Grant(ctx context.Context, memberID, packageID int) (*Pass, error) {
	args := m.Called(ctx, memberID, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Pass), args.Error(1)
}

func (m *MockService) Summary(ctx context.Context, memberID int) (*Summary, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Summary), args.Error(1)
}

func (m *MockService) ListPasses(ctx context.Context, memberID int) ([]Pass, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).([]Pass), args.Error(1)
}

func (m *MockService) ListLedger(ctx context.Context, memberID, limit, offset int) ([]Transaction, int, error) {
	args := m.Called(ctx, memberID, limit, offset)
	return args.Get(0).([]Transaction), args.Int(1), args.Error(2)
}

func setupRouter(svc Service, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID > 0 {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	r.POST("/me/passes", h.Purchase)
	r.GET("/me/credits", h.MySummary)
	r.GET("/me/credits/transactions", h.MyLedger)
	return r
}

func TestPurchaseHandler(t *testing.T) {
	svc := new(MockService)
	svc.On("Purchase", mock.Anything, 5, 1).Return(&Pass{ID: 11, MemberID: 5, CreditsRemaining: 10}, nil)

	body, _ := json.Marshal(PurchaseRequest{PackageID: 1})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/me/passes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(svc, 5).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var pass Pass
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pass))
	assert.Equal(t, 11, pass.ID)
}

func TestPurchaseHandler_MissingPackage(t *testing.T) {
	svc := new(MockService)
	svc.On("Purchase", mock.Anything, 5, 9).Return(nil, apperr.NotFound("package 9"))

	body, _ := json.Marshal(PurchaseRequest{PackageID: 9})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/me/passes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(svc, 5).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMySummary_Unauthenticated(t *testing.T) {
	w := httptest.NewRecorder()
	setupRouter(new(MockService), 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me/credits", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMySummary(t *testing.T) {
	svc := new(MockService)
	svc.On("Summary", mock.Anything, 5).Return(&Summary{TotalRemaining: 4, ActivePasses: []Pass{}}, nil)

	w := httptest.NewRecorder()
	setupRouter(svc, 5).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me/credits", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_remaining":4`)
}

func TestMyLedger_Paginates(t *testing.T) {
	svc := new(MockService)
	svc.On("ListLedger", mock.Anything, 5, 10, 10).Return([]Transaction{{ID: 1, Amount: -1, Type: TxDeduction}}, 11, nil)

	w := httptest.NewRecorder()
	setupRouter(svc, 5).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me/credits/transactions?page=2&limit=10", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

package user

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
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockService) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockService) RefreshToken(ctx context.Context, token string) (string, *User, error) {
	args := m.Called(ctx, token)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*User), args.Error(2)
}

func (m *MockService) GetByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest) (*User, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) List(ctx context.Context, filter ListFilter, limit, offset int) ([]User, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]User), args.Int(1), args.Error(2)
}

func (m *MockService) GetMember(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) Deactivate(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) QRToken(ctx context.Context, id int, rotate bool) (string, error) {
	args := m.Called(ctx, id, rotate)
	return args.String(0), args.Error(1)
}

func (m *MockService) ResolveQRToken(ctx context.Context, token string) (*User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/members", h.ListMembers)
	r.GET("/trainers", h.ListTrainers)
	r.GET("/me/qr-token", func(c *gin.Context) { c.Set("user_id", 7) }, h.GetQRToken)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Register(t *testing.T) {
	svc := new(MockService)
	req := RegisterRequest{Name: "Mia", Email: "mia@example.com", Password: "password123"}
	svc.On("Register", mock.Anything, req).Return(&User{ID: 1, Name: "Mia", Email: "mia@example.com", Role: "member"}, "acc", "ref", nil)

	w := doJSON(setupRouter(svc), http.MethodPost, "/auth/register", req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "acc", resp.AccessToken)
	assert.Equal(t, "member", resp.User.Role)
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestHandler_Register_Validation(t *testing.T) {
	svc := new(MockService)

	w := doJSON(setupRouter(svc), http.MethodPost, "/auth/register", map[string]string{"email": "bad"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "details")
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestHandler_Login_InvalidCredentials(t *testing.T) {
	svc := new(MockService)
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, "", "", ErrInvalidCredentials)

	w := doJSON(setupRouter(svc), http.MethodPost, "/auth/login",
		LoginRequest{Email: "a@example.com", Password: "x"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_ListMembers(t *testing.T) {
	svc := new(MockService)
	active := false
	svc.On("List", mock.Anything, ListFilter{Role: "member", Search: "bo", Active: &active}, 10, 10).
		Return([]User{{ID: 2, Name: "Bo"}}, 11, nil)

	w := doJSON(setupRouter(svc), http.MethodGet, "/members?page=2&limit=10&search=bo&active=false", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data       []MemberSummary `json:"data"`
		Total      int             `json:"total"`
		TotalPages int             `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, 11, body.Total)
	assert.Equal(t, 2, body.TotalPages)
}

func TestHandler_ListMembers_LimitOutOfRange(t *testing.T) {
	w := doJSON(setupRouter(new(MockService)), http.MethodGet, "/members?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ListTrainers_Views(t *testing.T) {
	spec := "Yoga"
	bio := "Ten years of vinyasa"
	trainers := []User{{ID: 3, Name: "Tia", Email: "t@example.com", Role: "trainer", Specialization: &spec, Bio: &bio}}

	svc := new(MockService)
	svc.On("List", mock.Anything, mock.MatchedBy(func(f ListFilter) bool { return f.Role == "trainer" }), 20, 0).
		Return(trainers, 1, nil)
	r := setupRouter(svc)

	card := doJSON(r, http.MethodGet, "/trainers", nil)
	require.Equal(t, http.StatusOK, card.Code)
	assert.NotContains(t, card.Body.String(), "vinyasa")

	profile := doJSON(r, http.MethodGet, "/trainers?view=profile", nil)
	require.Equal(t, http.StatusOK, profile.Code)
	assert.Contains(t, profile.Body.String(), "vinyasa")

	bad := doJSON(r, http.MethodGet, "/trainers?view=table", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestHandler_GetQRToken(t *testing.T) {
	svc := new(MockService)
	svc.On("QRToken", mock.Anything, 7, true).Return("new-token", nil)

	w := doJSON(setupRouter(svc), http.MethodGet, "/me/qr-token?rotate=true", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "new-token")
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(testSecret)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "staff": IsStaff(c)})
	})
	router.GET("/protected", handlers...)
	return router
}

func TestAuthMiddlewareHeaders(t *testing.T) {
	router := newProtectedRouter()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"malformed token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_RejectsRefreshToken(t *testing.T) {
	router := newProtectedRouter()
	refresh, err := GenerateRefreshToken(1, "a@b.c", RoleMember, testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Access token required")
}

func TestRequireRole(t *testing.T) {
	router := newProtectedRouter(RoleStaff, RoleAdmin)

	tests := []struct {
		role   string
		status int
	}{
		{RoleMember, http.StatusForbidden},
		{RoleTrainer, http.StatusForbidden},
		{RoleStaff, http.StatusOK},
		{RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			token, err := GenerateAccessToken(5, "x@example.com", tt.role, testSecret)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"staff":true`)
				assert.Contains(t, w.Body.String(), `"user_id":5`)
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)

	c.Set("user_id", "not-an-int")
	_, ok = GetUserID(c)
	assert.False(t, ok)

	c.Set("user_id", 12)
	id, ok := GetUserID(c)
	assert.True(t, ok)
	assert.Equal(t, 12, id)
}

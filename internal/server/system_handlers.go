package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gymhub/internal/api"
)

// Sender queues a plain e-mail. *email.Service satisfies it.
type Sender interface {
	Send(ctx context.Context, to, name, subject, body string) error
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// @Summary      Readiness check
// @Description  Reports 503 while the database is unreachable
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Failure      503 {object} api.HealthResponse
// @Router       /ready [get]
func Ready(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if db == nil || db.PingContext(ctx) != nil {
			c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
	}
}

// @Summary      Queue a test email
// @Tags         system
// @Produce      json
// @Security     BearerAuth
// @Param        email query string true "Recipient email"
// @Success      200 {object} api.MessageResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/test-email [post]
func TestEmail(sender Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		testEmail := c.Query("email")
		if testEmail == "" {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "email parameter required"})
			return
		}

		if err := sender.Send(c.Request.Context(), testEmail, "Test User", "Test Email from GymHub", "Email is working!"); err != nil {
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
			return
		}

		c.JSON(http.StatusOK, api.MessageResponse{Message: "Email queued successfully"})
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymhub/internal/api"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Overview godoc
// @Summary      Dashboard overview
// @Description  Today's check-ins, open sessions, active memberships, low-stock count and the latest retention buckets
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dashboard.Overview
// @Router       /admin/dashboard [get]
func (h *Handler) Overview(c *gin.Context) {
	o, err := h.service.Overview(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

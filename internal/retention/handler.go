package retention

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

// @Summary      Recompute retention risk
// @Description  Scores every active member as of today and replaces the stored buckets
// @Tags         retention
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} retention.Counts
// @Router       /admin/retention/recompute [post]
func (h *Handler) Recompute(c *gin.Context) {
	counts, err := h.service.Recompute(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

// @Summary      Retention overview
// @Tags         retention
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} retention.Overview
// @Router       /admin/retention [get]
func (h *Handler) Overview(c *gin.Context) {
	o, err := h.service.Overview(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

// @Summary      Members in a risk bucket
// @Tags         retention
// @Produce      json
// @Security     BearerAuth
// @Param        risk  path  string true  "high, medium or low"
// @Param        page  query int    false "Page"
// @Param        limit query int    false "Page size (1-100)"
// @Success      200 {object} api.Page[retention.ScoreDetail]
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/retention/{risk} [get]
func (h *Handler) ListByRisk(c *gin.Context) {
	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	list, total, err := h.service.ListByRisk(c.Request.Context(), c.Param("risk"), page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(list, page, total))
}

package marketing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymhub/internal/api"
	"gymhub/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Create a campaign draft
// @Tags         marketing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body marketing.CreateCampaignRequest true "Campaign"
// @Success      201 {object} marketing.Campaign
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/campaigns [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateCampaignRequest
	if !api.BindJSON(c, &req) {
		return
	}

	var createdBy *int
	if id, ok := auth.GetUserID(c); ok {
		createdBy = &id
	}

	campaign, err := h.service.Create(c.Request.Context(), req, createdBy)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// @Summary      List campaigns
// @Tags         marketing
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size (1-100)"
// @Success      200 {object} api.Page[marketing.Campaign]
// @Router       /admin/campaigns [get]
func (h *Handler) List(c *gin.Context) {
	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	list, total, err := h.service.List(c.Request.Context(), page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(list, page, total))
}

// @Summary      Get a campaign
// @Tags         marketing
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Campaign ID"
// @Success      200 {object} marketing.Campaign
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/campaigns/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	campaign, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// @Summary      Send a campaign
// @Description  Only drafts can be sent; recipients are active members, optionally in one risk bucket
// @Tags         marketing
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Campaign ID"
// @Success      200 {object} marketing.SendResult
// @Failure      422 {object} api.ErrorResponse
// @Router       /admin/campaigns/{id}/send [post]
func (h *Handler) Send(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	res, err := h.service.Send(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// @Summary      Delivery events for a campaign
// @Tags         marketing
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int true  "Campaign ID"
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size (1-100)"
// @Success      200 {object} api.Page[marketing.Event]
// @Router       /admin/campaigns/{id}/events [get]
func (h *Handler) ListEvents(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}
	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	list, total, err := h.service.ListEvents(c.Request.Context(), id, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(list, page, total))
}

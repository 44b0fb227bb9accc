package discount

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gymhub/internal/api"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Create a discount code
// @Description  Codes are stored upper-cased
// @Tags         discounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body discount.CreateCodeRequest true "Discount code"
// @Success      201 {object} discount.Code
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/discount-codes [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateCodeRequest
	if !api.BindJSON(c, &req) {
		return
	}

	code, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, code)
}

// @Summary      List discount codes
// @Tags         discounts
// @Produce      json
// @Security     BearerAuth
// @Param        page   query int  false "Page"
// @Param        limit  query int  false "Page size (1-100)"
// @Param        active query bool false "Only active codes"
// @Success      200 {object} api.Page[discount.Code]
// @Router       /admin/discount-codes [get]
func (h *Handler) List(c *gin.Context) {
	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	activeOnly, _ := strconv.ParseBool(c.Query("active"))

	codes, total, err := h.service.List(c.Request.Context(), activeOnly, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(codes, page, total))
}

// @Summary      Deactivate a discount code
// @Tags         discounts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Code ID"
// @Success      200 {object} discount.Code
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/discount-codes/{id}/deactivate [post]
func (h *Handler) Deactivate(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	code, err := h.service.Deactivate(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, code)
}

// @Summary      Preview a discount
// @Description  Validates a code against a plan price without consuming a redemption
// @Tags         discounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body discount.PreviewRequest true "Code and plan"
// @Success      200 {object} discount.Preview
// @Failure      400 {object} api.ErrorResponse
// @Router       /discount-codes/preview [post]
func (h *Handler) Preview(c *gin.Context) {
	var req PreviewRequest
	if !api.BindJSON(c, &req) {
		return
	}

	preview, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

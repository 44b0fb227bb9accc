package inventory

import (
	"net/http"
	"strconv"

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

func actor(c *gin.Context) *int {
	if id, ok := auth.GetUserID(c); ok {
		return &id
	}
	return nil
}

// @Summary      Create a product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body inventory.CreateProductRequest true "Product"
// @Success      201 {object} inventory.Product
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/products [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateProductRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// @Summary      List products
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        category query string false "Category"
// @Param        active   query bool   false "Only products on sale"
// @Param        low      query bool   false "Only low-stock products"
// @Param        page     query int    false "Page"
// @Param        limit    query int    false "Page size (1-100)"
// @Success      200 {object} api.Page[inventory.Product]
// @Router       /admin/products [get]
func (h *Handler) List(c *gin.Context) {
	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	active, _ := strconv.ParseBool(c.Query("active"))
	low, _ := strconv.ParseBool(c.Query("low"))

	list, total, err := h.service.List(c.Request.Context(),
		ProductFilter{Category: c.Query("category"), ActiveOnly: active, LowOnly: low}, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(list, page, total))
}

// @Summary      Get a product
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Product ID"
// @Success      200 {object} inventory.Product
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/products/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// @Summary      Update a product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                            true "Product ID"
// @Param        request body inventory.UpdateProductRequest true "Fields to change"
// @Success      200 {object} inventory.Product
// @Router       /admin/products/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var req UpdateProductRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// @Summary      Restock a product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                      true "Product ID"
// @Param        request body inventory.RestockRequest true "Quantity received"
// @Success      200 {object} inventory.Adjustment
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/products/{id}/restock [post]
func (h *Handler) Restock(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var req RestockRequest
	if !api.BindJSON(c, &req) {
		return
	}

	adj, err := h.service.Restock(c.Request.Context(), id, req, actor(c))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, adj)
}

// @Summary      Record a sale
// @Description  Fails with 409 when the quantity exceeds stock on hand
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body inventory.SaleRequest true "Sale"
// @Success      201 {object} inventory.Adjustment
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/sales [post]
func (h *Handler) RecordSale(c *gin.Context) {
	var req SaleRequest
	if !api.BindJSON(c, &req) {
		return
	}

	adj, err := h.service.RecordSale(c.Request.Context(), req, actor(c))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, adj)
}

// @Summary      Stock movements for a product
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int true  "Product ID"
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size (1-100)"
// @Success      200 {object} api.Page[inventory.Movement]
// @Router       /admin/products/{id}/movements [get]
func (h *Handler) Movements(c *gin.Context) {
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

	list, total, err := h.service.Movements(c.Request.Context(), id, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(list, page, total))
}

// @Summary      List sales
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        product_id query int    false "Product"
// @Param        member_id  query int    false "Member"
// @Param        from       query string false "RFC3339 lower bound"
// @Param        to         query string false "RFC3339 upper bound"
// @Param        page       query int    false "Page"
// @Param        limit      query int    false "Page size (1-100)"
// @Success      200 {object} api.Page[inventory.SaleDetail]
// @Router       /admin/sales [get]
func (h *Handler) Sales(c *gin.Context) {
	var filter SaleFilter
	var err error
	if filter.ProductID, err = api.ParseOptionalIntQuery(c, "product_id"); err != nil {
		api.RespondError(c, err)
		return
	}
	if filter.MemberID, err = api.ParseOptionalIntQuery(c, "member_id"); err != nil {
		api.RespondError(c, err)
		return
	}
	if filter.From, err = api.ParseOptionalTimeQuery(c, "from"); err != nil {
		api.RespondError(c, err)
		return
	}
	if filter.To, err = api.ParseOptionalTimeQuery(c, "to"); err != nil {
		api.RespondError(c, err)
		return
	}
	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	list, total, err := h.service.Sales(c.Request.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(list, page, total))
}

// @Summary      Low-stock products
// @Description  Active products at or below their threshold, largest deficit first
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} inventory.Product
// @Router       /admin/products/low-stock [get]
func (h *Handler) LowStock(c *gin.Context) {
	list, err := h.service.LowStock(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}
	if list == nil {
		list = []Product{}
	}

	c.JSON(http.StatusOK, list)
}

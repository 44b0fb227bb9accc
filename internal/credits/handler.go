package credits

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

// @Summary      Create a class package
// @Tags         credits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body credits.CreatePackageRequest true "Package payload"
// @Success      201 {object} credits.Package
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/packages [post]
func (h *Handler) CreatePackage(c *gin.Context) {
	var req CreatePackageRequest
	if !api.BindJSON(c, &req) {
		return
	}

	pkg, err := h.service.CreatePackage(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pkg)
}

// @Summary      List class packages
// @Tags         credits
// @Produce      json
// @Param        page  query int  false "Page"
// @Param        limit query int  false "Page size (1-100)"
// @Param        all   query bool false "Include retired packages"
// @Success      200 {object} api.Page[credits.Package]
// @Router       /packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	all, _ := strconv.ParseBool(c.Query("all"))

	list, total, err := h.service.ListPackages(c.Request.Context(), !all, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(list, page, total))
}

// @Summary      Buy a class package
// @Tags         credits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body credits.PurchaseRequest true "Package to buy"
// @Success      201 {object} credits.Pass
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /me/passes [post]
func (h *Handler) Purchase(c *gin.Context) {
	memberID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req PurchaseRequest
	if !api.BindJSON(c, &req) {
		return
	}

	pass, err := h.service.Purchase(c.Request.Context(), memberID, req.PackageID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pass)
}

// @Summary      Grant a pass to a member
// @Tags         credits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body credits.GrantRequest true "Member and package"
// @Success      201 {object} credits.Pass
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/passes [post]
func (h *Handler) Grant(c *gin.Context) {
	var req GrantRequest
	if !api.BindJSON(c, &req) {
		return
	}

	pass, err := h.service.Grant(c.Request.Context(), req.MemberID, req.PackageID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pass)
}

// @Summary      My credit summary
// @Description  Remaining credits across live passes and whether an unlimited pass is held
// @Tags         credits
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} credits.Summary
// @Router       /me/credits [get]
func (h *Handler) MySummary(c *gin.Context) {
	h.summary(c, 0)
}

// @Summary      Member credit summary
// @Tags         credits
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Member ID"
// @Success      200 {object} credits.Summary
// @Router       /members/{id}/credits [get]
func (h *Handler) MemberSummary(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}
	h.summary(c, id)
}

func (h *Handler) summary(c *gin.Context, memberID int) {
	if memberID == 0 {
		var ok bool
		if memberID, ok = auth.GetUserID(c); !ok {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
			return
		}
	}

	summary, err := h.service.Summary(c.Request.Context(), memberID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// @Summary      My passes
// @Tags         credits
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} credits.Pass
// @Router       /me/passes [get]
func (h *Handler) MyPasses(c *gin.Context) {
	memberID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	passes, err := h.service.ListPasses(c.Request.Context(), memberID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	if passes == nil {
		passes = []Pass{}
	}

	c.JSON(http.StatusOK, passes)
}

// @Summary      My credit ledger
// @Tags         credits
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size (1-100)"
// @Success      200 {object} api.Page[credits.Transaction]
// @Router       /me/credits/transactions [get]
func (h *Handler) MyLedger(c *gin.Context) {
	memberID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	txs, total, err := h.service.ListLedger(c.Request.Context(), memberID, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(txs, page, total))
}

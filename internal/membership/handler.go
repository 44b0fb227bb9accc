package membership

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gymhub/internal/api"
	"gymhub/internal/apperr"
	"gymhub/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Create a membership plan
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body membership.CreatePlanRequest true "Plan"
// @Success      201 {object} membership.Plan
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/plans [post]
func (h *Handler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if !api.BindJSON(c, &req) {
		return
	}

	plan, err := h.service.CreatePlan(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// @Summary      List membership plans
// @Tags         memberships
// @Produce      json
// @Param        page  query int  false "Page"
// @Param        limit query int  false "Page size (1-100)"
// @Param        all   query bool false "Include retired plans"
// @Success      200 {object} api.Page[membership.Plan]
// @Router       /plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	all, _ := strconv.ParseBool(c.Query("all"))

	plans, total, err := h.service.ListPlans(c.Request.Context(), !all, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(plans, page, total))
}

// @Summary      Get a membership plan
// @Tags         memberships
// @Produce      json
// @Param        id path int true "Plan ID"
// @Success      200 {object} membership.Plan
// @Failure      404 {object} api.ErrorResponse
// @Router       /plans/{id} [get]
func (h *Handler) GetPlan(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	plan, err := h.service.GetPlan(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// @Summary      Update a membership plan
// @Description  Rejected with 409 while live memberships use the plan
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                          true "Plan ID"
// @Param        request body membership.UpdatePlanRequest true "Fields to change"
// @Success      200 {object} membership.Plan
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/plans/{id} [patch]
func (h *Handler) UpdatePlan(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var req UpdatePlanRequest
	if !api.BindJSON(c, &req) {
		return
	}

	plan, err := h.service.UpdatePlan(c.Request.Context(), id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// @Summary      Retire a membership plan
// @Tags         memberships
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Plan ID"
// @Success      200 {object} membership.Plan
// @Router       /admin/plans/{id}/deactivate [post]
func (h *Handler) DeactivatePlan(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	plan, err := h.service.DeactivatePlan(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// @Summary      Assign a membership
// @Description  A start_date in the future creates a pending membership
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body membership.AssignRequest true "Member, plan and optional discount code"
// @Success      201 {object} membership.MembershipDetail
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/memberships [post]
func (h *Handler) Assign(c *gin.Context) {
	var req AssignRequest
	if !api.BindJSON(c, &req) {
		return
	}

	m, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// @Summary      Freeze, unfreeze or cancel a membership
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                          true "Membership ID"
// @Param        request body membership.TransitionRequest true "Action"
// @Success      200 {object} membership.Membership
// @Failure      422 {object} api.ErrorResponse
// @Router       /admin/memberships/{id}/status [patch]
func (h *Handler) Apply(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var req TransitionRequest
	if !api.BindJSON(c, &req) {
		return
	}

	m, err := h.service.Apply(c.Request.Context(), id, req.Action)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// @Summary      List memberships
// @Tags         memberships
// @Produce      json
// @Security     BearerAuth
// @Param        member_id query int    false "Member"
// @Param        status    query string false "Status"
// @Param        page      query int    false "Page"
// @Param        limit     query int    false "Page size (1-100)"
// @Success      200 {object} api.Page[membership.MembershipDetail]
// @Router       /admin/memberships [get]
func (h *Handler) List(c *gin.Context) {
	memberID, err := api.ParseOptionalIntQuery(c, "member_id")
	if err != nil {
		api.RespondError(c, err)
		return
	}
	h.list(c, ListFilter{MemberID: memberID, Status: c.Query("status")})
}

// @Summary      My memberships
// @Tags         memberships
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size (1-100)"
// @Success      200 {object} api.Page[membership.MembershipDetail]
// @Router       /me/memberships [get]
func (h *Handler) ListMine(c *gin.Context) {
	uid, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	h.list(c, ListFilter{MemberID: &uid})
}

func (h *Handler) list(c *gin.Context, filter ListFilter) {
	switch filter.Status {
	case "", StatusActive, StatusExpired, StatusCancelled, StatusPending, StatusFrozen:
	default:
		api.RespondError(c, apperr.Validation("unknown membership status %q", filter.Status))
		return
	}
	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	list, total, err := h.service.List(c.Request.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(list, page, total))
}

// @Summary      Get a membership
// @Tags         memberships
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Membership ID"
// @Success      200 {object} membership.MembershipDetail
// @Failure      404 {object} api.ErrorResponse
// @Router       /memberships/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	uid, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	m, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	if m.MemberID != uid && !auth.IsStaff(c) {
		api.RespondError(c, apperr.NotFound("membership"))
		return
	}

	c.JSON(http.StatusOK, m)
}

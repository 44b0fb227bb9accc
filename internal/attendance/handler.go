package attendance

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

// CheckIn godoc
// @Summary      Check a member in
// @Description  With schedule_id the visit counts as class attendance and completes the member's booking
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body attendance.CheckInRequest true "Member and optional schedule"
// @Success      201 {object} attendance.Record
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/attendance/check-in [post]
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if !api.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.CheckIn(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// CheckInByQR godoc
// @Summary      Check a member in from a scanned QR token
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body attendance.QRCheckInRequest true "Scanned token"
// @Success      201 {object} attendance.Record
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/attendance/qr [post]
func (h *Handler) CheckInByQR(c *gin.Context) {
	var req QRCheckInRequest
	if !api.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.CheckInByQR(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// CheckOut godoc
// @Summary      Check a member out
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body attendance.CheckOutRequest true "Member"
// @Success      200 {object} attendance.Record
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/attendance/check-out [post]
func (h *Handler) CheckOut(c *gin.Context) {
	var req CheckOutRequest
	if !api.BindJSON(c, &req) {
		return
	}
	h.checkOut(c, req.MemberID)
}

// CheckOutSelf godoc
// @Summary      Check myself out
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} attendance.Record
// @Failure      404 {object} api.ErrorResponse
// @Router       /me/check-out [post]
func (h *Handler) CheckOutSelf(c *gin.Context) {
	uid, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	h.checkOut(c, uid)
}

func (h *Handler) checkOut(c *gin.Context, memberID int) {
	rec, err := h.service.CheckOut(c.Request.Context(), memberID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ListMine godoc
// @Summary      My visits
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Param        from  query string false "RFC3339 lower bound"
// @Param        to    query string false "RFC3339 upper bound"
// @Param        page  query int    false "Page"
// @Param        limit query int    false "Page size (1-100)"
// @Success      200 {object} api.Page[attendance.RecordDetail]
// @Router       /me/attendance [get]
func (h *Handler) ListMine(c *gin.Context) {
	uid, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	h.list(c, &uid)
}

// List godoc
// @Summary      Attendance log
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Param        member_id query int    false "Member"
// @Param        from      query string false "RFC3339 lower bound"
// @Param        to        query string false "RFC3339 upper bound"
// @Param        page      query int    false "Page"
// @Param        limit     query int    false "Page size (1-100)"
// @Success      200 {object} api.Page[attendance.RecordDetail]
// @Router       /admin/attendance [get]
func (h *Handler) List(c *gin.Context) {
	memberID, err := api.ParseOptionalIntQuery(c, "member_id")
	if err != nil {
		api.RespondError(c, err)
		return
	}
	h.list(c, memberID)
}

func (h *Handler) list(c *gin.Context, memberID *int) {
	filter := ListFilter{MemberID: memberID}
	var err error
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

	list, total, err := h.service.List(c.Request.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(list, page, total))
}

// Report godoc
// @Summary      Attendance report
// @Description  Either from/to or the trailing number of days (1-365, default 30)
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "RFC3339 start"
// @Param        to   query string false "RFC3339 end"
// @Param        days query int    false "Trailing days"
// @Success      200 {object} attendance.Report
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/attendance/report [get]
func (h *Handler) Report(c *gin.Context) {
	from, err := api.ParseOptionalTimeQuery(c, "from")
	if err != nil {
		api.RespondError(c, err)
		return
	}
	to, err := api.ParseOptionalTimeQuery(c, "to")
	if err != nil {
		api.RespondError(c, err)
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil || days < 1 {
			api.RespondError(c, apperr.Validation("days must be an integer between 1 and %d", MaxReportDays))
			return
		}
	}

	report, err := h.service.Report(c.Request.Context(), from, to, days)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

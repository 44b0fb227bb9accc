package booking

import (
	"net/http"

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

func memberID(c *gin.Context) (int, bool) {
	id, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
	}
	return id, ok
}

// Book godoc
// @Summary      Book a class
// @Description  Books a place and draws a credit when the class requires one. A full class
// @Description  answers 409 with the next waitlist position unless join_waitlist is set,
// @Description  in which case the member is queued and 202 is returned.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body booking.BookRequest true "Schedule to book"
// @Success      201 {object} booking.BookResult
// @Success      202 {object} booking.BookResult
// @Failure      402 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /bookings [post]
func (h *Handler) Book(c *gin.Context) {
	id, ok := memberID(c)
	if !ok {
		return
	}

	var req BookRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Book(c.Request.Context(), id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	if res.Waitlist != nil {
		c.JSON(http.StatusAccepted, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// StaffBook godoc
// @Summary      Book on behalf of a member
// @Description  pending=true creates a hold that takes no place until confirmed
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body booking.StaffBookRequest true "Member and schedule"
// @Success      201 {object} booking.BookResult
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/bookings [post]
func (h *Handler) StaffBook(c *gin.Context) {
	var req StaffBookRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.StaffBook(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// Cancel godoc
// @Summary      Cancel my booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Booking ID"
// @Success      200 {object} booking.TransitionResult
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /bookings/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	uid, ok := memberID(c)
	if !ok {
		return
	}
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), uid, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Transition godoc
// @Summary      Change a booking's status
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                       true "Booking ID"
// @Param        request body booking.TransitionRequest true "Target status"
// @Success      200 {object} booking.TransitionResult
// @Failure      409 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /admin/bookings/{id}/status [patch]
func (h *Handler) Transition(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var req TransitionRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Transition(c.Request.Context(), id, req.Status)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Get godoc
// @Summary      Get a booking
// @Description  Members only see their own bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Booking ID"
// @Success      200 {object} booking.BookingDetail
// @Failure      404 {object} api.ErrorResponse
// @Router       /bookings/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	uid, ok := memberID(c)
	if !ok {
		return
	}
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	if d.MemberID != uid && !auth.IsStaff(c) {
		api.RespondError(c, apperr.NotFound("booking"))
		return
	}

	c.JSON(http.StatusOK, d)
}

// ListMine godoc
// @Summary      My bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Filter by status"
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size (1-100)"
// @Success      200 {object} api.Page[booking.BookingDetail]
// @Router       /me/bookings [get]
func (h *Handler) ListMine(c *gin.Context) {
	uid, ok := memberID(c)
	if !ok {
		return
	}
	h.list(c, ListFilter{MemberID: &uid, Status: c.Query("status")})
}

// List godoc
// @Summary      List bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        member_id   query int    false "Member"
// @Param        schedule_id query int    false "Schedule"
// @Param        status      query string false "Status"
// @Param        page        query int    false "Page"
// @Param        limit       query int    false "Page size (1-100)"
// @Success      200 {object} api.Page[booking.BookingDetail]
// @Router       /admin/bookings [get]
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{Status: c.Query("status")}
	var err error
	if filter.MemberID, err = api.ParseOptionalIntQuery(c, "member_id"); err != nil {
		api.RespondError(c, err)
		return
	}
	if filter.ScheduleID, err = api.ParseOptionalIntQuery(c, "schedule_id"); err != nil {
		api.RespondError(c, err)
		return
	}
	h.list(c, filter)
}

func (h *Handler) list(c *gin.Context, filter ListFilter) {
	if filter.Status != "" && !validStatus(filter.Status) {
		api.RespondError(c, apperr.Validation("unknown booking status %q", filter.Status))
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

func validStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// JoinWaitlist godoc
// @Summary      Join a class waitlist
// @Description  Only allowed while the class is full
// @Tags         waitlist
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body booking.JoinWaitlistRequest true "Schedule"
// @Success      201 {object} booking.WaitlistEntry
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /waitlist [post]
func (h *Handler) JoinWaitlist(c *gin.Context) {
	uid, ok := memberID(c)
	if !ok {
		return
	}

	var req JoinWaitlistRequest
	if !api.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.JoinWaitlist(c.Request.Context(), uid, req.ScheduleID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// LeaveWaitlist godoc
// @Summary      Leave a waitlist
// @Tags         waitlist
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Waitlist entry ID"
// @Success      200 {object} booking.WaitlistEntry
// @Failure      404 {object} api.ErrorResponse
// @Router       /waitlist/{id} [delete]
func (h *Handler) LeaveWaitlist(c *gin.Context) {
	uid, ok := memberID(c)
	if !ok {
		return
	}
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	entry, err := h.service.LeaveWaitlist(c.Request.Context(), uid, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// AcceptOffer godoc
// @Summary      Accept a waitlist offer
// @Tags         waitlist
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Waitlist entry ID"
// @Success      200 {object} booking.WaitlistEntry
// @Failure      422 {object} api.ErrorResponse
// @Router       /waitlist/{id}/accept [post]
func (h *Handler) AcceptOffer(c *gin.Context) {
	uid, ok := memberID(c)
	if !ok {
		return
	}
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	entry, err := h.service.AcceptOffer(c.Request.Context(), uid, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// DeclineOffer godoc
// @Summary      Decline a waitlist offer
// @Description  The held booking is cancelled with a refund and the place moves on
// @Tags         waitlist
// @Security     BearerAuth
// @Param        id path int true "Waitlist entry ID"
// @Success      204
// @Failure      422 {object} api.ErrorResponse
// @Router       /waitlist/{id}/decline [post]
func (h *Handler) DeclineOffer(c *gin.Context) {
	uid, ok := memberID(c)
	if !ok {
		return
	}
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	if err := h.service.DeclineOffer(c.Request.Context(), uid, id); err != nil {
		api.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMyWaitlist godoc
// @Summary      My waitlist entries
// @Tags         waitlist
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} booking.WaitlistDetail
// @Router       /me/waitlist [get]
func (h *Handler) ListMyWaitlist(c *gin.Context) {
	uid, ok := memberID(c)
	if !ok {
		return
	}

	list, err := h.service.ListMemberWaitlist(c.Request.Context(), uid)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	if list == nil {
		list = []WaitlistDetail{}
	}

	c.JSON(http.StatusOK, list)
}

// ListScheduleWaitlist godoc
// @Summary      Waitlist for a schedule
// @Description  Live queue: outstanding offers first, then waiting members by position
// @Tags         waitlist
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Schedule ID"
// @Success      200 {array} booking.WaitlistDetail
// @Router       /admin/schedules/{id}/waitlist [get]
func (h *Handler) ListScheduleWaitlist(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	list, err := h.service.ListScheduleWaitlist(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	if list == nil {
		list = []WaitlistDetail{}
	}

	c.JSON(http.StatusOK, list)
}

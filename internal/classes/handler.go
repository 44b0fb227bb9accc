package classes

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

// @Summary      Create a class
// @Description  Staff-only: define a class type that schedules are created from
// @Tags         classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body classes.CreateClassRequest true "Class payload"
// @Success      201 {object} classes.Class
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/classes [post]
func (h *Handler) CreateClass(c *gin.Context) {
	var req CreateClassRequest
	if !api.BindJSON(c, &req) {
		return
	}

	class, err := h.service.CreateClass(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, class)
}

// @Summary      List classes
// @Tags         classes
// @Produce      json
// @Param        page   query int  false "Page"
// @Param        limit  query int  false "Page size (1-100)"
// @Param        all    query bool false "Include inactive classes"
// @Success      200 {object} api.Page[classes.Class]
// @Router       /classes [get]
func (h *Handler) ListClasses(c *gin.Context) {
	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	all, _ := strconv.ParseBool(c.Query("all"))

	list, total, err := h.service.ListClasses(c.Request.Context(), !all, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(list, page, total))
}

// @Summary      Get a class
// @Tags         classes
// @Produce      json
// @Param        id path int true "Class ID"
// @Success      200 {object} classes.ClassDetail
// @Failure      404 {object} api.ErrorResponse
// @Router       /classes/{id} [get]
func (h *Handler) GetClass(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	class, err := h.service.GetClass(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, class)
}

// @Summary      Create a schedule
// @Description  Staff-only: schedule a class with a trainer, time range and capacity
// @Tags         classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body classes.CreateScheduleRequest true "Schedule payload"
// @Success      201 {object} classes.Schedule
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/schedules [post]
func (h *Handler) CreateSchedule(c *gin.Context) {
	var req CreateScheduleRequest
	if !api.BindJSON(c, &req) {
		return
	}

	schedule, err := h.service.CreateSchedule(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// @Summary      List schedules with availability
// @Tags         classes
// @Produce      json
// @Param        page       query int    false "Page"
// @Param        limit      query int    false "Page size (1-100)"
// @Param        from       query string false "RFC3339 lower bound on start time"
// @Param        to         query string false "RFC3339 upper bound on start time"
// @Param        class_id   query int    false "Class filter"
// @Param        trainer_id query int    false "Trainer filter"
// @Success      200 {object} api.Page[classes.ScheduleWithAvailability]
// @Failure      400 {object} api.ErrorResponse
// @Router       /schedules [get]
func (h *Handler) ListSchedules(c *gin.Context) {
	page, err := api.ParsePage(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var filter ScheduleFilter
	if filter.From, err = api.ParseOptionalTimeQuery(c, "from"); err != nil {
		api.RespondError(c, err)
		return
	}
	if filter.To, err = api.ParseOptionalTimeQuery(c, "to"); err != nil {
		api.RespondError(c, err)
		return
	}
	if filter.ClassID, err = api.ParseOptionalIntQuery(c, "class_id"); err != nil {
		api.RespondError(c, err)
		return
	}
	if filter.TrainerID, err = api.ParseOptionalIntQuery(c, "trainer_id"); err != nil {
		api.RespondError(c, err)
		return
	}

	list, total, err := h.service.ListSchedules(c.Request.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewPage(list, page, total))
}

// @Summary      Get a schedule
// @Tags         classes
// @Produce      json
// @Param        id path int true "Schedule ID"
// @Success      200 {object} classes.ScheduleWithAvailability
// @Failure      404 {object} api.ErrorResponse
// @Router       /schedules/{id} [get]
func (h *Handler) GetSchedule(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	schedule, err := h.service.GetSchedule(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// @Summary      Rate an attended class
// @Tags         classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body classes.RateClassRequest true "Rating payload"
// @Success      201 {object} classes.Rating
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /classes/ratings [post]
func (h *Handler) RateClass(c *gin.Context) {
	memberID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req RateClassRequest
	if !api.BindJSON(c, &req) {
		return
	}

	rating, err := h.service.RateClass(c.Request.Context(), memberID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rating)
}

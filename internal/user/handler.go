package user

import (
	"errors"
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

func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	api.RespondError(c, err)
}

// Register godoc
// @Summary      Register new member
// @Description  Creates a member account and returns access & refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "Registration data"
// @Success      201      {object}  AuthResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !api.BindJSON(c, &req) {
		return
	}

	user, accessToken, refreshToken, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         ToProfile(*user),
	})
}

// Login godoc
// @Summary      Login
// @Description  Authenticates by email and password. Deactivated accounts cannot log in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Credentials"
// @Success      200      {object}  AuthResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !api.BindJSON(c, &req) {
		return
	}

	user, accessToken, refreshToken, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         ToProfile(*user),
	})
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RefreshRequest  true  "Refresh token"
// @Success      200      {object}  AuthResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if !api.BindJSON(c, &req) {
		return
	}

	accessToken, user, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if apperr.IsNotFound(err) {
			err = ErrInvalidCredentials
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{AccessToken: accessToken, User: ToProfile(*user)})
}

// GetMe godoc
// @Summary      Get current user
// @Tags         user
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Profile
// @Failure      401  {object}  api.ErrorResponse
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToProfile(*user))
}

// UpdateMe godoc
// @Summary      Update own profile
// @Tags         user
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      UpdateProfileRequest  true  "Fields to change"
// @Success      200      {object}  Profile
// @Failure      400      {object}  api.ErrorResponse
// @Router       /me [patch]
func (h *Handler) UpdateMe(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateProfileRequest
	if !api.BindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToProfile(*user))
}

// GetQRToken godoc
// @Summary      Get check-in QR token
// @Description  Returns the member's QR check-in token, issuing one if needed. Pass rotate=true to replace it.
// @Tags         user
// @Security     BearerAuth
// @Produce      json
// @Param        rotate  query     bool  false  "Issue a new token"
// @Success      200     {object}  QRTokenResponse
// @Failure      403     {object}  api.ErrorResponse
// @Router       /me/qr-token [get]
func (h *Handler) GetQRToken(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	rotate, _ := strconv.ParseBool(c.Query("rotate"))
	token, err := h.service.QRToken(c.Request.Context(), userID, rotate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, QRTokenResponse{Token: token})
}

// CreateUser godoc
// @Summary      Create user
// @Description  Admin creates a member, trainer, staff or admin account.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateUserRequest  true  "Account data"
// @Success      201      {object}  Profile
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !api.BindJSON(c, &req) {
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ToProfile(*user))
}

// ListMembers godoc
// @Summary      List members
// @Tags         members
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size (1-100)"
// @Param        search  query     string  false  "Name or email fragment"
// @Param        active  query     bool    false  "Filter by active flag"
// @Success      200     {object}  api.Page[MemberSummary]
// @Failure      400     {object}  api.ErrorResponse
// @Router       /members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	page, err := api.ParsePage(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filter := ListFilter{Role: auth.RoleMember, Search: c.Query("search")}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(c, apperr.Validation("active must be true or false"))
			return
		}
		filter.Active = &active
	}

	users, total, err := h.service.List(c.Request.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MapPage(api.NewPage(users, page, total), ToMemberSummary))
}

// GetMember godoc
// @Summary      Get member
// @Tags         members
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Member ID"
// @Success      200  {object}  Profile
// @Failure      404  {object}  api.ErrorResponse
// @Router       /members/{id} [get]
func (h *Handler) GetMember(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.service.GetMember(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToProfile(*user))
}

// DeactivateMember godoc
// @Summary      Deactivate member
// @Description  Soft-deletes the account; history is kept and the member can no longer log in.
// @Tags         members
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Member ID"
// @Success      200  {object}  api.MessageResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /members/{id}/deactivate [post]
func (h *Handler) DeactivateMember(c *gin.Context) {
	id, err := api.ParseIntParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "member deactivated"})
}

// ListTrainers godoc
// @Summary      List trainers
// @Description  view=card returns compact cards for mobile, view=profile the detailed web shape.
// @Tags         trainers
// @Produce      json
// @Param        page   query     int     false  "Page"
// @Param        limit  query     int     false  "Page size (1-100)"
// @Param        view   query     string  false  "card or profile"  Enums(card, profile)
// @Success      200    {object}  api.Page[TrainerCard]
// @Router       /trainers [get]
func (h *Handler) ListTrainers(c *gin.Context) {
	page, err := api.ParsePage(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	active := true
	users, total, err := h.service.List(c.Request.Context(),
		ListFilter{Role: auth.RoleTrainer, Active: &active}, page.Limit, page.Offset())
	if err != nil {
		h.respondError(c, err)
		return
	}

	p := api.NewPage(users, page, total)
	switch c.DefaultQuery("view", "card") {
	case "card":
		c.JSON(http.StatusOK, api.MapPage(p, ToTrainerCard))
	case "profile":
		c.JSON(http.StatusOK, api.MapPage(p, ToTrainerProfile))
	default:
		h.respondError(c, apperr.Validation("view must be card or profile"))
	}
}

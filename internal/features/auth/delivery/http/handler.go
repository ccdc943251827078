package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/middleware"
	"agrihub-backend/internal/features/auth/models"
	"agrihub-backend/internal/features/auth/service"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/telegram", h.telegramLogin)
		auth.POST("/reset", h.requestReset)
		auth.POST("/reset/confirm", h.confirmReset)
	}

	authed := router.Group("/auth")
	authed.Use(middleware.RequireAuth())
	{
		authed.POST("/logout", h.logout)
	}

	admin := router.Group("/admin/codes")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("", h.listCodes)
		admin.POST("", h.generateCodes)
	}
}

// @Summary Register account
// @Description Create an account from a phone number or email, a password and a single-use product code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration data"
// @Success 201 {object} models.AuthResponse "Session token and profile"
// @Failure 400 {object} middleware.ErrorResponse "Invalid or used product code, weak password"
// @Failure 409 {object} middleware.ErrorResponse "Identifier already registered"
// @Router /auth/register [post]
func (h *AuthHandler) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Log in
// @Description Exchange an identifier and password for a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse "Session token and profile"
// @Failure 401 {object} middleware.ErrorResponse "Unknown account or wrong password"
// @Router /auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Telegram mini-app login
// @Description Validate Telegram init data and issue a lightweight session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.TelegramLoginRequest true "Raw init data"
// @Success 200 {object} models.AuthResponse "Session token"
// @Failure 401 {object} middleware.ErrorResponse "Invalid init data"
// @Router /auth/telegram [post]
func (h *AuthHandler) telegramLogin(c *gin.Context) {
	var req models.TelegramLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	resp, err := h.service.TelegramLogin(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Log out
// @Description Drop the cached session record for the current identity
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 204 "Session dropped"
// @Router /auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	if err := h.service.Logout(c.Request.Context(), id.UID); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Request password reset
// @Description Issue a single-use reset token for an email-backed account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ResetRequest true "Account identifier"
// @Success 202 {object} gin.H "Accepted regardless of account existence"
// @Failure 400 {object} middleware.ErrorResponse "Phone-backed account"
// @Router /auth/reset [post]
func (h *AuthHandler) requestReset(c *gin.Context) {
	var req models.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	if _, err := h.service.RequestPasswordReset(c.Request.Context(), req.Identifier); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	// Same response whether or not the account exists.
	c.JSON(http.StatusAccepted, gin.H{"message": "If the account exists, a reset token has been issued"})
}

// @Summary Confirm password reset
// @Description Consume a reset token and set a new password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ResetConfirmRequest true "Token and new password"
// @Success 204 "Password updated"
// @Failure 401 {object} middleware.ErrorResponse "Invalid or expired token"
// @Router /auth/reset/confirm [post]
func (h *AuthHandler) confirmReset(c *gin.Context) {
	var req models.ResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	if err := h.service.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List product codes
// @Description List all generated activation codes with their usage state
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ProductCode
// @Failure 403 {object} middleware.ErrorResponse "Admin access required"
// @Router /admin/codes [get]
func (h *AuthHandler) listCodes(c *gin.Context) {
	codes, err := h.service.ListCodes(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, codes)
}

type generateCodesRequest struct {
	Prefix string `json:"prefix"`
	Count  int    `json:"count" binding:"required"`
}

// @Summary Generate product codes
// @Description Create a batch of single-use activation codes
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body generateCodesRequest true "Prefix and count"
// @Success 201 {object} gin.H "Generated codes"
// @Failure 400 {object} middleware.ErrorResponse "Count out of range"
// @Failure 403 {object} middleware.ErrorResponse "Admin access required"
// @Router /admin/codes [post]
func (h *AuthHandler) generateCodes(c *gin.Context) {
	var req generateCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	codes, err := h.service.GenerateCodes(c.Request.Context(), req.Prefix, req.Count)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"codes": codes})
}

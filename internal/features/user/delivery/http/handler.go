package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/middleware"
	"agrihub-backend/internal/features/user/models"
	"agrihub-backend/internal/features/user/service"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	users.Use(middleware.RequireAuth())
	{
		users.GET("/me", h.getMe)
		users.PUT("/me", h.updateMe)
	}

	admin := router.Group("/admin/users")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("", h.listUsers)
		admin.PUT("/:id/channels", h.toggleChannel)
		admin.PUT("/:id/role", h.setRole)
	}
}

// @Summary Get current profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} middleware.ErrorResponse "No backing profile"
// @Router /users/me [get]
func (h *UserHandler) getMe(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	profile, err := h.service.GetProfile(c.Request.Context(), id.UID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

// @Summary Update current profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updateProfileRequest true "Profile changes"
// @Success 200 {object} models.UserResponse
// @Router /users/me [put]
func (h *UserHandler) updateMe(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	profile, err := h.service.UpdateDisplayName(c.Request.Context(), id.UID, req.DisplayName)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// @Summary List members
// @Description Bulk member list for the admin console
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserResponse
// @Failure 403 {object} middleware.ErrorResponse "Admin access required"
// @Router /admin/users [get]
func (h *UserHandler) listUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type toggleChannelRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
}

// @Summary Toggle channel membership
// @Description Flip one member's access to a restricted channel
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body toggleChannelRequest true "Channel to toggle"
// @Success 200 {object} gin.H "Updated allow-list"
// @Failure 404 {object} middleware.ErrorResponse "Unknown user or channel"
// @Router /admin/users/{id}/channels [put]
func (h *UserHandler) toggleChannel(c *gin.Context) {
	var req toggleChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	channels, err := h.service.ToggleChannel(c.Request.Context(), c.Param("id"), req.ChannelID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allowed_channels": channels})
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// @Summary Set member role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body setRoleRequest true "New role"
// @Success 204 "Role updated"
// @Failure 400 {object} middleware.ErrorResponse "Unknown role or self-edit"
// @Router /admin/users/{id}/role [put]
func (h *UserHandler) setRole(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	target := c.Param("id")
	if target == id.UID {
		middleware.AbortWithError(c, apperrors.NewValidationError("id", "admins cannot change their own role"))
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	if err := h.service.SetRole(c.Request.Context(), target, models.Role(req.Role)); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

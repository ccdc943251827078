package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agrihub-backend/internal/common/middleware"
	"agrihub-backend/internal/features/spin/service"
)

type SpinHandler struct {
	service service.SpinService
}

func NewSpinHandler(service service.SpinService) *SpinHandler {
	return &SpinHandler{
		service: service,
	}
}

func (h *SpinHandler) RegisterRoutes(router *gin.RouterGroup) {
	spin := router.Group("/spin")
	spin.Use(middleware.RequireAuth())
	{
		spin.GET("/status", h.status)
		spin.POST("", h.spin)
	}
}

// @Summary Spin status
// @Description Whether the caller may spin and the remaining cooldown in days
// @Tags spin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SpinStatus
// @Router /spin/status [get]
func (h *SpinHandler) status(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	status, err := h.service.Status(c.Request.Context(), id.UID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// @Summary Spin the wheel
// @Description Weighted prize draw; starts a 7-day cooldown
// @Tags spin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SpinResult
// @Failure 429 {object} middleware.ErrorResponse "Cooldown active"
// @Router /spin [post]
func (h *SpinHandler) spin(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	result, err := h.service.Spin(c.Request.Context(), id.UID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

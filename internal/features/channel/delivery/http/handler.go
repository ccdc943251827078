package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agrihub-backend/internal/common/middleware"
	"agrihub-backend/internal/features/channel/service"
)

type ChannelHandler struct {
	registry *service.Registry
}

func NewChannelHandler(registry *service.Registry) *ChannelHandler {
	return &ChannelHandler{
		registry: registry,
	}
}

func (h *ChannelHandler) RegisterRoutes(router *gin.RouterGroup) {
	channels := router.Group("/channels")
	channels.Use(middleware.RequireAuth())
	{
		channels.GET("", h.listChannels)
	}
}

// @Summary List channels
// @Description Full channel catalog decorated with the caller's access decision
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ChannelWithAccess
// @Router /channels [get]
func (h *ChannelHandler) listChannels(c *gin.Context) {
	access := middleware.CurrentAccess(c)
	c.JSON(http.StatusOK, h.registry.WithAccess(access.Role, access.AllowedChannels))
}
